package session

import (
	"context"
	"sync"
)

// Outcome is the state of a confirmation gate.
type Outcome int

const (
	// Awaiting means no signal has been accepted yet.
	Awaiting Outcome = iota
	// Confirmed means the pending action was run.
	Confirmed
	// Cancelled means the user declined; the action was not run.
	Cancelled
	// TimedOut means no signal arrived in time; the action was not run.
	TimedOut
)

func (o Outcome) String() string {
	switch o {
	case Awaiting:
		return "awaiting"
	case Confirmed:
		return "confirmed"
	case Cancelled:
		return "cancelled"
	case TimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// Action is a destructive operation held behind a Gate.
type Action func(ctx context.Context) error

// Gate holds one pending action until a single confirm, cancel or timeout
// resolves it. Exactly one of the three outcomes is ever reached, and the
// action runs at most once.
type Gate struct {
	action Action

	mu      sync.Mutex
	outcome Outcome
	err     error
}

// NewGate creates a gate guarding action.
func NewGate(action Action) *Gate {
	return &Gate{action: action}
}

// resolve moves the gate out of Awaiting. It returns false if another
// signal got there first.
func (g *Gate) resolve(to Outcome) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.outcome != Awaiting {
		return false
	}
	g.outcome = to
	return true
}

// Confirm runs the action if the gate is still awaiting. The returned bool
// is false when the gate had already resolved; the error is the action's.
func (g *Gate) Confirm(ctx context.Context) (bool, error) {
	if !g.resolve(Confirmed) {
		return false, nil
	}
	err := g.action(ctx)
	g.mu.Lock()
	g.err = err
	g.mu.Unlock()
	return true, err
}

// Cancel resolves the gate without running the action.
func (g *Gate) Cancel() bool {
	return g.resolve(Cancelled)
}

// Expire resolves the gate as timed out without running the action.
func (g *Gate) Expire() bool {
	return g.resolve(TimedOut)
}

// Outcome returns the current state.
func (g *Gate) Outcome() Outcome {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.outcome
}

// Err returns the error from the confirmed action, if any.
func (g *Gate) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.err
}
