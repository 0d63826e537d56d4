// Package session runs the short-lived interactive exchanges that follow a
// command: paging through a table and confirming a destructive action.
//
// Sessions are event driven. The chat gateway feeds reactions into
// Manager.HandleReaction and a timer expires each session; nothing blocks
// waiting for input.
package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Reaction emojis used as input affordances.
const (
	EmojiPrevious = "⬅️"
	EmojiNext     = "➡️"
	EmojiConfirm  = "✅"
	EmojiCancel   = "❌"
)

// Default timeouts.
const (
	DefaultPagerIdle      = 60 * time.Second
	DefaultConfirmTimeout = 30 * time.Second
)

// Surface is the channel a session's message lives in.
type Surface interface {
	Send(ctx context.Context, content string) (messageID string, err error)
	Edit(ctx context.Context, messageID, content string) error
	React(ctx context.Context, messageID, emoji string) error
	Unreact(ctx context.Context, messageID, emoji, userID string) error
	ClearReactions(ctx context.Context, messageID string) error
}

// Reaction is an incoming reaction-add event.
type Reaction struct {
	MessageID string
	UserID    string
	Emoji     string
}

// ResolveFunc is called once when a confirmation gate resolves.
// err is the action's error when the outcome is Confirmed.
type ResolveFunc func(ctx context.Context, outcome Outcome, err error)

type idKey struct{}

// IDFromContext returns the ID of the session whose Action or ResolveFunc
// received ctx. The same ID appears in the manager's log lines.
func IDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(idKey{}).(string)
	return id, ok
}

// NormalizeEmoji strips variation selectors so "⬅" and "⬅️" compare equal.
func NormalizeEmoji(s string) string {
	return strings.ReplaceAll(s, "\ufe0f", "")
}

type entry struct {
	id        string
	owner     string
	messageID string
	surface   Surface
	pager     *Pager
	gate      *Gate
	onResolve ResolveFunc
	timer     *time.Timer
}

// Manager tracks open sessions by the message they are attached to.
type Manager struct {
	logger         *slog.Logger
	pagerIdle      time.Duration
	confirmTimeout time.Duration

	mu       sync.Mutex
	sessions map[string]*entry
	closed   bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithPagerIdle sets how long a pager waits for navigation before closing.
func WithPagerIdle(d time.Duration) Option {
	return func(m *Manager) {
		m.pagerIdle = d
	}
}

// WithConfirmTimeout sets how long a confirmation prompt stays open.
func WithConfirmTimeout(d time.Duration) Option {
	return func(m *Manager) {
		m.confirmTimeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates an empty session manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		logger:         slog.Default(),
		pagerIdle:      DefaultPagerIdle,
		confirmTimeout: DefaultConfirmTimeout,
		sessions:       make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ShowPager sends page 1 of p. When the table fits on one page the pager
// closes immediately; otherwise navigation reactions are attached and owner
// may page with them until the pager sits idle for the idle timeout.
// If page 1 cannot be rendered nothing is sent and the render error is
// returned.
func (m *Manager) ShowPager(ctx context.Context, s Surface, owner string, p *Pager) (string, error) {
	content, err := p.Render()
	if err != nil {
		p.Close()
		return "", err
	}
	msgID, err := s.Send(ctx, content)
	if err != nil {
		return "", err
	}
	if !p.Interactive() {
		p.Close()
		return msgID, nil
	}

	e := &entry{
		id:        uuid.NewString(),
		owner:     owner,
		messageID: msgID,
		surface:   s,
		pager:     p,
	}
	if !m.register(e, m.pagerIdle) {
		p.Close()
		return msgID, nil
	}
	m.logger.Debug("pager opened", "session", e.id, "table", p.Title(), "pages", p.TotalPages())

	for _, emoji := range []string{EmojiPrevious, EmojiNext} {
		if err := s.React(ctx, msgID, emoji); err != nil {
			m.logger.Warn("attach reaction", "session", e.id, "emoji", emoji, "error", err)
		}
	}
	return msgID, nil
}

// AskConfirm sends prompt with confirm and cancel reactions. action runs only
// if owner confirms before the timeout. onResolve is called exactly once with
// the outcome.
func (m *Manager) AskConfirm(ctx context.Context, s Surface, owner, prompt string, action Action, onResolve ResolveFunc) (string, error) {
	msgID, err := s.Send(ctx, prompt)
	if err != nil {
		return "", err
	}

	e := &entry{
		id:        uuid.NewString(),
		owner:     owner,
		messageID: msgID,
		surface:   s,
		gate:      NewGate(action),
		onResolve: onResolve,
	}
	if !m.register(e, m.confirmTimeout) {
		return msgID, nil
	}
	m.logger.Debug("confirmation opened", "session", e.id, "message", msgID)

	for _, emoji := range []string{EmojiConfirm, EmojiCancel} {
		if err := s.React(ctx, msgID, emoji); err != nil {
			m.logger.Warn("attach reaction", "session", e.id, "emoji", emoji, "error", err)
		}
	}
	return msgID, nil
}

// HandleReaction routes a reaction to the session attached to its message.
// It returns true if the reaction was accepted. Reactions on unknown
// messages, from anyone but the session owner, or with an unrelated emoji
// are ignored and left in place.
func (m *Manager) HandleReaction(ctx context.Context, r Reaction) bool {
	m.mu.Lock()
	e := m.sessions[r.MessageID]
	m.mu.Unlock()
	if e == nil || r.UserID != e.owner {
		return false
	}

	emoji := NormalizeEmoji(r.Emoji)
	if e.pager != nil {
		return m.navigate(ctx, e, r, emoji)
	}
	return m.resolve(ctx, e, emoji)
}

func (m *Manager) navigate(ctx context.Context, e *entry, r Reaction, emoji string) bool {
	var changed bool
	switch emoji {
	case NormalizeEmoji(EmojiPrevious):
		changed = e.pager.Previous()
	case NormalizeEmoji(EmojiNext):
		changed = e.pager.Next()
	default:
		return false
	}
	if e.pager.Closed() {
		return false
	}
	e.timer.Reset(m.pagerIdle)

	if changed {
		content, err := e.pager.Render()
		if err != nil {
			m.logger.Warn("render page", "session", e.id, "page", e.pager.Page(), "error", err)
		} else if err := e.surface.Edit(ctx, e.messageID, content); err != nil {
			m.logger.Warn("edit page", "session", e.id, "error", err)
		}
	}
	if err := e.surface.Unreact(ctx, e.messageID, r.Emoji, r.UserID); err != nil {
		m.logger.Warn("remove reaction", "session", e.id, "error", err)
	}
	return true
}

func (m *Manager) resolve(ctx context.Context, e *entry, emoji string) bool {
	var outcome Outcome
	switch emoji {
	case NormalizeEmoji(EmojiConfirm):
		outcome = Confirmed
	case NormalizeEmoji(EmojiCancel):
		outcome = Cancelled
	default:
		return false
	}
	if !m.remove(e) {
		return false
	}
	ctx = context.WithValue(ctx, idKey{}, e.id)

	var err error
	if outcome == Confirmed {
		var ran bool
		ran, err = e.gate.Confirm(ctx)
		if !ran {
			return false
		}
	} else if !e.gate.Cancel() {
		return false
	}
	m.logger.Info("confirmation resolved", "session", e.id, "outcome", outcome.String(), "error", err)
	if e.onResolve != nil {
		e.onResolve(ctx, outcome, err)
	}
	return true
}

// expire closes the session attached to e when its timer fires.
func (m *Manager) expire(e *entry) {
	if !m.remove(e) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	ctx = context.WithValue(ctx, idKey{}, e.id)

	if e.pager != nil {
		e.pager.Close()
		m.logger.Debug("pager closed", "session", e.id, "page", e.pager.Page())
		if err := e.surface.ClearReactions(ctx, e.messageID); err != nil {
			m.logger.Warn("clear reactions", "session", e.id, "error", err)
		}
		return
	}
	if e.gate.Expire() {
		m.logger.Info("confirmation resolved", "session", e.id, "outcome", TimedOut.String())
		if e.onResolve != nil {
			e.onResolve(ctx, TimedOut, nil)
		}
	}
}

// register stores e and starts its timer. It returns false once the
// manager is closed.
func (m *Manager) register(e *entry, timeout time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false
	}
	m.sessions[e.messageID] = e
	e.timer = time.AfterFunc(timeout, func() { m.expire(e) })
	return true
}

// remove detaches e. Only the first caller for a given session gets true.
func (m *Manager) remove(e *entry) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions[e.messageID] != e {
		return false
	}
	delete(m.sessions, e.messageID)
	e.timer.Stop()
	return true
}

// Active returns the number of open sessions.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close drops every open session without resolving it. Pending actions are
// not run.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, e := range m.sessions {
		e.timer.Stop()
		if e.pager != nil {
			e.pager.Close()
		}
		delete(m.sessions, id)
	}
	m.closed = true
}
