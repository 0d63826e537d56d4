// Package command turns chat messages into table operations and replies.
package command

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/matsen/tablebot/internal/notify"
	"github.com/matsen/tablebot/internal/session"
	"github.com/matsen/tablebot/internal/table"
)

// Message is an incoming chat message.
type Message struct {
	// ScopeID is the server the message was posted in. Empty for direct messages.
	ScopeID   string
	ChannelID string
	AuthorID  string
	Content   string
}

// HelpEntry is one line of the command reference.
type HelpEntry struct {
	Usage       string
	Description string
}

// Help is the command reference shown by the commands command.
type Help struct {
	Title   string
	Entries []HelpEntry
	Footer  string
}

// Channel is where replies to a message are sent.
type Channel interface {
	session.Surface
	SendHelp(ctx context.Context, help Help) error
}

// call is one parsed invocation.
type call struct {
	msg  Message
	ch   Channel
	args []string
}

type handlerFunc func(ctx context.Context, c *call) error

type command struct {
	name        string
	usage       string
	description string
	minArgs     int
	run         handlerFunc
}

// Dispatcher routes prefixed messages to command handlers.
type Dispatcher struct {
	registry *table.Registry
	sessions *session.Manager
	notifier notify.Notifier
	logger   *slog.Logger
	prefix   string

	limit rate.Limit
	burst int
	now   func() time.Time

	mu        sync.Mutex
	limiters  map[string]*userLimiter
	lastSweep time.Time

	commands []*command
	byName   map[string]*command
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithPrefix sets the command prefix. The default is "!".
func WithPrefix(prefix string) Option {
	return func(d *Dispatcher) {
		d.prefix = prefix
	}
}

// WithNotifier sets where audit notices for destructive commands go.
func WithNotifier(n notify.Notifier) Option {
	return func(d *Dispatcher) {
		d.notifier = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithUserRateLimit limits each user to perSecond commands with the given
// burst. A zero rate disables limiting.
func WithUserRateLimit(perSecond float64, burst int) Option {
	return func(d *Dispatcher) {
		d.limit = rate.Limit(perSecond)
		d.burst = burst
	}
}

// NewDispatcher creates a dispatcher over registry. Interactive replies
// (paging, confirmation) are tracked by sessions.
func NewDispatcher(registry *table.Registry, sessions *session.Manager, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		sessions: sessions,
		notifier: notify.Nop{},
		logger:   slog.Default(),
		prefix:   "!",
		now:      time.Now,
		limiters: make(map[string]*userLimiter),
		byName:   make(map[string]*command),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.register()
	return d
}

// Prefix returns the command prefix.
func (d *Dispatcher) Prefix() string {
	return d.prefix
}

func (d *Dispatcher) add(c *command) {
	d.commands = append(d.commands, c)
	d.byName[c.name] = c
}

// Handle processes one message. Messages without the prefix, direct
// messages and unknown commands are ignored. Every table error becomes a
// reply; the returned error is only for failures to reply at all.
func (d *Dispatcher) Handle(ctx context.Context, msg Message, ch Channel) error {
	if msg.ScopeID == "" || !strings.HasPrefix(msg.Content, d.prefix) {
		return nil
	}
	name, rest := splitCommand(msg.Content[len(d.prefix):])
	cmd, ok := d.byName[name]
	if !ok {
		return nil
	}

	if !d.allow(msg.AuthorID) {
		d.logger.Debug("rate limited", "user", msg.AuthorID, "command", name)
		return d.reply(ctx, ch, msgSlowDown)
	}

	args, err := tokenize(rest)
	if err != nil {
		return d.reply(ctx, ch, parseErrorMessage(name))
	}
	if len(args) < cmd.minArgs {
		return d.reply(ctx, ch, "Usage: `"+d.prefix+cmd.usage+"`")
	}

	d.logger.Debug("command", "name", name, "scope", msg.ScopeID, "user", msg.AuthorID)
	if err := cmd.run(ctx, &call{msg: msg, ch: ch, args: args}); err != nil {
		var sendErr *sendError
		if errors.As(err, &sendErr) {
			return err
		}
		return d.reply(ctx, ch, d.errorMessage(name, err))
	}
	return nil
}

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// allow reports whether user may run another command now.
func (d *Dispatcher) allow(user string) bool {
	if d.limit <= 0 {
		return true
	}
	now := d.now()
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sweep(now)
	l, ok := d.limiters[user]
	if !ok {
		l = &userLimiter{limiter: rate.NewLimiter(d.limit, d.burst)}
		d.limiters[user] = l
	}
	l.lastSeen = now
	return l.limiter.AllowN(now, 1)
}

// sweep drops limiters idle long enough to have refilled their burst. A
// dropped limiter is indistinguishable from a new one, so the map only holds
// users active within one refill period.
func (d *Dispatcher) sweep(now time.Time) {
	refill := time.Duration(float64(d.burst) / float64(d.limit) * float64(time.Second))
	if now.Sub(d.lastSweep) < refill {
		return
	}
	for user, l := range d.limiters {
		if now.Sub(l.lastSeen) >= refill {
			delete(d.limiters, user)
		}
	}
	d.lastSweep = now
}

// sendError marks a failure to deliver a reply, as opposed to a table error
// that should itself be reported to the user.
type sendError struct {
	err error
}

func (e *sendError) Error() string {
	return "sending reply: " + e.err.Error()
}

func (e *sendError) Unwrap() error {
	return e.err
}

func (d *Dispatcher) reply(ctx context.Context, ch Channel, content string) error {
	if _, err := ch.Send(ctx, content); err != nil {
		return &sendError{err: err}
	}
	return nil
}

// audit reports a destructive operation. Failures are logged only.
func (d *Dispatcher) audit(ctx context.Context, message string) {
	if err := d.notifier.Notify(ctx, message); err != nil {
		d.logger.Warn("audit notification failed", "error", err)
	}
}

// HelpText returns the command reference with the current prefix.
func (d *Dispatcher) HelpText() Help {
	help := Help{Title: helpTitle, Footer: helpFooter}
	for _, c := range d.commands {
		help.Entries = append(help.Entries, HelpEntry{
			Usage:       d.prefix + c.usage,
			Description: c.description,
		})
	}
	return help
}
