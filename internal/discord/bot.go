// Package discord connects the command dispatcher and session manager to
// the Discord gateway.
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/matsen/tablebot/internal/command"
	"github.com/matsen/tablebot/internal/session"
)

// eventTimeout bounds the work done for a single gateway event.
const eventTimeout = 30 * time.Second

// Intents the bot needs: guild messages with content, and reactions.
const Intents = discordgo.IntentsGuildMessages |
	discordgo.IntentsGuildMessageReactions |
	discordgo.IntentsMessageContent

// Bot routes gateway events.
type Bot struct {
	session    *discordgo.Session
	dispatcher *command.Dispatcher
	sessions   *session.Manager
	logger     *slog.Logger

	mu     sync.Mutex
	selfID string
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a bot for token. Call Open to connect.
func New(token string, dispatcher *command.Dispatcher, sessions *session.Manager, logger *slog.Logger) (*Bot, error) {
	if token == "" {
		return nil, fmt.Errorf("discord token not set; put DISCORD_TOKEN in the environment or .env")
	}
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}
	s.Identify.Intents = Intents

	ctx, cancel := context.WithCancel(context.Background())
	b := &Bot{
		session:    s,
		dispatcher: dispatcher,
		sessions:   sessions,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
	}
	s.AddHandler(b.onReady)
	s.AddHandler(b.onMessageCreate)
	s.AddHandler(b.onReactionAdd)
	return b, nil
}

// Open connects to the gateway.
func (b *Bot) Open() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("opening discord gateway: %w", err)
	}
	return nil
}

// Close disconnects and abandons in-flight event handling.
func (b *Bot) Close() error {
	b.cancel()
	return b.session.Close()
}

func (b *Bot) self() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.selfID
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.mu.Lock()
	b.selfID = r.User.ID
	b.mu.Unlock()

	b.logger.Info("connected", "user", r.User.Username, "guilds", len(r.Guilds))
	status := fmt.Sprintf("Use %scommands", b.dispatcher.Prefix())
	if err := s.UpdateGameStatus(0, status); err != nil {
		b.logger.Warn("set presence", "error", err)
	}
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	msg, ok := toMessage(m, b.self())
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(b.ctx, eventTimeout)
	defer cancel()

	ch := &channel{api: s, id: m.ChannelID}
	if err := b.dispatcher.Handle(ctx, msg, ch); err != nil {
		b.logger.Warn("handling message", "channel", m.ChannelID, "error", err)
	}
}

func (b *Bot) onReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	reaction, ok := toReaction(r, b.self())
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(b.ctx, eventTimeout)
	defer cancel()

	b.sessions.HandleReaction(ctx, reaction)
}

// toMessage converts a gateway message. Bots, including this one, are
// ignored.
func toMessage(m *discordgo.MessageCreate, selfID string) (command.Message, bool) {
	if m.Message == nil || m.Author == nil || m.Author.Bot || m.Author.ID == selfID {
		return command.Message{}, false
	}
	return command.Message{
		ScopeID:   m.GuildID,
		ChannelID: m.ChannelID,
		AuthorID:  m.Author.ID,
		Content:   m.Content,
	}, true
}

// toReaction converts a gateway reaction. The bot's own reactions are
// ignored. Custom emojis keep their name:id form so they never match.
func toReaction(r *discordgo.MessageReactionAdd, selfID string) (session.Reaction, bool) {
	if r.MessageReaction == nil || r.UserID == selfID {
		return session.Reaction{}, false
	}
	return session.Reaction{
		MessageID: r.MessageID,
		UserID:    r.UserID,
		Emoji:     r.Emoji.APIName(),
	}, true
}
