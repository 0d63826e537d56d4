package discord

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"

	"github.com/matsen/tablebot/internal/command"
	"github.com/matsen/tablebot/internal/session"
)

// fakeAPI records REST calls instead of making them.
type fakeAPI struct {
	calls []string
	embed *discordgo.MessageEmbed
	fail  bool
}

func (f *fakeAPI) ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.calls = append(f.calls, "send "+channelID+" "+content)
	if f.fail {
		return nil, errors.New("403 Forbidden")
	}
	return &discordgo.Message{ID: "m1", ChannelID: channelID}, nil
}

func (f *fakeAPI) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.calls = append(f.calls, "embed "+channelID)
	f.embed = embed
	return &discordgo.Message{ID: "m2"}, nil
}

func (f *fakeAPI) ChannelMessageEdit(channelID, messageID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.calls = append(f.calls, "edit "+messageID+" "+content)
	return &discordgo.Message{ID: messageID}, nil
}

func (f *fakeAPI) MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error {
	f.calls = append(f.calls, "react "+messageID+" "+emojiID)
	return nil
}

func (f *fakeAPI) MessageReactionRemove(channelID, messageID, emojiID, userID string, options ...discordgo.RequestOption) error {
	f.calls = append(f.calls, "unreact "+messageID+" "+emojiID+" "+userID)
	return nil
}

func (f *fakeAPI) MessageReactionsRemoveAll(channelID, messageID string, options ...discordgo.RequestOption) error {
	f.calls = append(f.calls, "clear "+messageID)
	return nil
}

func TestChannel(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	ch := &channel{api: api, id: "c9"}

	id, err := ch.Send(ctx, "hello")
	if err != nil || id != "m1" {
		t.Fatalf("Send = %q, %v", id, err)
	}
	ch.Edit(ctx, "m1", "page 2")
	ch.React(ctx, "m1", session.EmojiNext)
	ch.Unreact(ctx, "m1", session.EmojiNext, "u1")
	ch.ClearReactions(ctx, "m1")

	want := []string{
		"send c9 hello",
		"edit m1 page 2",
		"react m1 " + session.EmojiNext,
		"unreact m1 " + session.EmojiNext + " u1",
		"clear m1",
	}
	if len(api.calls) != len(want) {
		t.Fatalf("calls = %q", api.calls)
	}
	for i := range want {
		if api.calls[i] != want[i] {
			t.Errorf("call %d = %q, want %q", i, api.calls[i], want[i])
		}
	}

	api.fail = true
	if _, err := ch.Send(ctx, "x"); err == nil {
		t.Error("Send error not returned")
	}
}

func TestChannel_SendHelp(t *testing.T) {
	api := &fakeAPI{}
	ch := &channel{api: api, id: "c1"}
	help := command.Help{
		Title:   "Commands",
		Entries: []command.HelpEntry{{Usage: "!newtable <name>", Description: "Create a new table"}},
		Footer:  "footer",
	}
	if err := ch.SendHelp(context.Background(), help); err != nil {
		t.Fatal(err)
	}
	e := api.embed
	if e == nil || e.Title != "Commands" || e.Color != blurple {
		t.Fatalf("embed = %+v", e)
	}
	if len(e.Fields) != 1 || e.Fields[0].Name != "!newtable <name>" || e.Fields[0].Inline {
		t.Errorf("fields = %+v", e.Fields)
	}
	if e.Footer == nil || e.Footer.Text != "footer" {
		t.Errorf("footer = %+v", e.Footer)
	}
}

func TestToMessage(t *testing.T) {
	mk := func(guild string, author *discordgo.User) *discordgo.MessageCreate {
		return &discordgo.MessageCreate{Message: &discordgo.Message{
			GuildID:   guild,
			ChannelID: "c1",
			Author:    author,
			Content:   "!viewtable",
		}}
	}

	msg, ok := toMessage(mk("g1", &discordgo.User{ID: "u1"}), "self")
	if !ok {
		t.Fatal("user message dropped")
	}
	want := command.Message{ScopeID: "g1", ChannelID: "c1", AuthorID: "u1", Content: "!viewtable"}
	if msg != want {
		t.Errorf("msg = %+v", msg)
	}

	// Direct messages pass through with an empty scope; the dispatcher drops them.
	if msg, ok := toMessage(mk("", &discordgo.User{ID: "u1"}), "self"); !ok || msg.ScopeID != "" {
		t.Errorf("DM = %+v, %v", msg, ok)
	}

	for name, m := range map[string]*discordgo.MessageCreate{
		"bot":       mk("g1", &discordgo.User{ID: "b1", Bot: true}),
		"self":      mk("g1", &discordgo.User{ID: "self"}),
		"no author": mk("g1", nil),
	} {
		if _, ok := toMessage(m, "self"); ok {
			t.Errorf("%s message accepted", name)
		}
	}
}

func TestToReaction(t *testing.T) {
	mk := func(user, emoji, emojiID string) *discordgo.MessageReactionAdd {
		return &discordgo.MessageReactionAdd{MessageReaction: &discordgo.MessageReaction{
			UserID:    user,
			MessageID: "m1",
			Emoji:     discordgo.Emoji{Name: emoji, ID: emojiID},
		}}
	}

	r, ok := toReaction(mk("u1", session.EmojiConfirm, ""), "self")
	if !ok || r != (session.Reaction{MessageID: "m1", UserID: "u1", Emoji: session.EmojiConfirm}) {
		t.Errorf("reaction = %+v, %v", r, ok)
	}
	if _, ok := toReaction(mk("self", session.EmojiConfirm, ""), "self"); ok {
		t.Error("own reaction accepted")
	}
	if r, _ := toReaction(mk("u1", "party", "123"), "self"); r.Emoji != "party:123" {
		t.Errorf("custom emoji = %q", r.Emoji)
	}
}
