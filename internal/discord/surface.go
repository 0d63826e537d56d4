package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/matsen/tablebot/internal/command"
)

// blurple is the embed color of the help message.
const blurple = 0x5865F2

// api is the part of *discordgo.Session a channel needs.
type api interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEdit(channelID, messageID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error
	MessageReactionRemove(channelID, messageID, emojiID, userID string, options ...discordgo.RequestOption) error
	MessageReactionsRemoveAll(channelID, messageID string, options ...discordgo.RequestOption) error
}

// channel sends replies to one Discord channel.
type channel struct {
	api api
	id  string
}

var _ command.Channel = (*channel)(nil)

func (c *channel) Send(ctx context.Context, content string) (string, error) {
	m, err := c.api.ChannelMessageSend(c.id, content, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return m.ID, nil
}

func (c *channel) Edit(ctx context.Context, messageID, content string) error {
	_, err := c.api.ChannelMessageEdit(c.id, messageID, content, discordgo.WithContext(ctx))
	return err
}

func (c *channel) React(ctx context.Context, messageID, emoji string) error {
	return c.api.MessageReactionAdd(c.id, messageID, emoji, discordgo.WithContext(ctx))
}

func (c *channel) Unreact(ctx context.Context, messageID, emoji, userID string) error {
	return c.api.MessageReactionRemove(c.id, messageID, emoji, userID, discordgo.WithContext(ctx))
}

func (c *channel) ClearReactions(ctx context.Context, messageID string) error {
	return c.api.MessageReactionsRemoveAll(c.id, messageID, discordgo.WithContext(ctx))
}

func (c *channel) SendHelp(ctx context.Context, help command.Help) error {
	_, err := c.api.ChannelMessageSendEmbed(c.id, helpEmbed(help), discordgo.WithContext(ctx))
	return err
}

func helpEmbed(help command.Help) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: help.Title,
		Color: blurple,
	}
	for _, e := range help.Entries {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  e.Usage,
			Value: e.Description,
		})
	}
	if help.Footer != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: help.Footer}
	}
	return embed
}
