package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/mklimuk/focus-pilot/pkg/integration/capture"
)

// Prefix starts every bot command.
const Prefix = "!"

// Bot wraps the Discord session and the capture handler.
type Bot struct {
	Session   *discordgo.Session
	ChannelID string
	handler   *capture.Handler
	logger    *zap.Logger
}

// NewBot creates a Discord bot. When channelID is set, commands from other
// channels are ignored and notifications go there.
func NewBot(token, channelID string, board capture.Board, logger *zap.Logger) (*Bot, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	bot := &Bot{
		Session:   dg,
		ChannelID: channelID,
		handler:   capture.NewHandler(board, Prefix),
		logger:    logger,
	}
	dg.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentsMessageContent
	dg.AddHandler(bot.messageCreate)

	return bot, nil
}

// Start opens the websocket connection
func (b *Bot) Start() error {
	return b.Session.Open()
}

// Stop closes the websocket connection
func (b *Bot) Stop() error {
	return b.Session.Close()
}

func (b *Bot) messageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Ignore messages from self
	if m.Author == nil || (s.State != nil && s.State.User != nil && m.Author.ID == s.State.User.ID) {
		return
	}
	if b.ChannelID != "" && m.ChannelID != b.ChannelID {
		return
	}

	cmd, ok := capture.ParseCommand(Prefix, m.Content)
	if !ok {
		return
	}
	if _, err := s.ChannelMessageSend(m.ChannelID, b.handler.Handle(cmd)); err != nil {
		b.logger.Warn("failed to send Discord reply", zap.String("command", cmd.Name), zap.Error(err))
	}
}

// Notify posts text to the configured channel. It is a no-op without one.
func (b *Bot) Notify(ctx context.Context, text string) error {
	if b.ChannelID == "" {
		return nil
	}
	if _, err := b.Session.ChannelMessageSend(b.ChannelID, text, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to send Discord message: %w", err)
	}
	return nil
}
