package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/mklimuk/focus-pilot/pkg/integration/capture"
)

// Prefix starts every bot command.
const Prefix = "/"

// Bot wraps the Telegram bot API and the capture handler.
type Bot struct {
	API     *tgbotapi.BotAPI
	ChatID  int64
	handler *capture.Handler
	logger  *zap.Logger
	stopCh  chan struct{}
}

// NewBot creates a Telegram bot. When chatID is non-zero only that chat may
// issue commands and notifications are sent there.
func NewBot(token string, chatID int64, board capture.Board, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("error creating Telegram bot: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Bot{
		API:     api,
		ChatID:  chatID,
		handler: capture.NewHandler(board, Prefix),
		logger:  logger,
		stopCh:  make(chan struct{}),
	}, nil
}

// Start begins polling for updates in a goroutine
func (b *Bot) Start() error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := b.API.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-b.stopCh:
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				if update.Message != nil {
					b.handleMessage(update.Message)
				}
			}
		}
	}()

	b.logger.Info("telegram bot started", zap.String("user", b.API.Self.UserName))
	return nil
}

// Stop stops polling for updates
func (b *Bot) Stop() {
	close(b.stopCh)
	b.API.StopReceivingUpdates()
}

// Allowed reports whether chatID may issue commands.
func Allowed(configured, chatID int64) bool {
	return configured == 0 || configured == chatID
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	if !Allowed(b.ChatID, msg.Chat.ID) {
		b.logger.Debug("ignoring message from unknown chat", zap.Int64("chat", msg.Chat.ID))
		return
	}
	cmd, ok := capture.ParseCommand(Prefix, msg.Text)
	if !ok {
		return
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, b.handler.Handle(cmd))
	if _, err := b.API.Send(reply); err != nil {
		b.logger.Warn("failed to send Telegram reply", zap.String("command", cmd.Name), zap.Error(err))
	}
}

// Notify sends text to the configured chat. It is a no-op without one.
func (b *Bot) Notify(ctx context.Context, text string) error {
	if b.ChatID == 0 {
		return nil
	}
	if _, err := b.API.Send(tgbotapi.NewMessage(b.ChatID, text)); err != nil {
		return fmt.Errorf("failed to send Telegram message: %w", err)
	}
	return nil
}
