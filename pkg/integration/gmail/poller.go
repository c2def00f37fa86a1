package gmail

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mklimuk/focus-pilot/pkg/model"
)

// Handler processes one unread mail.
type Handler func(ctx context.Context, m Mail) error

// Poller checks for new emails periodically
type Poller struct {
	service  MailAPI
	query    string
	interval time.Duration
	handler  Handler
	logger   *zap.Logger
}

// NewPoller creates a new Poller
func NewPoller(service MailAPI, query string, interval time.Duration, handler Handler, logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		service:  service,
		query:    query,
		interval: interval,
		handler:  handler,
		logger:   logger,
	}
}

// Start polls until ctx is cancelled.
func (p *Poller) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := p.Poll(ctx); err != nil {
				p.logger.Warn("gmail poll failed", zap.Error(err))
			}
		case <-ctx.Done():
			return
		}
	}
}

// Poll handles every unread mail and marks handled ones read. It returns the
// number of mails handled.
func (p *Poller) Poll(ctx context.Context) (int, error) {
	mails, err := p.service.FetchUnread(ctx, p.query)
	if err != nil {
		return 0, err
	}

	handled := 0
	for _, m := range mails {
		if err := p.handler(ctx, m); err != nil {
			p.logger.Warn("failed to handle email", zap.String("id", m.ID), zap.Error(err))
			continue
		}
		if err := p.service.MarkRead(ctx, m.ID); err != nil {
			p.logger.Warn("failed to mark email read", zap.String("id", m.ID), zap.Error(err))
		}
		handled++
	}
	return handled, nil
}

// TaskAdder creates tasks.
type TaskAdder interface {
	AddTask(t model.Task) (model.Task, error)
}

// TaskFromMail returns a handler that turns a mail into an important task
// titled after its subject.
func TaskFromMail(board TaskAdder) Handler {
	return func(ctx context.Context, m Mail) error {
		title := strings.TrimSpace(m.Subject)
		if title == "" {
			title = "Email from " + m.From
		}
		if _, err := board.AddTask(model.Task{Title: title, Important: true}); err != nil {
			return fmt.Errorf("failed to add task from email: %w", err)
		}
		return nil
	}
}
