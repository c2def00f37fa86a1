package automation

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Notifier delivers a short message to the user, e.g. a chat bot.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// WithNotify wraps fn so its outcome is sent to every notifier. Delivery
// failures are logged and never change the job result.
func WithNotify(name string, fn ActionFunc, logger *zap.Logger, notifiers ...Notifier) ActionFunc {
	if len(notifiers) == 0 {
		return fn
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context) (string, error) {
		out, err := fn(ctx)
		text := fmt.Sprintf("%s: %s", name, out)
		if err != nil {
			text = fmt.Sprintf("%s failed: %v", name, err)
		}
		for _, n := range notifiers {
			if nerr := n.Notify(ctx, text); nerr != nil {
				logger.Warn("failed to deliver job notification", zap.String("job", name), zap.Error(nerr))
			}
		}
		return out, err
	}
}
