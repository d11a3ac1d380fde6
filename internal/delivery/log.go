package delivery

import (
	"context"

	"go.uber.org/zap"

	"github.com/lantenhq/reminderd/internal/pipeline"
)

// LogChannel is a delivery channel that only logs notifications, for
// development and testing.
type LogChannel struct {
	logger *zap.Logger
}

func NewLogChannel(logger *zap.Logger) *LogChannel {
	return &LogChannel{logger: logger}
}

func (l *LogChannel) Deliver(ctx context.Context, n pipeline.Notification) error {
	l.logger.Info("logging notification (development mode)",
		zap.String("email", n.Email),
		zap.String("name", n.Name),
		zap.Int("reminders", len(n.Items)),
		zap.Any("items", n.Items),
	)
	return nil
}
