package event

import (
	"context"

	"go.uber.org/zap"

	"focusdesk/pkg/logger"
)

// Publisher is the outbound side of the message queue.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// Forwarder republishes events to the message queue, using the event type as
// the routing key. Per-second timer ticks stay in process.
type Forwarder struct {
	pub    Publisher
	logger *zap.Logger
}

func NewForwarder(pub Publisher, logger *zap.Logger) *Forwarder {
	return &Forwarder{pub: pub, logger: logger}
}

// Notify never fails the caller; publish errors are logged.
func (f *Forwarder) Notify(ctx context.Context, e Event) {
	if e.Type == PomodoroTick {
		return
	}
	if err := f.pub.Publish(ctx, string(e.Type), e); err != nil {
		logger.WithTrace(ctx, f.logger).Warn("Failed to publish event",
			zap.String("type", string(e.Type)),
			zap.Error(err),
		)
	}
}
