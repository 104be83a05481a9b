package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"focusdesk/contracts/mq"
	"focusdesk/pkg/metrics"
	"focusdesk/pkg/otel"
)

// StreakSource is the habit store as seen by the refresher.
type StreakSource interface {
	Reload(ctx context.Context)
	RefreshStreaks(ctx context.Context) []mq.HabitStreakChangedPayload
}

// Refresher periodically recomputes cached streaks so a chain whose grace
// period has passed drops to 0 even when nobody touches the habit.
type Refresher struct {
	habits   StreakSource
	interval time.Duration
	reload   bool
	logger   *zap.Logger
}

type RefresherOption func(*Refresher)

// WithReload re-reads habits from storage before every pass. The standalone
// runner needs it because another process owns the writes.
func WithReload() RefresherOption {
	return func(r *Refresher) { r.reload = true }
}

func NewRefresher(habits StreakSource, interval time.Duration, logger *zap.Logger, opts ...RefresherOption) *Refresher {
	if interval <= 0 {
		interval = time.Minute
	}
	r := &Refresher{
		habits:   habits,
		interval: interval,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunOnce performs one pass and returns how many streaks changed.
func (r *Refresher) RunOnce(ctx context.Context) int {
	ctx, span := otel.StartSpan(ctx, "streak.refresh")
	defer span.End()

	if r.reload {
		r.habits.Reload(ctx)
	}
	changed := r.habits.RefreshStreaks(ctx)
	metrics.AddStreakRefreshChanges(len(changed))
	span.SetAttributes(attribute.Int("focusdesk.streak.changed", len(changed)))

	if len(changed) == 0 {
		r.logger.Debug("No streak changes")
		return 0
	}
	for _, c := range changed {
		r.logger.Info("Streak changed",
			zap.String("habit_id", c.HabitID),
			zap.String("name", c.Name),
			zap.Int("previous", c.Previous),
			zap.Int("streak", c.Streak),
		)
	}
	r.logger.Info("Streak refresh completed", zap.Int("changed_count", len(changed)))
	return len(changed)
}

// Run refreshes immediately and then on every interval until ctx is done.
func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Streak refresher stopped")
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}
