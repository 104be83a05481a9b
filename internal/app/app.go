// Package app wires stores, services and the event bus from configuration.
// The server, the runner and the CLI all build on it.
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"focusdesk/internal/backup"
	"focusdesk/internal/event"
	"focusdesk/internal/habit"
	"focusdesk/internal/note"
	"focusdesk/internal/pomodoro"
	"focusdesk/internal/prefs"
	"focusdesk/internal/service"
	"focusdesk/internal/service/auth"
	"focusdesk/internal/stats"
	"focusdesk/internal/task"
	"focusdesk/pkg/clock"
	"focusdesk/pkg/config"
	"focusdesk/pkg/mq"
	"focusdesk/pkg/storage"
)

type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Clock     clock.Clock
	Store     *storage.Store
	Bus       *event.Bus
	Habits    *habit.Store
	Tasks     *task.Store
	Notes     *note.Store
	Stats     *stats.Aggregator
	Timer     *pomodoro.Timer
	Prefs     *prefs.Store
	Backup    *backup.Service
	Auth      *auth.Service
	Refresher *service.Refresher

	publisher *mq.Publisher
}

type Option func(*options)

type options struct {
	clock         clock.Clock
	store         *storage.Store
	timerOpts     []pomodoro.Option
	refresherOpts []service.RefresherOption
}

// WithClock replaces the wall clock (tests).
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithStore skips opening the configured backend.
func WithStore(s *storage.Store) Option {
	return func(o *options) { o.store = s }
}

func WithTimerOptions(opts ...pomodoro.Option) Option {
	return func(o *options) { o.timerOpts = append(o.timerOpts, opts...) }
}

func WithRefresherOptions(opts ...service.RefresherOption) Option {
	return func(o *options) { o.refresherOpts = append(o.refresherOpts, opts...) }
}

func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if o.clock == nil {
		loc, err := cfg.Location()
		if err != nil {
			return nil, err
		}
		o.clock = clock.New(loc)
	}

	kv := o.store
	if kv == nil {
		var err error
		kv, err = storage.Open(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
	}

	a := &App{
		Config: cfg,
		Logger: logger,
		Clock:  o.clock,
		Store:  kv,
		Bus:    event.NewBus(logger),
	}

	// MQ 不可用时降级为进程内事件
	if cfg.MQ.Enabled {
		pub, err := mq.NewPublisher(cfg.MQ.URL, logger)
		if err != nil {
			logger.Warn("Event publisher unavailable, events stay in process", zap.Error(err))
		} else {
			a.publisher = pub
			a.Bus.SubscribeAll(event.NewForwarder(pub, logger).Notify)
		}
	}

	a.Habits = habit.NewStore(ctx, kv, a.Clock, a.Bus, logger)
	a.Tasks = task.NewStore(ctx, kv, a.Clock, a.Bus, logger)
	a.Notes = note.NewStore(kv, logger)
	a.Prefs = prefs.NewStore(kv)

	a.Stats = stats.NewAggregator(ctx, kv, a.Clock, a.Habits, logger)
	a.Stats.Subscribe(a.Bus)

	timerOpts := append([]pomodoro.Option{
		pomodoro.WithDurations(
			time.Duration(cfg.Timer.WorkMinutes)*time.Minute,
			time.Duration(cfg.Timer.BreakMinutes)*time.Minute,
		),
	}, o.timerOpts...)
	a.Timer = pomodoro.NewTimer(a.Clock, a.Bus, logger, timerOpts...)
	a.Tasks.SetSelectionListener(a.Timer)

	a.Backup = backup.NewService(a.Habits, a.Tasks, a.Clock, a.Bus, logger)
	a.Auth = auth.NewService(cfg.Auth, a.Clock, logger)
	a.Refresher = service.NewRefresher(a.Habits, cfg.Runner.Interval, logger, o.refresherOpts...)

	logger.Info("Application initialized",
		zap.String("backend", kv.BackendName()),
		zap.Bool("mq", a.publisher != nil),
		zap.Bool("auth", a.Auth.Enabled()),
	)
	return a, nil
}

// Close stops the timer and releases connections.
func (a *App) Close() {
	a.Timer.Pause()
	if a.publisher != nil {
		a.publisher.Close()
	}
	if err := a.Store.Close(); err != nil {
		a.Logger.Error("Failed to close store", zap.Error(err))
	}
}
