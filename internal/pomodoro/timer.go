// Package pomodoro implements the work/break countdown timer.
//
// The timer ticks once per interval in its own goroutine while running. Each
// tick emits pomodoro.tick; the end of a work session emits
// pomodoro.completed carrying the selected task. The timer never starts the
// next phase on its own.
package pomodoro

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"focusdesk/contracts/mq"
	"focusdesk/internal/calendar"
	"focusdesk/internal/event"
	"focusdesk/pkg/clock"
	"focusdesk/pkg/logger"
)

type Mode string

const (
	ModeWork  Mode = "work"
	ModeBreak Mode = "break"
)

const (
	DefaultWork  = 25 * time.Minute
	DefaultBreak = 5 * time.Minute
)

var ErrInvalidDuration = errors.New("durations must be at least one second")

type Snapshot struct {
	Mode      Mode   `json:"mode"`
	Remaining int    `json:"remaining_seconds"`
	Total     int    `json:"total_seconds"`
	Running   bool   `json:"running"`
	TaskID    string `json:"task_id,omitempty"`
}

type Option func(*Timer)

// WithInterval sets the real time between ticks; each tick still counts down
// one second. Tests use it to run a session quickly.
func WithInterval(d time.Duration) Option {
	return func(t *Timer) {
		if d > 0 {
			t.interval = d
		}
	}
}

func WithDurations(work, brk time.Duration) Option {
	return func(t *Timer) {
		if work >= time.Second && brk >= time.Second {
			t.work, t.brk = work, brk
		}
	}
}

type Timer struct {
	mu        sync.Mutex
	work      time.Duration
	brk       time.Duration
	remaining time.Duration
	mode      Mode
	taskID    string
	running   bool
	cancel    context.CancelFunc
	done      chan struct{}

	interval time.Duration
	clock    clock.Clock
	notifier event.Notifier
	logger   *zap.Logger
}

func NewTimer(clk clock.Clock, notifier event.Notifier, logger *zap.Logger, opts ...Option) *Timer {
	t := &Timer{
		work:     DefaultWork,
		brk:      DefaultBreak,
		mode:     ModeWork,
		interval: time.Second,
		clock:    clk,
		notifier: notifier,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.remaining = t.work
	return t
}

// Start begins ticking. It is a no-op while already running. Cancelling ctx
// stops the timer like Pause.
func (t *Timer) Start(ctx context.Context) {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	t.running = true
	t.cancel = cancel
	t.done = done
	t.mu.Unlock()

	logger.WithTrace(ctx, t.logger).Info("Timer started", zap.String("mode", string(t.Snapshot().Mode)))
	go t.run(runCtx, done)
}

func (t *Timer) run(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.mu.Lock()
			if t.done == done {
				t.running = false
				t.cancel = nil
				t.done = nil
			}
			t.mu.Unlock()
			return
		case <-ticker.C:
			t.Tick(ctx)
		}
	}
}

// Pause stops ticking and waits for the ticker goroutine to exit. It must not
// be called from an event handler running on the ticker goroutine.
func (t *Timer) Pause() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	cancel, done := t.cancel, t.done
	t.stopLocked()
	t.mu.Unlock()

	cancel()
	<-done
}

// Reset pauses and rewinds to the start of a work session.
func (t *Timer) Reset(ctx context.Context) {
	t.Pause()

	t.mu.Lock()
	t.mode = ModeWork
	t.remaining = t.work
	snap := t.snapshotLocked()
	t.mu.Unlock()

	t.emitTick(ctx, snap)
}

// Tick counts one second down. Reaching zero completes the current phase.
func (t *Timer) Tick(ctx context.Context) {
	t.mu.Lock()
	if t.remaining > 0 {
		t.remaining -= time.Second
	}
	if t.remaining > 0 {
		snap := t.snapshotLocked()
		t.mu.Unlock()
		t.emitTick(ctx, snap)
		return
	}

	// phase finished: stop without waiting, we may be on the ticker goroutine
	if t.running {
		cancel := t.cancel
		t.stopLocked()
		cancel()
	}
	finished := t.mode
	task := t.taskID
	if finished == ModeWork {
		t.mode = ModeBreak
		t.remaining = t.brk
	} else {
		t.mode = ModeWork
		t.remaining = t.work
	}
	snap := t.snapshotLocked()
	t.mu.Unlock()

	log := logger.WithTrace(ctx, t.logger)
	log.Info("Timer phase completed",
		zap.String("finished", string(finished)),
		zap.String("next", string(snap.Mode)),
		zap.String("task_id", task),
	)
	if finished == ModeWork {
		now := t.clock.Now()
		t.notifier.Notify(ctx, event.New(ctx, event.PomodoroCompleted, now, mq.PomodoroCompletedPayload{
			TaskID: task,
			Date:   calendar.Key(now),
		}))
	}
	t.emitTick(ctx, snap)
}

func (t *Timer) SetTask(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.taskID = id
}

// SetDurations changes both phase lengths. When idle in work mode the new work
// length is loaded immediately; otherwise it applies from the next phase.
func (t *Timer) SetDurations(ctx context.Context, work, brk time.Duration) error {
	if work < time.Second || brk < time.Second {
		return ErrInvalidDuration
	}

	t.mu.Lock()
	t.work = work.Truncate(time.Second)
	t.brk = brk.Truncate(time.Second)
	if t.running || t.mode != ModeWork {
		t.mu.Unlock()
		return nil
	}
	t.remaining = t.work
	snap := t.snapshotLocked()
	t.mu.Unlock()

	t.emitTick(ctx, snap)
	return nil
}

func (t *Timer) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Timer) stopLocked() {
	t.running = false
	t.cancel = nil
	t.done = nil
}

func (t *Timer) snapshotLocked() Snapshot {
	total := t.work
	if t.mode == ModeBreak {
		total = t.brk
	}
	return Snapshot{
		Mode:      t.mode,
		Remaining: int(t.remaining / time.Second),
		Total:     int(total / time.Second),
		Running:   t.running,
		TaskID:    t.taskID,
	}
}

func (t *Timer) emitTick(ctx context.Context, snap Snapshot) {
	t.notifier.Notify(ctx, event.New(ctx, event.PomodoroTick, t.clock.Now(), mq.PomodoroTickPayload{
		Mode:      string(snap.Mode),
		Remaining: snap.Remaining,
		Total:     snap.Total,
	}))
}
