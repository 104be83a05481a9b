// Package stats keeps per-day pomodoro and task-completion counters and
// combines them with habit progress into daily summaries.
package stats

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"focusdesk/contracts/mq"
	"focusdesk/internal/calendar"
	"focusdesk/internal/event"
	"focusdesk/internal/model"
	"focusdesk/pkg/clock"
	"focusdesk/pkg/metrics"
	"focusdesk/pkg/storage"
)

const StorageKey = "stats"

var ErrInvalidDate = errors.New("date must be YYYY-MM-DD")

// HabitCounter reports habit totals for a day.
type HabitCounter interface {
	StatsOn(ctx context.Context, date string) model.HabitStats
}

type Aggregator struct {
	mu     sync.Mutex
	stats  model.Stats
	kv     *storage.Store
	clock  clock.Clock
	habits HabitCounter
	logger *zap.Logger
}

func NewAggregator(ctx context.Context, kv *storage.Store, clk clock.Clock, habits HabitCounter, logger *zap.Logger) *Aggregator {
	a := &Aggregator{
		kv:     kv,
		clock:  clk,
		habits: habits,
		logger: logger,
	}
	a.stats = a.load(ctx)
	return a
}

func (a *Aggregator) load(ctx context.Context) model.Stats {
	st := storage.Get(ctx, a.kv, StorageKey, model.NewStats())
	if st.Pomodoros == nil {
		st.Pomodoros = map[string]int{}
	}
	if st.TasksCompleted == nil {
		st.TasksCompleted = map[string]int{}
	}
	return st
}

// Reload re-reads the counters from storage.
func (a *Aggregator) Reload(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stats = a.load(ctx)
}

// Subscribe wires the aggregator to completion events.
func (a *Aggregator) Subscribe(bus *event.Bus) {
	bus.Subscribe(event.PomodoroCompleted, func(ctx context.Context, e event.Event) {
		date := ""
		if p, ok := e.Payload.(mq.PomodoroCompletedPayload); ok {
			date = p.Date
		}
		a.RecordPomodoroOn(ctx, date)
	})
	bus.Subscribe(event.TaskCompleted, func(ctx context.Context, e event.Event) {
		date := ""
		if p, ok := e.Payload.(mq.TaskCompletedPayload); ok {
			date = p.Date
		}
		a.RecordTaskCompletionOn(ctx, date)
	})
}

// RecordPomodoro counts a finished work session today and returns today's total.
func (a *Aggregator) RecordPomodoro(ctx context.Context) int {
	return a.RecordPomodoroOn(ctx, "")
}

// RecordPomodoroOn counts a finished work session on date (today when empty or invalid).
func (a *Aggregator) RecordPomodoroOn(ctx context.Context, date string) int {
	n := a.increment(ctx, func(st *model.Stats) map[string]int { return st.Pomodoros }, date)
	metrics.IncrementPomodoroCompleted()
	return n
}

func (a *Aggregator) RecordTaskCompletion(ctx context.Context) int {
	return a.RecordTaskCompletionOn(ctx, "")
}

func (a *Aggregator) RecordTaskCompletionOn(ctx context.Context, date string) int {
	n := a.increment(ctx, func(st *model.Stats) map[string]int { return st.TasksCompleted }, date)
	metrics.IncrementTaskCompleted()
	return n
}

func (a *Aggregator) increment(ctx context.Context, counter func(*model.Stats) map[string]int, date string) int {
	if !calendar.Valid(date) {
		date = calendar.Key(a.clock.Now())
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	m := counter(&a.stats)
	m[date]++
	// best effort, failure already logged by storage
	_ = a.kv.Set(ctx, StorageKey, a.stats)

	a.logger.Debug("Stats counter incremented", zap.String("date", date), zap.Int("count", m[date]))
	return m[date]
}

func (a *Aggregator) PomodoroCount(date string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats.Pomodoros[date]
}

func (a *Aggregator) TasksCompletedCount(date string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats.TasksCompleted[date]
}

// Today returns today's date key.
func (a *Aggregator) Today() string {
	return calendar.Key(a.clock.Now())
}

// Summary combines the counters and habit progress for date (today when empty).
func (a *Aggregator) Summary(ctx context.Context, date string) (model.Summary, error) {
	if date == "" {
		date = a.Today()
	}
	if !calendar.Valid(date) {
		return model.Summary{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}

	hs := a.habits.StatsOn(ctx, date)
	return model.Summary{
		Date:            date,
		Pomodoros:       a.PomodoroCount(date),
		TasksCompleted:  a.TasksCompletedCount(date),
		HabitsCompleted: hs.CompletedToday,
		HabitsTotal:     hs.TotalHabits,
	}, nil
}

// Weekly returns pomodoro counts for the seven days ending at date, oldest first.
func (a *Aggregator) Weekly(ctx context.Context, date string) ([]model.DayCount, error) {
	if date == "" {
		date = a.Today()
	}
	end, err := calendar.Parse(date)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	days := calendar.LastDays(end, 7)
	out := make([]model.DayCount, 0, len(days))
	for _, d := range days {
		out = append(out, model.DayCount{Date: d, Count: a.stats.Pomodoros[d]})
	}
	return out, nil
}
