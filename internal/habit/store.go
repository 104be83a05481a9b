// Package habit owns the habit collection: creation, deletion, per-day
// completion toggles and the cached streak of each habit.
package habit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"focusdesk/contracts/mq"
	"focusdesk/internal/calendar"
	"focusdesk/internal/event"
	"focusdesk/internal/model"
	"focusdesk/internal/streak"
	"focusdesk/pkg/clock"
	"focusdesk/pkg/logger"
	"focusdesk/pkg/metrics"
	"focusdesk/pkg/storage"
)

// StorageKey is where the whole collection is persisted.
const StorageKey = "habits_data"

var (
	ErrNotFound    = errors.New("habit not found")
	ErrInvalidName = errors.New("habit name is required")
	ErrInvalidDate = errors.New("date must be YYYY-MM-DD")
	ErrFutureDate  = errors.New("cannot mark a day after today")
)

// Store keeps the habits in memory and rewrites the full collection on every
// mutation.
type Store struct {
	mu       sync.Mutex
	habits   []model.Habit
	kv       *storage.Store
	clock    clock.Clock
	notifier event.Notifier
	logger   *zap.Logger
}

func NewStore(ctx context.Context, kv *storage.Store, clk clock.Clock, notifier event.Notifier, logger *zap.Logger) *Store {
	s := &Store{
		kv:       kv,
		clock:    clk,
		notifier: notifier,
		logger:   logger,
	}
	s.habits = s.load(ctx)
	logger.Debug("Loaded habits", zap.Int("count", len(s.habits)))
	return s
}

func (s *Store) load(ctx context.Context) []model.Habit {
	habits := storage.Get(ctx, s.kv, StorageKey, []model.Habit{})
	for i := range habits {
		if habits[i].History == nil {
			habits[i].History = map[string]bool{}
		}
	}
	return habits
}

// Reload re-reads the collection from storage, discarding the in-memory copy.
func (s *Store) Reload(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.habits = s.load(ctx)
}

// Add creates a habit with empty history. An empty category becomes "General".
func (s *Store) Add(ctx context.Context, name, category string) (model.Habit, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Habit{}, ErrInvalidName
	}
	category = strings.TrimSpace(category)
	if category == "" {
		category = model.DefaultCategory
	}

	now := s.clock.Now()
	h := model.Habit{
		ID:        uuid.NewString(),
		Name:      name,
		Category:  category,
		StartDate: now,
		History:   map[string]bool{},
		Streak:    0,
	}

	s.mu.Lock()
	s.habits = append(s.habits, h)
	s.save(ctx)
	s.mu.Unlock()

	logger.WithTrace(ctx, s.logger).Info("Habit created",
		zap.String("habit_id", h.ID),
		zap.String("name", h.Name),
		zap.String("category", h.Category),
	)
	s.notifier.Notify(ctx, event.New(ctx, event.HabitCreated, now, mq.HabitCreatedPayload{
		HabitID:  h.ID,
		Name:     h.Name,
		Category: h.Category,
	}))
	return h.Clone(), nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}
	s.habits = append(s.habits[:idx], s.habits[idx+1:]...)
	s.save(ctx)
	s.mu.Unlock()

	logger.WithTrace(ctx, s.logger).Info("Habit deleted", zap.String("habit_id", id))
	s.notifier.Notify(ctx, event.New(ctx, event.HabitDeleted, s.clock.Now(), mq.HabitDeletedPayload{HabitID: id}))
	return nil
}

// ToggleCompletion flips whether date is marked for the habit, then recomputes
// its streak and persists.
func (s *Store) ToggleCompletion(ctx context.Context, id, date string) (model.Habit, error) {
	if !calendar.Valid(date) {
		return model.Habit{}, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	now := s.clock.Now()
	if date > calendar.Key(now) {
		return model.Habit{}, fmt.Errorf("%w: %s", ErrFutureDate, date)
	}

	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return model.Habit{}, fmt.Errorf("toggle %s: %w", id, ErrNotFound)
	}
	h := &s.habits[idx]
	if h.History == nil {
		h.History = map[string]bool{}
	}
	done := !h.History[date]
	if done {
		h.History[date] = true
	} else {
		delete(h.History, date)
	}
	h.Streak = streak.Compute(h.History, now)
	s.save(ctx)
	out := h.Clone()
	s.mu.Unlock()

	metrics.IncrementHabitToggle(done)
	logger.WithTrace(ctx, s.logger).Info("Habit toggled",
		zap.String("habit_id", id),
		zap.String("date", date),
		zap.Bool("done", done),
		zap.Int("streak", out.Streak),
	)
	s.notifier.Notify(ctx, event.New(ctx, event.HabitToggled, now, mq.HabitToggledPayload{
		HabitID: id,
		Date:    date,
		Done:    done,
		Streak:  out.Streak,
	}))
	return out, nil
}

func (s *Store) List(ctx context.Context) []model.Habit {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Habit, 0, len(s.habits))
	for _, h := range s.habits {
		out = append(out, h.Clone())
	}
	return out
}

func (s *Store) Get(ctx context.Context, id string) (model.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return model.Habit{}, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	return s.habits[idx].Clone(), nil
}

// Stats counts all habits and those marked for today.
func (s *Store) Stats(ctx context.Context) model.HabitStats {
	return s.StatsOn(ctx, calendar.Key(s.clock.Now()))
}

// StatsOn is Stats for an arbitrary day; CompletedToday then counts habits marked on date.
func (s *Store) StatsOn(ctx context.Context, date string) model.HabitStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := model.HabitStats{TotalHabits: len(s.habits)}
	for i := range s.habits {
		if s.habits[i].Done(date) {
			stats.CompletedToday++
		}
	}
	return stats
}

// Week returns the last seven days for the habit, oldest first.
func (s *Store) Week(ctx context.Context, id string) ([]model.DayMark, error) {
	days := calendar.LastDays(s.clock.Now(), 7)

	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return nil, fmt.Errorf("week %s: %w", id, ErrNotFound)
	}
	marks := make([]model.DayMark, 0, len(days))
	for _, d := range days {
		marks = append(marks, model.DayMark{Date: d, Done: s.habits[idx].Done(d)})
	}
	return marks, nil
}

// RefreshStreaks recomputes every cached streak against the current date so
// a streak whose grace period has elapsed drops to 0 without a toggle. It
// persists only when something changed and returns the changes.
func (s *Store) RefreshStreaks(ctx context.Context) []mq.HabitStreakChangedPayload {
	now := s.clock.Now()

	s.mu.Lock()
	var changed []mq.HabitStreakChangedPayload
	for i := range s.habits {
		h := &s.habits[i]
		next := streak.Compute(h.History, now)
		if next == h.Streak {
			continue
		}
		changed = append(changed, mq.HabitStreakChangedPayload{
			HabitID:  h.ID,
			Name:     h.Name,
			Previous: h.Streak,
			Streak:   next,
		})
		h.Streak = next
	}
	if len(changed) > 0 {
		s.save(ctx)
	}
	s.mu.Unlock()

	for _, c := range changed {
		s.notifier.Notify(ctx, event.New(ctx, event.HabitStreakChanged, now, c))
	}
	return changed
}

// Replace overwrites the whole collection (backup import). Streaks are
// recomputed because the histories changed.
func (s *Store) Replace(ctx context.Context, habits []model.Habit) error {
	now := s.clock.Now()
	next := make([]model.Habit, 0, len(habits))
	for _, h := range habits {
		h = h.Clone()
		if h.ID == "" {
			h.ID = uuid.NewString()
		}
		if h.Category == "" {
			h.Category = model.DefaultCategory
		}
		h.Streak = streak.Compute(h.History, now)
		next = append(next, h)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.habits = next
	return s.persist(ctx)
}

func (s *Store) indexOf(id string) int {
	for i := range s.habits {
		if s.habits[i].ID == id {
			return i
		}
	}
	return -1
}

// save writes the collection. Persistence is best effort: the storage layer
// already logged the failure and the in-memory state stays authoritative.
func (s *Store) save(ctx context.Context) {
	_ = s.persist(ctx)
}

func (s *Store) persist(ctx context.Context) error {
	return s.kv.Set(ctx, StorageKey, s.habits)
}
