// Package task is the to-do list: plain tasks that can be completed and one
// of which may be selected as the focus of the pomodoro timer.
package task

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
	"focusdesk/pkg/clock"
	"focusdesk/pkg/logger"
	"focusdesk/pkg/storage"
)

const StorageKey = "tasks"

var (
	ErrNotFound    = errors.New("task not found")
	ErrInvalidText = errors.New("task text is required")
)

// SelectionListener is told which task is in focus ("" for none).
type SelectionListener interface {
	SetTask(id string)
}

type Store struct {
	mu       sync.Mutex
	tasks    []model.Task
	selected string
	kv       *storage.Store
	clock    clock.Clock
	notifier event.Notifier
	listener SelectionListener
	logger   *zap.Logger
}

func NewStore(ctx context.Context, kv *storage.Store, clk clock.Clock, notifier event.Notifier, logger *zap.Logger) *Store {
	s := &Store{
		kv:       kv,
		clock:    clk,
		notifier: notifier,
		logger:   logger,
	}
	s.tasks = storage.Get(ctx, kv, StorageKey, []model.Task{})
	return s
}

// SetSelectionListener registers the component that follows the selected task.
func (s *Store) SetSelectionListener(l SelectionListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listener = l
}

func (s *Store) Reload(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = storage.Get(ctx, s.kv, StorageKey, []model.Task{})
}

func (s *Store) Add(ctx context.Context, text string) (model.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Task{}, ErrInvalidText
	}
	now := s.clock.Now()
	t := model.Task{
		ID:        uuid.NewString(),
		Text:      text,
		Completed: false,
		CreatedAt: now,
	}

	s.mu.Lock()
	s.tasks = append(s.tasks, t)
	s.save(ctx)
	s.mu.Unlock()

	logger.WithTrace(ctx, s.logger).Info("Task created", zap.String("task_id", t.ID))
	s.notifier.Notify(ctx, event.New(ctx, event.TaskCreated, now, mq.TaskCreatedPayload{TaskID: t.ID, Text: t.Text}))
	return t, nil
}

// Toggle flips completion. Completing a task emits task.completed, which the
// stats aggregator counts; un-completing does not decrement.
func (s *Store) Toggle(ctx context.Context, id string) (model.Task, error) {
	now := s.clock.Now()

	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return model.Task{}, fmt.Errorf("toggle %s: %w", id, ErrNotFound)
	}
	s.tasks[idx].Completed = !s.tasks[idx].Completed
	t := s.tasks[idx]
	s.save(ctx)
	s.mu.Unlock()

	logger.WithTrace(ctx, s.logger).Info("Task toggled",
		zap.String("task_id", id),
		zap.Bool("completed", t.Completed),
	)
	if t.Completed {
		s.notifier.Notify(ctx, event.New(ctx, event.TaskCompleted, now, mq.TaskCompletedPayload{
			TaskID: id,
			Date:   calendar.Key(now),
		}))
	}
	return t, nil
}

// Delete removes the task and clears the selection if it pointed at it.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	idx := s.indexOf(id)
	if idx < 0 {
		s.mu.Unlock()
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}
	s.tasks = append(s.tasks[:idx], s.tasks[idx+1:]...)
	var listener SelectionListener
	if s.selected == id {
		s.selected = ""
		listener = s.listener
	}
	s.save(ctx)
	s.mu.Unlock()

	if listener != nil {
		listener.SetTask("")
	}
	logger.WithTrace(ctx, s.logger).Info("Task deleted", zap.String("task_id", id))
	s.notifier.Notify(ctx, event.New(ctx, event.TaskDeleted, s.clock.Now(), mq.TaskDeletedPayload{TaskID: id}))
	return nil
}

// Select focuses the timer on id; an empty id clears the selection.
func (s *Store) Select(ctx context.Context, id string) error {
	s.mu.Lock()
	if id != "" && s.indexOf(id) < 0 {
		s.mu.Unlock()
		return fmt.Errorf("select %s: %w", id, ErrNotFound)
	}
	s.selected = id
	listener := s.listener
	s.mu.Unlock()

	if listener != nil {
		listener.SetTask(id)
	}
	return nil
}

func (s *Store) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

func (s *Store) List(ctx context.Context) []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Replace overwrites the whole list (backup import) and clears the selection.
func (s *Store) Replace(ctx context.Context, tasks []model.Task) error {
	next := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		next = append(next, t)
	}

	s.mu.Lock()
	s.tasks = next
	s.selected = ""
	listener := s.listener
	err := s.kv.Set(ctx, StorageKey, s.tasks)
	s.mu.Unlock()

	if listener != nil {
		listener.SetTask("")
	}
	return err
}

func (s *Store) indexOf(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) save(ctx context.Context) {
	_ = s.kv.Set(ctx, StorageKey, s.tasks)
}
