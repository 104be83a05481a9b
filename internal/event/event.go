// Package event replaces view callbacks with an explicit notification interface.
// Stores and the timer emit events; subscribers (stats, metrics, the message
// queue publisher, tests) react without knowing about each other.
package event

import (
	"context"
	"time"

	"focusdesk/pkg/trace"
)

type Type string

const (
	HabitCreated       Type = "habit.created"
	HabitDeleted       Type = "habit.deleted"
	HabitToggled       Type = "habit.toggled"
	HabitStreakChanged Type = "habit.streak.changed"
	TaskCreated        Type = "task.created"
	TaskCompleted      Type = "task.completed"
	TaskDeleted        Type = "task.deleted"
	PomodoroTick       Type = "pomodoro.tick"
	PomodoroCompleted  Type = "pomodoro.completed"
	BackupImported     Type = "backup.imported"
)

type Event struct {
	Type    Type      `json:"type"`
	At      time.Time `json:"at"`
	TraceID string    `json:"trace_id,omitempty"`
	Payload any       `json:"payload"`
}

// New stamps an event with the trace id carried by ctx.
func New(ctx context.Context, t Type, at time.Time, payload any) Event {
	return Event{
		Type:    t,
		At:      at,
		TraceID: trace.FromContext(ctx),
		Payload: payload,
	}
}

type Notifier interface {
	Notify(ctx context.Context, e Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, e Event)

func (f NotifierFunc) Notify(ctx context.Context, e Event) { f(ctx, e) }

// Nop discards every event.
type Nop struct{}

func (Nop) Notify(context.Context, Event) {}

// Multi forwards each event to every notifier in order.
func Multi(notifiers ...Notifier) Notifier {
	return NotifierFunc(func(ctx context.Context, e Event) {
		for _, n := range notifiers {
			n.Notify(ctx, e)
		}
	})
}
