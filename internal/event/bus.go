package event

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

type Handler func(ctx context.Context, e Event)

// Bus delivers events synchronously to in-process subscribers.
type Bus struct {
	mu     sync.RWMutex
	byType map[Type][]Handler
	all    []Handler
	logger *zap.Logger
}

func NewBus(logger *zap.Logger) *Bus {
	return &Bus{
		byType: make(map[Type][]Handler),
		logger: logger,
	}
}

// Subscribe registers h for events of type t.
func (b *Bus) Subscribe(t Type, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.byType[t] = append(b.byType[t], h)
}

// SubscribeAll registers h for every event.
func (b *Bus) SubscribeAll(h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, h)
}

func (b *Bus) Notify(ctx context.Context, e Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.byType[e.Type])+len(b.all))
	handlers = append(handlers, b.byType[e.Type]...)
	handlers = append(handlers, b.all...)
	b.mu.RUnlock()

	for _, h := range handlers {
		b.dispatch(ctx, e, h)
	}
}

func (b *Bus) dispatch(ctx context.Context, e Event, h Handler) {
	// Panic 恢复：一个订阅者出错不影响其他订阅者
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Event handler panic recovered",
				zap.String("event", string(e.Type)),
				zap.Any("panic", r),
			)
		}
	}()
	h(ctx, e)
}
