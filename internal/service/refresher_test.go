package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"focusdesk/contracts/mq"
	"focusdesk/internal/event"
	"focusdesk/internal/habit"
	"focusdesk/pkg/clock"
	"focusdesk/pkg/storage"
)

type countingSource struct {
	mu      sync.Mutex
	reloads int
	passes  int
}

func (c *countingSource) Reload(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reloads++
}

func (c *countingSource) RefreshStreaks(context.Context) []mq.HabitStreakChangedPayload {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.passes++
	return nil
}

func (c *countingSource) counts() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reloads, c.passes
}

func TestRunOnce_DropsExpiredStreaks(t *testing.T) {
	ctx := context.Background()
	kv := storage.New(storage.NewMemoryBackend(), zap.NewNop())
	clk := clock.NewFixed(time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC))
	habits := habit.NewStore(ctx, kv, clk, event.Nop{}, zap.NewNop())

	h, err := habits.Add(ctx, "Journal", "")
	require.NoError(t, err)
	_, err = habits.ToggleCompletion(ctx, h.ID, "2024-01-10")
	require.NoError(t, err)

	r := NewRefresher(habits, time.Minute, zap.NewNop())
	assert.Equal(t, 0, r.RunOnce(ctx))

	clk.Advance(48 * time.Hour)
	assert.Equal(t, 1, r.RunOnce(ctx))
	got, err := habits.Get(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Streak)

	assert.Equal(t, 0, r.RunOnce(ctx))
}

func TestRunOnce_Reload(t *testing.T) {
	src := &countingSource{}
	NewRefresher(src, time.Minute, zap.NewNop()).RunOnce(context.Background())
	reloads, _ := src.counts()
	assert.Equal(t, 0, reloads)

	NewRefresher(src, time.Minute, zap.NewNop(), WithReload()).RunOnce(context.Background())
	reloads, passes := src.counts()
	assert.Equal(t, 1, reloads)
	assert.Equal(t, 2, passes)
}

func TestRun_StopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	src := &countingSource{}
	r := NewRefresher(src, time.Millisecond, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		_, passes := src.counts()
		return passes >= 3
	}, time.Second, time.Millisecond)
	cancel()
	<-done
}
