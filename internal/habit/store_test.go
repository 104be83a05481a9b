package habit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"focusdesk/contracts/mq"
	"focusdesk/internal/event"
	"focusdesk/internal/model"
	"focusdesk/pkg/clock"
	"focusdesk/pkg/storage"
)

type recorder struct {
	events []event.Event
}

func (r *recorder) Notify(_ context.Context, e event.Event) { r.events = append(r.events, e) }

func (r *recorder) types() []event.Type {
	out := make([]event.Type, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	store *Store
	kv    *storage.Store
	clock *clock.Fixed
	rec   *recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	kv := storage.New(storage.NewMemoryBackend(), zap.NewNop())
	clk := clock.NewFixed(time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC))
	rec := &recorder{}
	return &fixture{
		store: NewStore(context.Background(), kv, clk, rec, zap.NewNop()),
		kv:    kv,
		clock: clk,
		rec:   rec,
	}
}

func (f *fixture) persisted(t *testing.T) []model.Habit {
	t.Helper()
	return storage.Get(context.Background(), f.kv, StorageKey, []model.Habit(nil))
}

func TestAdd(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	h, err := f.store.Add(ctx, "  Read  ", "")
	require.NoError(t, err)

	assert.NotEmpty(t, h.ID)
	assert.Equal(t, "Read", h.Name)
	assert.Equal(t, model.DefaultCategory, h.Category)
	assert.Empty(t, h.History)
	assert.Zero(t, h.Streak)
	assert.Equal(t, f.clock.Now(), h.StartDate)

	saved := f.persisted(t)
	require.Len(t, saved, 1)
	assert.Equal(t, h.ID, saved[0].ID)
	assert.Equal(t, []event.Type{event.HabitCreated}, f.rec.types())

	_, err = f.store.Add(ctx, "   ", "Health")
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, _ := f.store.Add(ctx, "Run", "Health")
	b, _ := f.store.Add(ctx, "Write", "Work")

	require.NoError(t, f.store.Delete(ctx, a.ID))

	list := f.store.List(ctx)
	require.Len(t, list, 1)
	assert.Equal(t, b.ID, list[0].ID)
	assert.Len(t, f.persisted(t), 1)

	assert.ErrorIs(t, f.store.Delete(ctx, a.ID), ErrNotFound)
}

func TestToggleCompletion_FlipsAndRecomputesStreak(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h, _ := f.store.Add(ctx, "Meditate", "Mind")

	for _, d := range []string{"2024-01-08", "2024-01-09"} {
		_, err := f.store.ToggleCompletion(ctx, h.ID, d)
		require.NoError(t, err)
	}
	got, err := f.store.ToggleCompletion(ctx, h.ID, "2024-01-10")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Streak)
	assert.True(t, got.Done("2024-01-10"))

	// unmark today: grace period keeps yesterday's chain alive
	got, err = f.store.ToggleCompletion(ctx, h.ID, "2024-01-10")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Streak)
	assert.NotContains(t, got.History, "2024-01-10")

	// unmark the oldest day: only yesterday remains
	got, err = f.store.ToggleCompletion(ctx, h.ID, "2024-01-08")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Streak)

	saved := f.persisted(t)
	require.Len(t, saved, 1)
	assert.Equal(t, got.Streak, saved[0].Streak)
	assert.Equal(t, got.History, saved[0].History)

	last := f.rec.events[len(f.rec.events)-1]
	assert.Equal(t, event.HabitToggled, last.Type)
	assert.Equal(t, mq.HabitToggledPayload{HabitID: h.ID, Date: "2024-01-08", Done: false, Streak: got.Streak}, last.Payload)
}

func TestToggleCompletion_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h, _ := f.store.Add(ctx, "Stretch", "")

	_, err := f.store.ToggleCompletion(ctx, h.ID, "10/01/2024")
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = f.store.ToggleCompletion(ctx, h.ID, "2024-01-11")
	assert.ErrorIs(t, err, ErrFutureDate)

	_, err = f.store.ToggleCompletion(ctx, "missing", "2024-01-10")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListReturnsCopies(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h, _ := f.store.Add(ctx, "Floss", "")

	list := f.store.List(ctx)
	list[0].History["2024-01-10"] = true
	list[0].Name = "changed"

	got, err := f.store.Get(ctx, h.ID)
	require.NoError(t, err)
	assert.Equal(t, "Floss", got.Name)
	assert.Empty(t, got.History)
}

func TestStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, _ := f.store.Add(ctx, "A", "")
	b, _ := f.store.Add(ctx, "B", "")
	_, _ = f.store.Add(ctx, "C", "")

	_, _ = f.store.ToggleCompletion(ctx, a.ID, "2024-01-10")
	_, _ = f.store.ToggleCompletion(ctx, b.ID, "2024-01-09")

	assert.Equal(t, model.HabitStats{TotalHabits: 3, CompletedToday: 1}, f.store.Stats(ctx))
}

func TestWeek(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h, _ := f.store.Add(ctx, "Walk", "")
	_, _ = f.store.ToggleCompletion(ctx, h.ID, "2024-01-04")
	_, _ = f.store.ToggleCompletion(ctx, h.ID, "2024-01-10")
	_, _ = f.store.ToggleCompletion(ctx, h.ID, "2024-01-03")

	week, err := f.store.Week(ctx, h.ID)
	require.NoError(t, err)
	require.Len(t, week, 7)
	assert.Equal(t, model.DayMark{Date: "2024-01-04", Done: true}, week[0])
	assert.Equal(t, model.DayMark{Date: "2024-01-10", Done: true}, week[6])
	for _, m := range week[1:6] {
		assert.False(t, m.Done, m.Date)
	}

	_, err = f.store.Week(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRefreshStreaks_DropsExpiredChains(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	h, _ := f.store.Add(ctx, "Journal", "")
	_, _ = f.store.ToggleCompletion(ctx, h.ID, "2024-01-09")
	_, _ = f.store.ToggleCompletion(ctx, h.ID, "2024-01-10")

	// same day: nothing changes
	assert.Empty(t, f.store.RefreshStreaks(ctx))

	// two days later the grace period is over
	f.clock.Advance(48 * time.Hour)
	changed := f.store.RefreshStreaks(ctx)
	require.Len(t, changed, 1)
	assert.Equal(t, mq.HabitStreakChangedPayload{HabitID: h.ID, Name: "Journal", Previous: 2, Streak: 0}, changed[0])

	got, _ := f.store.Get(ctx, h.ID)
	assert.Zero(t, got.Streak)
	assert.Zero(t, f.persisted(t)[0].Streak)
	assert.Equal(t, event.HabitStreakChanged, f.rec.events[len(f.rec.events)-1].Type)
}

func TestReplace_RecomputesStreaks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _ = f.store.Add(ctx, "old", "")

	err := f.store.Replace(ctx, []model.Habit{
		{ID: "h1", Name: "Imported", History: map[string]bool{"2024-01-09": true, "2024-01-10": true}, Streak: 99},
		{Name: "No id", History: nil},
	})
	require.NoError(t, err)

	list := f.store.List(ctx)
	require.Len(t, list, 2)
	assert.Equal(t, 2, list[0].Streak)
	assert.Equal(t, model.DefaultCategory, list[0].Category)
	assert.NotEmpty(t, list[1].ID)
	assert.Len(t, f.persisted(t), 2)
}

func TestNewStore_LoadsPersistedAndSurvivesCorruption(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemoryBackend()
	kv := storage.New(mem, zap.NewNop())
	clk := clock.NewFixed(time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC))

	require.NoError(t, mem.Set(ctx, StorageKey, `[{"id":"x","name":"Persisted","category":"General","history":{"2024-01-10":true},"streak":1}]`))
	s := NewStore(ctx, kv, clk, event.Nop{}, zap.NewNop())
	list := s.List(ctx)
	require.Len(t, list, 1)
	assert.Equal(t, "Persisted", list[0].Name)

	require.NoError(t, mem.Set(ctx, StorageKey, `{{{`))
	s.Reload(ctx)
	assert.Empty(t, s.List(ctx))
}
