package backup

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"focusdesk/contracts/mq"
	"focusdesk/internal/event"
	"focusdesk/internal/habit"
	"focusdesk/internal/model"
	"focusdesk/internal/task"
	"focusdesk/pkg/clock"
	"focusdesk/pkg/storage"
)

type fixture struct {
	svc    *Service
	habits *habit.Store
	tasks  *task.Store
	events []event.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	kv := storage.New(storage.NewMemoryBackend(), zap.NewNop())
	clk := clock.NewFixed(time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC))
	f := &fixture{}
	n := event.NotifierFunc(func(_ context.Context, e event.Event) { f.events = append(f.events, e) })
	f.habits = habit.NewStore(ctx, kv, clk, event.Nop{}, zap.NewNop())
	f.tasks = task.NewStore(ctx, kv, clk, event.Nop{}, zap.NewNop())
	f.svc = NewService(f.habits, f.tasks, clk, n, zap.NewNop())
	return f
}

func TestExportCSV(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	h, err := f.habits.Add(ctx, "Read, daily", "")
	require.NoError(t, err)
	_, err = f.habits.ToggleCompletion(ctx, h.ID, "2024-01-09")
	require.NoError(t, err)
	_, err = f.habits.ToggleCompletion(ctx, h.ID, "2024-01-10")
	require.NoError(t, err)
	_, err = f.habits.Add(ctx, "Run", "Health")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.svc.ExportCSV(ctx, &buf))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Habit Name", "Category", "Created Date", "Completions"},
		{"Read, daily", "General", "2024-01-10", "2"},
		{"Run", "Health", "2024-01-10", "0"},
	}, rows)
}

func TestExportCSV_NoHabitsWritesHeaderOnly(t *testing.T) {
	f := newFixture(t)
	var buf bytes.Buffer
	require.NoError(t, f.svc.ExportCSV(context.Background(), &buf))
	assert.Equal(t, "Habit Name,Category,Created Date,Completions\n", buf.String())
}

func TestExportJSON_RoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	h, _ := f.habits.Add(ctx, "Stretch", "Health")
	_, _ = f.habits.ToggleCompletion(ctx, h.ID, "2024-01-10")
	_, _ = f.tasks.Add(ctx, "file taxes")

	var buf bytes.Buffer
	require.NoError(t, f.svc.ExportJSON(ctx, &buf))
	assert.Contains(t, buf.String(), "\n  \"habits\": [")

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Contains(t, doc, "timestamp")

	// import into a fresh set of stores
	g := newFixture(t)
	res, err := g.svc.Import(ctx, &buf, true)
	require.NoError(t, err)
	assert.Equal(t, mq.BackupImportedPayload{Habits: 1, Tasks: 1}, res)

	habits := g.habits.List(ctx)
	require.Len(t, habits, 1)
	assert.Equal(t, h.ID, habits[0].ID)
	assert.Equal(t, 1, habits[0].Streak)
	assert.Equal(t, "file taxes", g.tasks.List(ctx)[0].Text)

	require.Len(t, g.events, 1)
	assert.Equal(t, event.BackupImported, g.events[0].Type)
}

func TestImport_RequiresConfirmation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _ = f.tasks.Add(ctx, "keep me")

	_, err := f.svc.Import(ctx, strings.NewReader(`{"habits":[],"tasks":[]}`), false)
	assert.ErrorIs(t, err, ErrNotConfirmed)
	assert.Len(t, f.tasks.List(ctx), 1)
	assert.Empty(t, f.events)
}

func TestImport_MissingArraysBecomeEmpty(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, _ = f.habits.Add(ctx, "old", "")
	_, _ = f.tasks.Add(ctx, "old")

	res, err := f.svc.Import(ctx, strings.NewReader(`{"timestamp":"2024-01-01T00:00:00Z"}`), true)
	require.NoError(t, err)
	assert.Equal(t, mq.BackupImportedPayload{}, res)
	assert.Empty(t, f.habits.List(ctx))
	assert.Empty(t, f.tasks.List(ctx))
}

func TestImport_RecomputesStreaksAndDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	doc := `{"habits":[{"name":"Meditate","history":{"2024-01-08":true,"2024-01-09":true,"bogus":true},"streak":99}]}`
	_, err := f.svc.Import(ctx, strings.NewReader(doc), true)
	require.NoError(t, err)

	habits := f.habits.List(ctx)
	require.Len(t, habits, 1)
	assert.NotEmpty(t, habits[0].ID)
	assert.Equal(t, model.DefaultCategory, habits[0].Category)
	assert.Equal(t, 2, habits[0].Streak)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		msg  string
	}{
		{"not json", `{"habits": [`, "unexpected end of JSON input"},
		{"wrong type", `{"habits": "nope"}`, "/habits"},
		{"habit without name", `{"habits": [{"id": "x"}]}`, "/habits/0"},
		{"non boolean history", `{"habits": [{"name": "a", "history": {"2024-01-01": 1}}]}`, "/habits/0/history/2024-01-01"},
		{"bad timestamp", `{"timestamp": "yesterday"}`, "/timestamp"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc))
			require.ErrorIs(t, err, ErrInvalidBackup)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}
