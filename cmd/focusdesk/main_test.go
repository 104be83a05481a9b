package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focusdesk/internal/app"
	"focusdesk/internal/pomodoro"
	"focusdesk/pkg/clock"
)

type harness struct {
	dir   string
	clock *clock.Fixed
	opts  []app.Option
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		dir:   t.TempDir(),
		clock: clock.NewFixed(time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)),
	}
	h.opts = []app.Option{app.WithClock(h.clock)}
	return h
}

// run executes one CLI invocation against the harness's SQLite file, the way
// separate shell commands would.
func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(&out, h.opts...)
	base := []string{"--config-dir", filepath.Join(h.dir, "config"), "--backend", "sqlite", "--db", filepath.Join(h.dir, "focusdesk.db")}
	root.SetArgs(append(base, args...))
	root.SetErr(&out)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (h *harness) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := h.run(t, args...)
	require.NoError(t, err, out)
	return out
}

var idPattern = regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f-]{27}`)

func TestHabitCommands(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun(t, "habit", "add", "Drink", "water", "-c", "Health")
	id := idPattern.FindString(out)
	require.NotEmpty(t, id, out)

	h.mustRun(t, "habit", "toggle", id, "--date", "2024-01-09")
	out = h.mustRun(t, "habit", "toggle", id)
	assert.Contains(t, out, "Drink water marked on 2024-01-10, streak 2")

	out = h.mustRun(t, "habit", "list")
	assert.Regexp(t, `Drink water\s+Health\s+\[x\]\s+2`, out)

	out = h.mustRun(t, "habit", "stats")
	assert.Equal(t, "1/1 habits completed today\n", out)

	out = h.mustRun(t, "habit", "week", id)
	assert.Contains(t, out, "2024-01-09  [x]")

	_, err := h.run(t, "habit", "toggle", id, "--date", "2024-01-11")
	assert.Error(t, err)

	h.mustRun(t, "habit", "delete", id)
	_, err = h.run(t, "habit", "delete", id)
	assert.Error(t, err)
}

func TestHabitListDropsExpiredStreak(t *testing.T) {
	h := newHarness(t)

	id := idPattern.FindString(h.mustRun(t, "habit", "add", "Read"))
	require.NotEmpty(t, id)
	h.mustRun(t, "habit", "toggle", id, "--date", "2024-01-09")
	h.mustRun(t, "habit", "toggle", id)
	assert.Regexp(t, `Read\s+General\s+\[x\]\s+2\n`, h.mustRun(t, "habit", "list"))

	h.clock.Set(time.Date(2024, 1, 20, 9, 0, 0, 0, time.UTC))
	assert.Regexp(t, `Read\s+General\s+\[ \]\s+0\n`, h.mustRun(t, "habit", "list"))
}

func TestTaskNoteThemeCommands(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun(t, "task", "add", "buy", "milk")
	id := idPattern.FindString(out)
	require.NotEmpty(t, id)
	assert.Contains(t, h.mustRun(t, "task", "toggle", id), "completed")
	assert.Regexp(t, `\[x\]\s+buy milk`, h.mustRun(t, "task", "list"))

	out = h.mustRun(t, "stats")
	assert.Contains(t, out, "tasks completed: 1")

	h.mustRun(t, "note", "set", "2024-01-10", "shipped", "it")
	assert.Equal(t, "shipped it\n", h.mustRun(t, "note", "get"))
	assert.Equal(t, "2024-01-10\n", h.mustRun(t, "note", "list"))

	h.mustRun(t, "theme", "set", "sunset")
	assert.Equal(t, "mode: dark\n", h.mustRun(t, "theme", "toggle"))
	assert.Equal(t, "mode: dark\ntheme: sunset\n", h.mustRun(t, "theme", "get"))
	_, err := h.run(t, "theme", "set", "neon")
	assert.Error(t, err)
}

func TestExportImportCommands(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "habit", "add", "Floss")
	h.mustRun(t, "task", "add", "call mom")

	out := h.mustRun(t, "export", "csv")
	assert.Equal(t, "Habit Name,Category,Created Date,Completions\nFloss,General,2024-01-10,0\n", out)

	backupFile := filepath.Join(h.dir, "backup.json")
	h.mustRun(t, "export", "json", "-o", backupFile)

	other := newHarness(t)
	_, err := other.run(t, "import", backupFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")

	out = other.mustRun(t, "import", backupFile, "--yes")
	assert.Equal(t, "Restored 1 habits and 1 tasks\n", out)
	assert.Contains(t, other.mustRun(t, "habit", "list"), "Floss")

	bad := filepath.Join(h.dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"tasks": {}}`), 0o600))
	_, err = other.run(t, "import", bad, "--yes")
	assert.Error(t, err)
}

func TestTimerCommand(t *testing.T) {
	h := newHarness(t)
	h.opts = append(h.opts, app.WithTimerOptions(
		pomodoro.WithInterval(time.Millisecond),
		pomodoro.WithDurations(2*time.Second, time.Minute),
	))

	out := h.mustRun(t, "timer")
	assert.Contains(t, out, "Session complete, take a 1 minute break")

	out = h.mustRun(t, "stats")
	assert.Contains(t, out, "pomodoros:       1")
}
