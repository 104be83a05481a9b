// Package backup exports habits as CSV, and habits plus tasks as a JSON
// backup that can be imported again.
package backup

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"

	"focusdesk/contracts/mq"
	"focusdesk/internal/calendar"
	"focusdesk/internal/event"
	"focusdesk/internal/model"
	"focusdesk/pkg/clock"
	"focusdesk/pkg/logger"
)

var (
	ErrNotConfirmed  = errors.New("import overwrites all habits and tasks and must be confirmed")
	ErrInvalidBackup = errors.New("invalid backup")
)

// CSVHeader is the first row of a habit export.
var CSVHeader = []string{"Habit Name", "Category", "Created Date", "Completions"}

//go:embed backup.schema.json
var schemaJSON []byte

const schemaURL = "backup.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func backupSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.AssertFormat = true
		if err := compiler.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		schema, schemaErr = compiler.Compile(schemaURL)
	})
	return schema, schemaErr
}

type HabitStore interface {
	List(ctx context.Context) []model.Habit
	Replace(ctx context.Context, habits []model.Habit) error
}

type TaskStore interface {
	List(ctx context.Context) []model.Task
	Replace(ctx context.Context, tasks []model.Task) error
}

type Service struct {
	habits   HabitStore
	tasks    TaskStore
	clock    clock.Clock
	notifier event.Notifier
	logger   *zap.Logger
}

func NewService(habits HabitStore, tasks TaskStore, clk clock.Clock, notifier event.Notifier, logger *zap.Logger) *Service {
	return &Service{
		habits:   habits,
		tasks:    tasks,
		clock:    clk,
		notifier: notifier,
		logger:   logger,
	}
}

// ExportCSV writes one row per habit. Created Date is the start date's
// calendar day in the configured zone.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer) error {
	loc := s.clock.Now().Location()
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	habits := s.habits.List(ctx)
	for _, h := range habits {
		category := h.Category
		if category == "" {
			category = model.DefaultCategory
		}
		created := ""
		if !h.StartDate.IsZero() {
			created = calendar.Key(h.StartDate.In(loc))
		}
		row := []string{h.Name, category, created, strconv.Itoa(h.Completions())}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row %s: %w", h.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}

	logger.WithTrace(ctx, s.logger).Info("Habits exported", zap.String("format", "csv"), zap.Int("habits", len(habits)))
	return nil
}

// Snapshot assembles the backup document.
func (s *Service) Snapshot(ctx context.Context) model.Backup {
	b := model.Backup{
		Habits:    s.habits.List(ctx),
		Tasks:     s.tasks.List(ctx),
		Timestamp: s.clock.Now().UTC(),
	}
	if b.Habits == nil {
		b.Habits = []model.Habit{}
	}
	if b.Tasks == nil {
		b.Tasks = []model.Task{}
	}
	return b
}

// ExportJSON writes the indented backup document.
func (s *Service) ExportJSON(ctx context.Context, w io.Writer) error {
	b := s.Snapshot(ctx)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("encode backup: %w", err)
	}
	logger.WithTrace(ctx, s.logger).Info("Backup exported",
		zap.String("format", "json"),
		zap.Int("habits", len(b.Habits)),
		zap.Int("tasks", len(b.Tasks)),
	)
	return nil
}

// Decode parses and validates a backup document. Missing arrays decode as
// empty.
func Decode(r io.Reader) (model.Backup, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return model.Backup{}, fmt.Errorf("read backup: %w", err)
	}

	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return model.Backup{}, fmt.Errorf("%w: %s", ErrInvalidBackup, err.Error())
	}
	sch, err := backupSchema()
	if err != nil {
		return model.Backup{}, err
	}
	if err := sch.Validate(doc); err != nil {
		return model.Backup{}, fmt.Errorf("%w: %s", ErrInvalidBackup, schemaMessage(err))
	}

	var b model.Backup
	if err := json.Unmarshal(raw, &b); err != nil {
		return model.Backup{}, fmt.Errorf("%w: %s", ErrInvalidBackup, err.Error())
	}
	if b.Habits == nil {
		b.Habits = []model.Habit{}
	}
	if b.Tasks == nil {
		b.Tasks = []model.Task{}
	}
	return b, nil
}

// schemaMessage reports the first leaf cause with its location.
func schemaMessage(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	if ve.InstanceLocation == "" {
		return ve.Message
	}
	return ve.InstanceLocation + ": " + ve.Message
}

// Import replaces all habits and tasks with the backup read from r. Nothing
// is written unless confirm is set.
func (s *Service) Import(ctx context.Context, r io.Reader, confirm bool) (mq.BackupImportedPayload, error) {
	b, err := Decode(r)
	if err != nil {
		return mq.BackupImportedPayload{}, err
	}
	if !confirm {
		return mq.BackupImportedPayload{}, ErrNotConfirmed
	}

	if err := s.habits.Replace(ctx, b.Habits); err != nil {
		return mq.BackupImportedPayload{}, fmt.Errorf("restore habits: %w", err)
	}
	if err := s.tasks.Replace(ctx, b.Tasks); err != nil {
		return mq.BackupImportedPayload{}, fmt.Errorf("restore tasks: %w", err)
	}

	result := mq.BackupImportedPayload{Habits: len(b.Habits), Tasks: len(b.Tasks)}
	logger.WithTrace(ctx, s.logger).Info("Backup imported",
		zap.Int("habits", result.Habits),
		zap.Int("tasks", result.Tasks),
		zap.Time("backup_timestamp", b.Timestamp),
	)
	s.notifier.Notify(ctx, event.New(ctx, event.BackupImported, s.clock.Now(), result))
	return result, nil
}
