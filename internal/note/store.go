// Package note keeps one free-text note per calendar day.
package note

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"focusdesk/internal/calendar"
	"focusdesk/pkg/logger"
	"focusdesk/pkg/storage"
)

const KeyPrefix = "notes_"

var ErrInvalidDate = errors.New("invalid note date")

type Store struct {
	kv     *storage.Store
	logger *zap.Logger
}

func NewStore(kv *storage.Store, logger *zap.Logger) *Store {
	return &Store{kv: kv, logger: logger}
}

func key(date string) string {
	return KeyPrefix + date
}

// Get returns the note for date, "" when there is none.
func (s *Store) Get(ctx context.Context, date string) (string, error) {
	if !calendar.Valid(date) {
		return "", fmt.Errorf("get %q: %w", date, ErrInvalidDate)
	}
	return storage.Get(ctx, s.kv, key(date), ""), nil
}

// Save stores content for date. Saving an empty note removes it so that it no
// longer shows up in Dates.
func (s *Store) Save(ctx context.Context, date, content string) error {
	if !calendar.Valid(date) {
		return fmt.Errorf("save %q: %w", date, ErrInvalidDate)
	}
	if strings.TrimSpace(content) == "" {
		return s.kv.Remove(ctx, key(date))
	}
	if err := s.kv.Set(ctx, key(date), content); err != nil {
		return err
	}
	logger.WithTrace(ctx, s.logger).Debug("Note saved",
		zap.String("date", date),
		zap.Int("length", len(content)),
	)
	return nil
}

// Dates lists the days that have a note, newest first.
func (s *Store) Dates(ctx context.Context) []string {
	keys := s.kv.Keys(ctx, KeyPrefix)
	dates := make([]string, 0, len(keys))
	for _, k := range keys {
		d := strings.TrimPrefix(k, KeyPrefix)
		if calendar.Valid(d) {
			dates = append(dates, d)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	return dates
}
