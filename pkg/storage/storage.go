// Package storage is the persistence adapter: JSON values behind string keys,
// with a caller-supplied default whenever a value is missing or unreadable.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"focusdesk/pkg/circuitbreaker"
	"focusdesk/pkg/metrics"
	"focusdesk/pkg/otel"
	"focusdesk/pkg/util"
)

// ErrNotFound is returned by a Backend when the key has no value.
var ErrNotFound = errors.New("storage: key not found")

// Backend is a raw string key-value store.
type Backend interface {
	Name() string
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// Keys lists keys starting with prefix, sorted ascending.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Ping(ctx context.Context) error
	Close() error
}

// Store wraps a Backend with JSON (de)serialization, logging and metrics.
// Reads never fail: they fall back to the default. Writes are best effort.
type Store struct {
	backend Backend
	breaker *circuitbreaker.CircuitBreaker
	logger  *zap.Logger
}

type Option func(*Store)

// WithBreaker guards every backend call with cb.
func WithBreaker(cb *circuitbreaker.CircuitBreaker) Option {
	return func(s *Store) {
		s.breaker = cb
	}
}

func New(backend Backend, logger *zap.Logger, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		logger:  logger.With(zap.String("backend", backend.Name())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the value stored at key decoded as T, or def when the key is
// missing, empty, corrupt or the backend fails.
func Get[T any](ctx context.Context, s *Store, key string, def T) T {
	var raw string
	err := s.do(ctx, "get", key, func(ctx context.Context) error {
		var err error
		raw, err = s.backend.Get(ctx, key)
		return err
	})
	switch {
	case errors.Is(err, ErrNotFound):
		return def
	case err != nil:
		s.logger.Error("Error getting key from storage", zap.String("key", key), zap.Error(err))
		metrics.IncrementStorageError("get", reason(err))
		return def
	case raw == "":
		return def
	}

	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		s.logger.Error("Corrupt value in storage, using default",
			zap.String("key", key),
			zap.Int("size", len(raw)),
			zap.Error(err),
		)
		metrics.IncrementStorageError("get", "decode")
		return def
	}
	return v
}

// Set JSON-encodes value and writes it at key. Failures are logged and returned;
// callers that treat persistence as best effort may ignore the error.
func (s *Store) Set(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		s.logger.Error("Error encoding value for storage", zap.String("key", key), zap.Error(err))
		metrics.IncrementStorageError("set", "encode")
		return fmt.Errorf("encode %s: %w", key, err)
	}

	err = s.do(ctx, "set", key, func(ctx context.Context) error {
		return s.backend.Set(ctx, key, string(raw))
	})
	if err != nil {
		s.logger.Error("Error setting key to storage", zap.String("key", key), zap.Error(err))
		metrics.IncrementStorageError("set", reason(err))
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Remove deletes key. A missing key is not an error.
func (s *Store) Remove(ctx context.Context, key string) error {
	err := s.do(ctx, "delete", key, func(ctx context.Context) error {
		return s.backend.Delete(ctx, key)
	})
	if err != nil && !errors.Is(err, ErrNotFound) {
		s.logger.Error("Error removing key from storage", zap.String("key", key), zap.Error(err))
		metrics.IncrementStorageError("delete", reason(err))
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

// Keys lists stored keys with the given prefix. Backend failures yield an empty list.
func (s *Store) Keys(ctx context.Context, prefix string) []string {
	var keys []string
	err := s.do(ctx, "keys", prefix, func(ctx context.Context) error {
		var err error
		keys, err = s.backend.Keys(ctx, prefix)
		return err
	})
	if err != nil {
		s.logger.Error("Error listing keys from storage", zap.String("prefix", prefix), zap.Error(err))
		metrics.IncrementStorageError("keys", reason(err))
		return nil
	}
	return keys
}

func (s *Store) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) BackendName() string {
	return s.backend.Name()
}

func (s *Store) do(ctx context.Context, op, key string, fn func(context.Context) error) (err error) {
	start := time.Now()
	ctx, span := otel.StorageSpan(ctx, s.backend.Name(), op, key)
	defer func() {
		metrics.RecordStorageOp(s.backend.Name(), op, time.Since(start))
		if errors.Is(err, ErrNotFound) {
			otel.End(span, nil)
			return
		}
		otel.End(span, err)
	}()

	if s.breaker == nil {
		return fn(ctx)
	}
	var inner error
	err = s.breaker.Execute(func() error {
		inner = fn(ctx)
		// 缺失的 key 不算后端故障
		if errors.Is(inner, ErrNotFound) {
			return nil
		}
		return inner
	})
	if err == nil {
		err = inner
	}
	return err
}

func reason(err error) string {
	_, kind := util.ClassifyError(err)
	return kind
}
