package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"focusdesk/pkg/circuitbreaker"
	"focusdesk/pkg/config"
	"focusdesk/pkg/db"
	"focusdesk/pkg/metrics"
	redisclient "focusdesk/pkg/redis"
)

// Open builds the Store selected by cfg.Store.Backend. Remote backends are
// wrapped in a circuit breaker so an unreachable server degrades to defaults
// instead of stalling every request.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Store, error) {
	logger.Info("Opening store", zap.String("backend", cfg.Store.Backend))

	breaker := circuitbreaker.NewCircuitBreaker(circuitbreaker.Config{
		Name:             cfg.Store.Backend,
		FailureThreshold: cfg.Store.BreakerFailures,
		Timeout:          cfg.Store.BreakerTimeout,
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			metrics.SetBreakerState(name, int(to))
			logger.Warn("Storage circuit breaker state changed",
				zap.String("backend", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	switch cfg.Store.Backend {
	case config.BackendMemory:
		return New(NewMemoryBackend(), logger), nil

	case config.BackendSQLite:
		b, err := OpenSQLite(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		return New(b, logger), nil

	case config.BackendRedis:
		rdb, err := redisclient.NewRedisClient(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, err
		}
		return New(NewRedisBackend(rdb, cfg.Store.Namespace), logger, WithBreaker(breaker)), nil

	case config.BackendPostgres:
		pool, err := db.NewConnection(ctx, cfg.DB, logger)
		if err != nil {
			return nil, err
		}
		b, err := NewPostgresBackend(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return New(b, logger, WithBreaker(breaker)), nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
