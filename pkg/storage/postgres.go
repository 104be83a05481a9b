package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresBackend stores values in a kv_store table.
type PostgresBackend struct {
	db *pgxpool.Pool
}

// NewPostgresBackend creates the kv_store table if it does not exist.
func NewPostgresBackend(ctx context.Context, db *pgxpool.Pool) (*PostgresBackend, error) {
	query := `
        CREATE TABLE IF NOT EXISTS kv_store (
            key        TEXT PRIMARY KEY,
            value      TEXT NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )
    `
	if _, err := db.Exec(ctx, query); err != nil {
		return nil, fmt.Errorf("create kv_store table: %w", err)
	}
	return &PostgresBackend{db: db}, nil
}

func (b *PostgresBackend) Name() string { return "postgres" }

func (b *PostgresBackend) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := b.db.QueryRow(ctx, `SELECT value FROM kv_store WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (b *PostgresBackend) Set(ctx context.Context, key, value string) error {
	query := `
        INSERT INTO kv_store (key, value, updated_at)
        VALUES ($1, $2, NOW())
        ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
    `
	_, err := b.db.Exec(ctx, query, key, value)
	return err
}

func (b *PostgresBackend) Delete(ctx context.Context, key string) error {
	_, err := b.db.Exec(ctx, `DELETE FROM kv_store WHERE key = $1`, key)
	return err
}

func (b *PostgresBackend) Keys(ctx context.Context, prefix string) ([]string, error) {
	query := `
        SELECT key FROM kv_store
        WHERE left(key, length($1)) = $1
        ORDER BY key
    `
	rows, err := b.db.Query(ctx, query, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make([]string, 0)
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (b *PostgresBackend) Ping(ctx context.Context) error {
	return b.db.Ping(ctx)
}

func (b *PostgresBackend) Close() error {
	b.db.Close()
	return nil
}
