package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned by a Tier when a key has no value. It is the only
// error the mirror distinguishes; everything else counts as a tier failure.
var ErrNotFound = errors.New("storage: key not found")

// Tier is one physical storage backend. The primary tier is fast and
// evictable, the backup tier is durable.
type Tier interface {
	Name() string
	Read(ctx context.Context, key string) (string, error)
	Write(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// ==========================
// Redis (primary, ephemeral)
// ==========================

type RedisTier struct {
	client *redis.Client
}

func NewRedisTier(client *redis.Client) *RedisTier {
	return &RedisTier{client: client}
}

func (t *RedisTier) Name() string { return "primary" }

func (t *RedisTier) Read(ctx context.Context, key string) (string, error) {
	val, err := t.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("redis get %q: %w", key, err)
	}
	return val, nil
}

func (t *RedisTier) Write(ctx context.Context, key, value string) error {
	if err := t.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

func (t *RedisTier) Delete(ctx context.Context, key string) error {
	if err := t.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %q: %w", key, err)
	}
	return nil
}

// ==============================
// Postgres (backup, durable)
// ==============================

type PostgresTier struct {
	db *sql.DB
}

func NewPostgresTier(db *sql.DB) *PostgresTier {
	return &PostgresTier{db: db}
}

// EnsureSchema creates the backing table if it does not exist.
func (t *PostgresTier) EnsureSchema(ctx context.Context) error {
	_, err := t.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS widget_storage (
			store_key  TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("ensure widget_storage schema: %w", err)
	}
	return nil
}

func (t *PostgresTier) Name() string { return "backup" }

func (t *PostgresTier) Read(ctx context.Context, key string) (string, error) {
	var value string
	err := t.db.QueryRowContext(ctx,
		"SELECT value FROM widget_storage WHERE store_key = $1", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("postgres read %q: %w", key, err)
	}
	return value, nil
}

func (t *PostgresTier) Write(ctx context.Context, key, value string) error {
	_, err := t.db.ExecContext(ctx, `
		INSERT INTO widget_storage (store_key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (store_key) DO UPDATE SET value = $2, updated_at = now()`,
		key, value)
	if err != nil {
		return fmt.Errorf("postgres write %q: %w", key, err)
	}
	return nil
}

func (t *PostgresTier) Delete(ctx context.Context, key string) error {
	_, err := t.db.ExecContext(ctx,
		"DELETE FROM widget_storage WHERE store_key = $1", key)
	if err != nil {
		return fmt.Errorf("postgres delete %q: %w", key, err)
	}
	return nil
}
