package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/NivraTech-Teams/Silk-Elegance/pkg/database"
	apperrors "github.com/NivraTech-Teams/Silk-Elegance/pkg/errors"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Pool is the subset of *pgxpool.Pool the store uses.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

// Store implements repository.KV on the storefront_kv table. Values are
// stored as JSONB, so every value written must be valid JSON.
type Store struct {
	pool Pool
}

// New wraps an open pool. Call Migrate before first use.
func New(pool Pool) *Store {
	return &Store{pool: pool}
}

// Migrate applies the embedded schema migrations.
func (s *Store) Migrate(ctx context.Context, logger *slog.Logger) error {
	sub, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}
	return database.RunMigrations(ctx, s.pool, sub, logger)
}

const (
	getSQL    = `SELECT v FROM storefront_kv WHERE k = $1`
	upsertSQL = `INSERT INTO storefront_kv (k, v, updated_at) VALUES ($1, $2, NOW())
ON CONFLICT (k) DO UPDATE SET v = EXCLUDED.v, updated_at = EXCLUDED.updated_at`
)

// Get returns the value stored under key.
func (s *Store) Get(ctx context.Context, key string) (_ []byte, err error) {
	ctx, end := database.TraceStoreOp(ctx, "postgresql", "get", key)
	defer func() { end(err) }()

	var v []byte
	err = s.pool.QueryRow(ctx, getSQL, key).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NotFound("key", key)
	}
	if err != nil {
		return nil, fmt.Errorf("postgres get %s: %w", key, err)
	}
	return v, nil
}

// Set upserts the value stored under key.
func (s *Store) Set(ctx context.Context, key string, value []byte) (err error) {
	ctx, end := database.TraceStoreOp(ctx, "postgresql", "set", key)
	defer func() { end(err) }()

	if _, err = s.pool.Exec(ctx, upsertSQL, key, string(value)); err != nil {
		return fmt.Errorf("postgres set %s: %w", key, err)
	}
	return nil
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
