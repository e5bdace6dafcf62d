// Package postgres implements the storage gateway on PostgreSQL,
// replacing the snapshot in a single transaction.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/vitran/ecfr-analyzer/internal/ecfr"
	"github.com/vitran/ecfr-analyzer/internal/storage"
)

// DB is the subset of pgxpool.Pool the store needs; pgxmock satisfies
// it in tests.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS ecfr_titles (
		number INT PRIMARY KEY,
		payload JSONB NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS snapshot_meta (
		id BOOL PRIMARY KEY DEFAULT TRUE CHECK (id),
		total_titles INT NOT NULL,
		last_update TIMESTAMPTZ NOT NULL,
		version TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS artifacts (
		name TEXT PRIMARY KEY,
		payload JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
}

// Store persists the snapshot in PostgreSQL.
type Store struct {
	db     DB
	clock  ecfr.Clock
	logger *zap.Logger
}

// Connect opens a pool, verifies the connection, ensures the schema,
// and returns a Store.
func Connect(ctx context.Context, dsn string, clock ecfr.Clock, logger *zap.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s := New(pool, clock, logger)
	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing connection; callers own schema setup.
func New(db DB, clock ecfr.Clock, logger *zap.Logger) *Store {
	return &Store{db: db, clock: clock, logger: logger}
}

func (s *Store) ensureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// SaveTitles replaces the snapshot and metadata in one transaction.
func (s *Store) SaveTitles(ctx context.Context, titles []ecfr.Title) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin snapshot transaction: %w", err)
	}
	defer func() {
		if rerr := tx.Rollback(ctx); rerr != nil && !errors.Is(rerr, pgx.ErrTxClosed) {
			s.logger.Warn("rollback snapshot transaction", zap.Error(rerr))
		}
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM ecfr_titles`); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	for _, t := range titles {
		payload, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("marshal title %d: %w", t.Number, err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO ecfr_titles (number, payload) VALUES ($1, $2)`,
			t.Number, payload,
		); err != nil {
			return fmt.Errorf("insert title %d: %w", t.Number, err)
		}
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO snapshot_meta (id, total_titles, last_update, version)
		 VALUES (TRUE, $1, $2, $3)
		 ON CONFLICT (id) DO UPDATE
		 SET total_titles = EXCLUDED.total_titles,
		     last_update = EXCLUDED.last_update,
		     version = EXCLUDED.version`,
		len(titles), s.clock.Now(), storage.SnapshotVersion,
	); err != nil {
		return fmt.Errorf("update snapshot metadata: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	s.logger.Info("snapshot saved to postgres", zap.Int("titles", len(titles)))
	return nil
}

// LoadTitles returns the current snapshot ordered by title number, or
// an empty slice when no snapshot exists.
func (s *Store) LoadTitles(ctx context.Context) ([]ecfr.Title, error) {
	rows, err := s.db.Query(ctx, `SELECT payload FROM ecfr_titles ORDER BY number`)
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}
	defer rows.Close()

	titles := []ecfr.Title{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan title row: %w", err)
		}
		var t ecfr.Title
		if err := json.Unmarshal(payload, &t); err != nil {
			return nil, fmt.Errorf("decode title row: %w", err)
		}
		titles = append(titles, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}
	return titles, nil
}

// HasExistingData reports whether a non-empty snapshot exists.
func (s *Store) HasExistingData(ctx context.Context) (bool, error) {
	var count int
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM ecfr_titles`).Scan(&count); err != nil {
		return false, fmt.Errorf("count titles: %w", err)
	}
	return count > 0, nil
}

// LastUpdateTime returns the metadata timestamp of the last save.
func (s *Store) LastUpdateTime(ctx context.Context) (time.Time, bool, error) {
	var last time.Time
	err := s.db.QueryRow(ctx, `SELECT last_update FROM snapshot_meta WHERE id`).Scan(&last)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read snapshot metadata: %w", err)
	}
	return last, true, nil
}

// SaveArtifact upserts one derived artifact as JSONB.
func (s *Store) SaveArtifact(ctx context.Context, name string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal artifact %s: %w", name, err)
	}
	if _, err := s.db.Exec(ctx,
		`INSERT INTO artifacts (name, payload, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (name) DO UPDATE
		 SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`,
		name, data, s.clock.Now(),
	); err != nil {
		return fmt.Errorf("save artifact %s: %w", name, err)
	}
	return nil
}

// Close releases the underlying pool.
func (s *Store) Close() {
	s.db.Close()
}
