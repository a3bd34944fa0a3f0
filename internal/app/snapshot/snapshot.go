/*
Package snapshot persists directory state to PostgreSQL.

A snapshot is a JSON image of every known user and group, written on shutdown
and loaded on the next start so slots and names survive a restart. Persistence
is best effort and optional: a server started without a DSN runs purely in
memory and loses nothing but history.
*/
package snapshot

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"

	"github.com/GuahBy/projetISY/internal/app/directory"
	"github.com/GuahBy/projetISY/internal/pkg/errs"
	"github.com/GuahBy/projetISY/internal/pkg/logx"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

// keepSnapshots bounds the table: older rows beyond this count are pruned
// after each successful save.
const keepSnapshots = 10

// Store reads and writes directory snapshots in PostgreSQL.
type Store struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewStore initializes the connection pool, applies pending migrations, and
// returns a ready Store.
func NewStore(dsn string) (*Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database DSN: %w", err)
	}

	config.MaxConns = 5
	config.MinConns = 1
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute
	config.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	sqlDB := stdlib.OpenDB(*pool.Config().ConnConfig)
	defer sqlDB.Close()

	if err := runMigrations(sqlDB); err != nil {
		pool.Close()
		return nil, err
	}

	return &Store{
		pool:   pool,
		logger: logx.Logger().With().Str("component", "SnapshotStore").Logger(),
	}, nil
}

// runMigrations applies all pending migrations from the embedded file system.
func runMigrations(db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}

// Save writes one snapshot row and prunes rows beyond the retention bound.
func (s *Store) Save(ctx context.Context, snap directory.Snapshot) *errs.CustomError {
	state, err := json.Marshal(snap)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode snapshot.")
		return errs.NewError(errs.ErrSnapshotFailed)
	}

	if _, err := s.pool.Exec(ctx,
		`INSERT INTO directory_snapshots (state) VALUES ($1)`, state); err != nil {
		s.logger.Error().Err(err).Msg("Failed to insert snapshot.")
		return errs.NewError(errs.ErrSnapshotFailed)
	}

	if _, err := s.pool.Exec(ctx,
		`DELETE FROM directory_snapshots
		 WHERE id NOT IN (
		     SELECT id FROM directory_snapshots ORDER BY created_at DESC LIMIT $1
		 )`, keepSnapshots); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to prune old snapshots.")
	}

	s.logger.Info().Int("users", len(snap.Users)).Int("groups", len(snap.Groups)).Msg("Snapshot saved.")
	return nil
}

// Load returns the most recent snapshot. The boolean is false when the table
// is empty.
func (s *Store) Load(ctx context.Context) (directory.Snapshot, bool, *errs.CustomError) {
	var state []byte
	err := s.pool.QueryRow(ctx,
		`SELECT state FROM directory_snapshots ORDER BY created_at DESC LIMIT 1`).Scan(&state)
	if errors.Is(err, pgx.ErrNoRows) {
		return directory.Snapshot{}, false, nil
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to query snapshot.")
		return directory.Snapshot{}, false, errs.NewError(errs.ErrSnapshotFailed)
	}

	var snap directory.Snapshot
	if err := json.Unmarshal(state, &snap); err != nil {
		s.logger.Error().Err(err).Msg("Failed to decode snapshot.")
		return directory.Snapshot{}, false, errs.NewError(errs.ErrSnapshotFailed)
	}

	return snap, true, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}
