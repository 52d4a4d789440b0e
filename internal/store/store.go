// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warcade Contributors

// Package store provides PostgreSQL-backed persistence: the runtime's own
// plugin ledger and the per-plugin schema migration runner.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

// DB is the subset of pgxpool.Pool the store needs. pgxmock satisfies it
// in unit tests.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// Store wraps a connection pool to the runtime database.
type Store struct {
	db DB
}

// New connects to the database, retrying with exponential backoff while
// it comes up. The pool is shared by the ledger and the migration
// runner; plugins are expected to open and guard their own connections
// per call rather than sharing this one.
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").Wrapf(err, "create connection pool")
	}

	backoff := retry.WithMaxRetries(5, retry.NewExponential(500*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if pingErr := pool.Ping(ctx); pingErr != nil {
			return retry.RetryableError(pingErr)
		}
		return nil
	})
	if err != nil {
		pool.Close()
		return nil, oops.Code("DB_CONNECT_FAILED").Wrapf(err, "ping database")
	}

	return &Store{db: pool}, nil
}

// NewWithDB wraps an existing pool or mock.
func NewWithDB(db DB) *Store {
	return &Store{db: db}
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.db.Close()
}

// PluginRecord is one row of the runtime's loaded-plugin ledger.
type PluginRecord struct {
	ID          string
	Name        string
	Version     string
	HasBackend  bool
	HasFrontend bool
	LoadedAt    time.Time
}

// RecordPlugin upserts a ledger row for a loaded plugin.
func (s *Store) RecordPlugin(ctx context.Context, rec PluginRecord) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO runtime_plugins (id, name, version, has_backend, has_frontend, loaded_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE
		 SET name = EXCLUDED.name,
		     version = EXCLUDED.version,
		     has_backend = EXCLUDED.has_backend,
		     has_frontend = EXCLUDED.has_frontend,
		     loaded_at = EXCLUDED.loaded_at`,
		rec.ID, rec.Name, rec.Version, rec.HasBackend, rec.HasFrontend, rec.LoadedAt,
	)
	if err != nil {
		return oops.Code("LEDGER_WRITE_FAILED").
			With("plugin", rec.ID).
			Wrap(err)
	}
	return nil
}
