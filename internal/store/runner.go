// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warcade Contributors

package store

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"
)

// Runner applies each plugin's schema statements inside that plugin's own
// namespace. There is no migration-version ledger: statements are applied
// once per process start and must be idempotent ("create if not exists"
// style). A failure is fatal to that one plugin's initialization, never
// to the process.
type Runner struct {
	db DB
}

// NewRunner creates a migration runner over the runtime database.
func NewRunner(db DB) *Runner {
	return &Runner{db: db}
}

// Runner on a Store's pool.
func (s *Store) Runner() *Runner {
	return &Runner{db: s.db}
}

// Migrate executes statements in the plugin's schema namespace. The whole
// batch runs in one transaction: a plugin is either fully migrated or
// untouched, with no half-initialized state.
func (r *Runner) Migrate(ctx context.Context, pluginID string, statements ...string) error {
	schema, err := schemaName(pluginID)
	if err != nil {
		return err
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return oops.Code("MIGRATION_FAILED").
			With("plugin", pluginID).
			Wrapf(err, "begin migration transaction")
	}
	defer func() {
		_ = tx.Rollback(ctx) //nolint:errcheck // no-op after commit
	}()

	if _, err := tx.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+schema); err != nil {
		return migrationError(pluginID, "create schema", err)
	}
	// Pin the search path so plugin statements cannot touch another
	// plugin's tables by accident. SET LOCAL scopes it to this
	// transaction.
	if _, err := tx.Exec(ctx, "SET LOCAL search_path TO "+schema); err != nil {
		return migrationError(pluginID, "set search path", err)
	}

	for i, stmt := range statements {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return oops.Code("MIGRATION_FAILED").
				With("plugin", pluginID).
				With("statement", i).
				With("pg_code", pgErrorCode(err)).
				Wrap(err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return migrationError(pluginID, "commit migration", err)
	}
	return nil
}

// schemaName derives the namespace for a plugin id. Ids are already
// restricted to [a-z0-9-], so replacing hyphens yields a safe
// identifier; anything else is rejected rather than quoted.
func schemaName(pluginID string) (string, error) {
	if pluginID == "" {
		return "", oops.Code("MIGRATION_FAILED").Errorf("empty plugin id")
	}
	for _, c := range pluginID {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '-' {
			return "", oops.Code("MIGRATION_FAILED").
				With("plugin", pluginID).
				Errorf("plugin id %q is not a valid schema namespace", pluginID)
		}
	}
	return "plugin_" + strings.ReplaceAll(pluginID, "-", "_"), nil
}

func migrationError(pluginID, op string, err error) error {
	return oops.Code("MIGRATION_FAILED").
		With("plugin", pluginID).
		With("operation", op).
		With("pg_code", pgErrorCode(err)).
		Wrap(err)
}

// pgErrorCode extracts the SQLSTATE code for error classification, e.g.
// pgerrcode.SyntaxError for malformed plugin statements.
func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsSyntaxError reports whether a migration failure came from a
// malformed statement rather than database state.
func IsSyntaxError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgerrcode.IsSyntaxErrororAccessRuleViolation(pgErr.Code)
	}
	return false
}
