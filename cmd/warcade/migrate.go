// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warcade Contributors

package main

import (
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/warcade/warcade/internal/config"
	"github.com/warcade/warcade/internal/store"
)

// NewMigrateCmd creates the migrate subcommand.
func NewMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply runtime schema migrations",
		Long: `Apply the runtime's own schema migrations (the plugin ledger).
Plugin schemas are created by each plugin at startup and are not managed
here.`,
		RunE: runMigrate,
	}

	cmd.Flags().String("database_url", "", "PostgreSQL connection string (defaults to DATABASE_URL)")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}

	databaseURL := cfg.DatabaseURL
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		return oops.Code("CONFIG_INVALID").
			Errorf("no database URL; set --database_url or DATABASE_URL")
	}

	migrator, err := store.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		_ = migrator.Close() //nolint:errcheck // best-effort close
	}()

	if err := migrator.Up(); err != nil {
		return err
	}

	version, dirty, err := migrator.Version()
	if err != nil {
		return err
	}
	cmd.Printf("runtime schema at version %d (dirty=%v)\n", version, dirty)
	return nil
}
