// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warcade Contributors

package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/warcade/warcade/internal/config"
	"github.com/warcade/warcade/internal/event"
	"github.com/warcade/warcade/internal/logging"
	"github.com/warcade/warcade/internal/observability"
	"github.com/warcade/warcade/internal/plugin"
	"github.com/warcade/warcade/internal/runtime"
	"github.com/warcade/warcade/internal/store"
	"github.com/warcade/warcade/pkg/errutil"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Load all plugins and run the runtime",
		Long: `Resolve the plugin load order, load native plugins, run their
initialization, and serve until interrupted.`,
		RunE: runServe,
	}

	defaults := config.Default()
	cmd.Flags().String("descriptor_file", defaults.DescriptorFile, "plugin descriptor JSON file")
	cmd.Flags().String("plugins_dir", defaults.PluginsDir, "directory resolving relative plugin paths")
	cmd.Flags().String("database_url", "", "PostgreSQL connection string (empty = no persistence)")
	cmd.Flags().String("metrics_addr", defaults.MetricsAddr, "metrics/health HTTP address (empty = disabled)")
	cmd.Flags().String("log_format", defaults.LogFormat, "log format (json or text)")
	cmd.Flags().Int("event_buffer", defaults.EventBuffer, "per-subscription event buffer capacity")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}

	logging.SetDefault("warcade", version, cfg.LogFormat)
	logger := slog.Default()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := []runtime.Option{
		runtime.WithBus(event.NewBus(event.WithBufferSize(cfg.EventBuffer))),
	}

	var st *store.Store
	if cfg.DatabaseURL != "" {
		st, err = store.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer st.Close()

		migrator, err := store.NewMigrator(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		if err := migrator.Up(); err != nil {
			_ = migrator.Close()
			return err
		}
		_ = migrator.Close()

		opts = append(opts, runtime.WithStore(st))
	} else {
		logger.Warn("no database configured; plugin migrations disabled")
	}

	opts = append(opts, runtime.WithLoaderOptions(plugin.WithBaseDir(cfg.PluginsDir)))

	rt := runtime.New(newSource(cfg), opts...)

	var obsErr <-chan error
	if cfg.MetricsAddr != "" {
		obs := observability.NewServer(cfg.MetricsAddr, rt.Ready)
		obsErr, err = obs.Start()
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if stopErr := obs.Stop(shutdownCtx); stopErr != nil {
				errutil.LogError(logger, "observability server stop failed", stopErr)
			}
		}()
	}

	if err := rt.Load(ctx); err != nil {
		return err
	}
	if err := rt.Start(ctx); err != nil {
		return err
	}

	logger.Info("runtime started",
		"plugins", len(rt.Plugins()),
		"locked", lockedMode)

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case serveErr, ok := <-obsErr:
		if ok && serveErr != nil {
			errutil.LogError(logger, "observability server failed", serveErr)
			return serveErr
		}
		<-ctx.Done()
		logger.Info("shutting down")
	}

	return nil
}

// newSource builds the descriptor source. In locked builds the embedded
// plugin set replaces the descriptor file; the rest of the pipeline is
// agnostic to which supplied it.
func newSource(cfg config.Config) plugin.Source {
	if lockedMode {
		return plugin.NewLockedSource(lockedPlugins, "")
	}
	return plugin.NewFileSource(cfg.DescriptorFile)
}
