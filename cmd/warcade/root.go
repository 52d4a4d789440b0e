// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warcade Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the Warcade CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "warcade",
		Short: "Warcade - a process-local plugin runtime",
		Long: `Warcade discovers, orders, and loads native plugins and wires
them together through a service registry and event bus.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewPluginsCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}
