// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Warcade Contributors

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/warcade/warcade/internal/config"
	"github.com/warcade/warcade/internal/plugin"
)

// NewPluginsCmd creates the plugins subcommand group.
func NewPluginsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "Inspect the plugin set without loading anything",
	}

	cmd.AddCommand(newPluginsListCmd())
	cmd.AddCommand(newPluginsSchemaCmd())

	return cmd
}

func newPluginsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the resolved plugin load order",
		Long: `Read the descriptor file, resolve dependencies, and print the
plugins in the order they would load. No native libraries are opened.`,
		RunE: runPluginsList,
	}

	cmd.Flags().String("descriptor_file", config.Default().DescriptorFile, "plugin descriptor JSON file")

	return cmd
}

func runPluginsList(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}

	descriptors, err := newSource(cfg).Descriptors()
	if err != nil {
		return err
	}
	enabled := plugin.Enabled(descriptors)

	order, err := plugin.Resolve(enabled)
	if err != nil {
		return err
	}

	if len(order) == 0 {
		cmd.Println("no enabled plugins")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ORDER\tID\tVERSION\tPRIORITY\tDEPENDENCIES")
	for i, id := range order {
		d := enabled[id]
		deps := "-"
		if len(d.Dependencies) > 0 {
			deps = fmt.Sprintf("%v", d.Dependencies)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", i+1, d.ID, d.Version, d.Priority, deps)
	}
	return w.Flush()
}

func newPluginsSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema for plugin manifests",
		Long: `Print the schema that loaded plugin manifests are validated
against. Plugin authors can use it to check manifests before shipping.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := plugin.GenerateSchema()
			if err != nil {
				return err
			}
			cmd.Println(string(data))
			return nil
		},
	}
}
