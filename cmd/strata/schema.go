// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Strata Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/strata-dev/strata/internal/memory"
)

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema <data-id>",
		Short: "Show the derived schema of a stored data object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			entry, err := app.Manager.Catalog().GetDataInfo(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			store, err := app.Manager.Store(entry.Tier)
			if err != nil {
				return err
			}

			desc, err := store.Schema(cmd.Context(), entry.Location)
			if err != nil {
				return err
			}

			return printJSON(cmd, schemaView(desc))
		},
	}
}

// schemaView shapes a schema descriptor for display.
func schemaView(desc *memory.SchemaDescriptor) map[string]any {
	fields := make([]map[string]string, 0, len(desc.Fields))
	for _, f := range desc.Fields {
		fields = append(fields, map[string]string{"name": f.Name, "type": f.Type})
	}
	view := map[string]any{
		"kind":   desc.Kind,
		"fields": fields,
	}
	if desc.Source != "" {
		view["source"] = desc.Source
	}
	if desc.TableName != "" {
		view["table_name"] = desc.TableName
	}
	return view
}
