// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Strata Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/strata-dev/strata/internal/memory"
)

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <data-id>",
		Short: "Show the catalog entry for a data object",
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

			return printJSON(cmd, entryView(entry))
		},
	}
}

// entryView shapes a catalog entry for display.
func entryView(e *memory.CatalogEntry) map[string]any {
	view := map[string]any{
		"data_id":       e.DataID,
		"tier":          e.Tier,
		"location":      e.Location,
		"data_type":     e.DataType,
		"size":          e.Size,
		"created_at":    e.CreatedAt,
		"last_accessed": e.LastAccessed,
		"access_count":  e.AccessCount,
	}
	if len(e.Tags) > 0 {
		view["tags"] = e.Tags
	}
	if e.TableName != "" {
		view["table_name"] = e.TableName
	}
	if e.Meta != nil {
		view["meta"] = e.Meta
	}
	return view
}
