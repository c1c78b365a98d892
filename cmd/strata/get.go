// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Strata Contributors

package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/strata-dev/strata/internal/memory"
)

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <data-id>",
		Short: "Retrieve a stored data object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			payload, entry, err := app.Manager.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return printJSON(cmd, payloadView(payload, entry))
		},
	}
}

// payloadView shapes a payload for display: raw bytes become a string, the
// structured variants pass through.
func payloadView(p *memory.Payload, entry *memory.CatalogEntry) map[string]any {
	view := map[string]any{
		"data_id": entry.DataID,
		"tier":    entry.Tier,
		"type":    p.Kind,
	}
	switch {
	case p.Table != nil:
		view["table"] = p.Table
	case len(p.Vector) > 0:
		view["vector"] = p.Vector
	default:
		view["bytes"] = string(p.Bytes)
	}
	if len(p.Attrs) > 0 {
		view["attrs"] = p.Attrs
	}
	return view
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
