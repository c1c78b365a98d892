// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Strata Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/strata-dev/strata/internal/memory"
)

func newReindexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex [tier]",
		Short: "Rebuild the semantic index for one tier, or all tiers",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			if len(args) == 0 {
				if err := app.Manager.Index().UpdateAllIndexes(cmd.Context()); err != nil {
					return err
				}
				cmd.Println("all tier indexes rebuilt")
				return nil
			}

			t, err := memory.ParseTier(args[0])
			if err != nil {
				return err
			}
			if err := app.Manager.Index().UpdateIndex(cmd.Context(), t); err != nil {
				return err
			}
			cmd.Printf("%s index rebuilt\n", t)
			return nil
		},
	}
}
