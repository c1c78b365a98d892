// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Strata Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/strata-dev/strata/internal/memory"
)

func newPromoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "promote <data-id> <tier>",
		Short: "Move a data object to another tier",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := memory.ParseTier(args[1])
			if err != nil {
				return err
			}

			app, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Manager.Promote(cmd.Context(), args[0], target); err != nil {
				return err
			}
			cmd.Printf("%s: now in %s\n", args[0], target)
			return nil
		},
	}
}
