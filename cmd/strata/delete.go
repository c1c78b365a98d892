// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Strata Contributors

package main

import (
	"github.com/spf13/cobra"
)

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <data-id>",
		Short: "Delete a data object and its catalog entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			existed, err := app.Manager.Delete(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !existed {
				cmd.Printf("%s: not found\n", args[0])
				return nil
			}
			cmd.Printf("%s: deleted\n", args[0])
			return nil
		},
	}
}
