// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Strata Contributors

package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	var k int

	cmd := &cobra.Command{
		Use:   "search <query>...",
		Short: "Search stored schemas by similarity",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			results, err := app.Manager.Index().Search(cmd.Context(), strings.Join(args, " "), k)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DATA ID\tTIER\tTYPE\tDISTANCE")
			for _, r := range results {
				fmt.Fprintf(w, "%s\t%s\t%s\t%.4f\n", r.DataID, r.Tier, r.DataType, r.Distance)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&k, "top", "k", 5, "maximum number of results")
	return cmd
}
