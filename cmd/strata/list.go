// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Strata Contributors

package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/strata-dev/strata/internal/memory"
)

func newListCmd() *cobra.Command {
	var (
		tierName string
		tags     []string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog entries",
		Long: `List catalog entries, optionally filtered by tier or by tags.

Tag filtering has AND semantics: an entry matches only when it carries every
requested tag.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			var entries []*memory.CatalogEntry
			switch {
			case tierName != "":
				t, terr := memory.ParseTier(tierName)
				if terr != nil {
					return terr
				}
				entries, err = app.Manager.Catalog().GetTierData(cmd.Context(), t)
			default:
				entries, err = app.Manager.Catalog().SearchByTags(cmd.Context(), tags)
			}
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DATA ID\tTIER\tTYPE\tSIZE\tACCESSES\tTAGS")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%v\n",
					e.DataID, e.Tier, e.DataType, e.Size, e.AccessCount, e.Tags)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&tierName, "tier", "", "only entries in this tier")
	cmd.Flags().StringSliceVar(&tags, "tags", nil, "only entries carrying all of these tags")
	cmd.MarkFlagsMutuallyExclusive("tier", "tags")

	return cmd
}
