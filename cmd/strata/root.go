// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Strata Contributors

package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/strata-dev/strata/internal/config"
)

// NewRootCmd creates the root strata command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "strata",
		Short:         "Strata - tiered data memory",
		Long:          "Strata stores data objects across bounded hot, warm, cold, red-hot and glacier tiers,\nwith a metadata catalog and a rebuildable semantic index over stored schemas.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
			return nil
		},
	}

	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().String("data-dir", "", "path to data directory")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")

	root.AddCommand(
		newInitCmd(),
		newPutCmd(),
		newGetCmd(),
		newInfoCmd(),
		newDeleteCmd(),
		newPromoteCmd(),
		newListCmd(),
		newSchemaCmd(),
		newSearchCmd(),
		newReindexCmd(),
		newVersionCmd(),
	)

	return root
}

// loadConfig resolves the config file (flag, ./strata.yaml, or the default
// location, bootstrapping one if none exists) and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	if path == "" {
		if _, err := os.Stat("strata.yaml"); err == nil {
			path = "strata.yaml"
		} else if defaultPath, derr := config.DefaultConfigPath(); derr == nil {
			if _, err := os.Stat(defaultPath); err == nil {
				path = defaultPath
			} else if written := config.BootstrapConfig(); written != "" {
				path = written
			}
		}
	}

	config.WarnInsecurePermissions(path)

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if dataDir, _ := cmd.Flags().GetString("data-dir"); dataDir != "" {
		cfg.Storage.DataDir = dataDir
	}
	return cfg, nil
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config file if none exists",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if path := config.BootstrapConfig(); path != "" {
				cmd.Printf("created %s\n", path)
				return nil
			}
			path, err := config.DefaultConfigPath()
			if err != nil {
				return err
			}
			cmd.Printf("config already exists at %s\n", path)
			return nil
		},
	}
}
