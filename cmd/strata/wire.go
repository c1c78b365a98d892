// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Strata Contributors

package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/strata-dev/strata/internal/config"
	"github.com/strata-dev/strata/internal/memory"
	"github.com/strata-dev/strata/internal/memory/embed"
	"github.com/strata-dev/strata/internal/memory/index"
	"github.com/strata-dev/strata/internal/memory/sqlite" // also registers the sqlite catalog backend
	"github.com/strata-dev/strata/internal/memory/tier"
	strataerr "github.com/strata-dev/strata/pkg/errors"
)

// App holds the wired memory subsystem and manages its lifecycle.
type App struct {
	Manager *memory.Manager
	Config  *config.Config
}

// WireApp creates the catalog, tier stores, embedder and semantic index, and
// composes them into a Manager. The in-memory tiers start empty each run;
// catalog rows pointing at them from earlier runs surface as not-found.
func WireApp(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
		return nil, strataerr.Errorf(strataerr.CodeCLISetupFailure, "creating data directory: %w", err)
	}

	catalog, err := memory.NewCatalog(cfg.Storage.Backend, cfg.CatalogPath())
	if err != nil {
		return nil, strataerr.Wrap(err, strataerr.CodeCLISetupFailure, "creating catalog")
	}

	warm, err := sqlite.NewTableStore(cfg.WarmDBPath(), memory.TierWarm, cfg.Tiers.Warm.MaxTables)
	if err != nil {
		_ = catalog.Close()
		return nil, strataerr.Wrap(err, strataerr.CodeCLISetupFailure, "creating warm tier")
	}

	cold, err := sqlite.NewTableStore(cfg.ColdDBPath(), memory.TierCold, cfg.Tiers.Cold.MaxTables)
	if err != nil {
		_ = catalog.Close()
		return nil, strataerr.Wrap(err, strataerr.CodeCLISetupFailure, "creating cold tier")
	}

	stores := map[memory.Tier]memory.TierStore{
		memory.TierHot:    tier.NewHotStore(cfg.Tiers.Hot.MaxItems),
		memory.TierWarm:   warm,
		memory.TierCold:   cold,
		memory.TierRedHot: tier.NewRedHotStore(cfg.Index.Dimensions, cfg.Tiers.RedHot.MaxSize),
	}

	if cfg.Tiers.Glacier.Enabled {
		glacier, gerr := tier.NewGlacierStore(tier.GlacierConfig{
			Endpoint:  cfg.Tiers.Glacier.Endpoint,
			AccessKey: cfg.Tiers.Glacier.AccessKey,
			SecretKey: cfg.Tiers.Glacier.SecretKey,
			UseSSL:    cfg.Tiers.Glacier.UseSSL,
			Bucket:    cfg.Tiers.Glacier.Bucket,
			Prefix:    cfg.Tiers.Glacier.Prefix,
		})
		if gerr != nil {
			_ = catalog.Close()
			return nil, strataerr.Wrap(gerr, strataerr.CodeCLISetupFailure, "creating glacier tier")
		}
		stores[memory.TierGlacier] = glacier
	}

	embedder := embed.NewHashingEmbedder(cfg.Index.Dimensions)

	idx, err := index.NewSemanticIndex(catalog, stores, embedder, cfg.Index.CacheEntries)
	if err != nil {
		_ = catalog.Close()
		return nil, strataerr.Wrap(err, strataerr.CodeCLISetupFailure, "creating semantic index")
	}

	mgr := memory.NewManager(catalog, stores, idx)

	// Indexes are process-local; rebuild from the catalog on startup.
	if err := idx.UpdateAllIndexes(ctx); err != nil {
		slog.Warn("startup index rebuild incomplete", "error", err)
	}

	return &App{Manager: mgr, Config: cfg}, nil
}

// Close releases all resources held by the app.
func (a *App) Close() error {
	return a.Manager.Cleanup(context.Background())
}

// loadApp loads config and wires the app for a CLI command.
func loadApp(cmd *cobra.Command) (*App, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return WireApp(cmd.Context(), cfg)
}
