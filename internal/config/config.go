// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Strata Contributors

package config

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	strataerr "github.com/strata-dev/strata/pkg/errors"
)

// Config is the top-level Strata configuration.
type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	Tiers   TiersConfig   `mapstructure:"tiers"`
	Index   IndexConfig   `mapstructure:"index"`
}

// StorageConfig selects the catalog backend and the on-disk data root.
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
	DataDir string `mapstructure:"data_dir"`
}

// TiersConfig bounds each storage tier.
type TiersConfig struct {
	Hot     HotTierConfig     `mapstructure:"hot"`
	Warm    TableTierConfig   `mapstructure:"warm"`
	Cold    TableTierConfig   `mapstructure:"cold"`
	RedHot  RedHotTierConfig  `mapstructure:"red_hot"`
	Glacier GlacierTierConfig `mapstructure:"glacier"`
}

// HotTierConfig bounds the in-memory key/value tier.
type HotTierConfig struct {
	MaxItems int `mapstructure:"max_items"`
}

// TableTierConfig bounds a SQL-table tier.
type TableTierConfig struct {
	MaxTables int `mapstructure:"max_tables"`
}

// RedHotTierConfig bounds the in-memory vector tier.
type RedHotTierConfig struct {
	MaxSize int `mapstructure:"max_size"`
}

// GlacierTierConfig holds the archive tier's object-store connection. The
// tier is optional: when disabled, entries simply cannot be placed there.
type GlacierTierConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Endpoint  string `mapstructure:"endpoint"`
	Bucket    string `mapstructure:"bucket"`
	Prefix    string `mapstructure:"prefix"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// IndexConfig controls the semantic index and its embedder.
type IndexConfig struct {
	Dimensions   int   `mapstructure:"dimensions"`
	CacheEntries int64 `mapstructure:"cache_entries"`
}

// CatalogPath returns the catalog database path under the data root.
func (c *Config) CatalogPath() string {
	return filepath.Join(c.Storage.DataDir, "catalog.db")
}

// WarmDBPath returns the warm tier's table database path.
func (c *Config) WarmDBPath() string {
	return filepath.Join(c.Storage.DataDir, "warm.db")
}

// ColdDBPath returns the cold tier's table database path.
func (c *Config) ColdDBPath() string {
	return filepath.Join(c.Storage.DataDir, "cold.db")
}

// Load reads configuration from the given path (or defaults) with
// environment variable overrides (prefix STRATA_).
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("storage.backend", "sqlite")
	v.SetDefault("storage.data_dir", defaultDataDir())
	v.SetDefault("tiers.hot.max_items", 128)
	v.SetDefault("tiers.warm.max_tables", 64)
	v.SetDefault("tiers.cold.max_tables", 256)
	v.SetDefault("tiers.red_hot.max_size", 1024)
	v.SetDefault("tiers.glacier.enabled", false)
	v.SetDefault("tiers.glacier.prefix", "strata")
	v.SetDefault("tiers.glacier.use_ssl", true)
	v.SetDefault("index.dimensions", 384)
	v.SetDefault("index.cache_entries", 4096)

	// Environment
	v.SetEnvPrefix("STRATA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// File
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, strataerr.Errorf(strataerr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, strataerr.Errorf(strataerr.CodeConfigParseInvalidFormat, "unmarshalling config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, strataerr.Errorf(strataerr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}

	return &cfg, nil
}

// Validate checks the configuration for logical errors. It returns a slice
// of all validation errors found, collecting all issues rather than stopping
// at the first one.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateStorage()...)
	errs = append(errs, c.validateTiers()...)
	errs = append(errs, c.validateIndex()...)

	return errs
}

func (c *Config) validateStorage() []error {
	var errs []error

	validBackends := map[string]bool{"sqlite": true}
	if !validBackends[c.Storage.Backend] {
		errs = append(errs, strataerr.Errorf(strataerr.CodeConfigValidateInvalidValue,
			"config: storage.backend must be one of [sqlite], got %q",
			c.Storage.Backend,
		))
	}

	if c.Storage.DataDir == "" {
		errs = append(errs, strataerr.Errorf(strataerr.CodeConfigValidateInvalidValue, "config: storage.data_dir must not be empty"))
	}

	return errs
}

func (c *Config) validateTiers() []error {
	var errs []error

	bounds := []struct {
		key   string
		value int
	}{
		{"tiers.hot.max_items", c.Tiers.Hot.MaxItems},
		{"tiers.warm.max_tables", c.Tiers.Warm.MaxTables},
		{"tiers.cold.max_tables", c.Tiers.Cold.MaxTables},
		{"tiers.red_hot.max_size", c.Tiers.RedHot.MaxSize},
	}
	for _, b := range bounds {
		if b.value < 0 {
			errs = append(errs, strataerr.Errorf(strataerr.CodeConfigValidateInvalidValue,
				"config: %s must not be negative, got %d", b.key, b.value))
		}
	}

	if c.Tiers.Glacier.Enabled {
		if c.Tiers.Glacier.Endpoint == "" {
			errs = append(errs, strataerr.Errorf(strataerr.CodeConfigValidateInvalidValue,
				"config: tiers.glacier.endpoint must not be empty when the glacier tier is enabled"))
		}
		if c.Tiers.Glacier.Bucket == "" {
			errs = append(errs, strataerr.Errorf(strataerr.CodeConfigValidateInvalidValue,
				"config: tiers.glacier.bucket must not be empty when the glacier tier is enabled"))
		}
	}

	return errs
}

func (c *Config) validateIndex() []error {
	var errs []error

	if c.Index.Dimensions <= 0 {
		errs = append(errs, strataerr.Errorf(strataerr.CodeConfigValidateInvalidValue,
			"config: index.dimensions must be greater than 0, got %d", c.Index.Dimensions))
	}
	if c.Index.CacheEntries < 0 {
		errs = append(errs, strataerr.Errorf(strataerr.CodeConfigValidateInvalidValue,
			"config: index.cache_entries must not be negative, got %d", c.Index.CacheEntries))
	}

	return errs
}
