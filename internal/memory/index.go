// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Strata Contributors

package memory

import "context"

// Index is the derived, rebuildable semantic index over catalog entries.
// It is strictly a cache: the catalog and tier stores remain the source of
// truth, and every maintenance operation is a full per-tier rebuild.
type Index interface {
	// UpdateIndex rebuilds the tier's vector index from catalog entries and
	// tier-store schemas, atomically replacing the previous index only on
	// full success (build-then-swap, never in-place mutation).
	UpdateIndex(ctx context.Context, tier Tier) error

	// UpdateAllIndexes rebuilds every known tier. Per-tier failures are
	// isolated and reported in aggregate; other tiers still update.
	UpdateAllIndexes(ctx context.Context) error

	// Search embeds the query text and merges per-tier results ascending by
	// distance, returning at most k. Tiers with no built index contribute
	// zero results. Empty queries fail with an invalid-query error.
	Search(ctx context.Context, query string, k int) ([]SearchResult, error)

	// Cleanup releases all indexes and asks every tier store to release its
	// own resources.
	Cleanup(ctx context.Context) error
}

// Embedder turns schema descriptors and query text into fixed-dimension
// vectors. It must be deterministic for identical input content; it is used
// only for approximate similarity, never exact identity.
type Embedder interface {
	EmbedSchema(s *SchemaDescriptor) ([]float32, error)
	EmbedText(text string) ([]float32, error)
	Dimension() int
}
