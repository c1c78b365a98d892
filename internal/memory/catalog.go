// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Strata Contributors

package memory

import "context"

// Catalog is the authoritative metadata registry spanning all tiers.
//
// Mutating operations (Register, UpdateAccess, UpdateTier, DeleteData) are
// serialized by the implementation (single-writer discipline over the
// backing store); reads may run concurrently against a consistent snapshot.
type Catalog interface {
	// Register inserts a new entry with a freshly generated unique data id,
	// created_at = last_accessed = now, and access_count = 0.
	Register(ctx context.Context, reg Registration) (string, error)

	// UpdateAccess increments the entry's access count and refreshes its
	// last-accessed timestamp. Unknown ids fail with a not-found error.
	UpdateAccess(ctx context.Context, dataID string) error

	// GetDataInfo returns the entry for dataID, or a not-found error.
	GetDataInfo(ctx context.Context, dataID string) (*CatalogEntry, error)

	// SearchByTags returns entries whose tag set is a superset of the query
	// tags (AND semantics across requested tags).
	SearchByTags(ctx context.Context, tags []string) ([]*CatalogEntry, error)

	// GetTierData returns all live entries registered for the tier.
	GetTierData(ctx context.Context, tier Tier) ([]*CatalogEntry, error)

	// UpdateTier rewrites the entry's tier and location (promotion or
	// demotion), preserving its data id and creation time.
	UpdateTier(ctx context.Context, dataID string, tier Tier, location string) error

	// DeleteData removes the entry, reporting whether it existed. Deleting
	// an absent id is not an error (idempotent).
	DeleteData(ctx context.Context, dataID string) (bool, error)

	Close() error
}
