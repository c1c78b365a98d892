// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Strata Contributors

package memory

import "context"

// TierStore is the physical storage for one tier.
//
// Payload writes and catalog registration are two separate, non-transactional
// steps: a payload written but never registered is an orphan (safe to
// garbage-collect later); a catalog row whose payload is missing surfaces as
// a not-found error on Retrieve rather than being silently healed.
type TierStore interface {
	// Tier names the storage class this store implements.
	Tier() Tier

	// Store persists a payload and returns its tier-local locator.
	Store(ctx context.Context, p *Payload) (string, error)

	// Retrieve loads the payload at location, or fails not-found.
	Retrieve(ctx context.Context, location string) (*Payload, error)

	// Schema derives the schema descriptor for the payload at location.
	Schema(ctx context.Context, location string) (*SchemaDescriptor, error)

	// Cleanup releases the store's resources.
	Cleanup(ctx context.Context) error
}

// VectorSearcher is the optional vector-similarity capability of a tier
// store (the red-hot tier). Search hits refresh entry recency.
type VectorSearcher interface {
	VectorSearch(ctx context.Context, query []float32, k int) ([]VectorMatch, error)
}

// PayloadRemover is the optional delete capability of a tier store. Stores
// whose backing structure has no delete primitive (the red-hot ANN graph)
// do not implement it; their payloads are reclaimed by eviction instead.
type PayloadRemover interface {
	Remove(ctx context.Context, location string) error
}

// EvictionNotifier is implemented by capacity-bounded stores that evict
// inline. Eviction destroys the entry, so the registered callback must
// remove the matching catalog row as well as the payload.
type EvictionNotifier interface {
	OnEvict(fn func(location string))
}
