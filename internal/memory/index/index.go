// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Strata Contributors

// Package index maintains the cross-tier semantic index. The index is a
// derived cache over catalog entries and tier-store schemas: it is never
// mutated in place, only rebuilt per tier and swapped in atomically.
package index

import (
	"container/heap"
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/dgraph-io/ristretto"
	"github.com/hupe1980/vecgo/hnsw"

	"github.com/strata-dev/strata/internal/memory"
	strataerr "github.com/strata-dev/strata/pkg/errors"
)

var _ memory.Index = (*SemanticIndex)(nil)

// defaultEFSearch is the minimum search beam width.
const defaultEFSearch = 64

// indexEntry ties a graph node back to its catalog identity.
type indexEntry struct {
	dataID   string
	location string
	dataType memory.DataType
}

// tierIndex is one tier's immutable snapshot: a graph plus the node-to-entry
// mapping it was built with. Snapshots are replaced whole, never mutated.
type tierIndex struct {
	graph  *hnsw.HNSW
	byNode map[uint32]int
	items  []indexEntry
}

// SemanticIndex implements memory.Index over per-tier HNSW snapshots.
// Schema embeddings are cached by payload location; locations are immutable,
// so a cached embedding never goes stale.
type SemanticIndex struct {
	catalog  memory.Catalog
	stores   map[memory.Tier]memory.TierStore
	embedder memory.Embedder
	cache    *ristretto.Cache

	mu    sync.RWMutex
	tiers map[memory.Tier]*tierIndex
}

// NewSemanticIndex wires an index over the given catalog and tier stores.
// cacheEntries bounds the embedding cache; zero picks a sensible default.
func NewSemanticIndex(catalog memory.Catalog, stores map[memory.Tier]memory.TierStore, embedder memory.Embedder, cacheEntries int64) (*SemanticIndex, error) {
	if cacheEntries <= 0 {
		cacheEntries = 4096
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cacheEntries * 10,
		MaxCost:     cacheEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, strataerr.Wrap(err, strataerr.CodeIndexRebuildFailure, "creating embedding cache")
	}

	return &SemanticIndex{
		catalog:  catalog,
		stores:   stores,
		embedder: embedder,
		cache:    cache,
		tiers:    make(map[memory.Tier]*tierIndex),
	}, nil
}

// UpdateIndex rebuilds one tier's snapshot from the catalog and the tier
// store's schemas. The previous snapshot stays live until the build succeeds.
func (x *SemanticIndex) UpdateIndex(ctx context.Context, tier memory.Tier) error {
	store, ok := x.stores[tier]
	if !ok {
		return strataerr.New(strataerr.CodeTierBackendUnavailable, "tier store not configured",
			strataerr.FieldTier(tier.String()))
	}

	entries, err := x.catalog.GetTierData(ctx, tier)
	if err != nil {
		return strataerr.Wrapf(err, strataerr.CodeIndexRebuildFailure, "listing %s entries", tier)
	}

	snapshot := &tierIndex{
		graph:  hnsw.New(x.embedder.Dimension()),
		byNode: make(map[uint32]int),
	}

	for _, entry := range entries {
		desc, serr := store.Schema(ctx, entry.Location)
		if serr != nil {
			if strataerr.IsNotFound(serr) {
				// Orphaned catalog row; the payload is gone. Skip rather than
				// fail the whole rebuild.
				slog.Warn("skipping entry with missing payload during index rebuild",
					"tier", tier, "data_id", entry.DataID, "location", entry.Location)
				continue
			}
			return strataerr.Wrapf(serr, strataerr.CodeIndexRebuildFailure, "deriving schema for %s", entry.DataID)
		}

		vector, eerr := x.embedSchema(entry.Location, desc)
		if eerr != nil {
			return strataerr.Wrapf(eerr, strataerr.CodeIndexRebuildFailure, "embedding schema for %s", entry.DataID)
		}

		nodeID, ierr := snapshot.graph.Insert(vector)
		if ierr != nil {
			return strataerr.Wrapf(ierr, strataerr.CodeIndexRebuildFailure, "inserting %s", entry.DataID)
		}
		snapshot.byNode[nodeID] = len(snapshot.items)
		snapshot.items = append(snapshot.items, indexEntry{
			dataID:   entry.DataID,
			location: entry.Location,
			dataType: entry.DataType,
		})
	}

	x.mu.Lock()
	x.tiers[tier] = snapshot
	x.mu.Unlock()

	slog.Debug("tier index rebuilt", "tier", tier, "entries", len(snapshot.items))
	return nil
}

// UpdateAllIndexes rebuilds every configured tier. A failing tier does not
// stop the others; failures are reported in aggregate.
func (x *SemanticIndex) UpdateAllIndexes(ctx context.Context) error {
	var errs []error
	for _, tier := range memory.Tiers() {
		if _, ok := x.stores[tier]; !ok {
			continue
		}
		if err := x.UpdateIndex(ctx, tier); err != nil {
			errs = append(errs, strataerr.With(err, strataerr.FieldTier(tier.String())))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return strataerr.Join(errs...)
}

// Search embeds the query and merges per-tier nearest neighbours ascending
// by distance, truncated to k.
func (x *SemanticIndex) Search(ctx context.Context, query string, k int) ([]memory.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, strataerr.New(strataerr.CodeIndexQueryInvalid, "empty query")
	}
	if k <= 0 {
		return nil, nil
	}

	vector, err := x.embedder.EmbedText(query)
	if err != nil {
		return nil, strataerr.Wrap(err, strataerr.CodeIndexQueryInvalid, "embedding query")
	}

	x.mu.RLock()
	snapshots := make(map[memory.Tier]*tierIndex, len(x.tiers))
	for tier, snap := range x.tiers {
		snapshots[tier] = snap
	}
	x.mu.RUnlock()

	var results []memory.SearchResult
	for tier, snap := range snapshots {
		matches, serr := searchSnapshot(snap, vector, k)
		if serr != nil {
			return nil, strataerr.With(serr, strataerr.FieldTier(tier.String()))
		}
		for _, m := range matches {
			m.Tier = tier
			results = append(results, m)
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Distance < results[j].Distance })
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Cleanup drops all snapshots, closes the embedding cache, and releases
// every tier store.
func (x *SemanticIndex) Cleanup(ctx context.Context) error {
	x.mu.Lock()
	x.tiers = make(map[memory.Tier]*tierIndex)
	x.mu.Unlock()

	x.cache.Close()

	var errs []error
	for tier, store := range x.stores {
		if err := store.Cleanup(ctx); err != nil {
			errs = append(errs, strataerr.With(err, strataerr.FieldTier(tier.String())))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return strataerr.Join(errs...)
}

// embedSchema returns the cached embedding for a location, computing and
// caching it on miss.
func (x *SemanticIndex) embedSchema(location string, desc *memory.SchemaDescriptor) ([]float32, error) {
	if cached, ok := x.cache.Get(location); ok {
		if vector, ok := cached.([]float32); ok {
			return vector, nil
		}
	}

	vector, err := x.embedder.EmbedSchema(desc)
	if err != nil {
		return nil, err
	}
	x.cache.Set(location, vector, 1)
	return vector, nil
}

// searchSnapshot queries one tier snapshot, returning matches ascending by
// distance. The graph's sentinel seed node is skipped via the node map.
func searchSnapshot(snap *tierIndex, query []float32, k int) ([]memory.SearchResult, error) {
	if len(snap.items) == 0 {
		return nil, nil
	}

	fetch := k + 1
	ef := fetch
	if ef < defaultEFSearch {
		ef = defaultEFSearch
	}
	queue, err := snap.graph.KNNSearch(query, fetch, ef)
	if err != nil {
		return nil, strataerr.Wrap(err, strataerr.CodeIndexRebuildFailure, "searching tier index")
	}

	matches := make([]memory.SearchResult, 0, queue.Len())
	for queue.Len() > 0 {
		item, _ := heap.Pop(queue).(*hnsw.PriorityQueueItem)
		idx, ok := snap.byNode[item.Node]
		if !ok {
			continue
		}
		entry := snap.items[idx]
		matches = append(matches, memory.SearchResult{
			DataID:   entry.dataID,
			Location: entry.location,
			DataType: entry.dataType,
			Distance: item.Distance,
		})
	}

	// The heap pops farthest-first.
	for i, j := 0, len(matches)-1; i < j; i, j = i+1, j-1 {
		matches[i], matches[j] = matches[j], matches[i]
	}
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}
