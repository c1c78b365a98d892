// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Strata Contributors

package tier

import (
	"container/heap"
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/hupe1980/vecgo/hnsw"

	"github.com/strata-dev/strata/internal/memory"
	strataerr "github.com/strata-dev/strata/pkg/errors"
)

// Compile-time interface checks.
var (
	_ memory.TierStore        = (*RedHotStore)(nil)
	_ memory.VectorSearcher   = (*RedHotStore)(nil)
	_ memory.EvictionNotifier = (*RedHotStore)(nil)
)

// defaultEFSearch is the minimum search beam width.
const defaultEFSearch = 64

// redhotEntry is one resident vector with its metadata and recency stamp.
type redhotEntry struct {
	location   string
	vector     []float32
	attrs      map[string]string
	kind       memory.DataType
	lastAccess uint64
}

// RedHotStore holds float vectors plus arbitrary metadata in an in-process
// HNSW graph bounded by maxSize entries. The graph has no delete primitive:
// when a store at capacity admits a new item, the least-recently-accessed
// entry is dropped and the whole graph is rebuilt from the survivors (O(n)).
//
// Concurrent searches block for the duration of a rebuild; that liveness
// trade-off is accepted.
type RedHotStore struct {
	mu        sync.Mutex
	dimension int
	maxSize   int
	clock     uint64
	entries   map[string]*redhotEntry
	graph     *hnsw.HNSW
	byNode    map[uint32]string
	onEvict   func(location string)
}

// NewRedHotStore creates a red-hot store for vectors of the given dimension,
// bounded to maxSize entries. Zero means unbounded.
func NewRedHotStore(dimension, maxSize int) *RedHotStore {
	return &RedHotStore{
		dimension: dimension,
		maxSize:   maxSize,
		entries:   make(map[string]*redhotEntry),
		graph:     hnsw.New(dimension),
		byNode:    make(map[uint32]string),
	}
}

func (s *RedHotStore) Tier() memory.Tier { return memory.TierRedHot }

// OnEvict registers the callback invoked with the location of every entry
// dropped by inline eviction.
func (s *RedHotStore) OnEvict(fn func(location string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEvict = fn
}

// Store admits a vector payload, evicting the least-recently-accessed entry
// when the admission pushes the store over capacity. Eviction runs only after
// the insert has succeeded, so a failed store never destroys a resident entry.
func (s *RedHotStore) Store(_ context.Context, p *memory.Payload) (string, error) {
	if p == nil || len(p.Vector) == 0 {
		return "", strataerr.New(strataerr.CodeTierPayloadInvalid, "red_hot tier stores vector payloads only")
	}
	if len(p.Vector) != s.dimension {
		return "", strataerr.Errorf(strataerr.CodeTierPayloadInvalid, "vector dimension %d, want %d", len(p.Vector), s.dimension)
	}

	s.mu.Lock()

	location := "v_" + uuid.NewString()
	vector := make([]float32, len(p.Vector))
	copy(vector, p.Vector)

	s.clock++
	entry := &redhotEntry{
		location:   location,
		vector:     vector,
		attrs:      p.Attrs,
		kind:       p.Kind,
		lastAccess: s.clock,
	}

	nodeID, err := s.graph.Insert(vector)
	if err != nil {
		s.mu.Unlock()
		return "", strataerr.Wrapf(err, strataerr.CodeIndexRebuildFailure, "inserting vector into red_hot graph")
	}
	s.byNode[nodeID] = location
	s.entries[location] = entry

	// The new entry holds the freshest access stamp, so it is never the victim.
	var evicted string
	if s.maxSize > 0 && len(s.entries) > s.maxSize {
		evicted = s.evictLocked()
	}

	onEvict := s.onEvict
	s.mu.Unlock()

	if evicted != "" && onEvict != nil {
		onEvict(evicted)
	}
	return location, nil
}

// evictLocked drops the least-recently-accessed entry and rebuilds the graph
// from the survivors. Callers hold the mutex. Returns the evicted location.
func (s *RedHotStore) evictLocked() string {
	var victim *redhotEntry
	for _, e := range s.entries {
		if victim == nil || e.lastAccess < victim.lastAccess {
			victim = e
		}
	}
	if victim == nil {
		return ""
	}

	delete(s.entries, victim.location)
	s.rebuildLocked()

	slog.Info("red_hot eviction",
		"location", victim.location, "survivors", len(s.entries))
	return victim.location
}

// rebuildLocked reconstructs the HNSW graph and node map from the current
// entries. The graph has no delete primitive, so this is the only way to
// make a removed vector unreachable.
func (s *RedHotStore) rebuildLocked() {
	graph := hnsw.New(s.dimension)
	byNode := make(map[uint32]string, len(s.entries))

	for location, e := range s.entries {
		nodeID, err := graph.Insert(e.vector)
		if err != nil {
			// Resident vectors already passed the dimension check on admission.
			slog.Error("red_hot rebuild skipped a resident vector", "location", location, "error", err)
			continue
		}
		byNode[nodeID] = location
	}

	s.graph = graph
	s.byNode = byNode
}

func (s *RedHotStore) Retrieve(_ context.Context, location string) (*memory.Payload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[location]
	if !ok {
		return nil, strataerr.New(strataerr.CodeTierPayloadNotFound, "no payload at location",
			strataerr.FieldTier(string(memory.TierRedHot)), strataerr.FieldLocation(location))
	}

	s.clock++
	e.lastAccess = s.clock

	vector := make([]float32, len(e.vector))
	copy(vector, e.vector)

	return &memory.Payload{Kind: e.kind, Vector: vector, Attrs: e.attrs}, nil
}

func (s *RedHotStore) Schema(_ context.Context, location string) (*memory.SchemaDescriptor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[location]
	if !ok {
		return nil, strataerr.New(strataerr.CodeTierPayloadNotFound, "no payload at location",
			strataerr.FieldTier(string(memory.TierRedHot)), strataerr.FieldLocation(location))
	}

	return deriveSchema(&memory.Payload{Kind: e.kind, Vector: e.vector, Attrs: e.attrs}), nil
}

// VectorSearch returns up to k nearest entries ascending by distance. Hits
// refresh entry recency.
func (s *RedHotStore) VectorSearch(_ context.Context, query []float32, k int) ([]memory.VectorMatch, error) {
	if len(query) != s.dimension {
		return nil, strataerr.Errorf(strataerr.CodeTierPayloadInvalid, "query dimension %d, want %d", len(query), s.dimension)
	}
	if k <= 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) == 0 {
		return nil, nil
	}

	// The graph seeds node 0 with a sentinel zero vector; over-fetch by one
	// and drop anything without a mapped entry.
	fetch := k + 1
	ef := fetch
	if ef < defaultEFSearch {
		ef = defaultEFSearch
	}
	queue, err := s.graph.KNNSearch(query, fetch, ef)
	if err != nil {
		return nil, strataerr.Wrapf(err, strataerr.CodeIndexRebuildFailure, "searching red_hot graph")
	}

	// The result heap pops farthest-first; collect and reverse for ascending.
	matches := make([]memory.VectorMatch, 0, queue.Len())
	for queue.Len() > 0 {
		item, _ := heap.Pop(queue).(*hnsw.PriorityQueueItem)
		location, ok := s.byNode[item.Node]
		if !ok {
			continue
		}
		matches = append(matches, memory.VectorMatch{
			Location: location,
			Distance: item.Distance,
			Attrs:    s.entries[location].attrs,
		})
	}
	reverseMatches(matches)
	if len(matches) > k {
		matches = matches[:k]
	}

	// Only returned hits refresh recency.
	for _, match := range matches {
		s.clock++
		s.entries[match.Location].lastAccess = s.clock
	}
	return matches, nil
}

// TotalVectors reports the number of resident entries.
func (s *RedHotStore) TotalVectors() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Cleanup drops all entries and the graph.
func (s *RedHotStore) Cleanup(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*redhotEntry)
	s.byNode = make(map[uint32]string)
	s.graph = hnsw.New(s.dimension)
	return nil
}

func reverseMatches(m []memory.VectorMatch) {
	for i, j := 0, len(m)-1; i < j; i, j = i+1, j-1 {
		m[i], m[j] = m[j], m[i]
	}
}
