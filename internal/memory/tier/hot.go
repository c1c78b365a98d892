// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Strata Contributors

package tier

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/strata-dev/strata/internal/memory"
	strataerr "github.com/strata-dev/strata/pkg/errors"
)

// Compile-time interface checks.
var (
	_ memory.TierStore      = (*HotStore)(nil)
	_ memory.PayloadRemover = (*HotStore)(nil)
)

// HotStore is the small, low-latency key/value tier, bounded by item count.
// It has no built-in eviction: capacity discipline is the caller's
// responsibility, and stores beyond the bound fail with a capacity error.
type HotStore struct {
	mu       sync.RWMutex
	items    map[string]*memory.Payload
	maxItems int
}

// NewHotStore creates a hot store bounded to maxItems entries. Zero means
// unbounded.
func NewHotStore(maxItems int) *HotStore {
	return &HotStore{
		items:    make(map[string]*memory.Payload),
		maxItems: maxItems,
	}
}

func (s *HotStore) Tier() memory.Tier { return memory.TierHot }

// Store keeps the payload in memory and returns its generated locator.
func (s *HotStore) Store(_ context.Context, p *memory.Payload) (string, error) {
	if p == nil {
		return "", strataerr.New(strataerr.CodeTierPayloadInvalid, "nil payload")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxItems > 0 && len(s.items) >= s.maxItems {
		return "", strataerr.New(strataerr.CodeTierCapacityExceeded, "hot tier at capacity",
			strataerr.FieldTier(string(memory.TierHot)), strataerr.Field("max_items", s.maxItems))
	}

	location := "h_" + uuid.NewString()
	s.items[location] = p
	return location, nil
}

func (s *HotStore) Retrieve(_ context.Context, location string) (*memory.Payload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.items[location]
	if !ok {
		return nil, strataerr.New(strataerr.CodeTierPayloadNotFound, "no payload at location",
			strataerr.FieldTier(string(memory.TierHot)), strataerr.FieldLocation(location))
	}
	return p, nil
}

func (s *HotStore) Schema(_ context.Context, location string) (*memory.SchemaDescriptor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.items[location]
	if !ok {
		return nil, strataerr.New(strataerr.CodeTierPayloadNotFound, "no payload at location",
			strataerr.FieldTier(string(memory.TierHot)), strataerr.FieldLocation(location))
	}
	return deriveSchema(p), nil
}

// Remove deletes the payload at location.
func (s *HotStore) Remove(_ context.Context, location string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[location]; !ok {
		return strataerr.New(strataerr.CodeTierPayloadNotFound, "no payload at location",
			strataerr.FieldTier(string(memory.TierHot)), strataerr.FieldLocation(location))
	}
	delete(s.items, location)
	return nil
}

// Len reports the current number of resident items.
func (s *HotStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Cleanup drops all resident payloads.
func (s *HotStore) Cleanup(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]*memory.Payload)
	return nil
}
