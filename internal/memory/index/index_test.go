// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Strata Contributors

package index

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strata-dev/strata/internal/memory"
	"github.com/strata-dev/strata/internal/memory/embed"
	strataerr "github.com/strata-dev/strata/pkg/errors"
)

// fakeCatalog serves canned tier listings.
type fakeCatalog struct {
	byTier map[memory.Tier][]*memory.CatalogEntry
	errs   map[memory.Tier]error
}

func (c *fakeCatalog) Register(context.Context, memory.Registration) (string, error) {
	panic("not used")
}
func (c *fakeCatalog) UpdateAccess(context.Context, string) error { panic("not used") }
func (c *fakeCatalog) GetDataInfo(context.Context, string) (*memory.CatalogEntry, error) {
	panic("not used")
}
func (c *fakeCatalog) SearchByTags(context.Context, []string) ([]*memory.CatalogEntry, error) {
	panic("not used")
}
func (c *fakeCatalog) GetTierData(_ context.Context, tier memory.Tier) ([]*memory.CatalogEntry, error) {
	if err := c.errs[tier]; err != nil {
		return nil, err
	}
	return c.byTier[tier], nil
}
func (c *fakeCatalog) UpdateTier(context.Context, string, memory.Tier, string) error {
	panic("not used")
}
func (c *fakeCatalog) DeleteData(context.Context, string) (bool, error) { panic("not used") }
func (c *fakeCatalog) Close() error                                     { return nil }

// fakeStore serves canned schemas by location.
type fakeStore struct {
	tier     memory.Tier
	schemas  map[string]*memory.SchemaDescriptor
	cleanups int
}

func (s *fakeStore) Tier() memory.Tier { return s.tier }
func (s *fakeStore) Store(context.Context, *memory.Payload) (string, error) {
	panic("not used")
}
func (s *fakeStore) Retrieve(context.Context, string) (*memory.Payload, error) {
	panic("not used")
}
func (s *fakeStore) Schema(_ context.Context, location string) (*memory.SchemaDescriptor, error) {
	desc, ok := s.schemas[location]
	if !ok {
		return nil, strataerr.New(strataerr.CodeTierPayloadNotFound, "no payload at location")
	}
	return desc, nil
}
func (s *fakeStore) Cleanup(context.Context) error {
	s.cleanups++
	return nil
}

func entry(id, location string, tier memory.Tier) *memory.CatalogEntry {
	return &memory.CatalogEntry{DataID: id, Location: location, Tier: tier, DataType: memory.DataTypeDataFrame}
}

func censusSchema() *memory.SchemaDescriptor {
	return &memory.SchemaDescriptor{
		Kind:   memory.DataTypeDataFrame,
		Source: "census",
		Fields: []memory.FieldSchema{
			{Name: "ward", Type: "TEXT"},
			{Name: "population", Type: "INTEGER"},
		},
	}
}

func roadsSchema() *memory.SchemaDescriptor {
	return &memory.SchemaDescriptor{
		Kind:   memory.DataTypeGeoDataFrame,
		Source: "osm",
		Fields: []memory.FieldSchema{
			{Name: "geometry", Type: "TEXT"},
			{Name: "highway", Type: "TEXT"},
		},
	}
}

func newTestIndex(t *testing.T, catalog memory.Catalog, stores map[memory.Tier]memory.TierStore) *SemanticIndex {
	t.Helper()
	idx, err := NewSemanticIndex(catalog, stores, embed.NewHashingEmbedder(384), 0)
	require.NoError(t, err)
	return idx
}

func TestSearchRanksMatchingSchemaFirst(t *testing.T) {
	ctx := context.Background()
	catalog := &fakeCatalog{byTier: map[memory.Tier][]*memory.CatalogEntry{
		memory.TierWarm: {
			entry("id-census", "t_census", memory.TierWarm),
			entry("id-roads", "t_roads", memory.TierWarm),
		},
	}}
	stores := map[memory.Tier]memory.TierStore{
		memory.TierWarm: &fakeStore{tier: memory.TierWarm, schemas: map[string]*memory.SchemaDescriptor{
			"t_census": censusSchema(),
			"t_roads":  roadsSchema(),
		}},
	}

	idx := newTestIndex(t, catalog, stores)
	require.NoError(t, idx.UpdateIndex(ctx, memory.TierWarm))

	results, err := idx.Search(ctx, "census ward population", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "id-census", results[0].DataID)
	assert.Equal(t, memory.TierWarm, results[0].Tier)
	assert.LessOrEqual(t, results[0].Distance, results[1].Distance)
}

func TestSearchMergesTiersAndTruncates(t *testing.T) {
	ctx := context.Background()
	catalog := &fakeCatalog{byTier: map[memory.Tier][]*memory.CatalogEntry{
		memory.TierWarm: {entry("id-census", "t_census", memory.TierWarm)},
		memory.TierCold: {entry("id-roads", "t_roads", memory.TierCold)},
	}}
	stores := map[memory.Tier]memory.TierStore{
		memory.TierWarm: &fakeStore{tier: memory.TierWarm, schemas: map[string]*memory.SchemaDescriptor{"t_census": censusSchema()}},
		memory.TierCold: &fakeStore{tier: memory.TierCold, schemas: map[string]*memory.SchemaDescriptor{"t_roads": roadsSchema()}},
	}

	idx := newTestIndex(t, catalog, stores)
	require.NoError(t, idx.UpdateAllIndexes(ctx))

	results, err := idx.Search(ctx, "census ward population", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "id-census", results[0].DataID)
}

func TestSearchEmptyQuery(t *testing.T) {
	idx := newTestIndex(t, &fakeCatalog{}, map[memory.Tier]memory.TierStore{})
	_, err := idx.Search(context.Background(), "   ", 3)
	require.Error(t, err)
	assert.True(t, strataerr.IsInvalidQuery(err))
}

func TestSearchBeforeAnyRebuild(t *testing.T) {
	idx := newTestIndex(t, &fakeCatalog{}, map[memory.Tier]memory.TierStore{})
	results, err := idx.Search(context.Background(), "anything", 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestUpdateIndexSkipsOrphanedRows(t *testing.T) {
	ctx := context.Background()
	catalog := &fakeCatalog{byTier: map[memory.Tier][]*memory.CatalogEntry{
		memory.TierWarm: {
			entry("id-census", "t_census", memory.TierWarm),
			entry("id-gone", "t_gone", memory.TierWarm),
		},
	}}
	stores := map[memory.Tier]memory.TierStore{
		memory.TierWarm: &fakeStore{tier: memory.TierWarm, schemas: map[string]*memory.SchemaDescriptor{"t_census": censusSchema()}},
	}

	idx := newTestIndex(t, catalog, stores)
	require.NoError(t, idx.UpdateIndex(ctx, memory.TierWarm))

	results, err := idx.Search(ctx, "census ward population", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "id-census", results[0].DataID)
}

func TestUpdateIndexUnconfiguredTier(t *testing.T) {
	idx := newTestIndex(t, &fakeCatalog{}, map[memory.Tier]memory.TierStore{})
	err := idx.UpdateIndex(context.Background(), memory.TierWarm)
	require.Error(t, err)
	assert.True(t, strataerr.IsBackendUnavailable(err))
}

func TestFailedRebuildKeepsPreviousSnapshot(t *testing.T) {
	ctx := context.Background()
	catalog := &fakeCatalog{
		byTier: map[memory.Tier][]*memory.CatalogEntry{
			memory.TierWarm: {entry("id-census", "t_census", memory.TierWarm)},
		},
		errs: map[memory.Tier]error{},
	}
	stores := map[memory.Tier]memory.TierStore{
		memory.TierWarm: &fakeStore{tier: memory.TierWarm, schemas: map[string]*memory.SchemaDescriptor{"t_census": censusSchema()}},
	}

	idx := newTestIndex(t, catalog, stores)
	require.NoError(t, idx.UpdateIndex(ctx, memory.TierWarm))

	// Later rebuilds fail; the served snapshot must be unaffected.
	catalog.errs[memory.TierWarm] = strataerr.New(strataerr.CodeCatalogDatabaseFailure, "listing failed")
	require.Error(t, idx.UpdateIndex(ctx, memory.TierWarm))

	results, err := idx.Search(ctx, "census ward population", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "id-census", results[0].DataID)
}

func TestUpdateAllIndexesAggregatesFailures(t *testing.T) {
	ctx := context.Background()
	catalog := &fakeCatalog{
		byTier: map[memory.Tier][]*memory.CatalogEntry{
			memory.TierWarm: {entry("id-census", "t_census", memory.TierWarm)},
		},
		errs: map[memory.Tier]error{
			memory.TierCold: strataerr.New(strataerr.CodeCatalogDatabaseFailure, "cold listing failed"),
		},
	}
	stores := map[memory.Tier]memory.TierStore{
		memory.TierWarm: &fakeStore{tier: memory.TierWarm, schemas: map[string]*memory.SchemaDescriptor{"t_census": censusSchema()}},
		memory.TierCold: &fakeStore{tier: memory.TierCold, schemas: map[string]*memory.SchemaDescriptor{}},
	}

	idx := newTestIndex(t, catalog, stores)
	err := idx.UpdateAllIndexes(ctx)
	require.Error(t, err)

	// The healthy tier still serves.
	results, serr := idx.Search(ctx, "census ward population", 1)
	require.NoError(t, serr)
	require.Len(t, results, 1)
}

func TestCleanupReleasesStores(t *testing.T) {
	warm := &fakeStore{tier: memory.TierWarm, schemas: map[string]*memory.SchemaDescriptor{}}
	cold := &fakeStore{tier: memory.TierCold, schemas: map[string]*memory.SchemaDescriptor{}}
	idx := newTestIndex(t, &fakeCatalog{}, map[memory.Tier]memory.TierStore{
		memory.TierWarm: warm,
		memory.TierCold: cold,
	})

	require.NoError(t, idx.Cleanup(context.Background()))
	assert.Equal(t, 1, warm.cleanups)
	assert.Equal(t, 1, cold.cleanups)
}
