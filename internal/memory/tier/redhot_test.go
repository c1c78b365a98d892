// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Strata Contributors

package tier

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strata-dev/strata/internal/memory"
	strataerr "github.com/strata-dev/strata/pkg/errors"
)

func vectorPayload(v []float32, attrs map[string]string) *memory.Payload {
	return &memory.Payload{Kind: memory.DataTypeVector, Vector: v, Attrs: attrs}
}

func TestRedHotStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewRedHotStore(4, 0)

	location, err := s.Store(ctx, vectorPayload([]float32{1, 0, 0, 0}, map[string]string{"label": "east"}))
	require.NoError(t, err)

	got, err := s.Retrieve(ctx, location)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0, 0}, got.Vector)
	assert.Equal(t, "east", got.Attrs["label"])
	assert.Equal(t, 1, s.TotalVectors())
}

func TestRedHotStoreRejectsNonVectorPayload(t *testing.T) {
	s := NewRedHotStore(4, 0)
	_, err := s.Store(context.Background(), &memory.Payload{Kind: memory.DataTypeText, Bytes: []byte("x")})
	require.Error(t, err)
	assert.True(t, strataerr.IsInvalidInput(err))
}

func TestRedHotStoreRejectsWrongDimension(t *testing.T) {
	s := NewRedHotStore(4, 0)
	_, err := s.Store(context.Background(), vectorPayload([]float32{1, 0}, nil))
	require.Error(t, err)
	assert.True(t, strataerr.IsInvalidInput(err))
}

func TestRedHotStoreVectorSearchAscending(t *testing.T) {
	ctx := context.Background()
	s := NewRedHotStore(4, 0)

	near, err := s.Store(ctx, vectorPayload([]float32{1, 0, 0, 0}, nil))
	require.NoError(t, err)
	far, err := s.Store(ctx, vectorPayload([]float32{0, 0, 0, 1}, nil))
	require.NoError(t, err)

	matches, err := s.VectorSearch(ctx, []float32{0.9, 0.1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, near, matches[0].Location)
	assert.Equal(t, far, matches[1].Location)
	assert.LessOrEqual(t, matches[0].Distance, matches[1].Distance)
}

func TestRedHotStoreVectorSearchEmpty(t *testing.T) {
	s := NewRedHotStore(4, 0)
	matches, err := s.VectorSearch(context.Background(), []float32{1, 0, 0, 0}, 3)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestRedHotStoreFailedStoreDoesNotEvict(t *testing.T) {
	ctx := context.Background()
	s := NewRedHotStore(4, 2)

	var evicted []string
	s.OnEvict(func(location string) { evicted = append(evicted, location) })

	loc1, err := s.Store(ctx, vectorPayload([]float32{1, 0, 0, 0}, nil))
	require.NoError(t, err)
	loc2, err := s.Store(ctx, vectorPayload([]float32{0, 1, 0, 0}, nil))
	require.NoError(t, err)

	_, err = s.Store(ctx, vectorPayload([]float32{1, 0}, nil))
	require.Error(t, err)
	assert.True(t, strataerr.IsInvalidInput(err))

	assert.Empty(t, evicted)
	assert.Equal(t, 2, s.TotalVectors())

	for _, location := range []string{loc1, loc2} {
		_, err := s.Retrieve(ctx, location)
		assert.NoError(t, err)
	}
}

func TestRedHotStoreEvictsLeastRecentlyAccessed(t *testing.T) {
	ctx := context.Background()
	s := NewRedHotStore(4, 2)

	var evicted []string
	s.OnEvict(func(location string) { evicted = append(evicted, location) })

	v1, err := s.Store(ctx, vectorPayload([]float32{1, 0, 0, 0}, nil))
	require.NoError(t, err)
	v2, err := s.Store(ctx, vectorPayload([]float32{0, 1, 0, 0}, nil))
	require.NoError(t, err)

	// A search hit on v1 makes v2 the least recently accessed.
	matches, err := s.VectorSearch(ctx, []float32{1, 0, 0, 0}, 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, v1, matches[0].Location)

	v3, err := s.Store(ctx, vectorPayload([]float32{0, 0, 1, 0}, nil))
	require.NoError(t, err)

	assert.Equal(t, []string{v2}, evicted)
	assert.Equal(t, 2, s.TotalVectors())

	_, err = s.Retrieve(ctx, v2)
	assert.True(t, strataerr.IsNotFound(err))
	_, err = s.Retrieve(ctx, v1)
	assert.NoError(t, err)
	_, err = s.Retrieve(ctx, v3)
	assert.NoError(t, err)
}

func TestRedHotStoreEvictedVectorUnreachableBySearch(t *testing.T) {
	ctx := context.Background()
	s := NewRedHotStore(4, 2)

	v1, err := s.Store(ctx, vectorPayload([]float32{1, 0, 0, 0}, nil))
	require.NoError(t, err)
	_, err = s.Store(ctx, vectorPayload([]float32{0, 1, 0, 0}, nil))
	require.NoError(t, err)

	// v1 is oldest; storing a third vector evicts it and rebuilds the graph.
	_, err = s.Store(ctx, vectorPayload([]float32{0, 0, 1, 0}, nil))
	require.NoError(t, err)

	matches, err := s.VectorSearch(ctx, []float32{1, 0, 0, 0}, 3)
	require.NoError(t, err)
	for _, m := range matches {
		assert.NotEqual(t, v1, m.Location)
	}
}

func TestRedHotStoreRetrieveRefreshesRecency(t *testing.T) {
	ctx := context.Background()
	s := NewRedHotStore(4, 2)

	v1, err := s.Store(ctx, vectorPayload([]float32{1, 0, 0, 0}, nil))
	require.NoError(t, err)
	v2, err := s.Store(ctx, vectorPayload([]float32{0, 1, 0, 0}, nil))
	require.NoError(t, err)

	_, err = s.Retrieve(ctx, v1)
	require.NoError(t, err)

	_, err = s.Store(ctx, vectorPayload([]float32{0, 0, 1, 0}, nil))
	require.NoError(t, err)

	_, err = s.Retrieve(ctx, v2)
	assert.True(t, strataerr.IsNotFound(err))
	_, err = s.Retrieve(ctx, v1)
	assert.NoError(t, err)
}

func TestRedHotStoreSchema(t *testing.T) {
	ctx := context.Background()
	s := NewRedHotStore(4, 0)

	location, err := s.Store(ctx, vectorPayload([]float32{1, 0, 0, 0},
		map[string]string{"source": "embeddings", "label": "east"}))
	require.NoError(t, err)

	desc, err := s.Schema(ctx, location)
	require.NoError(t, err)
	assert.Equal(t, "embeddings", desc.Source)
	require.Len(t, desc.Fields, 2)
	assert.Equal(t, memory.FieldSchema{Name: "vector", Type: "float32[4]"}, desc.Fields[0])
	assert.Equal(t, memory.FieldSchema{Name: "label", Type: "string"}, desc.Fields[1])
}

func TestRedHotStoreCleanup(t *testing.T) {
	ctx := context.Background()
	s := NewRedHotStore(4, 0)

	_, err := s.Store(ctx, vectorPayload([]float32{1, 0, 0, 0}, nil))
	require.NoError(t, err)
	require.NoError(t, s.Cleanup(ctx))

	assert.Equal(t, 0, s.TotalVectors())
	matches, err := s.VectorSearch(ctx, []float32{1, 0, 0, 0}, 1)
	require.NoError(t, err)
	assert.Empty(t, matches)
}
