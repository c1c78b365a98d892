// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Strata Contributors

package tier

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strata-dev/strata/internal/memory"
)

func TestGlacierEnvelopeRoundTrip(t *testing.T) {
	in := glacierEnvelope{
		Kind: memory.DataTypeGeoDataFrame,
		Table: &memory.Table{
			Name:    "roads",
			Columns: []memory.Column{{Name: "name", Type: "TEXT"}, {Name: "length_km", Type: "REAL"}},
			Rows:    [][]any{{"A1", 12.5}},
		},
		Attrs: map[string]string{"source": "osm", "spatial_filter": "bbox(135.4,34.6,135.6,34.8)"},
	}

	raw, err := json.Marshal(in)
	require.NoError(t, err)

	var out glacierEnvelope
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, in.Kind, out.Kind)
	require.NotNil(t, out.Table)
	assert.Equal(t, "roads", out.Table.Name)
	assert.Equal(t, in.Attrs, out.Attrs)
}

func TestDescribeArchive(t *testing.T) {
	desc := describeArchive(glacierDescriptor{
		Kind:          memory.DataTypeGeoDataFrame,
		Source:        "osm",
		SpatialFilter: "bbox(135.4,34.6,135.6,34.8)",
		Fields: []memory.FieldSchema{
			{Name: "name", Type: "TEXT"},
			{Name: "length_km", Type: "REAL"},
		},
	})

	assert.Equal(t, memory.DataTypeGeoDataFrame, desc.Kind)
	assert.Equal(t, "osm", desc.Source)
	require.Len(t, desc.Fields, 3)
	assert.Equal(t, memory.FieldSchema{Name: "spatial_filter", Type: "string"}, desc.Fields[2])
}

func TestDescribeArchiveWithoutSpatialFilter(t *testing.T) {
	desc := describeArchive(glacierDescriptor{
		Kind:   memory.DataTypeDict,
		Fields: []memory.FieldSchema{{Name: "name", Type: "string"}},
	})
	assert.Len(t, desc.Fields, 1)
}

func TestIsNoSuchKey(t *testing.T) {
	assert.False(t, isNoSuchKey(errors.New("connection refused")))
	assert.False(t, isNoSuchKey(nil))
}

func TestGlacierKeys(t *testing.T) {
	s := &GlacierStore{bucket: "strata", prefix: "archive"}
	assert.Equal(t, "archive/g_abc", s.objectKey("g_abc"))
	assert.Equal(t, "archive/g_abc.desc.json", s.descriptorKey("g_abc"))
}
