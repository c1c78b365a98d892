// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Strata Contributors

package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	strataerr "github.com/strata-dev/strata/pkg/errors"
)

func TestParseTier(t *testing.T) {
	for _, tier := range Tiers() {
		got, err := ParseTier(string(tier))
		require.NoError(t, err)
		assert.Equal(t, tier, got)
	}

	_, err := ParseTier("lukewarm")
	require.Error(t, err)
	assert.True(t, strataerr.IsInvalidTier(err))
}

func TestMetaRoundTrip(t *testing.T) {
	type payload struct {
		Source string `json:"source"`
		Rows   int    `json:"rows"`
	}

	m, err := NewMeta(payload{Source: "osm", Rows: 42})
	require.NoError(t, err)
	assert.Equal(t, MetaVersion, m.Version)

	encoded, err := EncodeMeta(m)
	require.NoError(t, err)

	decoded, err := DecodeMeta(encoded)
	require.NoError(t, err)
	require.NotNil(t, decoded)

	var got payload
	require.NoError(t, decoded.Decode(&got))
	assert.Equal(t, "osm", got.Source)
	assert.Equal(t, 42, got.Rows)
}

func TestEncodeMetaNil(t *testing.T) {
	encoded, err := EncodeMeta(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", encoded)

	decoded, err := DecodeMeta(encoded)
	require.NoError(t, err)
	assert.Nil(t, decoded)
}

func TestDecodeMetaEmpty(t *testing.T) {
	decoded, err := DecodeMeta("")
	require.NoError(t, err)
	assert.Nil(t, decoded)
}

func TestDecodeMetaMalformed(t *testing.T) {
	_, err := DecodeMeta("{not json")
	require.Error(t, err)
	assert.True(t, strataerr.IsSerialization(err))
}

func TestMetaDecodeNilReceiver(t *testing.T) {
	var m *Meta
	var dst map[string]any
	assert.NoError(t, m.Decode(&dst))
	assert.Nil(t, dst)
}

func TestNormalizeTags(t *testing.T) {
	assert.Nil(t, NormalizeTags(nil))
	assert.Nil(t, NormalizeTags([]string{}))
	assert.Nil(t, NormalizeTags([]string{"", ""}))
	assert.Equal(t, []string{"a", "b", "c"}, NormalizeTags([]string{"c", "a", "b", "a", ""}))
}
