// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Strata Contributors

package memory

import (
	"encoding/json"
	"sort"
	"time"

	strataerr "github.com/strata-dev/strata/pkg/errors"
)

// --- Tier types ---

// Tier identifies one of the bounded storage classes, distinguished by
// latency, capacity, and durability trade-offs.
type Tier string

const (
	TierHot     Tier = "hot"
	TierWarm    Tier = "warm"
	TierCold    Tier = "cold"
	TierRedHot  Tier = "red_hot"
	TierGlacier Tier = "glacier"
)

// Tiers returns all known tiers in fixed latency order.
func Tiers() []Tier {
	return []Tier{TierRedHot, TierHot, TierWarm, TierCold, TierGlacier}
}

// Valid reports whether t names a known tier.
func (t Tier) Valid() bool {
	switch t {
	case TierHot, TierWarm, TierCold, TierRedHot, TierGlacier:
		return true
	default:
		return false
	}
}

func (t Tier) String() string { return string(t) }

// ParseTier converts a raw tier name into a Tier, failing with an
// invalid-tier error for anything unrecognized.
func ParseTier(s string) (Tier, error) {
	t := Tier(s)
	if !t.Valid() {
		return "", strataerr.Errorf(strataerr.CodeCatalogTierInvalid, "unknown tier %q", s)
	}
	return t, nil
}

// --- Data types ---

// DataType classifies the shape of a stored payload.
type DataType string

const (
	DataTypeDict         DataType = "dict"
	DataTypeDataFrame    DataType = "dataframe"
	DataTypeVector       DataType = "vector"
	DataTypeGeoDataFrame DataType = "geodataframe"
	DataTypeBinary       DataType = "binary"
	DataTypeText         DataType = "text"
)

// --- Catalog types ---

// CatalogEntry is the authoritative metadata record for one stored object,
// regardless of which tier holds the payload.
//
// Invariants: DataID is unique across all tiers; LastAccessed >= CreatedAt;
// AccessCount is non-decreasing; Location resolves within the owning tier's
// addressing scheme.
type CatalogEntry struct {
	DataID       string
	Tier         Tier
	Location     string
	DataType     DataType
	Size         int64
	Tags         []string
	CreatedAt    time.Time
	LastAccessed time.Time
	AccessCount  int64
	Meta         *Meta
	TableName    string
}

// Registration carries the inputs for creating a new catalog entry.
type Registration struct {
	Tier      Tier
	Location  string
	Size      int64
	DataType  DataType
	Tags      []string
	Meta      *Meta
	TableName string
}

// MetaVersion is the current schema version written into encoded Meta blobs.
const MetaVersion = 1

// Meta is the open, versioned metadata attached to a catalog entry. It is
// persisted as an opaque serialized blob and decoded lazily by consumers
// that know the expected shape.
type Meta struct {
	Version int             `json:"v"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// NewMeta encodes v into a versioned metadata blob.
func NewMeta(v any) (*Meta, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, strataerr.Wrapf(err, strataerr.CodeMetaEncodeFailure, "encoding metadata")
	}
	return &Meta{Version: MetaVersion, Data: raw}, nil
}

// Decode unmarshals the blob into dst. Callers choose the expected shape.
func (m *Meta) Decode(dst any) error {
	if m == nil || len(m.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(m.Data, dst); err != nil {
		return strataerr.Wrapf(err, strataerr.CodeMetaDecodeFailure, "decoding metadata (version %d)", m.Version)
	}
	return nil
}

// EncodeMeta serializes m for text storage. A nil Meta encodes to "{}" so
// the persisted column is never NULL.
func EncodeMeta(m *Meta) (string, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", strataerr.Wrapf(err, strataerr.CodeMetaEncodeFailure, "encoding metadata blob")
	}
	return string(b), nil
}

// DecodeMeta parses a persisted metadata blob. Empty and "{}" inputs decode
// to nil (no metadata).
func DecodeMeta(s string) (*Meta, error) {
	if s == "" || s == "{}" {
		return nil, nil
	}
	var m Meta
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, strataerr.Wrapf(err, strataerr.CodeMetaDecodeFailure, "decoding metadata blob")
	}
	return &m, nil
}

// NormalizeTags sorts and de-duplicates a tag list. Tags have set semantics;
// the normalized form is what the catalog persists and compares against.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	sort.Strings(out)
	if len(out) == 0 {
		return nil
	}
	return out
}

// --- Schema types ---

// FieldSchema describes one field of a stored object's schema.
type FieldSchema struct {
	Name string
	Type string
}

// SchemaDescriptor summarizes a stored object's structure for semantic
// indexing: field names/types, a source tag, and a type tag.
type SchemaDescriptor struct {
	Fields    []FieldSchema
	Source    string
	Kind      DataType
	TableName string
}

// --- Payload types ---

// Column describes one column of a tabular payload.
type Column struct {
	Name string
	Type string
}

// Table is a tabular payload stored by the warm and cold tiers.
type Table struct {
	Name    string
	Columns []Column
	Rows    [][]any
}

// Payload is the tagged union carried through the common TierStore
// contract. Each tier variant consumes the member it understands and
// rejects payloads it cannot hold.
type Payload struct {
	Kind   DataType
	Bytes  []byte
	Table  *Table
	Vector []float32
	Attrs  map[string]string
}

// --- Search types ---

// SearchResult is one hit from the semantic index, carrying the catalog
// reference plus denormalized fields for fast result assembly.
type SearchResult struct {
	Tier     Tier
	DataID   string
	Distance float32
	Location string
	DataType DataType
}

// VectorMatch is one hit from a red-hot tier vector search.
type VectorMatch struct {
	Location string
	Distance float32
	Attrs    map[string]string
}
