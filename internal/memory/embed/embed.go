// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Strata Contributors

// Package embed turns schema descriptors and free text into fixed-dimension
// vectors for similarity search. The embedder is a deterministic
// feature-hashing model: no external service, no model files, identical
// input always yields the identical vector.
package embed

import (
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"strings"

	"github.com/strata-dev/strata/internal/memory"
	strataerr "github.com/strata-dev/strata/pkg/errors"
)

// DefaultDimension is the embedding width used when none is configured.
const DefaultDimension = 384

var _ memory.Embedder = (*HashingEmbedder)(nil)

// HashingEmbedder maps token features onto a fixed-width vector with signed
// FNV-1a bucket hashing, then L2-normalizes. Squared-L2 distance over the
// output behaves like cosine distance.
type HashingEmbedder struct {
	dimension int
}

// NewHashingEmbedder creates an embedder producing vectors of the given
// dimension. Non-positive dimensions fall back to the default.
func NewHashingEmbedder(dimension int) *HashingEmbedder {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &HashingEmbedder{dimension: dimension}
}

func (e *HashingEmbedder) Dimension() int { return e.dimension }

// EmbedSchema vectorizes a schema descriptor. The descriptor is first
// canonicalized so field order never changes the embedding.
func (e *HashingEmbedder) EmbedSchema(desc *memory.SchemaDescriptor) ([]float32, error) {
	if desc == nil {
		return nil, strataerr.New(strataerr.CodeEmbedInputInvalid, "nil schema descriptor")
	}
	return e.embedTokens(schemaTokens(desc))
}

// EmbedText vectorizes a free-text query.
func (e *HashingEmbedder) EmbedText(text string) ([]float32, error) {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil, strataerr.New(strataerr.CodeEmbedInputInvalid, "empty text")
	}
	return e.embedTokens(tokens)
}

func (e *HashingEmbedder) embedTokens(tokens []string) ([]float32, error) {
	if len(tokens) == 0 {
		return nil, strataerr.New(strataerr.CodeEmbedInputInvalid, "no tokens")
	}

	v := make([]float32, e.dimension)
	for _, tok := range tokens {
		bucket, sign := hashToken(tok, e.dimension)
		v[bucket] += sign
	}

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return nil, strataerr.New(strataerr.CodeEmbedFailure, "degenerate embedding")
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range v {
		v[i] *= scale
	}
	return v, nil
}

// hashToken maps a token to a bucket and a +1/-1 sign. Two independent hash
// streams keep bucket and sign uncorrelated.
func hashToken(token string, dimension int) (int, float32) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(token))
	sum := h.Sum64()

	bucket := int(sum % uint64(dimension))
	sign := float32(1)
	if (sum>>32)&1 == 1 {
		sign = -1
	}
	return bucket, sign
}

// schemaTokens canonicalizes a descriptor into its token stream. Tokens are
// plain words drawn from the same vocabulary as query tokens, so a query
// naming a field or source lands in the same hash buckets as the schema.
// Fields are sorted by name so token order is stable.
func schemaTokens(desc *memory.SchemaDescriptor) []string {
	fields := make([]memory.FieldSchema, len(desc.Fields))
	copy(fields, desc.Fields)
	sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })

	tokens := make([]string, 0, 2+3*len(fields))
	tokens = append(tokens, tokenize(string(desc.Kind))...)
	tokens = append(tokens, tokenize(desc.Source)...)
	for _, f := range fields {
		tokens = append(tokens, tokenize(f.Name)...)
		tokens = append(tokens, tokenize(f.Type)...)
		// A combined feature keeps name/type association.
		tokens = append(tokens, fmt.Sprintf("%s=%s",
			strings.ToLower(f.Name), strings.ToLower(f.Type)))
	}
	return tokens
}

// tokenize lowercases and splits on anything that is not a letter or digit.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return false
		default:
			return true
		}
	})
}
