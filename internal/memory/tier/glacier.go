// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Strata Contributors

package tier

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/strata-dev/strata/internal/memory"
	strataerr "github.com/strata-dev/strata/pkg/errors"
)

// Compile-time interface checks.
var (
	_ memory.TierStore      = (*GlacierStore)(nil)
	_ memory.PayloadRemover = (*GlacierStore)(nil)
)

// glacierEnvelope is the serialized payload object.
type glacierEnvelope struct {
	Kind   memory.DataType   `json:"kind"`
	Bytes  []byte            `json:"bytes,omitempty"`
	Table  *memory.Table     `json:"table,omitempty"`
	Vector []float32         `json:"vector,omitempty"`
	Attrs  map[string]string `json:"attrs,omitempty"`
}

// glacierDescriptor is the sidecar object written next to every payload.
// Schema lookups read the sidecar only, never the payload itself, so a
// descriptor stays cheap even when the archived object is large.
type glacierDescriptor struct {
	Kind          memory.DataType      `json:"kind"`
	Source        string               `json:"source,omitempty"`
	SpatialFilter string               `json:"spatial_filter,omitempty"`
	Fields        []memory.FieldSchema `json:"fields,omitempty"`
	Attrs         map[string]string    `json:"attrs,omitempty"`
}

// GlacierConfig carries the object-store connection settings.
type GlacierConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	Prefix    string
}

// GlacierStore is the archive tier, backed by an S3-compatible object store.
// Each payload is one object plus a small descriptor sidecar; schemas are
// derived on demand from the sidecar's source and spatial-filter fields.
type GlacierStore struct {
	client objectAPI
	bucket string
	prefix string
}

// objectAPI is the slice of the minio client the store depends on.
type objectAPI interface {
	PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucket, key string, opts minio.GetObjectOptions) (*minio.Object, error)
	RemoveObject(ctx context.Context, bucket, key string, opts minio.RemoveObjectOptions) error
	StatObject(ctx context.Context, bucket, key string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
}

// NewGlacierStore dials the object store and returns the archive tier.
func NewGlacierStore(cfg GlacierConfig) (*GlacierStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, strataerr.Wrapf(err, strataerr.CodeTierBackendUnavailable, "connecting to object store %s", cfg.Endpoint)
	}
	return &GlacierStore{client: client, bucket: cfg.Bucket, prefix: cfg.Prefix}, nil
}

func (s *GlacierStore) Tier() memory.Tier { return memory.TierGlacier }

func (s *GlacierStore) objectKey(location string) string {
	return path.Join(s.prefix, location)
}

func (s *GlacierStore) descriptorKey(location string) string {
	return path.Join(s.prefix, location+".desc.json")
}

// Store archives the payload and writes its descriptor sidecar.
func (s *GlacierStore) Store(ctx context.Context, p *memory.Payload) (string, error) {
	if p == nil {
		return "", strataerr.New(strataerr.CodeTierPayloadInvalid, "nil payload")
	}

	location := "g_" + uuid.NewString()

	envelope, err := json.Marshal(glacierEnvelope{
		Kind: p.Kind, Bytes: p.Bytes, Table: p.Table, Vector: p.Vector, Attrs: p.Attrs,
	})
	if err != nil {
		return "", strataerr.Wrap(err, strataerr.CodeMetaEncodeFailure, "encoding archive payload")
	}

	schema := deriveSchema(p)
	descriptor, err := json.Marshal(glacierDescriptor{
		Kind:          p.Kind,
		Source:        p.Attrs["source"],
		SpatialFilter: p.Attrs["spatial_filter"],
		Fields:        schema.Fields,
		Attrs:         p.Attrs,
	})
	if err != nil {
		return "", strataerr.Wrap(err, strataerr.CodeMetaEncodeFailure, "encoding archive descriptor")
	}

	if _, err := s.client.PutObject(ctx, s.bucket, s.objectKey(location),
		bytes.NewReader(envelope), int64(len(envelope)),
		minio.PutObjectOptions{ContentType: "application/json"}); err != nil {
		return "", strataerr.Wrap(err, strataerr.CodeTierBackendUnavailable, "writing archive object",
			strataerr.FieldLocation(location))
	}

	if _, err := s.client.PutObject(ctx, s.bucket, s.descriptorKey(location),
		bytes.NewReader(descriptor), int64(len(descriptor)),
		minio.PutObjectOptions{ContentType: "application/json"}); err != nil {
		return "", strataerr.Wrap(err, strataerr.CodeTierBackendUnavailable, "writing archive descriptor",
			strataerr.FieldLocation(location))
	}

	return location, nil
}

func (s *GlacierStore) Retrieve(ctx context.Context, location string) (*memory.Payload, error) {
	data, err := s.read(ctx, s.objectKey(location), location)
	if err != nil {
		return nil, err
	}

	var envelope glacierEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, strataerr.Wrap(err, strataerr.CodeMetaDecodeFailure, "decoding archive payload",
			strataerr.FieldLocation(location))
	}

	return &memory.Payload{
		Kind: envelope.Kind, Bytes: envelope.Bytes, Table: envelope.Table,
		Vector: envelope.Vector, Attrs: envelope.Attrs,
	}, nil
}

// Schema reads the descriptor sidecar and derives the schema from its source
// and spatial-filter fields without touching the archived object.
func (s *GlacierStore) Schema(ctx context.Context, location string) (*memory.SchemaDescriptor, error) {
	data, err := s.read(ctx, s.descriptorKey(location), location)
	if err != nil {
		return nil, err
	}

	var desc glacierDescriptor
	if err := json.Unmarshal(data, &desc); err != nil {
		return nil, strataerr.Wrap(err, strataerr.CodeTierSchemaFailure, "decoding archive descriptor",
			strataerr.FieldLocation(location))
	}

	return describeArchive(desc), nil
}

// Remove deletes the payload object and its descriptor sidecar.
func (s *GlacierStore) Remove(ctx context.Context, location string) error {
	if _, err := s.client.StatObject(ctx, s.bucket, s.objectKey(location), minio.StatObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return strataerr.New(strataerr.CodeTierPayloadNotFound, "no payload at location",
				strataerr.FieldTier(string(memory.TierGlacier)), strataerr.FieldLocation(location))
		}
		return strataerr.Wrap(err, strataerr.CodeTierBackendUnavailable, "checking archive object",
			strataerr.FieldLocation(location))
	}

	if err := s.client.RemoveObject(ctx, s.bucket, s.objectKey(location), minio.RemoveObjectOptions{}); err != nil && !isNoSuchKey(err) {
		return strataerr.Wrap(err, strataerr.CodeTierBackendUnavailable, "removing archive object",
			strataerr.FieldLocation(location))
	}
	if err := s.client.RemoveObject(ctx, s.bucket, s.descriptorKey(location), minio.RemoveObjectOptions{}); err != nil && !isNoSuchKey(err) {
		return strataerr.Wrap(err, strataerr.CodeTierBackendUnavailable, "removing archive descriptor",
			strataerr.FieldLocation(location))
	}
	return nil
}

// Cleanup is a no-op; the object store owns the connection lifecycle.
func (s *GlacierStore) Cleanup(context.Context) error { return nil }

func (s *GlacierStore) read(ctx context.Context, key, location string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, strataerr.Wrap(err, strataerr.CodeTierBackendUnavailable, "opening archive object",
			strataerr.FieldLocation(location))
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		if isNoSuchKey(err) {
			return nil, strataerr.New(strataerr.CodeTierPayloadNotFound, "no payload at location",
				strataerr.FieldTier(string(memory.TierGlacier)), strataerr.FieldLocation(location))
		}
		return nil, strataerr.Wrap(err, strataerr.CodeTierBackendUnavailable, "reading archive object",
			strataerr.FieldLocation(location))
	}
	return data, nil
}

// describeArchive maps a stored descriptor onto a schema descriptor.
func describeArchive(desc glacierDescriptor) *memory.SchemaDescriptor {
	out := &memory.SchemaDescriptor{
		Kind:   desc.Kind,
		Source: desc.Source,
		Fields: desc.Fields,
	}
	if desc.SpatialFilter != "" {
		out.Fields = append(out.Fields, memory.FieldSchema{Name: "spatial_filter", Type: "string"})
	}
	return out
}

// isNoSuchKey reports whether err is the object store's missing-key error.
func isNoSuchKey(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.Code == "NotFound"
}
