// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Strata Contributors

package errors

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/samber/oops"
)

// Code is the machine-readable identifier for an error.
type Code string

const (
	CodeCatalogEntryNotFound      Code = "catalog.entry.get.not_found"
	CodeCatalogTierInvalid        Code = "catalog.tier.invalid_input"
	CodeCatalogRegisterFailure    Code = "catalog.register.database_failure"
	CodeCatalogDatabaseFailure    Code = "catalog.database.failure"
	CodeCatalogBackendUnsupported Code = "catalog.backend.unsupported"
	CodeCatalogBackendUnavailable Code = "catalog.backend.unavailable"

	CodeTierPayloadNotFound    Code = "tier.payload.get.not_found"
	CodeTierPayloadInvalid     Code = "tier.payload.invalid_input"
	CodeTierCapacityExceeded   Code = "tier.capacity.exceeded"
	CodeTierSchemaFailure      Code = "tier.schema.derive.failure"
	CodeTierBackendUnavailable Code = "tier.backend.unavailable"

	CodeMetaEncodeFailure Code = "meta.encode.serialization_failure"
	CodeMetaDecodeFailure Code = "meta.decode.serialization_failure"

	CodeIndexQueryInvalid   Code = "index.query.invalid_input"
	CodeIndexRebuildFailure Code = "index.rebuild.failure"
	CodeEmbedInputInvalid   Code = "embed.input.invalid_input"
	CodeEmbedFailure        Code = "embed.vectorize.failure"

	CodeConfigLoadReadFailure      Code = "config.load.read.failure"
	CodeConfigParseInvalidFormat   Code = "config.parse.invalid_format"
	CodeConfigValidateInvalidValue Code = "config.validate.invalid_value"

	CodeCLISetupFailure   Code = "cli.setup.failure"
	CodeCLIInputInvalid   Code = "cli.input.invalid"
	CodeCLIRequestFailure Code = "cli.request.failure"

	CodeInternalFailure Code = "internal.failure"
)

// Attr is a structured key/value context attached to an error.
type Attr struct {
	Key   string
	Value any
}

// Field creates a structured error field.
func Field(key string, value any) Attr {
	return Attr{Key: key, Value: value}
}

func FieldDataID(value string) Attr {
	return Field("data_id", value)
}

func FieldTier(value string) Attr {
	return Field("tier", value)
}

func FieldLocation(value string) Attr {
	return Field("location", value)
}

func FieldBackend(value string) Attr {
	return Field("backend", value)
}

func New(code Code, msg string, fields ...Attr) error {
	return oops.Code(code).With(flatten(fields)...).New(msg)
}

func Errorf(code Code, format string, args ...any) error {
	return oops.Code(code).Errorf(format, args...)
}

func Wrap(err error, code Code, msg string, fields ...Attr) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).With(flatten(fields)...).Wrapf(err, "%s", msg)
}

func Wrapf(err error, code Code, format string, args ...any) error {
	if err == nil {
		return nil
	}

	return oops.Code(code).Wrapf(err, format, args...)
}

// With adds structured fields to an existing error chain.
func With(err error, fields ...Attr) error {
	if err == nil {
		return nil
	}

	code := CodeOf(err)
	if code == "" {
		code = CodeInternalFailure
	}

	return oops.Code(code).With(flatten(fields)...).Wrap(err)
}

func CodeOf(err error) Code {
	if err == nil {
		return ""
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}

	if code, ok := oopsErr.Code().(Code); ok {
		return code
	}

	if code, ok := oopsErr.Code().(string); ok {
		return Code(code)
	}

	return Code(fmt.Sprintf("%v", oopsErr.Code()))
}

func FieldsOf(err error) map[string]any {
	if err == nil {
		return nil
	}

	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return nil
	}

	return oopsErr.Context()
}

func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == code
}

func IsNotFound(err error) bool {
	return reason(CodeOf(err)) == "not_found"
}

// IsInvalidTier reports whether the error names an unrecognized storage tier.
func IsInvalidTier(err error) bool {
	return HasCode(err, CodeCatalogTierInvalid)
}

// IsInvalidQuery reports whether a semantic search query was rejected.
func IsInvalidQuery(err error) bool {
	return HasCode(err, CodeIndexQueryInvalid)
}

func IsInvalidInput(err error) bool {
	r := reason(CodeOf(err))
	return r == "invalid" || r == "invalid_input" || r == "invalid_value" || r == "invalid_format"
}

func IsCapacityExceeded(err error) bool {
	return reason(CodeOf(err)) == "exceeded"
}

func IsSerialization(err error) bool {
	return reason(CodeOf(err)) == "serialization_failure"
}

func IsBackendUnavailable(err error) bool {
	return reason(CodeOf(err)) == "unavailable"
}

func Join(errs ...error) error {
	return oops.Code(CodeInternalFailure).Wrap(stderrors.Join(errs...))
}

func flatten(fields []Attr) []any {
	pairs := make([]any, 0, len(fields)*2)
	for _, field := range fields {
		if field.Key == "" {
			continue
		}
		pairs = append(pairs, field.Key, field.Value)
	}
	return pairs
}

func reason(code Code) string {
	if code == "" {
		return ""
	}

	raw := string(code)
	idx := strings.LastIndex(raw, ".")
	if idx == -1 || idx == len(raw)-1 {
		return raw
	}
	return raw[idx+1:]
}
