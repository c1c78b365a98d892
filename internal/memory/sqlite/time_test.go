// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Strata Contributors

package sqlite

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTimeRoundTrip(t *testing.T) {
	now := time.Now().UTC()

	got, err := parseTime(formatTime(now))
	require.NoError(t, err)
	assert.True(t, got.Equal(now))

	got, err = parseTime(formatTime(time.Time{}))
	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

func TestFormatTimeLexicographicOrderIsChronological(t *testing.T) {
	base := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	// .1s vs .12s: with trimmed fractional zeros ".1Z" would sort after ".12",
	// fixed-width nanoseconds keep string order chronological.
	earlier := base.Add(100 * time.Millisecond)
	later := base.Add(120 * time.Millisecond)

	assert.Less(t, formatTime(earlier), formatTime(later))
	assert.Less(t, formatTime(base), formatTime(earlier))
}

func TestParseTimeAcceptsTrimmedFractions(t *testing.T) {
	got, err := parseTime("2026-08-23T12:00:00.1Z")
	require.NoError(t, err)
	assert.Equal(t, 100*time.Millisecond, time.Duration(got.Nanosecond()))
}
