// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Strata Contributors

package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strata-dev/strata/internal/memory"
	strataerr "github.com/strata-dev/strata/pkg/errors"
)

// testConfig writes a config file pointing at a per-test data directory and
// returns its path.
func testConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "strata.yaml")
	contents := fmt.Sprintf(`
storage:
  backend: sqlite
  data_dir: %s
tiers:
  hot:
    max_items: 16
  warm:
    max_tables: 16
  cold:
    max_tables: 16
  red_hot:
    max_size: 8
index:
  dimensions: 64
`, filepath.Join(dir, "data"))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o600))
	return path
}

// runCommand executes the root command with args plus optional stdin,
// returning stdout.
func runCommand(t *testing.T, cfgPath string, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	if stdin != "" {
		cmd.SetIn(strings.NewReader(stdin))
	}
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

const roadsTable = `{
  "name": "roads",
  "columns": [
    {"name": "name", "type": "TEXT"},
    {"name": "length_km", "type": "REAL"}
  ],
  "rows": [["A1", 12.5], ["B2", 3.25]]
}`

func TestVersionCommand(t *testing.T) {
	cmd := NewRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "strata dev")
}

func TestPutGetDeleteFlow(t *testing.T) {
	cfg := testConfig(t)

	out, err := runCommand(t, cfg, roadsTable, "put", "--tier", "warm", "--type", "dataframe",
		"--tags", "roads,osm", "--table-name", "roads")
	require.NoError(t, err)
	dataID := strings.TrimSpace(out)
	require.NotEmpty(t, dataID)

	out, err = runCommand(t, cfg, "", "get", dataID)
	require.NoError(t, err)
	assert.Contains(t, out, "length_km")
	assert.Contains(t, out, "A1")

	out, err = runCommand(t, cfg, "", "info", dataID)
	require.NoError(t, err)
	assert.Contains(t, out, `"tier": "warm"`)
	assert.Contains(t, out, "roads")

	out, err = runCommand(t, cfg, "", "delete", dataID)
	require.NoError(t, err)
	assert.Contains(t, out, "deleted")

	out, err = runCommand(t, cfg, "", "delete", dataID)
	require.NoError(t, err)
	assert.Contains(t, out, "not found")
}

func TestListByTags(t *testing.T) {
	cfg := testConfig(t)

	out, err := runCommand(t, cfg, roadsTable, "put", "--tier", "warm", "--type", "dataframe",
		"--tags", "roads,osm")
	require.NoError(t, err)
	dataID := strings.TrimSpace(out)

	out, err = runCommand(t, cfg, "", "list", "--tags", "roads,osm")
	require.NoError(t, err)
	assert.Contains(t, out, dataID)

	out, err = runCommand(t, cfg, "", "list", "--tags", "roads,rail")
	require.NoError(t, err)
	assert.NotContains(t, out, dataID)

	out, err = runCommand(t, cfg, "", "list", "--tier", "warm")
	require.NoError(t, err)
	assert.Contains(t, out, dataID)
}

func TestSearchCommand(t *testing.T) {
	cfg := testConfig(t)

	out, err := runCommand(t, cfg, roadsTable, "put", "--tier", "warm", "--type", "dataframe")
	require.NoError(t, err)
	dataID := strings.TrimSpace(out)

	out, err = runCommand(t, cfg, "", "search", "length", "km", "--top", "3")
	require.NoError(t, err)
	assert.Contains(t, out, dataID)
}

func TestReindexCommand(t *testing.T) {
	cfg := testConfig(t)

	_, err := runCommand(t, cfg, "", "reindex")
	require.NoError(t, err)

	out, err := runCommand(t, cfg, "", "reindex", "warm")
	require.NoError(t, err)
	assert.Contains(t, out, "warm index rebuilt")

	_, err = runCommand(t, cfg, "", "reindex", "lukewarm")
	require.Error(t, err)
}

func TestPromoteCommand(t *testing.T) {
	cfg := testConfig(t)

	out, err := runCommand(t, cfg, roadsTable, "put", "--tier", "warm", "--type", "dataframe")
	require.NoError(t, err)
	dataID := strings.TrimSpace(out)

	out, err = runCommand(t, cfg, "", "promote", dataID, "cold")
	require.NoError(t, err)
	assert.Contains(t, out, "now in cold")

	out, err = runCommand(t, cfg, "", "info", dataID)
	require.NoError(t, err)
	assert.Contains(t, out, `"tier": "cold"`)
}

func TestSchemaCommand(t *testing.T) {
	cfg := testConfig(t)

	out, err := runCommand(t, cfg, roadsTable, "put", "--tier", "warm", "--type", "dataframe")
	require.NoError(t, err)
	dataID := strings.TrimSpace(out)

	out, err = runCommand(t, cfg, "", "schema", dataID)
	require.NoError(t, err)
	assert.Contains(t, out, "length_km")
	assert.Contains(t, out, "REAL")
}

func TestPutRejectsUnknownTier(t *testing.T) {
	cfg := testConfig(t)
	_, err := runCommand(t, cfg, "x", "put", "--tier", "lukewarm")
	require.Error(t, err)
	assert.True(t, strataerr.IsInvalidTier(err))
}

func TestBuildPayload(t *testing.T) {
	p, err := buildPayload(memory.DataTypeVector, []byte(`[1, 0, 0.5]`))
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 0, 0.5}, p.Vector)

	p, err = buildPayload(memory.DataTypeDataFrame, []byte(roadsTable))
	require.NoError(t, err)
	require.NotNil(t, p.Table)
	assert.Equal(t, "roads", p.Table.Name)
	assert.Len(t, p.Table.Rows, 2)

	p, err = buildPayload(memory.DataTypeText, []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), p.Bytes)

	_, err = buildPayload(memory.DataTypeVector, []byte(`"not a vector"`))
	require.Error(t, err)
	assert.True(t, strataerr.IsInvalidInput(err))

	_, err = buildPayload(memory.DataType("graph"), nil)
	require.Error(t, err)
}
