// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Strata Contributors

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/strata-dev/strata/internal/memory"
	strataerr "github.com/strata-dev/strata/pkg/errors"
)

// Compile-time interface check.
var _ memory.Catalog = (*Catalog)(nil)

// Catalog implements memory.Catalog backed by a single SQLite database.
//
// Mutations take the write mutex (single-writer discipline over the
// connection); reads run without it against the WAL snapshot.
type Catalog struct {
	db *sql.DB
	mu sync.Mutex
}

// NewCatalog opens (or creates) a SQLite database at dbPath and initialises
// the data_catalog table.
func NewCatalog(dbPath string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, strataerr.Wrapf(err, strataerr.CodeCatalogBackendUnavailable, "opening catalog db")
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, strataerr.Wrapf(err, strataerr.CodeCatalogBackendUnavailable, "pinging catalog db")
	}

	if err := migrateCatalog(db); err != nil {
		_ = db.Close()
		return nil, strataerr.Wrapf(err, strataerr.CodeCatalogDatabaseFailure, "migrating catalog db")
	}

	return &Catalog{db: db}, nil
}

func migrateCatalog(db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS data_catalog (
	data_id         TEXT PRIMARY KEY,
	primary_tier    TEXT NOT NULL,
	location        TEXT NOT NULL,
	created_at      TEXT NOT NULL,
	last_accessed   TEXT NOT NULL,
	access_count    INTEGER NOT NULL DEFAULT 0,
	size            INTEGER NOT NULL DEFAULT 0,
	tags            TEXT NOT NULL DEFAULT '[]',
	data_type       TEXT NOT NULL DEFAULT '',
	table_name      TEXT NOT NULL DEFAULT '',
	additional_meta TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_data_catalog_tier ON data_catalog(primary_tier);
CREATE INDEX IF NOT EXISTS idx_data_catalog_created ON data_catalog(created_at);
`
	_, err := db.Exec(ddl)
	return err
}

const catalogColumns = `data_id, primary_tier, location, created_at, last_accessed, access_count, size, tags, data_type, table_name, additional_meta`

// Register inserts a new catalog row with a fresh random 128-bit id.
func (c *Catalog) Register(ctx context.Context, reg memory.Registration) (string, error) {
	if !reg.Tier.Valid() {
		return "", strataerr.Errorf(strataerr.CodeCatalogTierInvalid, "unknown tier %q", reg.Tier)
	}

	tagsJSON, err := json.Marshal(normalizedOrEmpty(reg.Tags))
	if err != nil {
		return "", strataerr.Wrapf(err, strataerr.CodeMetaEncodeFailure, "encoding tags")
	}

	metaText, err := memory.EncodeMeta(reg.Meta)
	if err != nil {
		return "", err
	}

	dataID := uuid.NewString()
	now := formatTime(time.Now())

	const q = `INSERT INTO data_catalog (` + catalogColumns + `)
VALUES (?, ?, ?, ?, ?, 0, ?, ?, ?, ?, ?)`

	c.mu.Lock()
	defer c.mu.Unlock()

	_, err = c.db.ExecContext(ctx, q,
		dataID, string(reg.Tier), reg.Location, now, now,
		reg.Size, string(tagsJSON), string(reg.DataType), reg.TableName, metaText,
	)
	if err != nil {
		return "", strataerr.Wrapf(err, strataerr.CodeCatalogRegisterFailure, "registering %s entry", reg.Tier)
	}

	return dataID, nil
}

// UpdateAccess increments access_count and refreshes last_accessed.
func (c *Catalog) UpdateAccess(ctx context.Context, dataID string) error {
	const q = `UPDATE data_catalog SET access_count = access_count + 1, last_accessed = ? WHERE data_id = ?`

	c.mu.Lock()
	defer c.mu.Unlock()

	result, err := c.db.ExecContext(ctx, q, formatTime(time.Now()), dataID)
	if err != nil {
		return strataerr.Wrapf(err, strataerr.CodeCatalogDatabaseFailure, "updating access for %s", dataID)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return strataerr.Wrapf(err, strataerr.CodeCatalogDatabaseFailure, "checking rows for %s", dataID)
	}
	if rows == 0 {
		return strataerr.New(strataerr.CodeCatalogEntryNotFound, "catalog entry not found", strataerr.FieldDataID(dataID))
	}
	return nil
}

// GetDataInfo returns the catalog entry for dataID.
func (c *Catalog) GetDataInfo(ctx context.Context, dataID string) (*memory.CatalogEntry, error) {
	const q = `SELECT ` + catalogColumns + ` FROM data_catalog WHERE data_id = ?`

	entry, err := scanEntry(c.db.QueryRowContext(ctx, q, dataID))
	if err == sql.ErrNoRows {
		return nil, strataerr.New(strataerr.CodeCatalogEntryNotFound, "catalog entry not found", strataerr.FieldDataID(dataID))
	}
	if err != nil {
		return nil, strataerr.Wrapf(err, strataerr.CodeCatalogDatabaseFailure, "getting entry %s", dataID)
	}
	return entry, nil
}

// SearchByTags returns entries whose tag set is a superset of the query
// tags. An empty query matches every live entry.
func (c *Catalog) SearchByTags(ctx context.Context, tags []string) ([]*memory.CatalogEntry, error) {
	query := memory.NormalizeTags(tags)

	// Tags are persisted as a JSON list; superset filtering happens here
	// rather than in SQL so the column stays forward-compatible text.
	const q = `SELECT ` + catalogColumns + ` FROM data_catalog ORDER BY created_at ASC`

	entries, err := c.queryEntries(ctx, q)
	if err != nil {
		return nil, err
	}

	if len(query) == 0 {
		return entries, nil
	}

	matched := entries[:0]
	for _, e := range entries {
		if containsAll(e.Tags, query) {
			matched = append(matched, e)
		}
	}
	return matched, nil
}

// GetTierData returns all live entries registered for the tier.
func (c *Catalog) GetTierData(ctx context.Context, tier memory.Tier) ([]*memory.CatalogEntry, error) {
	if !tier.Valid() {
		return nil, strataerr.Errorf(strataerr.CodeCatalogTierInvalid, "unknown tier %q", tier)
	}

	const q = `SELECT ` + catalogColumns + ` FROM data_catalog WHERE primary_tier = ? ORDER BY created_at ASC`
	return c.queryEntries(ctx, q, string(tier))
}

// UpdateTier rewrites tier and location for an existing entry, preserving
// its id and creation time.
func (c *Catalog) UpdateTier(ctx context.Context, dataID string, tier memory.Tier, location string) error {
	if !tier.Valid() {
		return strataerr.Errorf(strataerr.CodeCatalogTierInvalid, "unknown tier %q", tier)
	}

	const q = `UPDATE data_catalog SET primary_tier = ?, location = ? WHERE data_id = ?`

	c.mu.Lock()
	defer c.mu.Unlock()

	result, err := c.db.ExecContext(ctx, q, string(tier), location, dataID)
	if err != nil {
		return strataerr.Wrapf(err, strataerr.CodeCatalogDatabaseFailure, "moving %s to tier %s", dataID, tier)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return strataerr.Wrapf(err, strataerr.CodeCatalogDatabaseFailure, "checking rows for %s", dataID)
	}
	if rows == 0 {
		return strataerr.New(strataerr.CodeCatalogEntryNotFound, "catalog entry not found", strataerr.FieldDataID(dataID))
	}
	return nil
}

// DeleteData removes the row, reporting whether it existed.
func (c *Catalog) DeleteData(ctx context.Context, dataID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	result, err := c.db.ExecContext(ctx, `DELETE FROM data_catalog WHERE data_id = ?`, dataID)
	if err != nil {
		return false, strataerr.Wrapf(err, strataerr.CodeCatalogDatabaseFailure, "deleting entry %s", dataID)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, strataerr.Wrapf(err, strataerr.CodeCatalogDatabaseFailure, "checking rows for %s", dataID)
	}
	return rows > 0, nil
}

// Close closes the underlying database connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// ---------- row scanning ----------

// rowScanner abstracts *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*memory.CatalogEntry, error) {
	var (
		e                       memory.CatalogEntry
		tier                    string
		createdAt, lastAccessed string
		tagsJSON, dataType      string
		metaText                string
	)

	err := row.Scan(&e.DataID, &tier, &e.Location, &createdAt, &lastAccessed,
		&e.AccessCount, &e.Size, &tagsJSON, &dataType, &e.TableName, &metaText)
	if err != nil {
		return nil, err
	}

	e.Tier = memory.Tier(tier)
	e.DataType = memory.DataType(dataType)

	if e.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if e.LastAccessed, err = parseTime(lastAccessed); err != nil {
		return nil, err
	}

	if tagsJSON != "" && tagsJSON != "[]" {
		if err := json.Unmarshal([]byte(tagsJSON), &e.Tags); err != nil {
			return nil, err
		}
	}

	if e.Meta, err = memory.DecodeMeta(metaText); err != nil {
		return nil, err
	}

	return &e, nil
}

func (c *Catalog) queryEntries(ctx context.Context, q string, args ...any) ([]*memory.CatalogEntry, error) {
	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, strataerr.Wrapf(err, strataerr.CodeCatalogDatabaseFailure, "querying catalog")
	}
	defer rows.Close() //nolint:errcheck // error on read-path close is not actionable

	var entries []*memory.CatalogEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, strataerr.Wrapf(err, strataerr.CodeCatalogDatabaseFailure, "scanning catalog row")
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, strataerr.Wrapf(err, strataerr.CodeCatalogDatabaseFailure, "iterating catalog rows")
	}
	return entries, nil
}

// containsAll reports whether have (sorted, deduplicated) contains every
// element of want.
func containsAll(have, want []string) bool {
	if len(want) > len(have) {
		return false
	}
	set := make(map[string]struct{}, len(have))
	for _, tag := range have {
		set[tag] = struct{}{}
	}
	for _, tag := range want {
		if _, ok := set[tag]; !ok {
			return false
		}
	}
	return true
}

// normalizedOrEmpty keeps the persisted tags column a JSON list, never null.
func normalizedOrEmpty(tags []string) []string {
	if normalized := memory.NormalizeTags(tags); normalized != nil {
		return normalized
	}
	return []string{}
}
