// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Strata Contributors

package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/strata-dev/strata/internal/memory"
	strataerr "github.com/strata-dev/strata/pkg/errors"
)

// Compile-time interface checks.
var (
	_ memory.TierStore      = (*TableStore)(nil)
	_ memory.PayloadRemover = (*TableStore)(nil)
)

// identRe matches safe SQL identifiers. Locations and column names are
// interpolated into DDL, so anything else is rejected up front.
var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// columnAffinities is the allowed set of declared column types.
var columnAffinities = map[string]struct{}{
	"TEXT":    {},
	"INTEGER": {},
	"REAL":    {},
	"BLOB":    {},
	"NUMERIC": {},
}

// TableStore implements the warm and cold tiers: table-oriented analytical
// storage where each stored tabular payload becomes a real SQL table and
// schema introspection reads column names/types from the stored state.
type TableStore struct {
	db        *sql.DB
	tier      memory.Tier
	maxTables int
}

// NewTableStore opens (or creates) a SQLite database at dbPath for the warm
// or cold tier. maxTables bounds capacity; zero means unbounded.
func NewTableStore(dbPath string, tier memory.Tier, maxTables int) (*TableStore, error) {
	if tier != memory.TierWarm && tier != memory.TierCold {
		return nil, strataerr.Errorf(strataerr.CodeCatalogTierInvalid, "table store cannot back tier %q", tier)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, strataerr.Wrapf(err, strataerr.CodeTierBackendUnavailable, "opening %s tier db", tier)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, strataerr.Wrapf(err, strataerr.CodeTierBackendUnavailable, "pinging %s tier db", tier)
	}

	if err := migrateTables(db); err != nil {
		_ = db.Close()
		return nil, strataerr.Wrapf(err, strataerr.CodeCatalogDatabaseFailure, "migrating %s tier db", tier)
	}

	return &TableStore{db: db, tier: tier, maxTables: maxTables}, nil
}

// tier_tables is the registry of stored payload tables. It carries what
// PRAGMA introspection cannot recover: the payload kind and source tag.
func migrateTables(db *sql.DB) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS tier_tables (
	location   TEXT PRIMARY KEY,
	kind       TEXT NOT NULL DEFAULT '',
	source     TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);
`
	_, err := db.Exec(ddl)
	return err
}

// Tier names the storage class this store backs.
func (s *TableStore) Tier() memory.Tier { return s.tier }

// Store creates a table for the tabular payload and inserts its rows. The
// returned location is the generated table name.
func (s *TableStore) Store(ctx context.Context, p *memory.Payload) (string, error) {
	if p == nil || p.Table == nil || len(p.Table.Columns) == 0 {
		return "", strataerr.Errorf(strataerr.CodeTierPayloadInvalid, "%s tier stores tabular payloads only", s.tier)
	}

	if s.maxTables > 0 {
		count, err := s.countTables(ctx)
		if err != nil {
			return "", err
		}
		if count >= s.maxTables {
			return "", strataerr.New(strataerr.CodeTierCapacityExceeded, "tier at capacity",
				strataerr.FieldTier(s.tier.String()), strataerr.Field("max_tables", s.maxTables))
		}
	}

	defs := make([]string, 0, len(p.Table.Columns))
	names := make([]string, 0, len(p.Table.Columns))
	for _, col := range p.Table.Columns {
		if !identRe.MatchString(col.Name) {
			return "", strataerr.Errorf(strataerr.CodeTierPayloadInvalid, "invalid column name %q", col.Name)
		}
		affinity := strings.ToUpper(col.Type)
		if _, ok := columnAffinities[affinity]; !ok {
			affinity = "TEXT"
		}
		defs = append(defs, fmt.Sprintf("%s %s", col.Name, affinity))
		names = append(names, col.Name)
	}

	location := "t_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", strataerr.Wrapf(err, strataerr.CodeCatalogDatabaseFailure, "beginning tx for table %s", location)
	}
	defer tx.Rollback() //nolint:errcheck

	createDDL := fmt.Sprintf("CREATE TABLE %s (%s)", location, strings.Join(defs, ", "))
	if _, err := tx.ExecContext(ctx, createDDL); err != nil {
		return "", strataerr.Wrapf(err, strataerr.CodeCatalogDatabaseFailure, "creating table %s", location)
	}

	const registryQ = `INSERT INTO tier_tables (location, kind, source, created_at) VALUES (?, ?, ?, ?)`
	if _, err := tx.ExecContext(ctx, registryQ, location, string(p.Kind), p.Attrs["source"], formatTime(time.Now())); err != nil {
		return "", strataerr.Wrapf(err, strataerr.CodeCatalogDatabaseFailure, "registering table %s", location)
	}

	if len(p.Table.Rows) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(names)), ",")
		insertQ := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", location, strings.Join(names, ", "), placeholders)
		for i, row := range p.Table.Rows {
			if len(row) != len(names) {
				return "", strataerr.Errorf(strataerr.CodeTierPayloadInvalid, "row %d has %d values, want %d", i, len(row), len(names))
			}
			if _, err := tx.ExecContext(ctx, insertQ, row...); err != nil {
				return "", strataerr.Wrapf(err, strataerr.CodeCatalogDatabaseFailure, "inserting row %d into %s", i, location)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", strataerr.Wrapf(err, strataerr.CodeCatalogDatabaseFailure, "committing table %s", location)
	}
	return location, nil
}

// Retrieve reads the stored table back into a tabular payload.
func (s *TableStore) Retrieve(ctx context.Context, location string) (*memory.Payload, error) {
	kind, _, err := s.lookup(ctx, location)
	if err != nil {
		return nil, err
	}

	columns, err := s.tableColumns(ctx, location)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s", location))
	if err != nil {
		return nil, strataerr.Wrapf(err, strataerr.CodeCatalogDatabaseFailure, "reading table %s", location)
	}
	defer rows.Close() //nolint:errcheck // error on read-path close is not actionable

	var data [][]any
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, strataerr.Wrapf(err, strataerr.CodeCatalogDatabaseFailure, "scanning row from %s", location)
		}
		// The driver hands TEXT columns back as []byte; payloads carry strings.
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		data = append(data, values)
	}
	if err := rows.Err(); err != nil {
		return nil, strataerr.Wrapf(err, strataerr.CodeCatalogDatabaseFailure, "iterating rows from %s", location)
	}

	return &memory.Payload{
		Kind: kind,
		Table: &memory.Table{
			Name:    location,
			Columns: columns,
			Rows:    data,
		},
	}, nil
}

// Schema introspects the stored table's column names and types.
func (s *TableStore) Schema(ctx context.Context, location string) (*memory.SchemaDescriptor, error) {
	kind, source, err := s.lookup(ctx, location)
	if err != nil {
		return nil, err
	}

	columns, err := s.tableColumns(ctx, location)
	if err != nil {
		return nil, err
	}

	fields := make([]memory.FieldSchema, 0, len(columns))
	for _, col := range columns {
		fields = append(fields, memory.FieldSchema{Name: col.Name, Type: col.Type})
	}

	return &memory.SchemaDescriptor{
		Fields:    fields,
		Source:    source,
		Kind:      kind,
		TableName: location,
	}, nil
}

// Remove drops the payload table and its registry row.
func (s *TableStore) Remove(ctx context.Context, location string) error {
	if _, _, err := s.lookup(ctx, location); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return strataerr.Wrapf(err, strataerr.CodeCatalogDatabaseFailure, "beginning tx for drop of %s", location)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %s", location)); err != nil {
		return strataerr.Wrapf(err, strataerr.CodeCatalogDatabaseFailure, "dropping table %s", location)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM tier_tables WHERE location = ?`, location); err != nil {
		return strataerr.Wrapf(err, strataerr.CodeCatalogDatabaseFailure, "unregistering table %s", location)
	}

	if err := tx.Commit(); err != nil {
		return strataerr.Wrapf(err, strataerr.CodeCatalogDatabaseFailure, "committing drop of %s", location)
	}
	return nil
}

// Cleanup closes the underlying database connection.
func (s *TableStore) Cleanup(_ context.Context) error {
	return s.db.Close()
}

// lookup resolves a location in the table registry.
func (s *TableStore) lookup(ctx context.Context, location string) (memory.DataType, string, error) {
	if !identRe.MatchString(location) {
		return "", "", strataerr.Errorf(strataerr.CodeTierPayloadInvalid, "invalid location %q", location)
	}

	var kind, source string
	err := s.db.QueryRowContext(ctx, `SELECT kind, source FROM tier_tables WHERE location = ?`, location).
		Scan(&kind, &source)
	if err == sql.ErrNoRows {
		return "", "", strataerr.New(strataerr.CodeTierPayloadNotFound, "no table at location",
			strataerr.FieldTier(s.tier.String()), strataerr.FieldLocation(location))
	}
	if err != nil {
		return "", "", strataerr.Wrapf(err, strataerr.CodeCatalogDatabaseFailure, "resolving location %s", location)
	}
	return memory.DataType(kind), source, nil
}

// tableColumns reads column names and declared types via PRAGMA table_info.
func (s *TableStore) tableColumns(ctx context.Context, location string) ([]memory.Column, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", location))
	if err != nil {
		return nil, strataerr.Wrapf(err, strataerr.CodeCatalogDatabaseFailure, "introspecting table %s", location)
	}
	defer rows.Close() //nolint:errcheck // error on read-path close is not actionable

	var columns []memory.Column
	for rows.Next() {
		var (
			cid        int
			name, typ  string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &defaultVal, &pk); err != nil {
			return nil, strataerr.Wrapf(err, strataerr.CodeCatalogDatabaseFailure, "scanning table_info for %s", location)
		}
		columns = append(columns, memory.Column{Name: name, Type: typ})
	}
	if err := rows.Err(); err != nil {
		return nil, strataerr.Wrapf(err, strataerr.CodeCatalogDatabaseFailure, "iterating table_info for %s", location)
	}
	if len(columns) == 0 {
		return nil, strataerr.New(strataerr.CodeTierPayloadNotFound, "no table at location",
			strataerr.FieldTier(s.tier.String()), strataerr.FieldLocation(location))
	}
	return columns, nil
}

func (s *TableStore) countTables(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tier_tables`).Scan(&count); err != nil {
		return 0, strataerr.Wrapf(err, strataerr.CodeCatalogDatabaseFailure, "counting tier tables")
	}
	return count, nil
}
