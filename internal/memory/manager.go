// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Strata Contributors

package memory

import (
	"context"
	"log/slog"

	strataerr "github.com/strata-dev/strata/pkg/errors"
)

// Manager is the explicit composition root for the memory subsystem: one
// catalog, one tier store per configured tier, and the derived semantic
// index. It is constructed once at process start, injected into
// collaborators, and torn down via Cleanup.
type Manager struct {
	catalog Catalog
	stores  map[Tier]TierStore
	index   Index
}

// NewManager wires a manager from its three subsystems. Stores that evict
// inline get a callback that drops the matching catalog row, keeping the
// catalog authoritative for what is resident.
func NewManager(catalog Catalog, stores map[Tier]TierStore, index Index) *Manager {
	m := &Manager{
		catalog: catalog,
		stores:  stores,
		index:   index,
	}
	for tier, ts := range stores {
		if notifier, ok := ts.(EvictionNotifier); ok {
			notifier.OnEvict(m.evictionHandler(tier))
		}
	}
	return m
}

// evictionHandler returns the per-tier callback that removes the catalog row
// for an evicted payload location.
func (m *Manager) evictionHandler(tier Tier) func(location string) {
	return func(location string) {
		ctx := context.Background()
		entries, err := m.catalog.GetTierData(ctx, tier)
		if err != nil {
			slog.Warn("eviction catalog lookup failed", "tier", tier, "location", location, "error", err)
			return
		}
		for _, e := range entries {
			if e.Location != location {
				continue
			}
			if _, derr := m.catalog.DeleteData(ctx, e.DataID); derr != nil {
				slog.Warn("eviction catalog delete failed",
					"tier", tier, "data_id", e.DataID, "location", location, "error", derr)
			}
			return
		}
	}
}

// Catalog returns the authoritative metadata registry.
func (m *Manager) Catalog() Catalog { return m.catalog }

// Index returns the semantic index.
func (m *Manager) Index() Index { return m.index }

// Store returns the tier store for the given tier.
func (m *Manager) Store(tier Tier) (TierStore, error) {
	if !tier.Valid() {
		return nil, strataerr.Errorf(strataerr.CodeCatalogTierInvalid, "unknown tier %q", tier)
	}
	ts, ok := m.stores[tier]
	if !ok {
		return nil, strataerr.New(strataerr.CodeTierBackendUnavailable, "tier store not configured",
			strataerr.FieldTier(tier.String()))
	}
	return ts, nil
}

// PutOptions carries the catalog-facing attributes of an ingested payload.
type PutOptions struct {
	Tags      []string
	Meta      *Meta
	TableName string

	// Size overrides the derived payload size when non-zero.
	Size int64
}

// Put writes a payload into the tier store and registers it in the catalog.
// The two steps are not transactional: a payload written but never
// registered is an orphan, reclaimed by later garbage collection.
func (m *Manager) Put(ctx context.Context, tier Tier, p *Payload, opts PutOptions) (string, error) {
	ts, err := m.Store(tier)
	if err != nil {
		return "", err
	}

	location, err := ts.Store(ctx, p)
	if err != nil {
		return "", err
	}

	size := opts.Size
	if size == 0 {
		size = payloadSize(p)
	}

	dataID, err := m.catalog.Register(ctx, Registration{
		Tier:      tier,
		Location:  location,
		Size:      size,
		DataType:  p.Kind,
		Tags:      opts.Tags,
		Meta:      opts.Meta,
		TableName: opts.TableName,
	})
	if err != nil {
		slog.Warn("payload stored but registration failed; payload orphaned",
			"tier", tier, "location", location, "error", err)
		return "", err
	}

	return dataID, nil
}

// Get resolves a data id through the catalog, retrieves the payload from the
// owning tier, and records the access. A catalog row whose payload is
// missing surfaces as not-found rather than being silently healed.
func (m *Manager) Get(ctx context.Context, dataID string) (*Payload, *CatalogEntry, error) {
	entry, err := m.catalog.GetDataInfo(ctx, dataID)
	if err != nil {
		return nil, nil, err
	}

	ts, err := m.Store(entry.Tier)
	if err != nil {
		return nil, nil, err
	}

	p, err := ts.Retrieve(ctx, entry.Location)
	if err != nil {
		return nil, nil, strataerr.With(err, strataerr.FieldDataID(dataID))
	}

	// Access bookkeeping must not fail an otherwise successful read.
	if err := m.catalog.UpdateAccess(ctx, dataID); err != nil {
		slog.Warn("access bookkeeping failed", "data_id", dataID, "error", err)
	}

	return p, entry, nil
}

// Delete removes the catalog row and, where the owning tier supports
// deletion, the payload. It reports whether the row existed; repeated
// deletes return false.
func (m *Manager) Delete(ctx context.Context, dataID string) (bool, error) {
	entry, err := m.catalog.GetDataInfo(ctx, dataID)
	if err != nil {
		if strataerr.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}

	if ts, serr := m.Store(entry.Tier); serr == nil {
		if remover, ok := ts.(PayloadRemover); ok {
			if rerr := remover.Remove(ctx, entry.Location); rerr != nil && !strataerr.IsNotFound(rerr) {
				slog.Warn("payload removal failed; payload orphaned",
					"data_id", dataID, "tier", entry.Tier, "location", entry.Location, "error", rerr)
			}
		}
	}

	return m.catalog.DeleteData(ctx, dataID)
}

// Promote moves an entry's payload to the target tier, rewrites its catalog
// row (preserving data id and creation time), and rebuilds both affected
// tier indexes.
func (m *Manager) Promote(ctx context.Context, dataID string, target Tier) error {
	entry, err := m.catalog.GetDataInfo(ctx, dataID)
	if err != nil {
		return err
	}
	if entry.Tier == target {
		return nil
	}

	src, err := m.Store(entry.Tier)
	if err != nil {
		return err
	}
	dst, err := m.Store(target)
	if err != nil {
		return err
	}

	p, err := src.Retrieve(ctx, entry.Location)
	if err != nil {
		return strataerr.With(err, strataerr.FieldDataID(dataID))
	}

	newLocation, err := dst.Store(ctx, p)
	if err != nil {
		return err
	}

	if err := m.catalog.UpdateTier(ctx, dataID, target, newLocation); err != nil {
		return err
	}

	slog.Info("entry moved between tiers",
		"data_id", dataID, "from", entry.Tier, "to", target, "location", newLocation)

	// The old payload is an orphan once the catalog points at the new tier.
	if remover, ok := src.(PayloadRemover); ok {
		if rerr := remover.Remove(ctx, entry.Location); rerr != nil && !strataerr.IsNotFound(rerr) {
			slog.Warn("stale payload removal failed",
				"data_id", dataID, "tier", entry.Tier, "location", entry.Location, "error", rerr)
		}
	}

	var errs []error
	if m.index != nil {
		if ierr := m.index.UpdateIndex(ctx, entry.Tier); ierr != nil {
			errs = append(errs, ierr)
		}
		if ierr := m.index.UpdateIndex(ctx, target); ierr != nil {
			errs = append(errs, ierr)
		}
	}
	if len(errs) > 0 {
		return strataerr.Join(errs...)
	}
	return nil
}

// Cleanup tears down the index (which releases every tier store) and closes
// the catalog.
func (m *Manager) Cleanup(ctx context.Context) error {
	var errs []error
	if m.index != nil {
		if err := m.index.Cleanup(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := m.catalog.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return strataerr.Join(errs...)
	}
	return nil
}

// payloadSize derives a size (bytes or item count) from the payload shape.
func payloadSize(p *Payload) int64 {
	switch {
	case p == nil:
		return 0
	case p.Table != nil:
		return int64(len(p.Table.Rows))
	case len(p.Vector) > 0:
		return int64(len(p.Vector))
	default:
		return int64(len(p.Bytes))
	}
}
