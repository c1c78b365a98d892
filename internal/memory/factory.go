// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Strata Contributors

package memory

import (
	"sync"

	strataerr "github.com/strata-dev/strata/pkg/errors"
)

// CatalogFactory creates a catalog backed by the given database path.
type CatalogFactory func(dbPath string) (Catalog, error)

var (
	catalogFactories = map[string]CatalogFactory{}
	factoriesMu      sync.RWMutex
)

// RegisterBackend registers a catalog factory for a named storage backend.
// Backend packages call this from init(). This function is goroutine-safe.
func RegisterBackend(name string, factory CatalogFactory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	catalogFactories[name] = factory
}

// NewCatalog creates a catalog using the named backend. An empty name
// selects the default sqlite backend.
func NewCatalog(backend, dbPath string) (Catalog, error) {
	if backend == "" {
		backend = "sqlite"
	}

	factoriesMu.RLock()
	factory, ok := catalogFactories[backend]
	factoriesMu.RUnlock()
	if !ok {
		return nil, strataerr.Errorf(strataerr.CodeCatalogBackendUnsupported, "unsupported catalog backend: %q", backend)
	}

	return factory(dbPath)
}
