// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Strata Contributors

package sqlite

import (
	"github.com/strata-dev/strata/internal/memory"
)

func init() {
	memory.RegisterBackend("sqlite", func(dbPath string) (memory.Catalog, error) {
		return NewCatalog(dbPath)
	})
}
