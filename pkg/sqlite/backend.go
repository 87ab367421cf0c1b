// Package sqlite is the public entry point to the SQLite catalog backend.
// The implementation lives in internal/sqlite.
package sqlite

import (
	"github.com/mesh-intelligence/atlas/internal/sqlite"
	"github.com/mesh-intelligence/atlas/pkg/types"
)

// NewBackend returns a detached SQLite catalog; call Attach before use.
//
// Example:
//
//	catalog := sqlite.NewBackend()
//	err := catalog.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".atlas-db",
//	})
//	defer catalog.Detach()
func NewBackend() types.Catalog {
	return sqlite.NewBackend()
}

// Open returns a catalog already attached with config.
func Open(config types.Config) (types.Catalog, error) {
	c := sqlite.NewBackend()
	if err := c.Attach(config); err != nil {
		return nil, err
	}
	return c, nil
}
