package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/atlas/pkg/types"
)

// newTestBackend attaches a backend to a fresh temp directory and detaches
// it when the test ends.
func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	b := NewBackend()
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { _ = b.Detach() })
	return b
}

func mustDescriptor(t *testing.T, b *Backend, name string, values ...string) *types.Descriptor {
	t.Helper()
	d := &types.Descriptor{Name: name, Values: values}
	_, err := b.Descriptors().Create(context.Background(), d)
	require.NoError(t, err)
	return d
}

func mustResource(t *testing.T, b *Backend, name string) *types.Resource {
	t.Helper()
	r := &types.Resource{Name: name, Address: "123 Main St", Latitude: 47.6, Longitude: -122.3}
	_, err := b.Resources().Create(context.Background(), r)
	require.NoError(t, err)
	return r
}

// countRows returns the number of rows in table matching where.
func countRows(t *testing.T, b *Backend, table, where string, args ...any) int {
	t.Helper()
	db, err := b.handle()
	require.NoError(t, err)
	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+table+" WHERE "+where, args...).Scan(&n))
	return n
}
