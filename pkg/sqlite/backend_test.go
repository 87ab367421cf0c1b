package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/atlas/pkg/types"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()
	c, err := Open(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()})
	require.NoError(t, err)
	defer c.Detach()

	d := &types.Descriptor{Name: "Has Showers", Values: []string{"No", "Yes"}}
	_, err = c.Descriptors().Create(ctx, d)
	require.NoError(t, err)
	r := &types.Resource{Name: "Shelter"}
	_, err = c.Resources().Create(ctx, r)
	require.NoError(t, err)

	err = c.InTx(ctx, func(tx types.Store) error {
		_, err := tx.Associations().UpsertOption(ctx, r.ID, d.ID, 1)
		return err
	})
	require.NoError(t, err)

	got, err := c.Resources().GetByID(ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, got.OptionAssociations, 1)
	v, err := got.OptionAssociations[0].DisplayValue()
	require.NoError(t, err)
	assert.Equal(t, "Yes", v)
}

func TestOpenRejectsBadConfig(t *testing.T) {
	_, err := Open(types.Config{})
	assert.ErrorIs(t, err, types.ErrBackendEmpty)

	c := NewBackend()
	_, err = c.Resources().ListAll(context.Background())
	assert.ErrorIs(t, err, types.ErrCatalogDetached)
}
