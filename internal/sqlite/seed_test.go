package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/atlas/pkg/types"
)

const seedYAML = `descriptors:
  - name: Categories
    values: [Food, Housing, Hygiene]
    searchable: true
  - name: Phone Number
  - name: Has Showers
    values: ["No", "Yes"]
`

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadSeedFile(t *testing.T) {
	sf, err := LoadSeedFile(writeSeed(t, seedYAML))
	require.NoError(t, err)
	require.Len(t, sf.Descriptors, 3)
	assert.Equal(t, SeedDescriptor{Name: "Categories", Values: []string{"Food", "Housing", "Hygiene"}, Searchable: true}, sf.Descriptors[0])
	assert.Empty(t, sf.Descriptors[1].Values)
	assert.Equal(t, []string{"No", "Yes"}, sf.Descriptors[2].Values)

	_, err = LoadSeedFile(writeSeed(t, "descriptors:\n  - values: [a]\n"))
	assert.ErrorIs(t, err, types.ErrValidationFailure)

	_, err = LoadSeedFile(writeSeed(t, "descriptors: [\n"))
	assert.ErrorIs(t, err, types.ErrValidationFailure)

	_, err = LoadSeedFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)
	mustDescriptor(t, b, "Phone Number")

	sf, err := LoadSeedFile(writeSeed(t, seedYAML))
	require.NoError(t, err)

	n, err := b.Seed(ctx, sf.Descriptors)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = b.Seed(ctx, sf.Descriptors)
	require.NoError(t, err)
	assert.Zero(t, n)

	all, err := b.Descriptors().ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)

	cats, err := b.Descriptors().FindByName(ctx, "Categories")
	require.NoError(t, err)
	assert.True(t, cats.IsSearchable)
	assert.Equal(t, types.KindOption, cats.Kind())
}
