package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/atlas/pkg/types"
)

func TestResourceCreateAndGet(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	r := &types.Resource{Name: "Food Bank A", Address: "1 Pine St", Latitude: 47.61, Longitude: -122.33}
	id, err := b.Resources().Create(ctx, r)
	require.NoError(t, err)
	assert.NotZero(t, id)
	assert.Equal(t, id, r.ID)

	got, err := b.Resources().GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, r.Fields(), got.Fields())
	assert.Empty(t, got.TextAssociations)
	assert.Empty(t, got.OptionAssociations)

	_, err = b.Resources().GetByID(ctx, id+100)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestResourceCreateValidation(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	tests := []struct {
		name string
		r    *types.Resource
	}{
		{"nil resource", nil},
		{"empty name", &types.Resource{Latitude: 1}},
		{"latitude out of range", &types.Resource{Name: "x", Latitude: 91}},
		{"longitude out of range", &types.Resource{Name: "x", Longitude: -181}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.Resources().Create(ctx, tt.r)
			assert.ErrorIs(t, err, types.ErrValidationFailure)
		})
	}
	assert.Equal(t, 0, countRows(t, b, "resources", "1 = 1"))
}

func TestResourceGetHydratesAssociations(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)
	r := mustResource(t, b, "Shelter")
	phone := mustDescriptor(t, b, "Phone")
	showers := mustDescriptor(t, b, "Has Showers", "No", "Yes")

	_, err := b.Associations().UpsertText(ctx, r.ID, phone.ID, "555-0100")
	require.NoError(t, err)
	_, err = b.Associations().UpsertOption(ctx, r.ID, showers.ID, 1)
	require.NoError(t, err)

	got, err := b.Resources().GetByID(ctx, r.ID)
	require.NoError(t, err)
	require.Len(t, got.TextAssociations, 1)
	require.Len(t, got.OptionAssociations, 1)
	assert.Equal(t, "555-0100", got.TextAssociations[0].Text)
	v, err := got.OptionAssociations[0].DisplayValue()
	require.NoError(t, err)
	assert.Equal(t, "Yes", v)
}

func TestResourceListAndSearch(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	all, err := b.Resources().ListAll(ctx)
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)

	mustResource(t, b, "Food Bank A")
	mustResource(t, b, "North Shelter")
	mustResource(t, b, "food pantry")
	mustResource(t, b, "100% Free Clinic")

	all, err = b.Resources().ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].ID, all[i].ID)
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"food", []string{"Food Bank A", "food pantry"}},
		{"SHELTER", []string{"North Shelter"}},
		{"%", []string{"100% Free Clinic"}},
		{"_", nil},
		{"", []string{"Food Bank A", "North Shelter", "food pantry", "100% Free Clinic"}},
	}
	for _, tt := range tests {
		t.Run("query "+tt.query, func(t *testing.T) {
			found, err := b.Resources().Search(ctx, tt.query)
			require.NoError(t, err)
			var names []string
			for _, r := range found {
				names = append(names, r.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestResourceUpdate(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)
	r := mustResource(t, b, "Old Name")

	fields := types.ResourceFields{Name: "New Name", Address: "2 Elm St", Latitude: -33.9, Longitude: 151.2}
	require.NoError(t, b.Resources().Update(ctx, r.ID, fields))

	got, err := b.Resources().GetByID(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, fields, got.Fields())

	assert.ErrorIs(t, b.Resources().Update(ctx, r.ID+1, fields), types.ErrNotFound)
	assert.ErrorIs(t, b.Resources().Update(ctx, r.ID, types.ResourceFields{}), types.ErrValidationFailure)
}

func TestResourceDeleteCascades(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)
	r := mustResource(t, b, "Clinic")
	other := mustResource(t, b, "Pantry")
	hours := mustDescriptor(t, b, "Hours")
	open := mustDescriptor(t, b, "Open Now", "No", "Yes")

	for _, id := range []int64{r.ID, other.ID} {
		_, err := b.Associations().UpsertText(ctx, id, hours.ID, "9-5")
		require.NoError(t, err)
		_, err = b.Associations().UpsertOption(ctx, id, open.ID, 0)
		require.NoError(t, err)
		_, err = b.Suggestions().Add(ctx, &types.Suggestion{ResourceID: id, Text: "closed on sundays"})
		require.NoError(t, err)
	}

	require.NoError(t, b.Resources().Delete(ctx, r.ID))

	_, err := b.Resources().GetByID(ctx, r.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.Equal(t, 0, countRows(t, b, "text_associations", "resource_id = ?", r.ID))
	assert.Equal(t, 0, countRows(t, b, "option_associations", "resource_id = ?", r.ID))
	assert.Equal(t, 0, countRows(t, b, "suggestions", "resource_id = ?", r.ID))

	assert.Equal(t, 1, countRows(t, b, "text_associations", "resource_id = ?", other.ID))
	assert.Equal(t, 1, countRows(t, b, "option_associations", "resource_id = ?", other.ID))
	assert.Equal(t, 1, countRows(t, b, "suggestions", "resource_id = ?", other.ID))

	assert.ErrorIs(t, b.Resources().Delete(ctx, r.ID), types.ErrNotFound)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `a\%b\_c\\d`, escapeLike(`a%b_c\d`))
	assert.Equal(t, "plain", escapeLike("plain"))
}
