package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextAssociationBinding(t *testing.T) {
	ta := &TextAssociation{
		ResourceID:   1,
		DescriptorID: 2,
		Text:         "Yes, 3 stalls",
		Descriptor:   &Descriptor{ID: 2, Name: "Has Showers"},
	}

	assert.Equal(t, BindingKey{ResourceID: 1, DescriptorID: 2}, ta.Key())
	assert.Equal(t, "Has Showers", ta.DescriptorName())
	got, err := ta.DisplayValue()
	require.NoError(t, err)
	assert.Equal(t, "Yes, 3 stalls", got)
}

func TestOptionAssociationBinding(t *testing.T) {
	t.Run("resolves index to display string", func(t *testing.T) {
		oa := &OptionAssociation{
			ResourceID:   1,
			DescriptorID: 5,
			Option:       1,
			Descriptor:   &Descriptor{ID: 5, Name: "Open Now", Values: []string{"No", "Yes"}},
		}
		assert.Equal(t, BindingKey{ResourceID: 1, DescriptorID: 5}, oa.Key())
		got, err := oa.DisplayValue()
		require.NoError(t, err)
		assert.Equal(t, "Yes", got)
	})

	t.Run("stale index reports ErrOutOfRange", func(t *testing.T) {
		oa := &OptionAssociation{Option: 4, Descriptor: &Descriptor{Values: []string{"No", "Yes"}}}
		_, err := oa.DisplayValue()
		assert.ErrorIs(t, err, ErrOutOfRange)
	})

	t.Run("missing descriptor reports ErrNotFound", func(t *testing.T) {
		oa := &OptionAssociation{ResourceID: 1, DescriptorID: 9}
		assert.Equal(t, "", oa.DescriptorName())
		_, err := oa.DisplayValue()
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestResourceBindingsOrder(t *testing.T) {
	r := &Resource{
		ID:                 1,
		TextAssociations:   []*TextAssociation{{ResourceID: 1, DescriptorID: 7}},
		OptionAssociations: []*OptionAssociation{{ResourceID: 1, DescriptorID: 2}},
	}
	bindings := r.Bindings()
	require.Len(t, bindings, 2)
	assert.Equal(t, int64(7), bindings[0].Key().DescriptorID, "text associations come first")
	assert.Equal(t, int64(2), bindings[1].Key().DescriptorID)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrConstraintViolation))
	for _, err := range []error{ErrNotFound, ErrInvalidDescriptor, ErrOutOfRange, ErrValidationFailure, nil} {
		assert.False(t, IsRetryable(err), "%v", err)
	}
}
