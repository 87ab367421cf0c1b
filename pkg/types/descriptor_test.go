package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptorKind(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		want   string
	}{
		{"nil values is text", nil, KindText},
		{"empty values is text", []string{}, KindText},
		{"values make an option descriptor", []string{"No", "Yes"}, KindOption},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &Descriptor{Name: "Has Showers", Values: tt.values}
			assert.Equal(t, tt.want, d.Kind())
			assert.Equal(t, tt.want == KindOption, d.IsOption())
		})
	}
}

func TestDescriptorValueAt(t *testing.T) {
	d := &Descriptor{ID: 3, Name: "Wheelchair Access", Values: []string{"No", "Yes"}}

	got, err := d.ValueAt(1)
	require.NoError(t, err)
	assert.Equal(t, "Yes", got)

	for _, option := range []int{-1, 2, 100} {
		_, err := d.ValueAt(option)
		assert.ErrorIs(t, err, ErrOutOfRange, "option %d", option)
	}

	text := &Descriptor{ID: 4, Name: "Hours"}
	_, err = text.ValueAt(0)
	assert.ErrorIs(t, err, ErrInvalidDescriptor)
}

func TestDescriptorChecks(t *testing.T) {
	option := &Descriptor{ID: 1, Values: []string{"a"}}
	text := &Descriptor{ID: 2}

	assert.ErrorIs(t, option.CheckText(), ErrInvalidDescriptor)
	assert.NoError(t, text.CheckText())

	assert.NoError(t, option.CheckOption(0))
	assert.ErrorIs(t, option.CheckOption(1), ErrOutOfRange)
	assert.ErrorIs(t, text.CheckOption(0), ErrInvalidDescriptor)
}
