package types

import "fmt"

// Descriptor kinds. The kind is never stored; it follows from Values.
const (
	KindText   = "text"
	KindOption = "option"
)

// Descriptor defines a named attribute that can be attached to resources.
// A descriptor with a non-empty Values list is an option descriptor whose
// associations store an index into Values. A descriptor with no values is a
// text descriptor whose associations store free-form text.
type Descriptor struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	Values       []string `json:"values"`
	IsSearchable bool     `json:"is_searchable"`
}

// Kind returns KindOption when the descriptor enumerates values and KindText
// otherwise.
func (d *Descriptor) Kind() string {
	if d.IsOption() {
		return KindOption
	}
	return KindText
}

// IsOption reports whether the descriptor is a closed enumeration.
func (d *Descriptor) IsOption() bool {
	return len(d.Values) > 0
}

// ValueAt resolves an option index to its display string.
// Returns ErrInvalidDescriptor for text descriptors and ErrOutOfRange when
// the index is not in [0, len(Values)).
func (d *Descriptor) ValueAt(option int) (string, error) {
	if !d.IsOption() {
		return "", fmt.Errorf("descriptor %d is a text descriptor: %w", d.ID, ErrInvalidDescriptor)
	}
	if option < 0 || option >= len(d.Values) {
		return "", fmt.Errorf("option %d for descriptor %d with %d values: %w", option, d.ID, len(d.Values), ErrOutOfRange)
	}
	return d.Values[option], nil
}

// CheckText returns ErrInvalidDescriptor unless the descriptor accepts text
// values.
func (d *Descriptor) CheckText() error {
	if d.IsOption() {
		return fmt.Errorf("descriptor %d is an option descriptor: %w", d.ID, ErrInvalidDescriptor)
	}
	return nil
}

// CheckOption validates an option index against the descriptor.
func (d *Descriptor) CheckOption(option int) error {
	_, err := d.ValueAt(option)
	return err
}
