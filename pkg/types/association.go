package types

import "fmt"

// BindingKey identifies an association. A resource holds at most one
// association per descriptor, so the pair is unique across both kinds.
type BindingKey struct {
	ResourceID   int64
	DescriptorID int64
}

// DescriptorBinding is the behaviour shared by both association kinds.
type DescriptorBinding interface {
	// Key returns the (resource, descriptor) pair.
	Key() BindingKey

	// DescriptorName returns the bound descriptor's raw name, or "" when the
	// descriptor was not loaded.
	DescriptorName() string

	// DisplayValue resolves the stored value to the string shown to users.
	DisplayValue() (string, error)
}

// TextAssociation binds a resource to a text descriptor.
type TextAssociation struct {
	ResourceID   int64  `json:"resource_id"`
	DescriptorID int64  `json:"descriptor_id"`
	Text         string `json:"text"`

	Descriptor *Descriptor `json:"-"`
}

// OptionAssociation binds a resource to an option descriptor. Option is an
// index into Descriptor.Values.
type OptionAssociation struct {
	ResourceID   int64 `json:"resource_id"`
	DescriptorID int64 `json:"descriptor_id"`
	Option       int   `json:"option"`

	Descriptor *Descriptor `json:"-"`
}

var (
	_ DescriptorBinding = (*TextAssociation)(nil)
	_ DescriptorBinding = (*OptionAssociation)(nil)
)

func (a *TextAssociation) Key() BindingKey {
	return BindingKey{ResourceID: a.ResourceID, DescriptorID: a.DescriptorID}
}

func (a *TextAssociation) DescriptorName() string {
	if a.Descriptor == nil {
		return ""
	}
	return a.Descriptor.Name
}

// DisplayValue returns the stored text.
func (a *TextAssociation) DisplayValue() (string, error) {
	return a.Text, nil
}

func (a *OptionAssociation) Key() BindingKey {
	return BindingKey{ResourceID: a.ResourceID, DescriptorID: a.DescriptorID}
}

func (a *OptionAssociation) DescriptorName() string {
	if a.Descriptor == nil {
		return ""
	}
	return a.Descriptor.Name
}

// DisplayValue resolves the option index against the descriptor's values.
// The descriptor must be loaded.
func (a *OptionAssociation) DisplayValue() (string, error) {
	if a.Descriptor == nil {
		return "", fmt.Errorf("descriptor %d not loaded for resource %d: %w", a.DescriptorID, a.ResourceID, ErrNotFound)
	}
	return a.Descriptor.ValueAt(a.Option)
}
