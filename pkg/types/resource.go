package types

import (
	"fmt"
	"math"
)

// Resource is a catalog location. Only the fixed fields are guaranteed on
// every resource; everything else is carried by associations.
type Resource struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	// Populated by ResourceRepository.GetByID; nil on listings.
	TextAssociations   []*TextAssociation   `json:"-"`
	OptionAssociations []*OptionAssociation `json:"-"`
}

// ResourceFields holds the fixed fields accepted by ResourceRepository.Update.
type ResourceFields struct {
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Fields returns the resource's fixed fields.
func (r *Resource) Fields() ResourceFields {
	return ResourceFields{
		Name:      r.Name,
		Address:   r.Address,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
	}
}

// Apply copies the fixed fields onto the resource.
func (r *Resource) Apply(f ResourceFields) {
	r.Name = f.Name
	r.Address = f.Address
	r.Latitude = f.Latitude
	r.Longitude = f.Longitude
}

// Bindings returns every association of the resource, text associations
// first, in the order they were loaded.
func (r *Resource) Bindings() []DescriptorBinding {
	out := make([]DescriptorBinding, 0, len(r.TextAssociations)+len(r.OptionAssociations))
	for _, ta := range r.TextAssociations {
		out = append(out, ta)
	}
	for _, oa := range r.OptionAssociations {
		out = append(out, oa)
	}
	return out
}

// Validate checks the fixed fields. Returns ErrValidationFailure when the
// name is empty or a coordinate is not finite or outside its range.
func (f ResourceFields) Validate() error {
	if f.Name == "" {
		return fmt.Errorf("name must not be empty: %w", ErrValidationFailure)
	}
	if !finite(f.Latitude) || !finite(f.Longitude) {
		return fmt.Errorf("coordinates (%v, %v) must be finite: %w", f.Latitude, f.Longitude, ErrValidationFailure)
	}
	if f.Latitude < -90 || f.Latitude > 90 {
		return fmt.Errorf("latitude %v outside [-90, 90]: %w", f.Latitude, ErrValidationFailure)
	}
	if f.Longitude < -180 || f.Longitude > 180 {
		return fmt.Errorf("longitude %v outside [-180, 180]: %w", f.Longitude, ErrValidationFailure)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
