// Package projection flattens resources and their associations into plain
// records for presentation layers.
//
// A shallow projection carries the fixed fields only and is used for
// listings. A full projection adds one key per association, named after the
// descriptor, and is used for detail views and exports.
package projection

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mesh-intelligence/atlas/pkg/types"
)

// Record is a projected resource. Values are strings, float64 coordinates,
// an int64 id (shallow only), or []string for the legacy list keys.
type Record map[string]any

// Fixed-field keys.
const (
	KeyID        = "id"
	KeyName      = "name"
	KeyAddress   = "address"
	KeyLatitude  = "latitude"
	KeyLongitude = "longitude"
	KeyLat       = "lat"
	KeyLong      = "long"
)

// legacyListKeys are wrapped in single-element lists in full projections.
// Consumers already read them as lists, ahead of these descriptors becoming
// multi-valued.
var legacyListKeys = []string{"categories", "supercategories", "features"}

var lower = cases.Lower(language.Und)

// NormalizeName turns a descriptor name into a record key: lower-cased, with
// every space replaced by an underscore. "Has Showers" becomes "has_showers".
func NormalizeName(name string) string {
	return strings.ReplaceAll(lower.String(name), " ", "_")
}

// Shallow returns the fixed fields of r. Associations are never included.
func Shallow(r *types.Resource) Record {
	return Record{
		KeyID:        r.ID,
		KeyName:      r.Name,
		KeyAddress:   r.Address,
		KeyLatitude:  r.Latitude,
		KeyLongitude: r.Longitude,
	}
}

// Full returns the fixed fields of r with the coordinates renamed to lat and
// long, plus one normalized key per association holding its display value.
// Text associations are applied before option associations, each in the
// order loaded; when two descriptors normalize to the same key the later one
// wins. r must have been loaded with its associations.
func Full(r *types.Resource) (Record, error) {
	rec := Record{
		KeyName:    r.Name,
		KeyAddress: r.Address,
		KeyLat:     r.Latitude,
		KeyLong:    r.Longitude,
	}
	for _, b := range r.Bindings() {
		name := b.DescriptorName()
		if name == "" {
			return nil, fmt.Errorf("descriptor %d not loaded: %w", b.Key().DescriptorID, types.ErrNotFound)
		}
		v, err := b.DisplayValue()
		if err != nil {
			return nil, fmt.Errorf("projecting %q on resource %d: %w", name, r.ID, err)
		}
		rec[NormalizeName(name)] = v
	}
	for _, key := range legacyListKeys {
		if v, ok := rec[key].(string); ok {
			rec[key] = []string{v}
		}
	}
	return rec, nil
}

// Attributes returns the display value of every association of r keyed by
// the raw descriptor name.
func Attributes(r *types.Resource) (map[string]string, error) {
	out := make(map[string]string, len(r.TextAssociations)+len(r.OptionAssociations))
	for _, b := range r.Bindings() {
		v, err := b.DisplayValue()
		if err != nil {
			return nil, fmt.Errorf("resolving descriptor %d on resource %d: %w", b.Key().DescriptorID, r.ID, err)
		}
		out[b.DescriptorName()] = v
	}
	return out, nil
}
