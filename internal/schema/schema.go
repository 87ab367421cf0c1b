// Package schema validates resource edit submissions against the descriptor
// registry. Field specs are built per request from the current descriptors
// and passed to Validate explicitly; nothing is cached between requests.
package schema

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"go.uber.org/multierr"

	"github.com/mesh-intelligence/atlas/pkg/types"
)

// DefaultTextMaxLength is the longest text value accepted when Limits leaves
// TextMaxLength unset.
const DefaultTextMaxLength = 64

// Limits bounds submitted values.
type Limits struct {
	TextMaxLength int
}

func (l Limits) textMax() int {
	if l.TextMaxLength <= 0 {
		return DefaultTextMaxLength
	}
	return l.TextMaxLength
}

// FieldSpec describes one editable attribute: a free text field for text
// descriptors or a choice among Choices for option descriptors.
type FieldSpec struct {
	DescriptorID int64    `json:"descriptor_id"`
	Label        string   `json:"label"`
	Kind         string   `json:"kind"`
	Choices      []string `json:"choices,omitempty"`
	MaxLength    int      `json:"max_length,omitempty"`
}

// FieldSpecs builds one spec per descriptor, in the order given.
func FieldSpecs(descriptors []*types.Descriptor, limits Limits) []FieldSpec {
	specs := make([]FieldSpec, 0, len(descriptors))
	for _, d := range descriptors {
		spec := FieldSpec{DescriptorID: d.ID, Label: d.Name, Kind: d.Kind()}
		if d.IsOption() {
			spec.Choices = append([]string(nil), d.Values...)
		} else {
			spec.MaxLength = limits.textMax()
		}
		specs = append(specs, spec)
	}
	return specs
}

// Value is a validated submission for one descriptor. Option is meaningful
// only for option fields and Text only for text fields.
type Value struct {
	DescriptorID int64
	Kind         string
	Text         string
	Option       int
}

// FieldError reports why one submitted value was rejected.
type FieldError struct {
	DescriptorID int64
	Field        string
	Reason       string
	Err          error
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("descriptor %d: %s", e.DescriptorID, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Validate checks every submitted value against specs and returns the typed
// values ordered by descriptor id. Option values are submitted as the
// decimal index of the chosen value. All failures are collected; the
// returned error combines one *FieldError per rejected field and matches
// the sentinel of each with errors.Is.
func Validate(specs []FieldSpec, submission map[int64]string) ([]Value, error) {
	byID := make(map[int64]FieldSpec, len(specs))
	for _, s := range specs {
		byID[s.DescriptorID] = s
	}

	ids := make([]int64, 0, len(submission))
	for id := range submission {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var (
		values []Value
		errs   error
	)
	for _, id := range ids {
		raw := submission[id]
		spec, ok := byID[id]
		if !ok {
			errs = multierr.Append(errs, &FieldError{DescriptorID: id, Reason: "unknown descriptor", Err: types.ErrNotFound})
			continue
		}
		v, err := validateField(spec, raw)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		values = append(values, v)
	}
	if errs != nil {
		return nil, errs
	}
	return values, nil
}

func validateField(spec FieldSpec, raw string) (Value, error) {
	fail := func(reason string, sentinel error) (Value, error) {
		return Value{}, &FieldError{DescriptorID: spec.DescriptorID, Field: spec.Label, Reason: reason, Err: sentinel}
	}

	if spec.Kind == types.KindOption {
		option, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return fail(fmt.Sprintf("option %q is not an index", raw), types.ErrValidationFailure)
		}
		if option < 0 || option >= len(spec.Choices) {
			return fail(fmt.Sprintf("option %d not in [0, %d)", option, len(spec.Choices)), types.ErrOutOfRange)
		}
		return Value{DescriptorID: spec.DescriptorID, Kind: types.KindOption, Option: option}, nil
	}

	if n := utf8.RuneCountInString(raw); spec.MaxLength > 0 && n > spec.MaxLength {
		return fail(fmt.Sprintf("text has %d characters, limit %d", n, spec.MaxLength), types.ErrValidationFailure)
	}
	return Value{DescriptorID: spec.DescriptorID, Kind: types.KindText, Text: raw}, nil
}

// FieldErrors lists the field errors combined in err, in descriptor order.
func FieldErrors(err error) []*FieldError {
	var out []*FieldError
	for _, e := range multierr.Errors(err) {
		var fe *FieldError
		if errors.As(e, &fe) {
			out = append(out, fe)
		}
	}
	return out
}
