package catalog

import (
	"context"
	"strconv"

	"github.com/mesh-intelligence/atlas/internal/schema"
	"github.com/mesh-intelligence/atlas/pkg/types"
)

// EditForm is what an editor needs to render the edit view of one resource:
// the fixed fields and one field per descriptor with its current value.
type EditForm struct {
	ResourceID int64                `json:"resource_id"`
	Resource   types.ResourceFields `json:"resource"`
	Fields     []FormField          `json:"fields"`
}

// FormField is a field spec with the value currently stored on the
// resource. Value uses the same encoding SaveRequest.Values accepts and is
// empty when the resource has no association for the descriptor.
type FormField struct {
	schema.FieldSpec
	Value string `json:"value"`
	Set   bool   `json:"set"`
}

// EditForm builds the form for resourceID, or a blank form for a new
// resource when resourceID is 0. Field specs are built from the registry on
// every call.
func (s *Service) EditForm(ctx context.Context, resourceID int64) (*EditForm, error) {
	descriptors, err := s.store.Descriptors().ListAll(ctx)
	if err != nil {
		return nil, err
	}
	form := &EditForm{ResourceID: resourceID}
	current := map[int64]string{}

	if resourceID != 0 {
		r, err := s.store.Resources().GetByID(ctx, resourceID)
		if err != nil {
			return nil, err
		}
		form.Resource = r.Fields()
		for _, ta := range r.TextAssociations {
			current[ta.DescriptorID] = ta.Text
		}
		for _, oa := range r.OptionAssociations {
			current[oa.DescriptorID] = strconv.Itoa(oa.Option)
		}
	}

	for _, spec := range schema.FieldSpecs(descriptors, s.limits) {
		v, ok := current[spec.DescriptorID]
		form.Fields = append(form.Fields, FormField{FieldSpec: spec, Value: v, Set: ok})
	}
	return form, nil
}
