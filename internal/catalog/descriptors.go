package catalog

import (
	"context"

	"github.com/mesh-intelligence/atlas/pkg/types"
)

// CreateDescriptor registers d and sets its id.
func (s *Service) CreateDescriptor(ctx context.Context, d *types.Descriptor) error {
	err := s.executeWrite(ctx, "descriptor.create", func(tx types.Store) error {
		_, err := tx.Descriptors().Create(ctx, d)
		return err
	})
	if err != nil {
		return err
	}
	s.log.Info("descriptor created", "descriptor_id", d.ID, "kind", d.Kind())
	return nil
}

// UpdateDescriptor loads descriptor id, applies edit to it, and stores the
// result in one transaction. edit may run twice when the write is retried,
// each time on a freshly loaded descriptor.
func (s *Service) UpdateDescriptor(ctx context.Context, id int64, edit func(d *types.Descriptor)) (*types.Descriptor, error) {
	var updated *types.Descriptor
	err := s.executeWrite(ctx, "descriptor.update", func(tx types.Store) error {
		d, err := tx.Descriptors().GetByID(ctx, id)
		if err != nil {
			return err
		}
		edit(d)
		if err := tx.Descriptors().Update(ctx, d); err != nil {
			return err
		}
		updated = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("descriptor updated", "descriptor_id", id)
	return updated, nil
}

// DeleteDescriptor removes a descriptor and every association that uses it.
func (s *Service) DeleteDescriptor(ctx context.Context, id int64) error {
	err := s.executeWrite(ctx, "descriptor.delete", func(tx types.Store) error {
		return tx.Descriptors().Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.log.Info("descriptor deleted", "descriptor_id", id)
	return nil
}
