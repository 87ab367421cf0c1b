// Package catalog exposes the resource directory to presentation layers:
// listings, detail projections, attribute maps, transactional saves, and
// cascaded deletes.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mesh-intelligence/atlas/internal/logger"
	"github.com/mesh-intelligence/atlas/internal/projection"
	"github.com/mesh-intelligence/atlas/internal/schema"
	"github.com/mesh-intelligence/atlas/pkg/types"
)

// Options configures a Service. Zero values select defaults.
type Options struct {
	Limits schema.Limits
	Logger *logger.Logger
}

// Service runs catalog operations against a Store. It holds no per-request
// state and is safe for concurrent use.
type Service struct {
	store  types.Store
	limits schema.Limits
	log    *logger.Logger
}

// New returns a Service backed by store.
func New(store types.Store, opts Options) *Service {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Service{store: store, limits: opts.Limits, log: log}
}

// List returns the shallow projection of every resource, ordered by id.
func (s *Service) List(ctx context.Context) ([]projection.Record, error) {
	resources, err := s.store.Resources().ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return shallowAll(resources), nil
}

// Search returns shallow projections of resources whose name contains
// query, ignoring case.
func (s *Service) Search(ctx context.Context, query string) ([]projection.Record, error) {
	resources, err := s.store.Resources().Search(ctx, strings.TrimSpace(query))
	if err != nil {
		return nil, err
	}
	return shallowAll(resources), nil
}

func shallowAll(resources []*types.Resource) []projection.Record {
	out := make([]projection.Record, 0, len(resources))
	for _, r := range resources {
		out = append(out, projection.Shallow(r))
	}
	return out
}

// Detail returns the full projection of a resource, or an empty record when
// the id does not resolve.
func (s *Service) Detail(ctx context.Context, id int64) (projection.Record, error) {
	r, err := s.store.Resources().GetByID(ctx, id)
	if errors.Is(err, types.ErrNotFound) {
		return projection.Record{}, nil
	}
	if err != nil {
		return nil, err
	}
	return projection.Full(r)
}

// Associations returns the display value of every attribute of a resource
// keyed by raw descriptor name, or an empty map when the id does not
// resolve.
func (s *Service) Associations(ctx context.Context, id int64) (map[string]string, error) {
	r, err := s.store.Resources().GetByID(ctx, id)
	if errors.Is(err, types.ErrNotFound) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	return projection.Attributes(r)
}

// SaveRequest is one edit submission. ResourceID 0 creates a new resource.
// Values maps descriptor ids to raw submitted values: free text for text
// descriptors and the decimal option index for option descriptors.
// Descriptors missing from Values keep their stored associations.
type SaveRequest struct {
	ResourceID int64            `json:"resource_id"`
	Name       string           `json:"name"`
	Address    string           `json:"address"`
	Latitude   float64          `json:"latitude"`
	Longitude  float64          `json:"longitude"`
	Values     map[int64]string `json:"values"`
}

// Fields returns the fixed fields of the request.
func (r SaveRequest) Fields() types.ResourceFields {
	return types.ResourceFields{
		Name:      strings.TrimSpace(r.Name),
		Address:   strings.TrimSpace(r.Address),
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
	}
}

// Save validates req against the current descriptors, then creates or
// updates the resource and upserts every submitted value in one
// transaction. It returns the resource id. Nothing is written when any
// value is rejected.
func (s *Service) Save(ctx context.Context, req SaveRequest) (int64, error) {
	if req.ResourceID < 0 {
		return 0, fmt.Errorf("resource id %d: %w", req.ResourceID, types.ErrInvalidID)
	}
	fields := req.Fields()
	if err := fields.Validate(); err != nil {
		return 0, err
	}

	var id int64
	err := s.executeWrite(ctx, "resource.save", func(tx types.Store) error {
		descriptors, err := tx.Descriptors().ListAll(ctx)
		if err != nil {
			return err
		}
		values, err := schema.Validate(schema.FieldSpecs(descriptors, s.limits), req.Values)
		if err != nil {
			return err
		}

		id = req.ResourceID
		if id == 0 {
			r := &types.Resource{}
			r.Apply(fields)
			if id, err = tx.Resources().Create(ctx, r); err != nil {
				return err
			}
		} else if err := tx.Resources().Update(ctx, id, fields); err != nil {
			return err
		}

		return upsertValues(ctx, tx.Associations(), id, values)
	})
	if err != nil {
		return 0, err
	}
	s.log.Info("resource saved", "resource_id", id, "created", req.ResourceID == 0, "descriptors", len(req.Values))
	return id, nil
}

func upsertValues(ctx context.Context, assoc types.AssociationStore, resourceID int64, values []schema.Value) error {
	for _, v := range values {
		var err error
		if v.Kind == types.KindOption {
			_, err = assoc.UpsertOption(ctx, resourceID, v.DescriptorID, v.Option)
		} else {
			_, err = assoc.UpsertText(ctx, resourceID, v.DescriptorID, v.Text)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a resource with its associations and suggestions.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.executeWrite(ctx, "resource.delete", func(tx types.Store) error {
		return tx.Resources().Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.log.Info("resource deleted", "resource_id", id)
	return nil
}

// executeWrite runs fn in one transaction. A transaction that fails with a
// retryable error runs once more from the start.
func (s *Service) executeWrite(ctx context.Context, op string, fn func(tx types.Store) error) error {
	start := time.Now()
	err := s.store.InTx(ctx, fn)
	if types.IsRetryable(err) {
		s.log.Warn("retrying after conflict", "op", op, "err", err)
		err = s.store.InTx(ctx, fn)
	}
	if err != nil {
		s.log.Debug("write failed", "op", op, "err", err, "elapsed", time.Since(start))
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
