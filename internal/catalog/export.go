package catalog

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/mesh-intelligence/atlas/internal/projection"
)

// exportWorkers bounds concurrent resource loads during export.
const exportWorkers = 4

// ExportProjections writes the full projection of every resource to w, one
// JSON object per line in id order, and returns the number written.
func (s *Service) ExportProjections(ctx context.Context, w io.Writer) (int, error) {
	resources, err := s.store.Resources().ListAll(ctx)
	if err != nil {
		return 0, err
	}

	records := make([]projection.Record, len(resources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(exportWorkers)
	for i, r := range resources {
		g.Go(func() error {
			full, err := s.store.Resources().GetByID(gctx, r.ID)
			if err != nil {
				return err
			}
			rec, err := projection.Full(full)
			if err != nil {
				return err
			}
			rec[projection.KeyID] = full.ID
			records[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, fmt.Errorf("loading projections: %w", err)
	}

	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return 0, fmt.Errorf("encoding projection: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return 0, fmt.Errorf("flushing projections: %w", err)
	}
	s.log.Info("projections exported", "count", len(records))
	return len(records), nil
}
