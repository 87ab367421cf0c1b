package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/atlas/pkg/types"
)

var _ types.ResourceRepository = (*resourcesTable)(nil)

type resourcesTable struct {
	s *session
}

const selectResource = "SELECT id, name, address, latitude, longitude FROM resources"

// Create inserts a resource with its fixed fields, sets its ID, and returns
// it. Associations on r are ignored; they are written through the
// AssociationStore.
func (rt *resourcesTable) Create(ctx context.Context, r *types.Resource) (int64, error) {
	if r == nil {
		return 0, fmt.Errorf("nil resource: %w", types.ErrValidationFailure)
	}
	if err := r.Fields().Validate(); err != nil {
		return 0, err
	}

	err := rt.s.write(ctx, func(q querier) error {
		res, err := q.ExecContext(ctx,
			"INSERT INTO resources (name, address, latitude, longitude) VALUES (?, ?, ?, ?)",
			r.Name, r.Address, r.Latitude, r.Longitude,
		)
		if err != nil {
			return classify("inserting resource", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading resource id: %w", err)
		}
		r.ID = id
		return nil
	})
	if err != nil {
		return 0, err
	}
	return r.ID, nil
}

// GetByID retrieves a resource with both association collections loaded.
// Returns ErrNotFound if no resource has the id.
func (rt *resourcesTable) GetByID(ctx context.Context, id int64) (*types.Resource, error) {
	q, err := rt.s.reader()
	if err != nil {
		return nil, err
	}

	r, err := hydrateResource(q.QueryRowContext(ctx, selectResource+" WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("resource %d: %w", id, types.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	texts, options, err := listAssociations(ctx, q, id)
	if err != nil {
		return nil, err
	}
	r.TextAssociations = texts
	r.OptionAssociations = options
	return r, nil
}

// ListAll returns every resource ordered by id, without associations.
func (rt *resourcesTable) ListAll(ctx context.Context) ([]*types.Resource, error) {
	return rt.query(ctx, selectResource+" ORDER BY id")
}

// Search returns resources whose name contains query. Matching ignores ASCII
// case. An empty query matches every resource.
func (rt *resourcesTable) Search(ctx context.Context, query string) ([]*types.Resource, error) {
	return rt.query(ctx, selectResource+` WHERE name LIKE ? ESCAPE '\' ORDER BY id`, "%"+escapeLike(query)+"%")
}

// Update replaces the fixed fields of a resource. Returns ErrNotFound if no
// resource has the id.
func (rt *resourcesTable) Update(ctx context.Context, id int64, fields types.ResourceFields) error {
	if err := fields.Validate(); err != nil {
		return err
	}
	return rt.s.write(ctx, func(q querier) error {
		res, err := q.ExecContext(ctx,
			"UPDATE resources SET name = ?, address = ?, latitude = ?, longitude = ? WHERE id = ?",
			fields.Name, fields.Address, fields.Latitude, fields.Longitude, id,
		)
		if err != nil {
			return classify("updating resource", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("reading rows affected: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("resource %d: %w", id, types.ErrNotFound)
		}
		return nil
	})
}

// Delete removes a resource, its associations of both kinds and its
// suggestions in one transaction. Returns ErrNotFound if no resource has the
// id.
func (rt *resourcesTable) Delete(ctx context.Context, id int64) error {
	return rt.s.write(ctx, func(q querier) error {
		if err := requireResource(ctx, q, id); err != nil {
			return err
		}
		if err := deleteAssociations(ctx, q, "resource_id", id); err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, "DELETE FROM suggestions WHERE resource_id = ?", id); err != nil {
			return classify("deleting suggestions", err)
		}
		if _, err := q.ExecContext(ctx, "DELETE FROM resources WHERE id = ?", id); err != nil {
			return classify("deleting resource", err)
		}
		return nil
	})
}

func (rt *resourcesTable) query(ctx context.Context, query string, args ...any) ([]*types.Resource, error) {
	q, err := rt.s.reader()
	if err != nil {
		return nil, err
	}
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("querying resources", err)
	}
	defer rows.Close()

	resources := []*types.Resource{}
	for rows.Next() {
		r, err := hydrateResource(rows)
		if err != nil {
			return nil, err
		}
		resources = append(resources, r)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("querying resources", err)
	}
	return resources, nil
}

// requireResource returns ErrNotFound unless the resource exists.
func requireResource(ctx context.Context, q querier, id int64) error {
	var one int
	err := q.QueryRowContext(ctx, "SELECT 1 FROM resources WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("resource %d: %w", id, types.ErrNotFound)
	}
	if err != nil {
		return classify("checking resource existence", err)
	}
	return nil
}

func hydrateResource(row scanner) (*types.Resource, error) {
	var r types.Resource
	if err := row.Scan(&r.ID, &r.Name, &r.Address, &r.Latitude, &r.Longitude); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, classify("scanning resource", err)
	}
	return &r, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike escapes LIKE wildcards so query matches literally.
func escapeLike(query string) string {
	return likeEscaper.Replace(query)
}
