package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/atlas/pkg/types"
)

var _ types.DescriptorRegistry = (*descriptorsTable)(nil)

type descriptorsTable struct {
	s *session
}

const selectDescriptor = `SELECT id, name, "values", is_searchable FROM descriptors`

// ListAll returns every descriptor ordered by id.
func (dt *descriptorsTable) ListAll(ctx context.Context) ([]*types.Descriptor, error) {
	q, err := dt.s.reader()
	if err != nil {
		return nil, err
	}
	rows, err := q.QueryContext(ctx, selectDescriptor+" ORDER BY id")
	if err != nil {
		return nil, classify("listing descriptors", err)
	}
	defer rows.Close()

	descriptors := []*types.Descriptor{}
	for rows.Next() {
		d, err := hydrateDescriptor(rows)
		if err != nil {
			return nil, err
		}
		descriptors = append(descriptors, d)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("listing descriptors", err)
	}
	return descriptors, nil
}

// GetByID retrieves a descriptor. Returns ErrNotFound if it does not exist.
func (dt *descriptorsTable) GetByID(ctx context.Context, id int64) (*types.Descriptor, error) {
	q, err := dt.s.reader()
	if err != nil {
		return nil, err
	}
	return getDescriptor(ctx, q, id)
}

// FindByName returns the first descriptor, by id, with the given name.
func (dt *descriptorsTable) FindByName(ctx context.Context, name string) (*types.Descriptor, error) {
	q, err := dt.s.reader()
	if err != nil {
		return nil, err
	}
	row := q.QueryRowContext(ctx, selectDescriptor+" WHERE name = ? ORDER BY id LIMIT 1", name)
	d, err := hydrateDescriptor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("descriptor %q: %w", name, types.ErrNotFound)
	}
	return d, err
}

// Create stores a new descriptor, sets its ID, and returns it.
// Duplicate names are allowed.
func (dt *descriptorsTable) Create(ctx context.Context, d *types.Descriptor) (int64, error) {
	if d == nil || d.Name == "" {
		return 0, fmt.Errorf("descriptor name must not be empty: %w: %w", types.ErrInvalidName, types.ErrValidationFailure)
	}
	values, err := encodeValues(d.Values)
	if err != nil {
		return 0, err
	}

	err = dt.s.write(ctx, func(q querier) error {
		res, err := q.ExecContext(ctx,
			`INSERT INTO descriptors (name, "values", is_searchable) VALUES (?, ?, ?)`,
			d.Name, values, d.IsSearchable,
		)
		if err != nil {
			return classify("inserting descriptor", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading descriptor id: %w", err)
		}
		d.ID = id
		return nil
	})
	if err != nil {
		return 0, err
	}
	return d.ID, nil
}

// Update replaces a descriptor's name, values and searchability. The kind may
// only change while no association references the descriptor, and an option
// descriptor may not lose a value that a stored association points at.
func (dt *descriptorsTable) Update(ctx context.Context, d *types.Descriptor) error {
	if d == nil || d.Name == "" {
		return fmt.Errorf("descriptor name must not be empty: %w: %w", types.ErrInvalidName, types.ErrValidationFailure)
	}
	values, err := encodeValues(d.Values)
	if err != nil {
		return err
	}

	return dt.s.write(ctx, func(q querier) error {
		current, err := getDescriptor(ctx, q, d.ID)
		if err != nil {
			return err
		}

		var texts, options int
		var maxOption sql.NullInt64
		if err := q.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM text_associations WHERE descriptor_id = ?", d.ID,
		).Scan(&texts); err != nil {
			return classify("counting text associations", err)
		}
		if err := q.QueryRowContext(ctx,
			"SELECT COUNT(*), MAX(option) FROM option_associations WHERE descriptor_id = ?", d.ID,
		).Scan(&options, &maxOption); err != nil {
			return classify("counting option associations", err)
		}

		if current.Kind() != d.Kind() && texts+options > 0 {
			return fmt.Errorf("descriptor %d has %d associations, cannot change kind to %s: %w",
				d.ID, texts+options, d.Kind(), types.ErrInvalidDescriptor)
		}
		if maxOption.Valid && int(maxOption.Int64) >= len(d.Values) {
			return fmt.Errorf("descriptor %d: stored option %d needs at least %d values: %w",
				d.ID, maxOption.Int64, maxOption.Int64+1, types.ErrOutOfRange)
		}

		if _, err := q.ExecContext(ctx,
			`UPDATE descriptors SET name = ?, "values" = ?, is_searchable = ? WHERE id = ?`,
			d.Name, values, d.IsSearchable, d.ID,
		); err != nil {
			return classify("updating descriptor", err)
		}
		return nil
	})
}

// Delete removes a descriptor and every association that references it in
// one transaction. Returns ErrNotFound if the descriptor does not exist.
func (dt *descriptorsTable) Delete(ctx context.Context, id int64) error {
	return dt.s.write(ctx, func(q querier) error {
		if _, err := getDescriptor(ctx, q, id); err != nil {
			return err
		}
		if err := deleteAssociations(ctx, q, "descriptor_id", id); err != nil {
			return err
		}
		if _, err := q.ExecContext(ctx, "DELETE FROM descriptors WHERE id = ?", id); err != nil {
			return classify("deleting descriptor", err)
		}
		return nil
	})
}

// getDescriptor loads one descriptor through q.
func getDescriptor(ctx context.Context, q querier, id int64) (*types.Descriptor, error) {
	row := q.QueryRowContext(ctx, selectDescriptor+" WHERE id = ?", id)
	d, err := hydrateDescriptor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("descriptor %d: %w", id, types.ErrNotFound)
	}
	return d, err
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func hydrateDescriptor(row scanner) (*types.Descriptor, error) {
	var (
		d      types.Descriptor
		values string
	)
	if err := row.Scan(&d.ID, &d.Name, &values, &d.IsSearchable); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, classify("scanning descriptor", err)
	}
	vals, err := decodeValues(values)
	if err != nil {
		return nil, fmt.Errorf("descriptor %d: %w", d.ID, err)
	}
	d.Values = vals
	return &d, nil
}

// encodeValues stores descriptor values as a JSON array. Nil and empty
// slices both encode as "[]".
func encodeValues(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("encoding descriptor values: %w", err)
	}
	return string(data), nil
}

func decodeValues(s string) ([]string, error) {
	if s == "" {
		return []string{}, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(s), &values); err != nil {
		return nil, fmt.Errorf("decoding descriptor values: %w", err)
	}
	if values == nil {
		values = []string{}
	}
	return values, nil
}
