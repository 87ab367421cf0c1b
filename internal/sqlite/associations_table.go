package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/atlas/pkg/types"
)

var _ types.AssociationStore = (*associationsTable)(nil)

type associationsTable struct {
	s *session
}

// UpsertText sets the text value of descriptorID on resourceID. An existing
// association for the pair is updated in place; otherwise one is inserted.
// The lookup and the write share one transaction, and the composite primary
// key turns a lost race into ErrConstraintViolation.
func (at *associationsTable) UpsertText(ctx context.Context, resourceID, descriptorID int64, text string) (*types.TextAssociation, error) {
	var out *types.TextAssociation
	err := at.s.write(ctx, func(q querier) error {
		d, err := getDescriptor(ctx, q, descriptorID)
		if err != nil {
			return err
		}
		if err := d.CheckText(); err != nil {
			return err
		}
		if err := requireResource(ctx, q, resourceID); err != nil {
			return err
		}

		var existing string
		err = q.QueryRowContext(ctx,
			"SELECT text FROM text_associations WHERE resource_id = ? AND descriptor_id = ?",
			resourceID, descriptorID,
		).Scan(&existing)
		switch {
		case err == nil:
			_, err = q.ExecContext(ctx,
				"UPDATE text_associations SET text = ? WHERE resource_id = ? AND descriptor_id = ?",
				text, resourceID, descriptorID,
			)
			if err != nil {
				return classify("updating text association", err)
			}
		case errors.Is(err, sql.ErrNoRows):
			_, err = q.ExecContext(ctx,
				"INSERT INTO text_associations (resource_id, descriptor_id, text) VALUES (?, ?, ?)",
				resourceID, descriptorID, text,
			)
			if err != nil {
				return classify("inserting text association", err)
			}
		default:
			return classify("looking up text association", err)
		}

		out = &types.TextAssociation{
			ResourceID:   resourceID,
			DescriptorID: descriptorID,
			Text:         text,
			Descriptor:   d,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// UpsertOption sets the option index of descriptorID on resourceID with the
// same update-or-insert semantics as UpsertText. The index is checked before
// anything is written.
func (at *associationsTable) UpsertOption(ctx context.Context, resourceID, descriptorID int64, option int) (*types.OptionAssociation, error) {
	var out *types.OptionAssociation
	err := at.s.write(ctx, func(q querier) error {
		d, err := getDescriptor(ctx, q, descriptorID)
		if err != nil {
			return err
		}
		if err := d.CheckOption(option); err != nil {
			return err
		}
		if err := requireResource(ctx, q, resourceID); err != nil {
			return err
		}

		var existing int
		err = q.QueryRowContext(ctx,
			"SELECT option FROM option_associations WHERE resource_id = ? AND descriptor_id = ?",
			resourceID, descriptorID,
		).Scan(&existing)
		switch {
		case err == nil:
			_, err = q.ExecContext(ctx,
				"UPDATE option_associations SET option = ? WHERE resource_id = ? AND descriptor_id = ?",
				option, resourceID, descriptorID,
			)
			if err != nil {
				return classify("updating option association", err)
			}
		case errors.Is(err, sql.ErrNoRows):
			_, err = q.ExecContext(ctx,
				"INSERT INTO option_associations (resource_id, descriptor_id, option) VALUES (?, ?, ?)",
				resourceID, descriptorID, option,
			)
			if err != nil {
				return classify("inserting option association", err)
			}
		default:
			return classify("looking up option association", err)
		}

		out = &types.OptionAssociation{
			ResourceID:   resourceID,
			DescriptorID: descriptorID,
			Option:       option,
			Descriptor:   d,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListForResource returns the text and option associations of a resource,
// each ordered by descriptor id, with their descriptors loaded. An unknown
// resource yields two empty slices.
func (at *associationsTable) ListForResource(ctx context.Context, resourceID int64) ([]*types.TextAssociation, []*types.OptionAssociation, error) {
	q, err := at.s.reader()
	if err != nil {
		return nil, nil, err
	}
	return listAssociations(ctx, q, resourceID)
}

// DeleteForResource removes every association of a resource. Idempotent.
func (at *associationsTable) DeleteForResource(ctx context.Context, resourceID int64) error {
	return at.s.write(ctx, func(q querier) error {
		return deleteAssociations(ctx, q, "resource_id", resourceID)
	})
}

// DeleteForDescriptor removes every association of a descriptor. Idempotent.
func (at *associationsTable) DeleteForDescriptor(ctx context.Context, descriptorID int64) error {
	return at.s.write(ctx, func(q querier) error {
		return deleteAssociations(ctx, q, "descriptor_id", descriptorID)
	})
}

// deleteAssociations removes rows of both association tables where column
// equals id. column is always a constant from this package.
func deleteAssociations(ctx context.Context, q querier, column string, id int64) error {
	for _, table := range []string{"text_associations", "option_associations"} {
		if _, err := q.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE %s = ?", table, column), id); err != nil {
			return classify("deleting "+table, err)
		}
	}
	return nil
}

func listAssociations(ctx context.Context, q querier, resourceID int64) ([]*types.TextAssociation, []*types.OptionAssociation, error) {
	texts := []*types.TextAssociation{}
	rows, err := q.QueryContext(ctx, `SELECT ta.resource_id, ta.descriptor_id, ta.text,
    d.id, d.name, d."values", d.is_searchable
FROM text_associations ta JOIN descriptors d ON d.id = ta.descriptor_id
WHERE ta.resource_id = ? ORDER BY ta.descriptor_id`, resourceID)
	if err != nil {
		return nil, nil, classify("listing text associations", err)
	}
	defer rows.Close()
	for rows.Next() {
		ta := &types.TextAssociation{}
		d, err := hydrateJoined(rows, &ta.ResourceID, &ta.DescriptorID, &ta.Text)
		if err != nil {
			return nil, nil, err
		}
		ta.Descriptor = d
		texts = append(texts, ta)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, classify("listing text associations", err)
	}
	rows.Close()

	options := []*types.OptionAssociation{}
	rows, err = q.QueryContext(ctx, `SELECT oa.resource_id, oa.descriptor_id, oa.option,
    d.id, d.name, d."values", d.is_searchable
FROM option_associations oa JOIN descriptors d ON d.id = oa.descriptor_id
WHERE oa.resource_id = ? ORDER BY oa.descriptor_id`, resourceID)
	if err != nil {
		return nil, nil, classify("listing option associations", err)
	}
	defer rows.Close()
	for rows.Next() {
		oa := &types.OptionAssociation{}
		d, err := hydrateJoined(rows, &oa.ResourceID, &oa.DescriptorID, &oa.Option)
		if err != nil {
			return nil, nil, err
		}
		oa.Descriptor = d
		options = append(options, oa)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, classify("listing option associations", err)
	}
	return texts, options, nil
}

// hydrateJoined scans an association row joined with its descriptor. The
// three association columns go to head; the descriptor columns follow.
func hydrateJoined(rows *sql.Rows, head ...any) (*types.Descriptor, error) {
	var (
		d      types.Descriptor
		values string
	)
	dest := append(head, &d.ID, &d.Name, &values, &d.IsSearchable)
	if err := rows.Scan(dest...); err != nil {
		return nil, classify("scanning association", err)
	}
	vals, err := decodeValues(values)
	if err != nil {
		return nil, fmt.Errorf("descriptor %d: %w", d.ID, err)
	}
	d.Values = vals
	return &d, nil
}
