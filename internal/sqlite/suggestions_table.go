package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/atlas/pkg/types"
)

var _ types.SuggestionStore = (*suggestionsTable)(nil)

type suggestionsTable struct {
	s *session
}

// newUUID generates a UUID v7 string.
func newUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		return uuid.New().String()
	}
	return id.String()
}

// Add stores a suggestion for an existing resource, filling SuggestionID and
// CreatedAt. Returns ErrNotFound if the resource does not exist.
func (st *suggestionsTable) Add(ctx context.Context, s *types.Suggestion) (string, error) {
	if s == nil || s.Text == "" {
		return "", fmt.Errorf("suggestion: %w: %w", types.ErrInvalidContent, types.ErrValidationFailure)
	}

	err := st.s.write(ctx, func(q querier) error {
		if err := requireResource(ctx, q, s.ResourceID); err != nil {
			return err
		}
		s.SuggestionID = newUUID()
		s.CreatedAt = time.Now().UTC().Truncate(time.Second)
		_, err := q.ExecContext(ctx,
			"INSERT INTO suggestions (suggestion_id, resource_id, text, submitter, created_at) VALUES (?, ?, ?, ?, ?)",
			s.SuggestionID, s.ResourceID, s.Text, s.Submitter, s.CreatedAt.Format(time.RFC3339),
		)
		if err != nil {
			return classify("inserting suggestion", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return s.SuggestionID, nil
}

// ListForResource returns a resource's suggestions, oldest first.
func (st *suggestionsTable) ListForResource(ctx context.Context, resourceID int64) ([]*types.Suggestion, error) {
	q, err := st.s.reader()
	if err != nil {
		return nil, err
	}
	rows, err := q.QueryContext(ctx,
		"SELECT suggestion_id, resource_id, text, submitter, created_at FROM suggestions WHERE resource_id = ? ORDER BY created_at, suggestion_id",
		resourceID,
	)
	if err != nil {
		return nil, classify("listing suggestions", err)
	}
	defer rows.Close()

	suggestions := []*types.Suggestion{}
	for rows.Next() {
		var (
			s         types.Suggestion
			createdAt string
		)
		if err := rows.Scan(&s.SuggestionID, &s.ResourceID, &s.Text, &s.Submitter, &createdAt); err != nil {
			return nil, classify("scanning suggestion", err)
		}
		if s.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("suggestion %s created_at: %w", s.SuggestionID, err)
		}
		suggestions = append(suggestions, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("listing suggestions", err)
	}
	return suggestions, nil
}

// Delete removes a suggestion. Returns ErrNotFound if it does not exist.
func (st *suggestionsTable) Delete(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	return st.s.write(ctx, func(q querier) error {
		var one int
		err := q.QueryRowContext(ctx, "SELECT 1 FROM suggestions WHERE suggestion_id = ?", id).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("suggestion %s: %w", id, types.ErrNotFound)
		}
		if err != nil {
			return classify("checking suggestion existence", err)
		}
		if _, err := q.ExecContext(ctx, "DELETE FROM suggestions WHERE suggestion_id = ?", id); err != nil {
			return classify("deleting suggestion", err)
		}
		return nil
	})
}
