package catalog

import (
	"context"
	"strings"

	"github.com/mesh-intelligence/atlas/pkg/types"
)

// Suggest records a public edit proposal for a resource.
func (s *Service) Suggest(ctx context.Context, resourceID int64, text, submitter string) (*types.Suggestion, error) {
	sg := &types.Suggestion{
		ResourceID: resourceID,
		Text:       strings.TrimSpace(text),
		Submitter:  strings.TrimSpace(submitter),
	}
	if _, err := s.store.Suggestions().Add(ctx, sg); err != nil {
		return nil, err
	}
	s.log.Info("suggestion added", "resource_id", resourceID, "suggestion_id", sg.SuggestionID, "submitter", sg.Submitter)
	return sg, nil
}

// Suggestions lists the proposals for a resource, oldest first.
func (s *Service) Suggestions(ctx context.Context, resourceID int64) ([]*types.Suggestion, error) {
	return s.store.Suggestions().ListForResource(ctx, resourceID)
}

// DismissSuggestion deletes a proposal.
func (s *Service) DismissSuggestion(ctx context.Context, id string) error {
	return s.store.Suggestions().Delete(ctx, id)
}
