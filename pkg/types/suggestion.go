package types

import (
	"errors"
	"time"
)

// Suggestion is a free-text edit proposed by a member of the public for an
// existing resource. Suggestions are deleted together with their resource.
type Suggestion struct {
	SuggestionID string    `json:"suggestion_id"` // UUID v7, generated on creation.
	ResourceID   int64     `json:"resource_id"`
	Text         string    `json:"text"`
	Submitter    string    `json:"submitter,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ErrInvalidContent is returned when a suggestion has no text.
var ErrInvalidContent = errors.New("content must not be empty")
