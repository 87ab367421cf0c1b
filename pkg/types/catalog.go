package types

import (
	"context"
	"errors"
)

// DescriptorRegistry defines attribute types.
type DescriptorRegistry interface {
	// ListAll returns every descriptor ordered by id.
	ListAll(ctx context.Context) ([]*Descriptor, error)

	// GetByID returns ErrNotFound if no descriptor has the id.
	GetByID(ctx context.Context, id int64) (*Descriptor, error)

	// FindByName returns the descriptor with the lowest id among those named
	// name. Names are unique by convention only.
	FindByName(ctx context.Context, name string) (*Descriptor, error)

	// Create stores a new descriptor and returns its id.
	Create(ctx context.Context, d *Descriptor) (int64, error)

	// Update replaces name, values and searchability. It refuses changes
	// that would invalidate stored associations.
	Update(ctx context.Context, d *Descriptor) error

	// Delete removes the descriptor and every association referencing it
	// in one transaction.
	Delete(ctx context.Context, id int64) error
}

// AssociationStore binds resources to descriptors with concrete values.
type AssociationStore interface {
	// UpsertText overwrites the text of an existing association for the
	// pair or creates one. Fails with ErrInvalidDescriptor for option
	// descriptors.
	UpsertText(ctx context.Context, resourceID, descriptorID int64, text string) (*TextAssociation, error)

	// UpsertOption has the same upsert semantics. Fails with ErrOutOfRange
	// for an invalid index and ErrInvalidDescriptor for text descriptors.
	UpsertOption(ctx context.Context, resourceID, descriptorID int64, option int) (*OptionAssociation, error)

	// ListForResource returns both association kinds, each ordered by
	// descriptor id, with Descriptor populated.
	ListForResource(ctx context.Context, resourceID int64) ([]*TextAssociation, []*OptionAssociation, error)

	// DeleteForResource and DeleteForDescriptor are idempotent.
	DeleteForResource(ctx context.Context, resourceID int64) error
	DeleteForDescriptor(ctx context.Context, descriptorID int64) error
}

// ResourceRepository owns resource identity and the fixed fields.
type ResourceRepository interface {
	Create(ctx context.Context, r *Resource) (int64, error)

	// GetByID returns the resource with both association collections
	// populated. Returns ErrNotFound if no resource has the id.
	GetByID(ctx context.Context, id int64) (*Resource, error)

	// ListAll returns every resource ordered by id without associations.
	ListAll(ctx context.Context) ([]*Resource, error)

	// Search returns resources whose name contains query, ignoring case.
	Search(ctx context.Context, query string) ([]*Resource, error)

	// Update replaces the fixed fields only.
	Update(ctx context.Context, id int64, fields ResourceFields) error

	// Delete removes the resource, its associations and its suggestions in
	// one transaction.
	Delete(ctx context.Context, id int64) error
}

// SuggestionStore holds public edit proposals for resources.
type SuggestionStore interface {
	Add(ctx context.Context, s *Suggestion) (string, error)
	ListForResource(ctx context.Context, resourceID int64) ([]*Suggestion, error)
	Delete(ctx context.Context, id string) error
}

// Store groups the stores of one catalog.
type Store interface {
	Descriptors() DescriptorRegistry
	Associations() AssociationStore
	Resources() ResourceRepository
	Suggestions() SuggestionStore

	// InTx runs fn against a Store whose operations share one transaction.
	// The transaction commits when fn returns nil and rolls back otherwise.
	// Calling InTx on a transactional Store runs fn in the same transaction.
	InTx(ctx context.Context, fn func(tx Store) error) error
}

// Catalog is a Store bound to a backend lifecycle.
type Catalog interface {
	Store

	// Attach connects the Catalog to the backend described by config.
	// Creates the DataDir if it does not exist; returns ErrAlreadyAttached
	// if called while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent.
	Detach() error
}

// Catalog lifecycle errors.
var (
	ErrCatalogDetached = errors.New("catalog is detached")
	ErrAlreadyAttached = errors.New("catalog is already attached")
)
