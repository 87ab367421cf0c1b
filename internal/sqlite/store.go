package sqlite

import (
	"context"
	"database/sql"

	"github.com/mesh-intelligence/atlas/pkg/types"
)

// querier is the subset of *sql.DB and *sql.Tx used by the tables.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// session scopes table accessors either to the backend connection pool or to
// one open transaction.
type session struct {
	backend *Backend
	tx      *sql.Tx
}

// reader returns the querier for read-only statements.
func (s *session) reader() (querier, error) {
	if s.tx != nil {
		return s.tx, nil
	}
	return s.backend.handle()
}

// write runs fn in the session transaction, or in a new one when the session
// is not transactional.
func (s *session) write(ctx context.Context, fn func(q querier) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}
	return s.backend.withTx(ctx, func(tx *sql.Tx) error {
		return fn(tx)
	})
}

// store implements types.Store on top of a session.
type store struct {
	s *session
}

var _ types.Store = (*store)(nil)

func (st *store) Descriptors() types.DescriptorRegistry {
	return &descriptorsTable{s: st.s}
}

func (st *store) Associations() types.AssociationStore {
	return &associationsTable{s: st.s}
}

func (st *store) Resources() types.ResourceRepository {
	return &resourcesTable{s: st.s}
}

func (st *store) Suggestions() types.SuggestionStore {
	return &suggestionsTable{s: st.s}
}

// InTx runs fn with a Store bound to one transaction. Nested calls reuse the
// outer transaction.
func (st *store) InTx(ctx context.Context, fn func(tx types.Store) error) error {
	if st.s.tx != nil {
		return fn(st)
	}
	return st.s.backend.withTx(ctx, func(tx *sql.Tx) error {
		return fn(&store{s: &session{backend: st.s.backend, tx: tx}})
	})
}
