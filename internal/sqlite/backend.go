package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/atlas/pkg/types"
)

// dbFileName is the database file created inside Config.DataDir.
const dbFileName = "atlas.db"

// Backend implements the Catalog interface using SQLite.
type Backend struct {
	store

	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
}

var _ types.Catalog = (*Backend)(nil)

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend() *Backend {
	b := &Backend{}
	b.store = store{s: &session{backend: b}}
	return b
}

// Attach initializes the backend with the given configuration.
// Creates DataDir if it does not exist and creates the schema if the
// database is new. Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}

	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(filepath.Join(dataDir, dbFileName), config))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	if err := createSchema(context.Background(), db); err != nil {
		db.Close()
		return err
	}

	b.db = db
	b.config = config
	b.attached = true
	return nil
}

// Detach releases all resources held by the backend.
// After Detach, all operations return ErrCatalogDetached. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	b.attached = false
	db := b.db
	b.db = nil
	if db != nil {
		if err := db.Close(); err != nil {
			return fmt.Errorf("closing database: %w", err)
		}
	}
	return nil
}

// Recreate drops every table and creates the schema again. All data is lost.
func (b *Backend) Recreate(ctx context.Context) error {
	return b.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range dropOrder {
			if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
				return fmt.Errorf("dropping %s: %w", table, err)
			}
		}
		return execSchema(ctx, tx)
	})
}

// dsn builds the modernc connection string. Every connection enforces
// foreign keys, waits on locks for the configured busy timeout, and starts
// transactions with BEGIN IMMEDIATE so that concurrent writers serialize on
// the write lock instead of failing at commit.
func dsn(path string, config types.Config) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", config.GetBusyTimeout().Milliseconds()))
	q.Add("_pragma", "journal_mode(WAL)")
	q.Set("_txlock", "immediate")
	return "file:" + path + "?" + q.Encode()
}

func createSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning schema transaction: %w", err)
	}
	defer tx.Rollback()

	if err := execSchema(ctx, tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema: %w", err)
	}
	return nil
}

func execSchema(ctx context.Context, tx *sql.Tx) error {
	for _, ddl := range schemaDDL {
		if _, err := tx.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	for _, ddl := range indexDDL {
		if _, err := tx.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("creating index: %w", err)
		}
	}
	return nil
}

// handle returns the open database or ErrCatalogDetached.
func (b *Backend) handle() (*sql.DB, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrCatalogDetached
	}
	return b.db, nil
}

// withTx runs fn in a new transaction. The transaction commits when fn
// returns nil and rolls back otherwise.
func (b *Backend) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	db, err := b.handle()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return classify("beginning transaction", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return classify("committing transaction", err)
	}
	return nil
}
