package sqlite

import (
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mesh-intelligence/atlas/pkg/types"
)

// classify wraps a driver error with the matching store sentinel. Key
// conflicts and lock contention from a concurrent writer become
// ErrConstraintViolation. A foreign key failure means a referenced row does
// not exist and becomes ErrNotFound. Any other constraint failure (NOT NULL,
// CHECK) is a malformed value and becomes ErrValidationFailure.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return fmt.Errorf("%s: %w", op, err)
	}

	code := serr.Code()
	switch {
	case code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return fmt.Errorf("%s: %w: %v", op, types.ErrNotFound, err)
	case code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, code == sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return fmt.Errorf("%s: %w: %v", op, types.ErrConstraintViolation, err)
	case code&0xff == sqlite3.SQLITE_CONSTRAINT:
		return fmt.Errorf("%s: %w: %v", op, types.ErrValidationFailure, err)
	case code&0xff == sqlite3.SQLITE_BUSY, code&0xff == sqlite3.SQLITE_LOCKED:
		return fmt.Errorf("%s: database busy: %w: %v", op, types.ErrConstraintViolation, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
