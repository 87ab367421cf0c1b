package types

import "errors"

// Store operation errors. Every error returned by a store wraps one of these,
// so callers can tell the kinds apart with errors.Is.
var (
	// ErrNotFound reports that a resource, descriptor, or suggestion id does
	// not resolve.
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidDescriptor reports an association write against a descriptor
	// of the wrong kind.
	ErrInvalidDescriptor = errors.New("invalid descriptor kind")

	// ErrOutOfRange reports an option index outside the descriptor's values.
	ErrOutOfRange = errors.New("option index out of range")

	// ErrConstraintViolation reports a uniqueness or ordering conflict in the
	// store. It is the only kind that is safe to retry.
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrValidationFailure reports malformed input rejected before any write.
	ErrValidationFailure = errors.New("validation failure")
)

var (
	ErrInvalidID   = errors.New("invalid entity ID")
	ErrInvalidName = errors.New("invalid name")
)

// IsRetryable reports whether err may be resolved by running the whole
// transaction again.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConstraintViolation)
}
