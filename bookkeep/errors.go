/*
errors.go - Centralized error taxonomy for the bookkeeping core

PURPOSE:
  All error types in one place so callers can branch on outcome kind
  with errors.Is/errors.As instead of string matching.

ERROR CATEGORIES:
  1. Validation errors - rejected at construction/call time, never persisted
  2. Conflict errors   - unique-name violations on create/rename
  3. Not-found         - a typed outcome for reads/deletes on missing rows
  4. Backup failures   - the recovery subsystem could not snapshot; the
                         guarded delete must not proceed
  5. Store errors      - anything else from the storage layer

USAGE:
  Route handlers translate these into HTTP statuses:

    if bookkeep.IsConflict(err) {
        // 409 with the colliding value
    }
*/
package bookkeep

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned by Read/Delete when no row matches.
	// It is an expected outcome, not a storage failure.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is the root of all uniqueness violations.
	ErrConflict = errors.New("uniqueness conflict")

	// ErrValidation is the root of all construction/argument failures.
	ErrValidation = errors.New("validation failed")

	// ErrBackupFailed is returned when a recovery snapshot could not be
	// created or replayed. A delete guarded by a backup must not proceed
	// once this is seen.
	ErrBackupFailed = errors.New("recovery backup failed")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ConflictError reports a unique-name collision with enough detail to
// identify the colliding value.
type ConflictError struct {
	Table string
	Value string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %q already exists", e.Table, e.Value)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// ValidationError reports an invalid argument or an invariant violation
// detected before anything touches the store.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func (e *ValidationError) Unwrap() error { return ErrValidation }

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound reports whether err is the missing-record outcome.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsConflict reports whether err is a unique-name collision.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsValidation reports whether err is a validation failure.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsBackupFailure reports whether err came from the recovery subsystem.
// Callers must treat this as blocking: the guarded delete did not run.
func IsBackupFailure(err error) bool { return errors.Is(err, ErrBackupFailed) }
