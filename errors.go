package folio

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an error into one of the outcome categories the core
// reports to its callers. Transports map kinds to their own status codes;
// the core itself never does.
type Kind uint8

const (
	KindInternal Kind = iota
	KindInvalidInput
	KindNotFound
	KindConflict
	KindUnsupported
)

// String returns the kind name as used in logs.
func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnsupported:
		return "unsupported"
	default:
		return "internal"
	}
}

// KindOf returns the outcome category of err. Errors that carry no
// category, including wrapped driver errors, report Internal.
func KindOf(err error) Kind {
	switch {
	case IsValidationError(err):
		return KindInvalidInput
	case IsNotFound(err):
		return KindNotFound
	case IsConflict(err):
		return KindConflict
	case IsUnsupported(err):
		return KindUnsupported
	default:
		return KindInternal
	}
}

// Sentinel values for errors.Is checks across package boundaries.
var (
	// ErrNotFound matches any NotFoundError.
	ErrNotFound = errors.New("folio: entity not found")

	// ErrConflict matches any ConflictError: duplicate keys, broken
	// references, lock contention.
	ErrConflict = errors.New("folio: conflict")

	// ErrTxStarted is returned when attempting to open a session within an
	// existing session.
	ErrTxStarted = errors.New("folio: cannot start a session within a session")
)

// NotFoundError reports a lookup that matched no row.
type NotFoundError struct {
	label string
	id    any // nil when the lookup was not by id
}

func (e *NotFoundError) Error() string {
	msg := "folio: " + e.label + " not found"
	if e.id != nil {
		msg += fmt.Sprintf(" (id=%v)", e.id)
	}
	return msg
}

// Is matches the ErrNotFound sentinel.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// Label returns the entity label the lookup was for.
func (e *NotFoundError) Label() string {
	return e.label
}

// ID returns the id that was searched for, or nil.
func (e *NotFoundError) ID() any {
	return e.id
}

// NewNotFoundError returns a NotFoundError for the given entity label.
func NewNotFoundError(label string) *NotFoundError {
	return &NotFoundError{label: label}
}

// NewNotFoundErrorWithID returns a NotFoundError carrying the id that was
// searched for.
func NewNotFoundErrorWithID(label string, id any) *NotFoundError {
	return &NotFoundError{label: label, id: id}
}

// IsNotFound reports whether err is, or wraps, a failed lookup.
func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// ConflictError reports a write that lost against the current state of
// the store: a duplicate key, a reference to a missing or still-referenced
// row, a violated check, or lock contention.
type ConflictError struct {
	msg       string
	wrap      error
	retryable bool
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("folio: conflict: %s", e.msg)
}

func (e ConflictError) Unwrap() error {
	return e.wrap
}

// Is matches the ErrConflict sentinel.
func (e ConflictError) Is(err error) bool {
	return err == ErrConflict
}

// Retryable reports whether retrying the whole transaction may succeed.
// True for lock-wait timeouts and deadlocks, false for genuine duplicates.
func (e ConflictError) Retryable() bool {
	return e.retryable
}

// NewConflictError returns a non-retryable ConflictError.
func NewConflictError(msg string, wrap error) error {
	return ConflictError{msg: msg, wrap: wrap}
}

// NewRetryableConflictError returns a ConflictError that reports itself as
// retryable.
func NewRetryableConflictError(msg string, wrap error) error {
	return ConflictError{msg: msg, wrap: wrap, retryable: true}
}

// IsConflict reports whether err is, or wraps, a store conflict.
func IsConflict(err error) bool {
	var e ConflictError
	return errors.As(err, &e) || errors.Is(err, ErrConflict)
}

// IsRetryable reports whether err is a conflict that may succeed on a
// fresh transaction.
func IsRetryable(err error) bool {
	var e ConflictError
	return errors.As(err, &e) && e.retryable
}

// ValidationError reports input that failed a domain check before any
// write was attempted.
type ValidationError struct {
	Name string // field or entity name
	Err  error  // what the check found
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("folio: validator failed for field %q: %s", e.Name, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError returns a ValidationError for the named field.
func NewValidationError(name string, err error) *ValidationError {
	return &ValidationError{Name: name, Err: err}
}

// IsValidationError reports whether err is, or wraps, rejected input.
func IsValidationError(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

// UnsupportedError reports an operation the target does not support,
// such as soft-deleting an entity without a deletion flag.
type UnsupportedError struct {
	Op     string // operation that was attempted
	Reason string // optional explanation
}

func (e *UnsupportedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("folio: unsupported operation %s: %s", e.Op, e.Reason)
	}
	return fmt.Sprintf("folio: unsupported operation %s", e.Op)
}

// NewUnsupportedError returns an UnsupportedError for op.
func NewUnsupportedError(op, reason string) *UnsupportedError {
	return &UnsupportedError{Op: op, Reason: reason}
}

// IsUnsupported reports whether err is, or wraps, an unsupported operation.
func IsUnsupported(err error) bool {
	var e *UnsupportedError
	return errors.As(err, &e)
}

// InternalError wraps an unexpected failure: a store error outside the
// recognized constraint classes, or a broken invariant. The cause is
// chained and preserved for logs.
type InternalError struct {
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("folio: internal: %v", e.Err)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// NewInternalError returns an InternalError wrapping err.
func NewInternalError(err error) *InternalError {
	return &InternalError{Err: err}
}

// IsInternal reports whether err is, or wraps, an unexpected failure.
func IsInternal(err error) bool {
	var e *InternalError
	return errors.As(err, &e)
}

// RollbackError reports a rollback that itself failed. The original
// error that forced the rollback travels separately; this one means the
// session may still hold its locks.
type RollbackError struct {
	Err error // the failure reported by the driver's rollback
}

func (e *RollbackError) Error() string {
	return fmt.Sprintf("folio: rollback failed: %v", e.Err)
}

func (e *RollbackError) Unwrap() error {
	return e.Err
}

// AggregateError collects several independent failures from one
// operation, typically field validations reported together.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "folio: no errors"
	case 1:
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString("folio: multiple errors:")
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  [%d] %v", i+1, err)
	}
	return sb.String()
}

// Unwrap returns the collected errors so errors.Is and errors.As traverse
// each of them.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// NewAggregateError drops nil entries and returns nil for none, the error
// itself for exactly one, and an AggregateError otherwise.
func NewAggregateError(errs ...error) error {
	kept := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			kept = append(kept, err)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	}
	return &AggregateError{Errors: kept}
}
