// Package shared contains common error types and utilities.
package shared

import (
	"errors"
	"fmt"
)

// Common domain errors that can be used across the application
var (
	// ErrNotFound indicates that a requested row is absent or not owned by the caller.
	// Ownership misses deliberately surface as not-found to avoid existence leakage.
	ErrNotFound = errors.New("not found")

	// ErrValidation indicates that input validation failed
	ErrValidation = errors.New("validation failed")

	// ErrUnauthorized indicates that the request lacks valid authentication
	ErrUnauthorized = errors.New("unauthorized")

	// ErrConflict indicates that the request conflicts with current state
	ErrConflict = errors.New("conflict")

	// ErrInvalidArgument indicates a malformed call into the data layer
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrQuery indicates that the backing store rejected a statement
	ErrQuery = errors.New("query failed")

	// ErrInternal indicates an internal server error
	ErrInternal = errors.New("internal error")
)

// Kind represents a category of error for easier classification and handling.
type Kind int

const (
	// KindUnknown represents an unclassified error
	KindUnknown Kind = iota
	// KindNotFound represents resource not found errors
	KindNotFound
	// KindValidation represents input validation errors
	KindValidation
	// KindUnauthorized represents authentication errors
	KindUnauthorized
	// KindConflict represents resource conflict errors
	KindConflict
	// KindInvalidArgument represents programming errors at the data-layer boundary
	KindInvalidArgument
	// KindQuery represents statement failures from the backing store
	KindQuery
	// KindInternal represents internal server errors
	KindInternal
)

// String returns the string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindValidation:
		return "Validation"
	case KindUnauthorized:
		return "Unauthorized"
	case KindConflict:
		return "Conflict"
	case KindInvalidArgument:
		return "InvalidArgument"
	case KindQuery:
		return "Query"
	case KindInternal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// kindSentinels defines the deterministic order for error classification.
// Earlier kinds win when an error chain carries more than one sentinel.
var kindSentinels = []struct {
	kind Kind
	err  error
}{
	{KindNotFound, ErrNotFound},
	{KindValidation, ErrValidation},
	{KindUnauthorized, ErrUnauthorized},
	{KindConflict, ErrConflict},
	{KindInvalidArgument, ErrInvalidArgument},
	{KindQuery, ErrQuery},
	{KindInternal, ErrInternal},
}

// KindOf returns the Kind of the given error by checking against known sentinel errors.
// It traverses the error chain and returns the first match in priority order.
// Returns KindUnknown for unrecognized errors.
//
// Example:
//
//	switch shared.KindOf(err) {
//	case shared.KindNotFound:
//	    return http.StatusNotFound
//	case shared.KindValidation:
//	    return http.StatusBadRequest
//	default:
//	    return http.StatusInternalServerError
//	}
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	for _, s := range kindSentinels {
		if errors.Is(err, s.err) {
			return s.kind
		}
	}
	return KindUnknown
}

// SentinelOf returns the sentinel error for the given Kind.
// For KindUnknown it returns nil.
func SentinelOf(kind Kind) error {
	for _, s := range kindSentinels {
		if s.kind == kind {
			return s.err
		}
	}
	return nil
}

// MarkKind wraps an error with the appropriate sentinel error for the given kind,
// preserving the original error through error wrapping.
// Both KindOf(MarkKind(err, kind)) == kind and errors.Is(MarkKind(err, kind), err) hold.
// If err is nil, returns the sentinel error for the kind.
// Marking is idempotent: an error that already has the kind is returned unchanged.
//
// Example usage for adapting third-party errors:
//
//	if errors.Is(err, sql.ErrNoRows) {
//	    return shared.MarkKind(err, shared.KindNotFound)
//	}
func MarkKind(err error, kind Kind) error {
	sentinel := SentinelOf(kind)
	if err == nil {
		return sentinel
	}
	if sentinel == nil {
		return err
	}
	if KindOf(err) == kind {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}

// Wrap wraps an error with additional context.
// It returns a new error that formats as "context: err".
// If err is nil, Wrap returns nil.
func Wrap(err error, context string) error {
	if err == nil {
		return nil
	}
	if context == "" {
		return err
	}
	return fmt.Errorf("%s: %w", context, err)
}

// Wrapf wraps an error with a formatted context message.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// IsNotFound reports whether the error indicates a resource not found condition.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation reports whether the error indicates input validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsUnauthorized reports whether the error indicates lack of valid authentication.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsConflict reports whether the error indicates a resource conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsInvalidArgument reports whether the error indicates a malformed data-layer call.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// IsQuery reports whether the error indicates a rejected statement.
func IsQuery(err error) bool {
	return errors.Is(err, ErrQuery)
}
