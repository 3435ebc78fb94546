package errors

import (
	"errors"
	"fmt"
)

// ErrorType is the category of a failure. Usage and integrity errors are
// the only categories callers are expected to handle explicitly; everything
// else is logged by the storage layer and surfaces as a nil/false result.
type ErrorType string

const (
	// ErrorTypeUsage marks programmer or caller mistakes: wrong endpoint
	// type for an edge, soft-deleting a type that does not opt in.
	ErrorTypeUsage ErrorType = "usage"
	// ErrorTypeIntegrity marks store corruption, e.g. a dangling edge
	// endpoint discovered on decode.
	ErrorTypeIntegrity ErrorType = "integrity"
	// ErrorTypeConflict marks unique-key violations on insert.
	ErrorTypeConflict ErrorType = "conflict"
	// ErrorTypeGraph marks store/transport failures.
	ErrorTypeGraph ErrorType = "graph"
	// ErrorTypeConfig marks configuration errors.
	ErrorTypeConfig ErrorType = "config"
)

// BaseError is the common error shape; concrete errors embed it.
type BaseError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *BaseError) Unwrap() error {
	return e.Err
}

// New creates a categorized error.
func New(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{Type: errType, Message: message, Err: err}
}

// typed is satisfied by BaseError and, through embedding, by every
// concrete error in this package.
type typed interface {
	errorType() ErrorType
}

func (e *BaseError) errorType() ErrorType { return e.Type }

// IsType reports whether err (or anything it wraps) carries the category.
func IsType(err error, errType ErrorType) bool {
	var t typed
	if errors.As(err, &t) {
		return t.errorType() == errType
	}
	return false
}

// Usage errors

// ErrNotSoftDeletable is returned when a soft-delete path is used on a
// type that has not opted into soft deletion.
type ErrNotSoftDeletable struct {
	*BaseError
	Collection string
}

func NewNotSoftDeletable(collection string) *ErrNotSoftDeletable {
	return &ErrNotSoftDeletable{
		BaseError:  New(ErrorTypeUsage, fmt.Sprintf("type bound to %q is not soft-deletable", collection), nil),
		Collection: collection,
	}
}

// ErrInvalidEndpoint is returned when an edge is built with a vertex whose
// collection is not in the edge type's permitted endpoint set.
type ErrInvalidEndpoint struct {
	*BaseError
	Edge       string
	Side       string // "from" or "to"
	Collection string
}

func NewInvalidEndpoint(edge, side, collection string) *ErrInvalidEndpoint {
	return &ErrInvalidEndpoint{
		BaseError:  New(ErrorTypeUsage, fmt.Sprintf("edge %q does not accept %q as %s endpoint", edge, collection, side), nil),
		Edge:       edge,
		Side:       side,
		Collection: collection,
	}
}

// ErrMissingIdentity is returned when an operation requires a persisted
// document (id and key populated) and got a transient one.
type ErrMissingIdentity struct {
	*BaseError
	Collection string
}

func NewMissingIdentity(collection string) *ErrMissingIdentity {
	return &ErrMissingIdentity{
		BaseError:  New(ErrorTypeUsage, fmt.Sprintf("document in %q has no store identity yet", collection), nil),
		Collection: collection,
	}
}

// ErrNotPersistable is returned when a value cannot be converted to
// document fields.
type ErrNotPersistable struct {
	*BaseError
	Collection string
}

func NewNotPersistable(collection string, err error) *ErrNotPersistable {
	return &ErrNotPersistable{
		BaseError:  New(ErrorTypeUsage, fmt.Sprintf("cannot convert document for %q", collection), err),
		Collection: collection,
	}
}

// Integrity errors

// ErrDanglingEndpoint is returned when an edge decoded from the store
// references a vertex that cannot be resolved.
type ErrDanglingEndpoint struct {
	*BaseError
	Edge string
	Key  string
}

func NewDanglingEndpoint(edge, key string) *ErrDanglingEndpoint {
	return &ErrDanglingEndpoint{
		BaseError: New(ErrorTypeIntegrity, fmt.Sprintf("edge %q key %q references a missing vertex", edge, key), nil),
		Edge:      edge,
		Key:       key,
	}
}

// Conflict errors

// ErrKeyConflict is returned on insert when the derived key already exists
// in the collection.
type ErrKeyConflict struct {
	*BaseError
	Collection string
	Key        string
}

func NewKeyConflict(collection, key string) *ErrKeyConflict {
	return &ErrKeyConflict{
		BaseError:  New(ErrorTypeConflict, fmt.Sprintf("key %q already exists in %q", key, collection), nil),
		Collection: collection,
		Key:        key,
	}
}

// Graph errors

// ErrQueryFailed is returned when a graph query fails at the store.
type ErrQueryFailed struct {
	*BaseError
	Operation string
}

func NewQueryFailed(operation string, err error) *ErrQueryFailed {
	return &ErrQueryFailed{
		BaseError: New(ErrorTypeGraph, fmt.Sprintf("query failed: %s", operation), err),
		Operation: operation,
	}
}
