// Package errors defines the closed set of error kinds that libragen's core
// operations return, so callers can branch on kind instead of string
// matching.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind identifies the category of a libragen error.
type Kind string

const (
	// KindNotFound means a path, library name, or collection was absent.
	KindNotFound Kind = "not_found"
	// KindAlreadyInstalled means install was attempted without force into
	// an occupied slot.
	KindAlreadyInstalled Kind = "already_installed"
	// KindInvalidArtifact means an artifact's manifest is missing or its
	// store is corrupt.
	KindInvalidArtifact Kind = "invalid_artifact"
	// KindSchemaVersionError means an artifact requires a newer engine.
	KindSchemaVersionError Kind = "schema_version_error"
	// KindMigrationRequired means an artifact needs migration but was
	// opened read-only.
	KindMigrationRequired Kind = "migration_required"
	// KindEmptyIndex means a build produced no chunks.
	KindEmptyIndex Kind = "empty_index"
	// KindCollectionDepthExceeded means the resolver saw more than
	// maxDepth nested collections.
	KindCollectionDepthExceeded Kind = "collection_depth_exceeded"
	// KindDownloadError means a non-2xx HTTP response or transport
	// failure occurred while fetching a library or collection.
	KindDownloadError Kind = "download_error"
	// KindIntegrityError means downloaded bytes did not match an expected
	// SHA-256 digest.
	KindIntegrityError Kind = "integrity_error"
	// KindNetworkError means an underlying transport failure occurred.
	KindNetworkError Kind = "network_error"
	// KindIOError means an underlying filesystem failure occurred.
	KindIOError Kind = "io_error"
)

// Error is the structured error type returned by libragen's core.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap supports errors.Is/errors.As against the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target has the same Kind, enabling
// stderrors.Is(err, errors.Sentinel(errors.KindNotFound)).
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	if k, ok := target.(kindSentinel); ok {
		return e.Kind == Kind(k)
	}
	return false
}

// kindSentinel lets a bare Kind value be used as a stderrors.Is target.
type kindSentinel Kind

func (k kindSentinel) Error() string { return string(k) }

// Sentinel returns an error value usable as a target for errors.Is, e.g.
// errors.Is(err, errors.Sentinel(errors.KindNotFound)).
func Sentinel(kind Kind) error {
	return kindSentinel(kind)
}

// New creates an *Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an *Error of the given kind around cause. Returns nil if
// cause is nil.
func Wrap(kind Kind, message string, cause error) *Error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Is reports whether err (or anything in its chain) has the given Kind.
func Is(err error, kind Kind) bool {
	return stderrors.Is(err, Sentinel(kind))
}

// As extracts the first *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var e *Error
	ok := stderrors.As(err, &e)
	return e, ok
}
