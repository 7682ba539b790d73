// Package apperr defines the error taxonomy shared by services, repositories
// and handlers. Errors are classified by kind rather than by concrete type so
// that handlers can map them onto HTTP statuses without knowing where in the
// stack they originated.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindPermissionDenied
	KindValidation
	KindDuplicateDocument
	KindUpstreamFailure
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindPermissionDenied:
		return "permission_denied"
	case KindValidation:
		return "validation_error"
	case KindDuplicateDocument:
		return "duplicate_document"
	case KindUpstreamFailure:
		return "upstream_failure"
	case KindUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// Error is the concrete error carried across layer boundaries.
type Error struct {
	kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.err }

func (e *Error) Kind() Kind { return e.kind }

// Is makes errors.Is match any two apperr errors of the same kind, so
// sentinel-style comparisons like errors.Is(err, apperr.NotFound("", "")) work.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.kind == t.kind
}

func New(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{kind: kind, msg: msg, err: err}
}

// NotFound reports an entity that is absent or soft-deleted.
func NotFound(resource, id string) *Error {
	if id == "" {
		return &Error{kind: KindNotFound, msg: fmt.Sprintf("%s not found", resource)}
	}
	return &Error{kind: KindNotFound, msg: fmt.Sprintf("%s %s not found", resource, id)}
}

// PermissionDenied reports an authorization failure for an action.
func PermissionDenied(action string) *Error {
	return &Error{kind: KindPermissionDenied, msg: fmt.Sprintf("missing %q permission on collection", action)}
}

func Validation(msg string) *Error {
	return &Error{kind: KindValidation, msg: msg}
}

func Validationf(format string, args ...any) *Error {
	return &Error{kind: KindValidation, msg: fmt.Sprintf(format, args...)}
}

func DuplicateDocument(msg string) *Error {
	return &Error{kind: KindDuplicateDocument, msg: msg}
}

func Upstream(msg string, err error) *Error {
	return &Error{kind: KindUpstreamFailure, msg: msg, err: err}
}

func Unavailable(msg string, err error) *Error {
	return &Error{kind: KindUnavailable, msg: msg, err: err}
}

func Internal(msg string, err error) *Error {
	return &Error{kind: KindInternal, msg: msg, err: err}
}

// KindOf classifies an arbitrary error. Unclassified errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
