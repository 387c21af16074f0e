package service

import (
	"errors"
	"fmt"
)

// Kind classifies a service failure.  The HTTP layer maps each kind to one
// status code.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindAuthentication
	KindAuthorization
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	}
	return "internal"
}

// Error is returned by every service operation.  Message is safe to show to
// the caller; Err holds the underlying cause and is only logged.
type Error struct {
	Kind    Kind
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf reports the kind of err.  Errors that are not *Error are internal.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindInternal
}

func validationErr(field, msg string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: msg}
}

func conflictErr(field, msg string, cause error) *Error {
	return &Error{Kind: KindConflict, Field: field, Message: msg, Err: cause}
}

func notFoundErr(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

func internalErr(msg string, cause error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: cause}
}
