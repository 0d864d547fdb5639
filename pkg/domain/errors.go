package domain

import "fmt"

// ErrorKind classifies a domain error for transport mapping.
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindNotFound
	KindConflict
	KindInvalidState
	KindInternal
)

// Error is the typed error returned by domain and application code.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a domain error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewValidationError creates a validation error.
func NewValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Code: "VALIDATION_ERROR", Message: message}
}

// NewNotFoundError creates a not-found error for the given entity and identifier.
func NewNotFoundError(entity, id string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found: %s", entity, id),
	}
}

// NewConflictError creates a conflict error with a caller-chosen code.
func NewConflictError(code, message string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: message}
}

// NewInvalidStateError creates an error for a disallowed state transition.
func NewInvalidStateError(from, to string) *Error {
	return &Error{
		Kind:    KindInvalidState,
		Code:    "INVALID_STATE",
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
	}
}

// NewInternalError wraps an infrastructure failure.
func NewInternalError(code, message string, err error) *Error {
	return &Error{Kind: KindInternal, Code: code, Message: message, Err: err}
}
