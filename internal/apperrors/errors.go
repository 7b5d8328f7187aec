// Package apperrors defines the error taxonomy shared by all services.
// Every operation returns a kind-tagged *Error; the HTTP boundary maps
// kinds to transport status codes in exactly one place.
package apperrors

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindPermissionDenied
	KindInvalidTransition
	KindNotFound
	KindGitPublish
	KindStorage
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindPermissionDenied:
		return "permission_denied"
	case KindInvalidTransition:
		return "invalid_transition"
	case KindNotFound:
		return "not_found"
	case KindGitPublish:
		return "git_publish"
	case KindStorage:
		return "storage"
	}
	return "internal"
}

// Error is a kind-tagged error value with optional structured details.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func PermissionDenied(format string, args ...any) *Error {
	return &Error{Kind: KindPermissionDenied, Message: fmt.Sprintf(format, args...)}
}

// InvalidTransition reports a status precondition failure on a state machine.
func InvalidTransition(message string, current, expected string) *Error {
	return &Error{
		Kind:    KindInvalidTransition,
		Message: message,
		Details: map[string]any{"current_status": current, "expected_status": expected},
	}
}

func NotFound(resource, id string) *Error {
	return &Error{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, id),
		Details: map[string]any{"resource": resource, "id": id},
	}
}

func GitPublish(message string, err error) *Error {
	return &Error{Kind: KindGitPublish, Message: message, Err: err}
}

func Storage(message string, err error) *Error {
	return &Error{Kind: KindStorage, Message: message, Err: err}
}

func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf extracts the taxonomy kind from any error; wrapped chains are
// searched, everything else is internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}
