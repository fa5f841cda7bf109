package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/anonto42/wagwan/backend/validators"
)

// Kind classifies service failures; the HTTP layer maps each kind to a status.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindInvalidOperation
	KindConflict
	KindExternal
	KindStore
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindInvalidOperation:
		return "invalid_operation"
	case KindConflict:
		return "conflict"
	case KindExternal:
		return "external_service"
	case KindStore:
		return "store"
	default:
		return "unknown"
	}
}

// Error is returned by every service operation. Message is safe to show to
// clients; Err keeps the underlying cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Fields  []string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf reports the kind of a service error, or 0 for any other error.
func KindOf(err error) Kind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return 0
}

func newValidationError(err error) *Error {
	fields := validators.InvalidFields(err)
	if len(fields) == 0 {
		return &Error{Kind: KindValidation, Message: "invalid request", Err: err}
	}
	return &Error{
		Kind:    KindValidation,
		Message: "missing or invalid fields: " + strings.Join(fields, ", "),
		Fields:  fields,
		Err:     err,
	}
}

func newNotFoundError(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func newInvalidOperationError(message string) *Error {
	return &Error{Kind: KindInvalidOperation, Message: message}
}

func newConflictError(message string, err error) *Error {
	return &Error{Kind: KindConflict, Message: message, Err: err}
}

func newExternalError(message string, err error) *Error {
	return &Error{Kind: KindExternal, Message: message, Err: err}
}

func newStoreError(message string, err error) *Error {
	return &Error{Kind: KindStore, Message: message, Err: err}
}
