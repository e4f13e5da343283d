package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies workflow failures for the API boundary.
type ErrorKind string

const (
	KindValidation    ErrorKind = "ValidationError"
	KindConflict      ErrorKind = "ConflictError"
	KindAuthorization ErrorKind = "AuthorizationError"
	KindInvalidState  ErrorKind = "InvalidStateError"
	KindBlocked       ErrorKind = "BlockedError"
	KindNotFound      ErrorKind = "NotFoundError"
)

// WorkflowError is a guard or invariant failure. Infrastructure failures are
// returned as plain wrapped errors instead.
type WorkflowError struct {
	Kind    ErrorKind
	Message string
}

func (e *WorkflowError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newWorkflowError(kind ErrorKind, format string, args ...interface{}) *WorkflowError {
	return &WorkflowError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func validationError(format string, args ...interface{}) error {
	return newWorkflowError(KindValidation, format, args...)
}

func conflictError(format string, args ...interface{}) error {
	return newWorkflowError(KindConflict, format, args...)
}

func authorizationError(format string, args ...interface{}) error {
	return newWorkflowError(KindAuthorization, format, args...)
}

func invalidStateError(format string, args ...interface{}) error {
	return newWorkflowError(KindInvalidState, format, args...)
}

func blockedError(format string, args ...interface{}) error {
	return newWorkflowError(KindBlocked, format, args...)
}

func notFoundError(format string, args ...interface{}) error {
	return newWorkflowError(KindNotFound, format, args...)
}

// KindOf returns the workflow error kind of err, or "" for other errors.
func KindOf(err error) ErrorKind {
	var we *WorkflowError
	if errors.As(err, &we) {
		return we.Kind
	}
	return ""
}

// IsKind reports whether err is a workflow error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
