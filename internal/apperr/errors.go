// Package apperr carries typed application errors and maps them to HTTP statuses.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Type represents different kinds of errors
type Type string

const (
	TypeValidation   Type = "validation"
	TypeNotFound     Type = "not_found"
	TypeConflict     Type = "conflict"
	TypeDatabase     Type = "database"
	TypeExternal     Type = "external_api"
	TypeTimeout      Type = "timeout"
	TypeUnauthorized Type = "unauthorized"
	TypeForbidden    Type = "forbidden"
	TypeInternal     Type = "internal"
)

// Error is an application error with a type, a stable code and a client-facing message.
type Error struct {
	Type     Type
	Code     string
	Message  string
	Internal error
}

func (e *Error) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Internal
}

// Is matches another *Error by type and code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// LogFields returns structured logging fields
func (e *Error) LogFields() []any {
	fields := []any{"error_type", e.Type, "error_code", e.Code, "error_message", e.Message}
	if e.Internal != nil {
		fields = append(fields, "internal_error", e.Internal.Error())
	}
	return fields
}

// New creates an error of type t with a machine-readable code and a client-facing message.
func New(t Type, code, message string) *Error {
	return &Error{Type: t, Code: code, Message: message}
}

func Wrap(err error, t Type, code, message string) *Error {
	return &Error{Type: t, Code: code, Message: message, Internal: err}
}

func Validation(message string) *Error {
	return New(TypeValidation, "VALIDATION", message)
}

func NotFound(message string) *Error {
	return New(TypeNotFound, "NOT_FOUND", message)
}

func Database(err error) *Error {
	return Wrap(err, TypeDatabase, "DB_ERROR", "Internal server error")
}

func External(err error, api string) *Error {
	return Wrap(err, TypeExternal, "EXTERNAL_API", fmt.Sprintf("%s request failed", api))
}

// Sentinels compared with errors.Is.
var (
	ErrUnauthorized = New(TypeUnauthorized, "UNAUTHORIZED", "Missing or invalid token")
	ErrForbidden    = New(TypeForbidden, "FORBIDDEN", "Permission denied")
)

// Status maps err to an HTTP status code and the message safe to return to the client.
func Status(err error) (int, string) {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusRequestTimeout, "Request timed out"
	}

	var appErr *Error
	if !errors.As(err, &appErr) {
		return http.StatusInternalServerError, "Internal server error"
	}

	switch appErr.Type {
	case TypeValidation:
		return http.StatusBadRequest, appErr.Message
	case TypeNotFound:
		return http.StatusNotFound, appErr.Message
	case TypeConflict:
		return http.StatusConflict, appErr.Message
	case TypeUnauthorized:
		return http.StatusUnauthorized, appErr.Message
	case TypeForbidden:
		return http.StatusForbidden, appErr.Message
	case TypeTimeout:
		return http.StatusRequestTimeout, appErr.Message
	case TypeExternal:
		return http.StatusInternalServerError, appErr.Message
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
