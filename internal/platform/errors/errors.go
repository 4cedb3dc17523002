// Package errors provides structured error handling with HTTP status code
// mapping for the relay's error taxonomy.
package errors

import (
	"errors"
	"net/http"

	"github.com/rzeZenphrix/miku-interviewer/internal/domain"
)

// ErrorType represents the category of error for metrics and response formatting.
type ErrorType string

const (
	// TypeValidation indicates invalid input (HTTP 400)
	TypeValidation ErrorType = "validation"
	// TypeForbidden indicates an actor touching someone else's session (HTTP 403)
	TypeForbidden ErrorType = "forbidden"
	// TypeNotFound indicates a missing session or user (HTTP 404)
	TypeNotFound ErrorType = "not_found"
	// TypeStale indicates a duplicate or superseded interaction (HTTP 409)
	TypeStale ErrorType = "stale"
	// TypeExternal indicates a chat platform gateway failure (HTTP 502)
	TypeExternal ErrorType = "external"
	// TypeInternal indicates a server-side error (HTTP 500)
	TypeInternal ErrorType = "internal"
)

// Error pairs an error category with the message shown to the caller.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return string(e.Type) + ": " + e.Message + ": " + e.Cause.Error()
	}
	return string(e.Type) + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatus returns the appropriate HTTP status code for this error type.
func (e *Error) HTTPStatus() int {
	switch e.Type {
	case TypeValidation:
		return http.StatusBadRequest
	case TypeForbidden:
		return http.StatusForbidden
	case TypeNotFound:
		return http.StatusNotFound
	case TypeStale:
		return http.StatusConflict
	case TypeExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ErrorResponse represents the JSON structure sent to clients.
type ErrorResponse struct {
	Error string    `json:"error"`
	Type  ErrorType `json:"type"`
}

// ToResponse converts an Error to an ErrorResponse for JSON serialization.
func (e *Error) ToResponse() ErrorResponse {
	return ErrorResponse{
		Error: e.Message,
		Type:  e.Type,
	}
}

// FromDomain classifies any error returned by the core into a structured
// Error. Unknown errors become internal errors with a generic message so
// details never leak to callers.
func FromDomain(err error) *Error {
	if err == nil {
		return nil
	}

	var structured *Error
	if errors.As(err, &structured) {
		return structured
	}

	var validation *domain.ValidationError
	if errors.As(err, &validation) {
		return &Error{Type: TypeValidation, Message: validation.Error(), Cause: err}
	}

	switch {
	case errors.Is(err, domain.ErrForbidden):
		return &Error{Type: TypeForbidden, Message: "not your session", Cause: err}
	case errors.Is(err, domain.ErrSessionNotFound):
		return &Error{Type: TypeNotFound, Message: "no active wizard", Cause: err}
	case errors.Is(err, domain.ErrUserNotFound):
		return &Error{Type: TypeNotFound, Message: "user not found", Cause: err}
	case errors.Is(err, domain.ErrChannelNotFound):
		return &Error{Type: TypeNotFound, Message: "channel not found", Cause: err}
	case errors.Is(err, domain.ErrStaleInteraction):
		return &Error{Type: TypeStale, Message: "interaction is stale", Cause: err}
	case errors.Is(err, domain.ErrGatewayFailure):
		return &Error{Type: TypeExternal, Message: "chat platform unavailable", Cause: err}
	default:
		return &Error{Type: TypeInternal, Message: "internal server error", Cause: err}
	}
}
