// Package errors defines the application error taxonomy and the JSON
// envelope every HTTP surface returns on failure.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Stable error codes carried in the HTTP envelope.
const (
	CodeNotFound           = "NOT_FOUND"
	CodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	CodeValidation         = "VALIDATION_ERROR"
	CodeConflict           = "CONFLICT"
	CodeToolNotInstalled   = "TOOL_NOT_INSTALLED"
	CodeUnknownTool        = "UNKNOWN_TOOL"
	CodeInternal           = "INTERNAL_ERROR"
	CodeRateLimited        = "RATE_LIMITED"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// AppError is an error with an HTTP status and a stable code.
type AppError struct {
	Code    string
	Message string
	Status  int
	Details map[string]any
	cause   error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.cause }

// WithDetails attaches structured context to the error envelope.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func NewNotFound(msg string) *AppError {
	return &AppError{Code: CodeNotFound, Message: msg, Status: http.StatusNotFound}
}

func NewMethodNotAllowed(msg string) *AppError {
	return &AppError{Code: CodeMethodNotAllowed, Message: msg, Status: http.StatusMethodNotAllowed}
}

func NewValidation(msg string) *AppError {
	return &AppError{Code: CodeValidation, Message: msg, Status: http.StatusBadRequest}
}

func NewConflict(msg string) *AppError {
	return &AppError{Code: CodeConflict, Message: msg, Status: http.StatusConflict}
}

func NewToolNotInstalled(tool string) *AppError {
	return &AppError{
		Code:    CodeToolNotInstalled,
		Message: fmt.Sprintf("%s is not installed", tool),
		Status:  http.StatusConflict,
		Details: map[string]any{"tool": tool},
	}
}

func NewUnknownTool(tool string) *AppError {
	return &AppError{
		Code:    CodeUnknownTool,
		Message: fmt.Sprintf("unknown tool %q", tool),
		Status:  http.StatusNotFound,
		Details: map[string]any{"tool": tool},
	}
}

func NewInternal(msg string) *AppError {
	return &AppError{Code: CodeInternal, Message: msg, Status: http.StatusInternalServerError}
}

// WrapInternal wraps err as an internal error, preserving it for Unwrap.
func WrapInternal(err error, msg string) *AppError {
	return &AppError{Code: CodeInternal, Message: msg, Status: http.StatusInternalServerError, cause: err}
}

// HTTPErrorResponse is the wire shape of an error envelope.
type HTTPErrorResponse struct {
	Error HTTPErrorBody `json:"error"`
}

// HTTPErrorBody carries the error fields inside the envelope.
type HTTPErrorBody struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	RequestID string         `json:"request_id,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// Envelope builds the wire envelope for an error. Non-AppError values
// map to INTERNAL_ERROR with a generic message so internals do not leak.
func Envelope(err error) (HTTPErrorResponse, int) {
	var app *AppError
	if errors.As(err, &app) {
		return HTTPErrorResponse{Error: HTTPErrorBody{
			Code:    app.Code,
			Message: app.Message,
			Details: app.Details,
		}}, app.Status
	}
	return HTTPErrorResponse{Error: HTTPErrorBody{
		Code:    CodeInternal,
		Message: "internal server error",
	}}, http.StatusInternalServerError
}
