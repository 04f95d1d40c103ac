// errors.go - Structured error handling for API responses
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sheet-dashboard/backend/internal/auth"
	"github.com/sheet-dashboard/backend/internal/chart"
	"github.com/sheet-dashboard/backend/internal/decoder"
	"github.com/sheet-dashboard/backend/internal/ingest"
)

// APIError represents a structured API error response
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error constructors for consistent error handling

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusBadRequest,
		Code:    "BAD_REQUEST",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewValidationError creates a 400 validation error for a specific field
func NewValidationError(field string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "VALIDATION_ERROR",
		Message: fmt.Sprintf("validation failed for field: %s", field),
	}
}

// NewNotFoundError creates a 404 Not Found error
func NewNotFoundError(resource string, id string) *APIError {
	return &APIError{
		Status:  http.StatusNotFound,
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// NewConflictError creates a 409 Conflict error
func NewConflictError(message string) *APIError {
	return &APIError{
		Status:  http.StatusConflict,
		Code:    "CONFLICT",
		Message: message,
	}
}

// NewUnauthorizedError creates a 401 Unauthorized error
func NewUnauthorizedError(message string) *APIError {
	return &APIError{
		Status:  http.StatusUnauthorized,
		Code:    "UNAUTHORIZED",
		Message: message,
	}
}

// NewUnprocessableError creates a 422 error for input that was read but could not be used
func NewUnprocessableError(code, message string) *APIError {
	return &APIError{
		Status:  http.StatusUnprocessableEntity,
		Code:    code,
		Message: message,
	}
}

// NewInternalError creates a 500 Internal Server Error
func NewInternalError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_ERROR",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewServiceUnavailableError creates a 503 Service Unavailable error
func NewServiceUnavailableError(message string) *APIError {
	return &APIError{
		Status:  http.StatusServiceUnavailable,
		Code:    "SERVICE_UNAVAILABLE",
		Message: message,
	}
}

// ErrorHandler middleware for Echo
// Usage: e.HTTPErrorHandler = api.ErrorHandler
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var apiErr *APIError

	switch e := err.(type) {
	case *APIError:
		apiErr = e
	case *echo.HTTPError:
		apiErr = &APIError{
			Status:  e.Code,
			Code:    "HTTP_ERROR",
			Message: fmt.Sprintf("%v", e.Message),
		}
	default:
		if mapped := domainError(err); mapped != nil {
			apiErr = mapped
			break
		}
		apiErr = &APIError{
			Status:  http.StatusInternalServerError,
			Code:    "UNKNOWN_ERROR",
			Message: "An unexpected error occurred",
		}
		// In development, include error details
		if isDevelopment() {
			apiErr.Details = err.Error()
		}
	}

	// Send JSON response
	if !c.Response().Committed {
		c.JSON(apiErr.Status, apiErr)
	}
}

var exposeDetails = true

// SetExposeErrorDetails controls whether unexpected errors carry their text
// in the Details field.
func SetExposeErrorDetails(expose bool) {
	exposeDetails = expose
}

func isDevelopment() bool {
	return exposeDetails
}

// domainError maps errors from the domain packages onto API errors, or
// returns nil when err is not one of them.
func domainError(err error) *APIError {
	var (
		decodeErr *ingest.DecodeError
		ingestErr *ingest.IngestError
		fieldErr  *chart.FieldError
	)
	switch {
	case errors.As(err, &decodeErr):
		return NewUnprocessableError("NO_DATA", decodeErr.Error())
	case errors.Is(err, ingest.ErrIngestInProgress):
		return NewConflictError(err.Error())
	case errors.Is(err, decoder.ErrUnsupportedFormat):
		return &APIError{
			Status:  http.StatusUnsupportedMediaType,
			Code:    "UNSUPPORTED_FORMAT",
			Message: ingest.FallbackMessage,
			Details: err.Error(),
		}
	case errors.As(err, &ingestErr):
		return NewUnprocessableError("INGEST_FAILED", ingestErr.Error())
	case errors.As(err, &fieldErr):
		apiErr := NewValidationError(fieldErr.Axis + "Field")
		apiErr.Details = fieldErr.Error()
		return apiErr
	case errors.Is(err, chart.ErrUnknownKind):
		return NewBadRequestError("unknown chart kind", err)
	case errors.Is(err, auth.ErrInvalidCredentials):
		return NewUnauthorizedError(err.Error())
	case errors.Is(err, auth.ErrUserExists):
		return NewConflictError(err.Error())
	case errors.Is(err, auth.ErrEmailRequired), errors.Is(err, auth.ErrPasswordTooShort):
		return NewBadRequestError(err.Error(), nil)
	}
	return nil
}

// wrapError converts err into an APIError, falling back to a 500 with message.
func wrapError(err error, message string) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	if mapped := domainError(err); mapped != nil {
		return mapped
	}
	return NewInternalError(message, err)
}
