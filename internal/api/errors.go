package api

import (
	"fmt"
	"net/http"
)

// Error codes carried in the error envelope
const (
	ErrCodeInvalidRequest = "INVALID_REQUEST"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeConflict       = "CONFLICT"
	ErrCodeInvalidState   = "INVALID_STATE"
	ErrCodeUnavailable    = "SERVICE_UNAVAILABLE"
	ErrCodeInternalServer = "INTERNAL_SERVER_ERROR"
)

// APIError is an error that knows how it should be rendered over HTTP
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Status  int                    `json:"-"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// NewError creates an APIError
func NewError(code, message string, status int) *APIError {
	return &APIError{Code: code, Message: message, Status: status}
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WithDetails returns a copy of the error carrying extra detail fields
func (e *APIError) WithDetails(details map[string]interface{}) *APIError {
	out := *e
	out.Details = details
	return &out
}

// Common errors
var (
	ErrBadRequest     = NewError(ErrCodeInvalidRequest, "Invalid request", http.StatusBadRequest)
	ErrNotFound       = NewError(ErrCodeNotFound, "Resource not found", http.StatusNotFound)
	ErrConflict       = NewError(ErrCodeConflict, "Resource conflict", http.StatusConflict)
	ErrUnavailable    = NewError(ErrCodeUnavailable, "Service unavailable", http.StatusServiceUnavailable)
	ErrInternalServer = NewError(ErrCodeInternalServer, "Internal server error", http.StatusInternalServerError)
)
