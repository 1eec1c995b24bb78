package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"crypto-recommendation/internal/recommendation"
)

// Error types of ErrorResponse.
const (
	ErrorTypeGeneral    = "GENERAL"
	ErrorTypeNotFound   = "NOT_FOUND"
	ErrorTypeValidation = "VALIDATION_ERROR"
)

// Error messages shared by handlers.
const (
	msgValidation   = "Validation error. Check 'validationErrors'."
	msgInvalidParam = "Error in parameter validation. Invalid format for filed: %s"
	msgBadBody      = "Malformed request body."
	msgNoRoute      = "Resource not found."
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	ErrorType        string            `json:"errorType"`
	Message          string            `json:"message"`
	ValidationErrors []ValidationError `json:"validationErrors,omitempty"`
	HTTPCode         int               `json:"httpCode"`
	Timestamp        time.Time         `json:"timestamp"`
}

// ValidationError is a rejected request field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Render implements the render.Renderer interface for chi/render.
func (e *ErrorResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPCode)
	return nil
}

func newError(status int, errorType, message string) *ErrorResponse {
	return &ErrorResponse{
		ErrorType: errorType,
		Message:   message,
		HTTPCode:  status,
		Timestamp: time.Now().UTC(),
	}
}

// invalidParam reports a path or query parameter that failed to parse.
func invalidParam(name string) *ErrorResponse {
	return newError(http.StatusBadRequest, ErrorTypeValidation, fmt.Sprintf(msgInvalidParam, name))
}

// validationFailed reports rejected body fields.
func validationFailed(fields []ValidationError) *ErrorResponse {
	e := newError(http.StatusBadRequest, ErrorTypeValidation, msgValidation)
	e.ValidationErrors = fields
	return e
}

// errorFor maps a service error to its response.
func errorFor(err error) *ErrorResponse {
	var ve *recommendation.ValidationError
	switch {
	case errors.As(err, &ve):
		return validationFailed([]ValidationError{{Field: ve.Field, Message: ve.Message}})
	case errors.Is(err, recommendation.ErrSymbolNotSupported):
		return newError(http.StatusNotFound, ErrorTypeNotFound, err.Error())
	default:
		return newError(http.StatusInternalServerError, ErrorTypeGeneral, err.Error())
	}
}
