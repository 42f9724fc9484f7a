package common

import (
	"errors"
	"net/http"
)

// AppError pairs an error with the stable code and HTTP status the response
// envelope carries. Engine failures surface as 422s whose Code a form layer
// can branch on (AGGREGATION_FAILURE, INVALID_LINE_ITEM, ...); Details holds
// structured context such as the failing item's index and key.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// WithDetails attaches structured context and returns the same error.
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// Unprocessable builds the 422 an engine validation failure maps to.
func Unprocessable(code string, err error) *AppError {
	return NewAppError(code, err.Error(), http.StatusUnprocessableEntity, err)
}

// Internal builds the opaque 500 returned for unrecognised failures. The
// underlying error is kept for logs, never for the response body.
func Internal(message string, err error) *AppError {
	return NewAppError("INTERNAL", message, http.StatusInternalServerError, err)
}

// AsAppError extracts an AppError from an error chain.
func AsAppError(err error) (*AppError, bool) {
	var target *AppError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}
