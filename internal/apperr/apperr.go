// Package apperr defines the structured errors exchanged between the store, the
// calculation service and the HTTP boundary.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Simplici0/auditdays/internal/mandays"
)

// Application error codes
const (
	EINVALID            = "invalid"             // Input failed validation
	EINVALIDCOMBINATION = "invalid_combination" // Configuration cannot serve the input
	EUNAUTHORIZED       = "unauthorized"        // Authentication required
	EFORBIDDEN          = "forbidden"           // Permission denied
	ENOTFOUND           = "not_found"           // Resource not found
	ECONFLICT           = "conflict"            // Resource is in the wrong state
	EINTERNAL           = "internal"            // Internal error
)

const internalMessage = "An internal error occurred. Please try again later."

// Error represents an application error with structured information.
type Error struct {
	Code    string // Machine-readable error code
	Op      string // Operation that failed (e.g., "calculation.create")
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf creates a new Error with the given code, operation, and formatted message.
func Errorf(code, op, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}

// NotFound creates a not found error.
func NotFound(op, resource string, id any) *Error {
	return &Error{
		Code:    ENOTFOUND,
		Op:      op,
		Message: fmt.Sprintf("%s %v not found", resource, id),
	}
}

// Conflict creates a conflict error.
func Conflict(op, message string) *Error {
	return &Error{Code: ECONFLICT, Op: op, Message: message}
}

// Internal creates an internal error, wrapping the underlying error.
func Internal(err error, op, message string) *Error {
	return &Error{Code: EINTERNAL, Op: op, Message: message, Err: err}
}

// ValidationError carries every input problem so a form can flag all fields at once.
type ValidationError struct {
	Op       string
	Messages []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: validation failed: %s", e.Op, strings.Join(e.Messages, "; "))
}

// Invalid creates a validation error from a list of messages.
func Invalid(op string, messages ...string) *ValidationError {
	return &ValidationError{Op: op, Messages: messages}
}

// FromCompute converts an engine error into an application error.
func FromCompute(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, mandays.ErrInvalidCombination),
		errors.Is(err, mandays.ErrInvalidRiskLevel),
		errors.Is(err, mandays.ErrInvalidRange):
		return &Error{Code: EINVALIDCOMBINATION, Op: op, Message: err.Error(), Err: err}
	case errors.Is(err, mandays.ErrOutOfRange):
		return &Error{Code: EINVALID, Op: op, Message: err.Error(), Err: err}
	case errors.Is(err, mandays.ErrInvalidConfiguration):
		var cfgErr *mandays.ConfigError
		if errors.As(err, &cfgErr) {
			return &ValidationError{Op: op, Messages: cfgErr.Problems}
		}
		return &Error{Code: EINVALID, Op: op, Message: err.Error(), Err: err}
	}
	return Internal(err, op, "calculation failed")
}

// ErrorCode returns the code of the root error, or EINTERNAL if none.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return EINVALID
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return EINTERNAL
}

// ErrorMessage returns the human-readable message of the error.
// Internal errors never expose their details.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return "Please correct the highlighted fields."
	}
	var e *Error
	if errors.As(err, &e) && e.Code != EINTERNAL {
		return e.Message
	}
	return internalMessage
}

// FieldMessages returns the validation messages carried by err, if any.
func FieldMessages(err error) []string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Messages
	}
	return nil
}

// HTTPStatus maps an error code to its HTTP status.
func HTTPStatus(err error) int {
	switch ErrorCode(err) {
	case EINVALID, EINVALIDCOMBINATION:
		return http.StatusUnprocessableEntity
	case EUNAUTHORIZED:
		return http.StatusUnauthorized
	case EFORBIDDEN:
		return http.StatusForbidden
	case ENOTFOUND:
		return http.StatusNotFound
	case ECONFLICT:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
