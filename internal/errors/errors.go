package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode represents application error codes
type ErrorCode int

const (
	ErrCodeConfiguration   ErrorCode = 100
	ErrCodeInvalidArgument ErrorCode = 101
	ErrCodeIO              ErrorCode = 102
	ErrCodeEnumeration     ErrorCode = 103

	// API only
	ErrCodeUnauthorized ErrorCode = 401
	ErrCodeInternal     ErrorCode = 500
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeConfiguration:
		return "configuration"
	case ErrCodeInvalidArgument:
		return "invalid_argument"
	case ErrCodeIO:
		return "io"
	case ErrCodeEnumeration:
		return "enumeration"
	case ErrCodeUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

// AppError represents a structured application error
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Path       string    `json:"path,omitempty"`
	HTTPStatus int       `json:"-"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg = fmt.Sprintf("%s [%s]", msg, e.Path)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches any AppError carrying the same code, so sentinels like
// ErrIO work with errors.Is.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Message == "" && t.Code == e.Code
}

// Code sentinels for errors.Is
var (
	ErrConfiguration   = &AppError{Code: ErrCodeConfiguration}
	ErrInvalidArgument = &AppError{Code: ErrCodeInvalidArgument}
	ErrIO              = &AppError{Code: ErrCodeIO}
	ErrEnumeration     = &AppError{Code: ErrCodeEnumeration}
)

// NewConfiguration creates a configuration error
func NewConfiguration(message string) *AppError {
	return &AppError{
		Code:       ErrCodeConfiguration,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewInvalidArgument creates an invalid argument error
func NewInvalidArgument(message string) *AppError {
	return &AppError{
		Code:       ErrCodeInvalidArgument,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewIO creates an I/O error for path
func NewIO(message, path string, cause error) *AppError {
	return &AppError{
		Code:       ErrCodeIO,
		Message:    message,
		Path:       path,
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewEnumeration creates an error for a tree root that cannot be listed
func NewEnumeration(message, path string, cause error) *AppError {
	return &AppError{
		Code:       ErrCodeEnumeration,
		Message:    message,
		Path:       path,
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// NewUnauthorized creates an unauthorized error
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       ErrCodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewInternalWithCause creates an internal error with cause
func NewInternalWithCause(message string, cause error) *AppError {
	return &AppError{
		Code:       ErrCodeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Cause:      cause,
	}
}

// CodeOf returns the code of the first AppError in err's chain.
func CodeOf(err error) (ErrorCode, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code, true
	}
	return 0, false
}

// ToHTTPStatus converts an error to HTTP status code
func ToHTTPStatus(err error) int {
	var appErr *AppError
	if stderrors.As(err, &appErr) && appErr.HTTPStatus != 0 {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}
