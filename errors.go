package pond

import (
	"errors"
	"fmt"
)

// ErrorCode identifies one kind of pond error.
type ErrorCode string

const (
	// ErrArtifactNotFound: the artifact has no versions at all.
	ErrArtifactNotFound ErrorCode = "ARTIFACT_NOT_FOUND"
	// ErrVersionNotFound: an explicitly requested version is absent.
	ErrVersionNotFound ErrorCode = "VERSION_NOT_FOUND"
	// ErrVersionAlreadyExists: the target version already exists and the
	// write mode forbids replacing it.
	ErrVersionAlreadyExists ErrorCode = "VERSION_ALREADY_EXISTS"
	// ErrInvalidVersionName: a caller-supplied version string is malformed.
	ErrInvalidVersionName ErrorCode = "INVALID_VERSION_NAME"
	// ErrFormatNotFound: no artifact format can handle the data.
	ErrFormatNotFound ErrorCode = "FORMAT_NOT_FOUND"
	// ErrDatastoreUnavailable: the storage backend failed.
	ErrDatastoreUnavailable ErrorCode = "DATASTORE_UNAVAILABLE"
)

// Error is a structured error with a code, message and optional cause.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Cause }

// NewError creates an Error with the given code and formatted message.
func NewError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithCause attaches a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// CodeOf extracts the error code from an error, or "" when the error is
// not a pond error.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode reports whether the error carries the given code.
func IsCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}
