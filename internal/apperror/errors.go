// internal/apperror/errors.go
package apperror

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Code is the short machine readable error code returned to callers
type Code string

const (
	CodeConnectionOpenFailure      Code = "CONNECTION_OPEN_FAILURE"
	CodeConnectionCloseFailure     Code = "CONNECTION_CLOSE_FAILURE"
	CodeCommandCompileFailure      Code = "COMMAND_COMPILE_FAILURE"
	CodeVendorCommunicationFailure Code = "VENDOR_COMMUNICATION_FAILURE"
	CodePermissionDenied           Code = "PERMISSION_DENIED"
	CodeInvalidArgument            Code = "INVALID_ARGUMENT"
	CodeNotImplemented             Code = "NOT_IMPLEMENTED"
	CodeTimeout                    Code = "TIMEOUT"
	CodeInternal                   Code = "INTERNAL"
)

// Error is the uniform error result crossing the bridge boundary
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by code
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return t.Code == e.Code && t.Message == ""
	}
	return false
}

// New creates an error without a cause
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates an error carrying a cause
func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// Sentinels usable with errors.Is
var (
	ErrConnectionOpenFailure      = &Error{Code: CodeConnectionOpenFailure}
	ErrConnectionCloseFailure     = &Error{Code: CodeConnectionCloseFailure}
	ErrCommandCompileFailure      = &Error{Code: CodeCommandCompileFailure}
	ErrVendorCommunicationFailure = &Error{Code: CodeVendorCommunicationFailure}
	ErrPermissionDenied           = &Error{Code: CodePermissionDenied}
	ErrInvalidArgument            = &Error{Code: CodeInvalidArgument}
	ErrNotImplemented             = &Error{Code: CodeNotImplemented}
)

func ConnectionOpenFailure(err error) *Error {
	return Wrap(CodeConnectionOpenFailure, "failed to open printer connection", err)
}

func ConnectionCloseFailure(err error) *Error {
	return Wrap(CodeConnectionCloseFailure, "failed to close printer connection", err)
}

func CommandCompileFailure(message string, err error) *Error {
	return Wrap(CodeCommandCompileFailure, message, err)
}

func VendorCommunicationFailure(err error) *Error {
	return Wrap(CodeVendorCommunicationFailure, "printer communication failed", err)
}

func PermissionDenied(message string) *Error {
	return New(CodePermissionDenied, message)
}

func InvalidArgument(message string) *Error {
	return New(CodeInvalidArgument, message)
}

func NotImplemented(method string) *Error {
	return New(CodeNotImplemented, fmt.Sprintf("method %q is not implemented", method))
}

// From converts any error into an *Error. Errors that already carry a code
// keep it; context errors become TIMEOUT; everything else is INTERNAL.
func From(err error) *Error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return Wrap(CodeTimeout, "operation did not complete in time", err)
	}

	return Wrap(CodeInternal, "internal error", err)
}

// CodeOf returns the code of err, or an empty code for nil
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	return From(err).Code
}

// HTTPStatus maps an error code to an HTTP status
func HTTPStatus(code Code) int {
	switch code {
	case CodeInvalidArgument, CodeCommandCompileFailure:
		return http.StatusBadRequest
	case CodePermissionDenied:
		return http.StatusForbidden
	case CodeNotImplemented:
		return http.StatusNotImplemented
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeConnectionOpenFailure, CodeConnectionCloseFailure, CodeVendorCommunicationFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
