package protocol

import "errors"

// Code is the machine-readable error code carried in a failed Response.
type Code string

const (
	// CodeUnknown marks a failed response that arrived without an error body.
	CodeUnknown Code = "UNKNOWN"

	CodeUnknownMethod     Code = "UNKNOWN_METHOD"
	CodeInvalidParams     Code = "INVALID_PARAMS"
	CodePermissionDenied  Code = "PERMISSION_DENIED"
	CodeServiceDisabled   Code = "SERVICE_DISABLED"
	CodeInvalidPermission Code = "INVALID_PERMISSION"
	CodeException         Code = "EXCEPTION"
	CodeCustomError       Code = "CUSTOM_ERROR"
)

var errMissingID = errors.New("response id is required")

// Error is the {code, message} pair of a failed Response.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Is reports whether target carries the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewError creates a protocol error with a code and message.
func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// CodeOf extracts the code from err, or "" when err carries none.
func CodeOf(err error) Code {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Code
	}
	return ""
}
