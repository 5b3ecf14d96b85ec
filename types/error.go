package types

import "fmt"

// ErrorCode identifies the failure class of a generation run.
type ErrorCode string

// Input error codes
const (
	ErrConfig            ErrorCode = "CONFIG"
	ErrMissingInput      ErrorCode = "MISSING_INPUT"
	ErrUnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"
)

// Remote error codes
const (
	ErrRemoteCall ErrorCode = "REMOTE_CALL"
	ErrMeshParse  ErrorCode = "MESH_PARSE"
)

// Geometry and output error codes
const (
	ErrInvalidGeometry ErrorCode = "INVALID_GEOMETRY"
	ErrFileWrite       ErrorCode = "FILE_WRITE"
)

// Error represents a structured error with code, message, and metadata.
// Every error is terminal: the run that produced it does not continue.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Stage      Stage     `json:"stage,omitempty"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Cause      error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithStage records the pipeline stage that could not be reached.
func (e *Error) WithStage(stage Stage) *Error {
	e.Stage = stage
	return e
}

// WithHTTPStatus sets the HTTP status code.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}

// GetStage extracts the failed stage from an error.
func GetStage(err error) Stage {
	if e, ok := err.(*Error); ok {
		return e.Stage
	}
	return ""
}
