package routegen

import (
	"fmt"
)

// ErrorCode represents a machine-readable error code.
type ErrorCode string

const (
	// CodeAuthoring indicates a malformed schema tree: an endpoint without an
	// id, a duplicate endpoint id, or a structurally invalid node. Raised
	// while building or flattening and fatal to the whole compile.
	CodeAuthoring ErrorCode = "authoring"

	// CodeResolution indicates that evaluating a deferred attribute failed.
	// Fatal to the materialization call; the schema itself is untouched, so
	// callers may retry a later materialization.
	CodeResolution ErrorCode = "resolution"

	// CodeValidation indicates a missing required parameter or a parameter
	// rejected by the configured validator. Local to a single call.
	CodeValidation ErrorCode = "validation"

	// CodeInterpolation indicates a placeholder with no corresponding value
	// at interpolation time. In a correct caller this is unreachable because
	// validation already checked parameter presence, but the template engine
	// guards against it anyway.
	CodeInterpolation ErrorCode = "interpolation"
)

// Error is the standard error envelope for compile and call failures.
// Dispatch errors are never wrapped in an Error; whatever the dispatch
// capability returns is passed through unchanged.
type Error struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError creates a new error with the given code.
func NewError(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Errorf creates a new error with a formatted message.
func Errorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WithDetail returns a new Error with the key-value pair added to details.
func (e *Error) WithDetail(key string, value any) *Error {
	details := make(map[string]any, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
	}
}

// WithDetails returns a new Error with the provided map merged into details.
// For multiple details, this is more efficient than chaining WithDetail calls.
func (e *Error) WithDetails(details map[string]any) *Error {
	if len(details) == 0 {
		return e
	}
	merged := make(map[string]any, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: merged,
	}
}
