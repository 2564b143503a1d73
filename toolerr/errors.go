// Package toolerr defines the error taxonomy surfaced by tool calls.
// Every error returned from the dispatcher is either an *Error or is wrapped
// into one of KindInternal before it leaves the process.
package toolerr

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/mark3labs/mcp-go/mcp"
)

// Kind is a stable, machine readable error category
type Kind string

const (
	// KindInvalidParams is returned when tool arguments fail validation
	KindInvalidParams Kind = "invalid_params"
	// KindUnknownTool is returned by the validator for a name outside the registry
	KindUnknownTool Kind = "unknown_tool"
	// KindMethodNotFound is returned by the dispatcher for a name outside the registry
	KindMethodNotFound Kind = "method_not_found"
	// KindNotFound is returned when an activity or course module can not be resolved
	KindNotFound Kind = "not_found"
	// KindUpstreamFault is returned when Moodle answered with an exception body
	KindUpstreamFault Kind = "upstream_fault"
	// KindUpstreamUnavailable is returned on transport failure, timeout or non-2xx status
	KindUpstreamUnavailable Kind = "upstream_unavailable"
	// KindUpstreamShape is returned when Moodle answered with an unexpected document shape
	KindUpstreamShape Kind = "upstream_shape_error"
	// KindInternal is returned for any other failure
	KindInternal Kind = "internal_error"
)

// JSON-RPC codes outside of the reserved range used for domain failures
const (
	CodeNotFound            = -32004
	CodeUpstreamFault       = -32010
	CodeUpstreamUnavailable = -32011
	CodeUpstreamShape       = -32012
)

// Error is a typed tool error
type Error struct {
	Kind    Kind
	Message string
	// UpstreamCode is the Moodle errorcode, set for KindUpstreamFault
	UpstreamCode string

	cause error
}

// Error implements error interface
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *Error) Unwrap() error {
	return e.cause
}

// Code returns JSON-RPC error code for the error kind
func (e *Error) Code() int {
	switch e.Kind {
	case KindInvalidParams:
		return mcp.INVALID_PARAMS
	case KindUnknownTool, KindMethodNotFound:
		return mcp.METHOD_NOT_FOUND
	case KindNotFound:
		return CodeNotFound
	case KindUpstreamFault:
		return CodeUpstreamFault
	case KindUpstreamUnavailable:
		return CodeUpstreamUnavailable
	case KindUpstreamShape:
		return CodeUpstreamShape
	default:
		return mcp.INTERNAL_ERROR
	}
}

// InvalidParams returns KindInvalidParams error
func InvalidParams(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidParams, Message: "invalid parameters: " + fmt.Sprintf(format, args...)}
}

// UnknownTool returns KindUnknownTool error
func UnknownTool(name string) *Error {
	return &Error{Kind: KindUnknownTool, Message: fmt.Sprintf("unknown tool: %q", name)}
}

// MethodNotFound returns KindMethodNotFound error
func MethodNotFound(name string) *Error {
	return &Error{Kind: KindMethodNotFound, Message: fmt.Sprintf("method not found: tool %q is not registered", name)}
}

// NotFound returns KindNotFound error
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// UpstreamFault returns KindUpstreamFault error with the Moodle error code
func UpstreamFault(code, message string) *Error {
	return &Error{
		Kind:         KindUpstreamFault,
		UpstreamCode: code,
		Message:      fmt.Sprintf("Moodle Error (%s): %s", code, message),
	}
}

// UpstreamUnavailable returns KindUpstreamUnavailable error
func UpstreamUnavailable(cause error, format string, args ...any) *Error {
	msg := fmt.Sprintf(format, args...)
	if cause != nil {
		msg += ": " + cause.Error()
	}
	return &Error{Kind: KindUpstreamUnavailable, Message: msg, cause: cause}
}

// UpstreamShape returns KindUpstreamShape error
func UpstreamShape(format string, args ...any) *Error {
	return &Error{Kind: KindUpstreamShape, Message: fmt.Sprintf(format, args...)}
}

// Internal wraps the cause into KindInternal error for the tool
func Internal(tool string, cause error) *Error {
	return &Error{
		Kind:    KindInternal,
		Message: fmt.Sprintf("error executing tool '%s': %s", tool, cause.Error()),
		cause:   cause,
	}
}

// As returns the typed error found in the chain
func As(err error) (*Error, bool) {
	var te *Error
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// KindOf returns the kind of the error, or KindInternal for untyped errors
func KindOf(err error) Kind {
	if te, ok := As(err); ok {
		return te.Kind
	}
	return KindInternal
}

// IsKind returns true if the error chain contains an error of the kind
func IsKind(err error, kind Kind) bool {
	te, ok := As(err)
	return ok && te.Kind == kind
}

// Ensure wraps untyped errors into KindInternal for the tool,
// typed errors are returned as is.
func Ensure(tool string, err error) *Error {
	if err == nil {
		return nil
	}
	if te, ok := As(err); ok {
		return te
	}
	return Internal(tool, err)
}
