package mcp

import (
	"errors"
	"fmt"
)

// JSON-RPC and MCP error codes
const (
	CodeParseError       = -32700
	CodeInvalidRequest   = -32600
	CodeMethodNotFound   = -32601
	CodeInvalidParams    = -32602
	CodeInternalError    = -32603
	CodeResourceNotFound = -32002
)

var (
	// ErrMethodNotFound is wrapped by errors for methods outside the dispatch table
	ErrMethodNotFound = errors.New("method not found")

	// ErrToolNotFound is wrapped by errors for calls to unregistered tools
	ErrToolNotFound = errors.New("tool not found")

	// ErrResourceNotFound is wrapped by errors for reads of unregistered resources
	ErrResourceNotFound = errors.New("resource not found")
)

// Error is a protocol-level JSON-RPC error. It doubles as a Go error so
// handlers can return it directly with the code they want surfaced.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`

	cause error
}

// NewError creates a protocol error
func NewError(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Errorf creates a protocol error with a formatted message
func Errorf(code int, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithCause attaches an underlying error, reachable through errors.Is/As
func (e *Error) WithCause(err error) *Error {
	e.cause = err
	return e
}

// WithData attaches the data member of the error object
func (e *Error) WithData(data interface{}) *Error {
	e.Data = data
	return e
}

func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// toError maps an arbitrary handler error onto a protocol error
func toError(err error) *Error {
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	return NewError(CodeInternalError, "Internal error").WithData(err.Error()).WithCause(err)
}

func errMethodNotFound(method string) *Error {
	return Errorf(CodeMethodNotFound, "Method not found: %s", method).WithCause(ErrMethodNotFound)
}

func errToolNotFound(name string) *Error {
	return Errorf(CodeMethodNotFound, "Unknown tool: %s", name).WithCause(ErrToolNotFound)
}

func errResourceNotFound(uri string) *Error {
	return Errorf(CodeResourceNotFound, "Unknown resource: %s", uri).WithCause(ErrResourceNotFound)
}
