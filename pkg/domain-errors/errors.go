// Package domainerrors defines the error taxonomy shared by services and handlers.
//
// Services return *Error values carrying a Code; transport code maps the code to an
// HTTP status via httputil.WriteError. Stores should not return these directly, they
// return sentinel errors which services translate.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code categorizes an error for callers and for HTTP status mapping.
type Code string

const (
	CodeBadRequest      Code = "bad_request"
	CodeValidation      Code = "validation_error"
	CodeNotFound        Code = "not_found"
	CodeUnauthorized    Code = "unauthorized"
	CodeConfiguration   Code = "configuration_incomplete"
	CodeUpstreamGateway Code = "upstream_gateway_error"
	CodeUpstreamTimeout Code = "upstream_timeout"
	CodeStorage         Code = "storage_error"
	CodeInternal        Code = "internal_error"
)

// Upstream carries what a remote party said about a failed call.
type Upstream struct {
	Status      int
	Description string
}

// Error is a categorized domain error.
type Error struct {
	Code     Code
	Message  string
	Err      error
	Upstream *Upstream
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates an error with the given code and message.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Newf is New with formatting.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

// WithUpstream records the remote status and description on a copy of e.
func (e *Error) WithUpstream(status int, description string) *Error {
	cp := *e
	cp.Upstream = &Upstream{Status: status, Description: description}
	return &cp
}

// As extracts the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// CodeOf returns the code of the first *Error in the chain, or CodeInternal.
func CodeOf(err error) Code {
	if de, ok := As(err); ok {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code Code) bool {
	de, ok := As(err)
	return ok && de.Code == code
}

// Is is an alias of HasCode kept for handler readability.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}
