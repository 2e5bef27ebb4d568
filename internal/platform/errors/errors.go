// Package errors is the project error type: a stable code for clients and a message for people
package errors

// Import it as perr so it never shadows the standard library

import (
	stderrs "errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies a failure; the numeric values go over the wire so only append
type ErrorCode uint16

const (
	// ErrorCodeUnknown is anything we did not classify
	ErrorCodeUnknown ErrorCode = iota
	// ErrorCodePanic is a recovered panic
	ErrorCodePanic
	// ErrorCodeUnavailable means try again later
	ErrorCodeUnavailable
	// ErrorCodeConflict is a state clash such as reverting with no history
	ErrorCodeConflict
	// ErrorCodeUnauthorized is a missing or rejected credential
	ErrorCodeUnauthorized
	// ErrorCodeForbidden is a known caller without access
	ErrorCodeForbidden
	// ErrorCodeInvalidArgument is input rejected before any request went out
	ErrorCodeInvalidArgument
	// ErrorCodeValidation is a body or query that failed its rules
	ErrorCodeValidation
	// ErrorCodeJSON is a body that is not the JSON we expect
	ErrorCodeJSON
	// ErrorCodeNotFound is a missing view, topic or saved filter
	ErrorCodeNotFound
	// ErrorCodeNetwork is a request to the data API that got no answer
	ErrorCodeNetwork
	// ErrorCodeTimeout is a request that ran out of time
	ErrorCodeTimeout
	// ErrorCodeUpstream is a 5xx or throttled answer from the data API
	ErrorCodeUpstream
)

var codes = [...]struct {
	name   string
	status int
}{
	ErrorCodeUnknown:         {"unknown", http.StatusInternalServerError},
	ErrorCodePanic:           {"panic", http.StatusInternalServerError},
	ErrorCodeUnavailable:     {"unavailable", http.StatusServiceUnavailable},
	ErrorCodeConflict:        {"conflict", http.StatusConflict},
	ErrorCodeUnauthorized:    {"unauthorized", http.StatusUnauthorized},
	ErrorCodeForbidden:       {"forbidden", http.StatusForbidden},
	ErrorCodeInvalidArgument: {"invalid_argument", http.StatusUnprocessableEntity},
	ErrorCodeValidation:      {"validation", http.StatusBadRequest},
	ErrorCodeJSON:            {"json", http.StatusBadRequest},
	ErrorCodeNotFound:        {"not_found", http.StatusNotFound},
	ErrorCodeNetwork:         {"network", http.StatusBadGateway},
	ErrorCodeTimeout:         {"timeout", http.StatusGatewayTimeout},
	ErrorCodeUpstream:        {"upstream", http.StatusBadGateway},
}

// String names the code for logs
func (c ErrorCode) String() string {
	if int(c) < len(codes) {
		return codes[c].name
	}
	return fmt.Sprintf("code(%d)", uint16(c))
}

// Status is the http status a handler answers with
func (c ErrorCode) Status() int {
	if int(c) < len(codes) {
		return codes[c].status
	}
	return http.StatusInternalServerError
}

// Error carries a code, a message and optionally the input field and the operation that failed
type Error struct {
	code  ErrorCode
	msg   string
	field string
	op    string
	cause error
}

// Wire is what clients see of an error
type Wire struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.cause == nil {
		return e.msg
	}
	return e.msg + ": " + e.cause.Error()
}

// Unwrap exposes the cause to errors.Is and errors.As
func (e *Error) Unwrap() error { return e.cause }

// Code returns the classification
func (e *Error) Code() ErrorCode { return e.code }

// Field returns the offending input field, if any
func (e *Error) Field() string { return e.field }

// Op returns the operation label, if any
func (e *Error) Op() string { return e.op }

// As finds the outermost *Error in err's chain
func As(err error) (*Error, bool) {
	var e *Error
	if stderrs.As(err, &e) {
		return e, true
	}
	return nil, false
}

// CodeOf returns err's code, ErrorCodeUnknown for foreign errors
func CodeOf(err error) ErrorCode {
	if e, ok := As(err); ok {
		return e.code
	}
	return ErrorCodeUnknown
}

// IsCode reports whether err is classified as code
func IsCode(err error, code ErrorCode) bool { return CodeOf(err) == code }

// HTTPStatus maps any error to a status, 200 for nil
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return CodeOf(err).Status()
}

// WireFrom renders err for a response body; foreign errors keep their text
func WireFrom(err error) Wire {
	if err == nil {
		return Wire{}
	}
	if e, ok := As(err); ok {
		return Wire{Code: e.code, Message: e.msg, Field: e.field}
	}
	return Wire{Code: ErrorCodeUnknown, Message: err.Error()}
}

// Root returns the innermost cause
func Root(err error) error {
	for err != nil {
		next := stderrs.Unwrap(err)
		if next == nil {
			break
		}
		err = next
	}
	return err
}

// WithField returns a copy of err naming the offending field; foreign errors pass through
func WithField(err error, field string) error {
	return edit(err, func(e *Error) { e.field = field })
}

// WithOp returns a copy of err tagged with the operation; foreign errors pass through
func WithOp(err error, op string) error {
	return edit(err, func(e *Error) { e.op = op })
}

func edit(err error, fn func(*Error)) error {
	e, ok := As(err)
	if !ok {
		return err
	}
	c := *e
	fn(&c)
	return &c
}

// New builds an error with a fixed message
func New(code ErrorCode, msg string) error { return &Error{code: code, msg: msg} }

// Newf builds an error with a formatted message
func Newf(code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...)}
}

// Wrap classifies cause under code
func Wrap(cause error, code ErrorCode, msg string) error {
	return &Error{code: code, msg: msg, cause: cause}
}

// Wrapf classifies cause under code with a formatted message
func Wrapf(cause error, code ErrorCode, format string, a ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, a...), cause: cause}
}

func ctor(code ErrorCode) func(string, ...any) error {
	return func(format string, a ...any) error { return Newf(code, format, a...) }
}

// shorthand constructors, one per code
var (
	NotFoundf     = ctor(ErrorCodeNotFound)
	InvalidArgf   = ctor(ErrorCodeInvalidArgument)
	Validationf   = ctor(ErrorCodeValidation)
	JSONErrf      = ctor(ErrorCodeJSON)
	PanicErrf     = ctor(ErrorCodePanic)
	Unauthorizedf = ctor(ErrorCodeUnauthorized)
	Forbiddenf    = ctor(ErrorCodeForbidden)
	Conflictf     = ctor(ErrorCodeConflict)
	Unavailablef  = ctor(ErrorCodeUnavailable)
	Networkf      = ctor(ErrorCodeNetwork)
	Timeoutf      = ctor(ErrorCodeTimeout)
	Upstreamf     = ctor(ErrorCodeUpstream)
)
