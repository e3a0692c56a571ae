package api

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures at the HTTP boundary.
type ErrorKind string

const (
	// KindTransport: the request never produced a response.
	KindTransport ErrorKind = "transport"
	// KindStatus: the server answered with a non-2xx status.
	KindStatus ErrorKind = "status"
	// KindDecode: the response body was not the expected JSON.
	KindDecode ErrorKind = "decode"
	// KindEncode: the request body could not be built.
	KindEncode ErrorKind = "encode"
)

// Error is returned by every Client method. Message is what a user should
// see; Detail carries the server-provided error text for status failures.
type Error struct {
	Kind       ErrorKind
	Op         string
	StatusCode int
	Message    string
	Detail     string
	Err        error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func statusError(op string, code int, detail string) *Error {
	return &Error{
		Kind:       KindStatus,
		Op:         op,
		StatusCode: code,
		Message:    fmt.Sprintf("Request failed with status code %d", code),
		Detail:     detail,
	}
}

func wrapError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Message: err.Error(), Err: err}
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == KindStatus && apiErr.StatusCode == 404
}
