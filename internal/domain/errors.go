package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures returned by the analytics services.
type ErrorKind string

const (
	// KindDataUnavailable - no bars for a required symbol or an empty aligned window
	KindDataUnavailable ErrorKind = "data_unavailable"
	// KindInvalidWeights - weight vector length or sum does not match the symbols
	KindInvalidWeights ErrorKind = "invalid_weights"
	// KindComputation - degenerate input for a statistic, e.g. zero volatility
	KindComputation ErrorKind = "computation_error"
	// KindInvalidRequest - malformed request parameters
	KindInvalidRequest ErrorKind = "invalid_request"
	// KindInternal - anything else; never carries internal detail to callers
	KindInternal ErrorKind = "internal"
)

// Error is a classified error with a user-facing message.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind, so that
// errors.Is(err, ErrDataUnavailable) matches any data-unavailable error.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrDataUnavailable = &Error{Kind: KindDataUnavailable, Message: "data unavailable"}
	ErrInvalidWeights  = &Error{Kind: KindInvalidWeights, Message: "invalid weights"}
	ErrComputation     = &Error{Kind: KindComputation, Message: "computation error"}
	ErrInvalidRequest  = &Error{Kind: KindInvalidRequest, Message: "invalid request"}
)

// DataUnavailable builds a KindDataUnavailable error.
func DataUnavailable(format string, args ...interface{}) *Error {
	return &Error{Kind: KindDataUnavailable, Message: fmt.Sprintf(format, args...)}
}

// InvalidWeights builds a KindInvalidWeights error.
func InvalidWeights(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidWeights, Message: fmt.Sprintf(format, args...)}
}

// InvalidRequest builds a KindInvalidRequest error.
func InvalidRequest(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidRequest, Message: fmt.Sprintf(format, args...)}
}

// Computation builds a KindComputation error wrapping cause.
func Computation(cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindComputation, Message: fmt.Sprintf(format, args...), Err: cause}
}

// Wrap attaches cause to a classified error and returns it.
func (e *Error) Wrap(cause error) *Error {
	e.Err = cause
	return e
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// PublicMessage returns the message safe to show to callers. Unclassified
// errors get a generic message.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}
