package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeAuth      ErrorType = "auth"
	ErrorTypeProtocol  ErrorType = "protocol"
	ErrorTypeNetwork   ErrorType = "network"
	ErrorTypeDownload  ErrorType = "download"
	ErrorTypeRateLimit ErrorType = "rate_limit"
	ErrorTypeIO        ErrorType = "io"
	ErrorTypeUnknown   ErrorType = "unknown"
)

// Error represents a typed failure with an optional HTTP status code
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s error", e.Type)
	if e.Code != 0 {
		msg = fmt.Sprintf("%s (code %d)", msg, e.Code)
	}
	msg += ": " + e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same type and message, so typed
// sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Type == e.Type && t.Message == e.Message && (t.Code == 0 || t.Code == e.Code)
}

// New creates a typed error
func New(errorType ErrorType, message string) *Error {
	return &Error{Type: errorType, Message: message}
}

// Wrap creates a typed error around an underlying cause
func Wrap(errorType ErrorType, message string, err error) *Error {
	return &Error{Type: errorType, Message: message, Err: err}
}

// WithCode creates a typed error carrying an HTTP status code
func WithCode(errorType ErrorType, code int, message string) *Error {
	return &Error{Type: errorType, Message: message, Code: code}
}

// TypeOf returns the type of the first *Error in the chain, or ErrorTypeUnknown
func TypeOf(err error) ErrorType {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Type
	}
	return ErrorTypeUnknown
}

// IsType reports whether err carries the given type anywhere in its chain
func IsType(err error, errorType ErrorType) bool {
	for err != nil {
		var typed *Error
		if !errors.As(err, &typed) {
			return false
		}
		if typed.Type == errorType {
			return true
		}
		err = typed.Err
	}
	return false
}
