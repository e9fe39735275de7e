package provider

import (
	"errors"
	"fmt"
)

// Error is a provider-side failure. The gateway treats any of them as a
// signal to move on to the next source.
type Error struct {
	Provider string
	Code     string
	Message  string
	Err      error
}

func (e *Error) Error() string {
	prefix := e.Code
	if e.Provider != "" {
		prefix = e.Provider + " " + e.Code
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", prefix, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError creates a coded provider error.
func NewError(providerName, code, message string, err error) *Error {
	return &Error{Provider: providerName, Code: code, Message: message, Err: err}
}

// Error codes
const (
	ErrRequest   = "REQUEST_ERROR"
	ErrTransport = "TRANSPORT_ERROR"
	ErrStatus    = "STATUS_ERROR"
	ErrDecode    = "DECODE_ERROR"
	ErrNoData    = "NO_DATA"
	ErrNoPrice   = "NO_PRICE"
	ErrConfig    = "CONFIG_ERROR"
)

// Code extracts the provider error code from err, or "" when err is not a
// provider error.
func Code(err error) string {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// WithProvider stamps the provider name on a coded error that lacks one.
func WithProvider(name string, err error) error {
	var pe *Error
	if errors.As(err, &pe) && pe.Provider == "" {
		cp := *pe
		cp.Provider = name
		return &cp
	}
	return err
}
