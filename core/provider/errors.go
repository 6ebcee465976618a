package provider

import (
	"errors"
	"fmt"
)

// ErrorKind 错误类型. Every failure signalled by a provider carries one of these.
type ErrorKind string

const (
	KindAuthRequired       ErrorKind = "auth_required"
	KindContentUnavailable ErrorKind = "content_unavailable"
	KindNotSupported       ErrorKind = "not_supported"
	KindNetworkError       ErrorKind = "network_error"
)

// Error is the failure type returned by provider operations.
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

// Is matches any *Error of the same kind, so errors.Is(err, ErrAuthRequired) works
// for every auth_required failure regardless of its message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrAuthRequired       = &Error{Kind: KindAuthRequired, Message: "authentication required"}
	ErrContentUnavailable = &Error{Kind: KindContentUnavailable, Message: "content unavailable"}
	ErrNotSupported       = &Error{Kind: KindNotSupported, Message: "operation not supported"}
	ErrNetwork            = &Error{Kind: KindNetworkError, Message: "network error"}
)

// NewError builds a provider error.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError builds a provider error around a lower level cause.
func WrapError(kind ErrorKind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of the first provider error in err's chain, or "".
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// Routing errors. They point at a missing registration and are not retryable.
var (
	ErrNoProviderForScheme = errors.New("no provider for scheme")
	ErrProviderNotFound    = errors.New("provider not found")
	ErrNoActiveProvider    = errors.New("no active provider")
)
