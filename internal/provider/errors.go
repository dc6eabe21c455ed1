package provider

import "fmt"

// ErrorKind classifies provider failures.
type ErrorKind string

const (
	// ErrAuth means the backend rejected our credentials.
	ErrAuth ErrorKind = "auth"
	// ErrNetwork means the backend could not be reached.
	ErrNetwork ErrorKind = "network"
	// ErrBadResponse means the backend answered with something we could not use.
	ErrBadResponse ErrorKind = "bad_response"
)

// Error is a classified provider failure. The orchestrator surfaces it to the
// caller as a chat-level error; Kind lets front ends phrase it usefully.
type Error struct {
	Provider string
	Kind     ErrorKind
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s provider: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(provider string, kind ErrorKind, err error) *Error {
	return &Error{Provider: provider, Kind: kind, Err: err}
}
