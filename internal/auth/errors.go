package auth

import (
	"errors"

	"github.com/supabridge/supabridge/internal/supabase"
)

// Kind classifies a facade failure so callers never have to distinguish
// thrown from returned errors.
type Kind string

const (
	// KindProvider is a request the identity provider rejected (bad
	// credentials, duplicate account, expired token).
	KindProvider Kind = "provider"

	// KindPrecondition is a failure detected before any provider call,
	// such as a profile operation without an identity.
	KindPrecondition Kind = "precondition"

	// KindTransport is an unexpected failure reaching the provider.
	KindTransport Kind = "transport"
)

// Error is the single result type for facade failures.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

const genericMessage = "an unexpected error occurred"

var (
	// ErrNoIdentity is returned by profile operations when no identity is
	// present.
	ErrNoIdentity = &Error{Kind: KindPrecondition, Message: "no authenticated identity"}

	// ErrAccountExists is returned by sign-up when the provider reports an
	// already registered email.
	ErrAccountExists = &Error{Kind: KindProvider, Message: "an account with this email already exists"}
)

// classify coerces any failure into an *Error. Provider rejections keep
// their human-readable message; everything else becomes a generic
// transport failure.
func classify(err error) *Error {
	var facadeErr *Error
	if errors.As(err, &facadeErr) {
		return facadeErr
	}

	var apiErr *supabase.APIError
	if errors.As(err, &apiErr) {
		return &Error{Kind: KindProvider, Message: apiErr.Message, Err: err}
	}

	return &Error{Kind: KindTransport, Message: genericMessage, Err: err}
}
