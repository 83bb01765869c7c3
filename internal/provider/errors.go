package provider

import (
	"errors"
	"fmt"
)

// ErrorKind classifies provider failures so callers can pattern-match instead
// of catching a generic error.
type ErrorKind string

const (
	// KindAuth indicates bad, expired, or unrefreshable credentials.
	KindAuth ErrorKind = "auth"
	// KindFetch indicates a transient network or API failure while listing or
	// fetching messages or bodies.
	KindFetch ErrorKind = "fetch"
	// KindRateLimit indicates the provider signaled throttling. Callers may
	// apply backoff; none is implemented yet.
	KindRateLimit ErrorKind = "rate_limit"
)

// Error is a provider failure tagged with its kind. Errors raised inside
// Connect/FetchMessages/FetchMessageBody propagate unmodified up to the job
// executor, which records them verbatim on the job row.
type Error struct {
	Kind     ErrorKind
	Provider string
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s provider %s error: %s: %v", e.Provider, e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s provider %s error: %s", e.Provider, e.Kind, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewAuthError creates a provider error of kind auth.
func NewAuthError(providerName, message string, cause error) *Error {
	return &Error{Kind: KindAuth, Provider: providerName, Message: message, Cause: cause}
}

// NewFetchError creates a provider error of kind fetch.
func NewFetchError(providerName, message string, cause error) *Error {
	return &Error{Kind: KindFetch, Provider: providerName, Message: message, Cause: cause}
}

// NewRateLimitError creates a provider error of kind rate_limit.
func NewRateLimitError(providerName, message string, cause error) *Error {
	return &Error{Kind: KindRateLimit, Provider: providerName, Message: message, Cause: cause}
}

func isKind(err error, kind ErrorKind) bool {
	var perr *Error
	return errors.As(err, &perr) && perr.Kind == kind
}

// IsAuth checks if an error is an auth provider error.
func IsAuth(err error) bool {
	return isKind(err, KindAuth)
}

// IsFetch checks if an error is a fetch provider error.
func IsFetch(err error) bool {
	return isKind(err, KindFetch)
}

// IsRateLimit checks if an error is a rate_limit provider error.
func IsRateLimit(err error) bool {
	return isKind(err, KindRateLimit)
}

// KindOf returns the error kind, or empty string for non-provider errors.
func KindOf(err error) ErrorKind {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind
	}
	return ""
}
