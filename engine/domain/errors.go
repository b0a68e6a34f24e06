package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by providers and the report codec.
var (
	// ErrNoCredential marks a provider constructed without its required
	// credential. Adapters report it through Available(), never at call time.
	ErrNoCredential = errors.New("credential not configured")
	// ErrSourceDisabled marks a provider switched off by configuration.
	ErrSourceDisabled = errors.New("source disabled")
)

// FetchError classifies a transport-layer failure from a news source. Status
// carries an HTTP-style code; the retry executor consults it to decide
// retry-or-abandon. A provider returning data it legitimately has none of
// must return an empty slice instead.
type FetchError struct {
	Source SourceTag
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: status %d: %v", e.Source, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch %s: status %d", e.Source, e.Status)
}

func (e *FetchError) Unwrap() error { return e.Err }

// NewFetchError builds a classified transport failure.
func NewFetchError(source SourceTag, status int, err error) *FetchError {
	return &FetchError{Source: source, Status: status, Err: err}
}

// FetchStatus extracts the transport status from err. ok is false when err is
// not a classified transport failure (and such errors are never retried).
func FetchStatus(err error) (status int, ok bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Status, true
	}
	return 0, false
}

// ParseError is the only failure mode of response deserialization.
type ParseError struct {
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("parse response: %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("parse response: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// NewParseError wraps a deserialization failure with the offending field.
func NewParseError(field string, err error) *ParseError {
	return &ParseError{Field: field, Err: err}
}
