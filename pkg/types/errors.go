package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a retrieval failure. Every component-level failure is
// surfaced to the pipeline as one of these kinds, unchanged.
type ErrorKind string

const (
	ErrInvalidURL          ErrorKind = "invalid_url"
	ErrNoCredentials       ErrorKind = "no_credentials"
	ErrQuotaExceeded       ErrorKind = "quota_exceeded"
	ErrNotFound            ErrorKind = "not_found"
	ErrAllMirrorsExhausted ErrorKind = "all_mirrors_exhausted"
	ErrNoFormats           ErrorKind = "no_formats"
	ErrExtractionFailed    ErrorKind = "extraction_failed"
	ErrTranscodeFailed     ErrorKind = "transcode_failed"
	ErrOutputMissing       ErrorKind = "output_missing"
	ErrUpstream            ErrorKind = "upstream_error"
)

// Error is a kind-tagged error. It wraps an optional cause so callers can use
// errors.Is/As on the chain while handlers branch on the kind alone.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError creates a kind-tagged error with a formatted message.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError tags an underlying error with a kind and context message.
func WrapError(kind ErrorKind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of err, or ErrUpstream when err carries no kind.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ErrUpstream
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
