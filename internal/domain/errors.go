package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidPrompt   = errors.New("prompt is required")
	ErrInvalidFilename = errors.New("invalid filename")
)

// Kind classifies a pipeline failure.
type Kind string

const (
	KindAuth          Kind = "auth_failure"
	KindTimeout       Kind = "request_timeout"
	KindHTTP          Kind = "http_error"
	KindNetwork       Kind = "network_error"
	KindSafety        Kind = "safety_filter"
	KindResponseShape Kind = "response_shape"
	KindDecode        Kind = "decode_error"
	KindImageProcess  Kind = "image_process"
	KindIO            Kind = "io_error"
)

// Error is the typed failure produced by the generation pipeline. Message is
// safe to show to end users; Detail carries diagnostics for the logs.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Detail  string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError builds an Error of the given kind.
func NewError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// KindOf returns the kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
