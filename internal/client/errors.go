package client

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

var (
	ErrAuthRequired = errors.New("authentication required")
	ErrCancelled    = errors.New("request cancelled")
	ErrUnreachable  = errors.New("server unreachable")
)

const fallbackMessage = "An error occurred"

// ConnectionError means no HTTP response was received from Endpoint.
type ConnectionError struct {
	Endpoint string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("cannot connect to server at %s, the server may be down: %v", e.Endpoint, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

func (e *ConnectionError) Is(target error) bool { return target == ErrUnreachable }

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is a 4xx answer the caller can act on.
type ValidationError struct {
	Status  int
	Message string
	Fields  []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, e.Fields[0].Message)
}

// ServerError is a 5xx or any non-2xx answer without a usable body.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

type Kind int

const (
	KindNone Kind = iota
	KindLocal
	KindConnection
	KindValidation
	KindServer
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindLocal:
		return "local"
	case KindConnection:
		return "connection"
	case KindValidation:
		return "validation"
	case KindServer:
		return "server"
	case KindCancelled:
		return "cancelled"
	}
	return "unknown"
}

func Classify(err error) Kind {
	var (
		ve *ValidationError
		se *ServerError
	)
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrCancelled):
		return KindCancelled
	case errors.Is(err, ErrAuthRequired):
		return KindLocal
	case errors.Is(err, ErrUnreachable):
		return KindConnection
	case errors.As(err, &ve):
		return KindValidation
	case errors.As(err, &se):
		return KindServer
	}
	return KindLocal
}

// FieldMessages flattens the field errors of a ValidationError. The first message per field wins.
func FieldMessages(err error) map[string]string {
	var ve *ValidationError
	if !errors.As(err, &ve) || len(ve.Fields) == 0 {
		return nil
	}
	out := make(map[string]string, len(ve.Fields))
	for _, f := range ve.Fields {
		if _, ok := out[f.Field]; !ok {
			out[f.Field] = f.Message
		}
	}
	return out
}

// Fields lists the fields of err in sorted order.
func Fields(err error) []string {
	m := FieldMessages(err)
	out := make([]string, 0, len(m))
	for f := range m {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

type cancelError struct{ cause error }

func (e cancelError) Error() string { return "request cancelled: " + e.cause.Error() }

func (e cancelError) Unwrap() []error { return []error{ErrCancelled, e.cause} }

func cancelled(cause error) error {
	if errors.Is(cause, ErrCancelled) {
		return cause
	}
	if cause == nil {
		cause = context.Canceled
	}
	return cancelError{cause: cause}
}
