package inference

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind classifies why a generation call failed.
type Kind string

const (
	KindTimeout   Kind = "timeout"
	KindNetwork   Kind = "network"
	KindStatus    Kind = "status"
	KindMalformed Kind = "malformed"
)

// ErrNotConfigured is returned by New when no endpoint URL is set.
var ErrNotConfigured = errors.New("inference endpoint not configured")

// Error is returned by Generate for every failed call.
type Error struct {
	Kind       Kind
	Shape      string
	StatusCode int // set for KindStatus
	Err        error
}

func (e *Error) Error() string {
	if e.Kind == KindStatus {
		return fmt.Sprintf("inference %s: %s (HTTP %d): %v", e.Shape, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("inference %s: %s: %v", e.Shape, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the failure kind of err, or "" if err is not an *Error.
func KindOf(err error) Kind {
	var ie *Error
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return ""
}

// transportError classifies an error from sending the request.
func transportError(shape string, err error) *Error {
	var ne net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ne) && ne.Timeout()) {
		return &Error{Kind: KindTimeout, Shape: shape, Err: err}
	}
	return &Error{Kind: KindNetwork, Shape: shape, Err: err}
}

func statusError(shape string, code int, body string) *Error {
	return &Error{Kind: KindStatus, Shape: shape, StatusCode: code, Err: fmt.Errorf("unexpected response: %s", body)}
}

func malformedError(shape string, err error) *Error {
	return &Error{Kind: KindMalformed, Shape: shape, Err: err}
}
