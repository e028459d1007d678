package gateway

import (
	"errors"
	"fmt"
)

// Kind classifies a gateway failure. Callers branch on this to decide
// between a banner, a toast or an inline message; nothing is thrown.
type Kind string

const (
	// KindNetwork is a transport failure or timeout.
	KindNetwork Kind = "network"
	// KindBadStatus is a non-2xx response from the backend.
	KindBadStatus Kind = "bad_status"
	// KindBadShape means the response body did not decode.
	KindBadShape Kind = "bad_shape"
	// KindConflict is the backend refusing a write, e.g. a device that
	// already hosts an open session.
	KindConflict Kind = "conflict"
	// KindUnauthorized is reserved; the backend has no auth today.
	KindUnauthorized Kind = "unauthorized"
)

// Error is the only error type that crosses the gateway boundary.
type Error struct {
	Kind   Kind
	Op     string
	Status int // HTTP status, when Kind is BadStatus or Conflict
	cause  error
}

func (e *Error) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Kind, e.Status)
	case e.cause != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.cause)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.cause }

// KindOf extracts the failure kind, or "" for non-gateway errors.
func KindOf(err error) Kind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return ""
}

func networkErr(op string, cause error) *Error {
	return &Error{Kind: KindNetwork, Op: op, cause: cause}
}

func shapeErr(op string, cause error) *Error {
	return &Error{Kind: KindBadShape, Op: op, cause: cause}
}

func statusErr(op string, status int) *Error {
	kind := KindBadStatus
	switch status {
	case 401, 403:
		kind = KindUnauthorized
	case 409:
		kind = KindConflict
	}
	return &Error{Kind: kind, Op: op, Status: status}
}
