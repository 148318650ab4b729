package dashboard

import (
	"errors"
	"fmt"
)

var (
	ErrNotAuthenticated = errors.New("not logged in")
	ErrForbiddenRole    = errors.New("role not allowed for this action")
	ErrViewClosed       = errors.New("view closed")
)

// ValidationError is bad input caught before any network use.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// RemoteError is a non-2xx answer from the backend.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// TransportError is a request that never got an answer.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// GatewayError is a failure reported by the payment widget. The attempt can
// be retried, possibly with another method.
type GatewayError struct {
	Err error
}

func (e *GatewayError) Error() string { return "payment gateway: " + e.Err.Error() }
func (e *GatewayError) Unwrap() error { return e.Err }

// VerificationError means the backend refused the payment receipt. The
// attempt is dead; a new one needs a fresh checkout session.
type VerificationError struct {
	Message string
	Err     error
}

func (e *VerificationError) Error() string { return "payment verification failed: " + e.Message }
func (e *VerificationError) Unwrap() error { return e.Err }
