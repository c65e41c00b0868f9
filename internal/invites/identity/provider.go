// Package identity adapts the external identity provider. The provider owns
// credentials and sessions; this side only creates accounts on behalf of an
// invitation and reads the session a caller presents.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidSession means a presented session token could not be verified.
var ErrInvalidSession = errors.New("identity: invalid session")

// Session is an authenticated provider session.
type Session struct {
	UserID    string
	Email     string
	Token     string
	ExpiresAt time.Time
}

// Account is the result of a successful CreateAccount. Session is nil when
// the provider created the account without signing it in.
type Account struct {
	UserID  string
	Email   string
	Session *Session
}

// ProvisionErrorKind classifies provider failures. Callers switch on it.
type ProvisionErrorKind int

const (
	ProvisionUnknown ProvisionErrorKind = iota
	ProvisionAlreadyRegistered
	ProvisionConfirmationRequired
	ProvisionUnavailable
)

func (k ProvisionErrorKind) String() string {
	switch k {
	case ProvisionAlreadyRegistered:
		return "already_registered"
	case ProvisionConfirmationRequired:
		return "confirmation_required"
	case ProvisionUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// ProvisionError is the only error type CreateAccount returns.
type ProvisionError struct {
	Kind ProvisionErrorKind

	// UserID is set when the provider created the account but needs the
	// owner to confirm it first.
	UserID string

	Err error
}

func (e *ProvisionError) Error() string {
	if e.Err == nil {
		return "identity: provision " + e.Kind.String()
	}
	return fmt.Sprintf("identity: provision %s: %v", e.Kind, e.Err)
}

func (e *ProvisionError) Unwrap() error { return e.Err }

// ProvisionKind extracts the kind from err, or ProvisionUnknown.
func ProvisionKind(err error) ProvisionErrorKind {
	var pe *ProvisionError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ProvisionUnknown
}

// Provisioner creates accounts at the identity provider.
type Provisioner interface {
	// CreateAccount registers email with a single-use credential. Failures
	// are always *ProvisionError.
	CreateAccount(ctx context.Context, email, name, credential string) (Account, error)
}

// SessionResolver turns a presented bearer token into the current session.
type SessionResolver interface {
	// CurrentSession returns ErrInvalidSession (wrapped) for tokens that
	// fail verification.
	CurrentSession(ctx context.Context, token string) (Session, error)
}
