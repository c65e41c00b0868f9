// Package identitytest provides in-memory identity collaborators for tests.
package identitytest

import (
	"context"
	"strings"
	"sync"

	"github.com/aussiebroadwan/muster/internal/invites/identity"
)

// Provisioner is a scripted identity.Provisioner. With no Result set it
// creates an account with an active session, deriving the user id from the
// email.
type Provisioner struct {
	Result func(email string) (identity.Account, error)

	mu    sync.Mutex
	calls []Call
}

// Call records one CreateAccount invocation.
type Call struct {
	Email      string
	Name       string
	Credential string
}

func (p *Provisioner) CreateAccount(ctx context.Context, email, name, credential string) (identity.Account, error) {
	p.mu.Lock()
	p.calls = append(p.calls, Call{Email: email, Name: name, Credential: credential})
	p.mu.Unlock()

	if p.Result != nil {
		return p.Result(email)
	}
	userID := "user_" + strings.SplitN(email, "@", 2)[0]
	return identity.Account{
		UserID: userID,
		Email:  email,
		Session: &identity.Session{
			UserID: userID,
			Email:  email,
			Token:  "session-" + userID,
		},
	}, nil
}

// Calls returns a copy of the recorded calls.
func (p *Provisioner) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Call(nil), p.calls...)
}

// Fail returns a Result func that always fails with kind.
func Fail(kind identity.ProvisionErrorKind) func(string) (identity.Account, error) {
	return func(string) (identity.Account, error) {
		return identity.Account{}, &identity.ProvisionError{Kind: kind}
	}
}

// Sessions maps bearer tokens to sessions.
type Sessions map[string]identity.Session

func (s Sessions) CurrentSession(ctx context.Context, token string) (identity.Session, error) {
	sess, ok := s[token]
	if !ok {
		return identity.Session{}, identity.ErrInvalidSession
	}
	return sess, nil
}
