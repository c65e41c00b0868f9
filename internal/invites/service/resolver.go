package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/aussiebroadwan/muster/internal/invites/identity"
	"github.com/aussiebroadwan/muster/internal/invites/store"
	"github.com/aussiebroadwan/muster/pkg/slogx"
)

// Decision is what the caller has to do before entitlements can be granted.
type Decision int

const (
	// DecisionSignUp: nobody is signed in and no known account owns the
	// target email, so one should be created.
	DecisionSignUp Decision = iota + 1
	// DecisionSignIn: the target email belongs to an account we've seen.
	DecisionSignIn
	// DecisionSatisfied: a session is present; grant to that user.
	DecisionSatisfied
)

func (d Decision) String() string {
	switch d {
	case DecisionSignUp:
		return "sign_up_required"
	case DecisionSignIn:
		return "sign_in_required"
	case DecisionSatisfied:
		return "already_satisfied"
	default:
		return "unknown"
	}
}

// Resolution is the outcome of Resolve. Email and Name are the sign-up or
// sign-in target; UserID is set for DecisionSatisfied.
type Resolution struct {
	Decision Decision
	Email    string
	Name     string
	UserID   string

	// HoldsAll is true when the session user already has every product
	// active. Acceptance still runs the grant either way.
	HoldsAll bool
}

// Resolver decides how an acceptance attempt proceeds. It never calls the
// identity provider.
type Resolver struct {
	Store store.Store

	// FallbackDomain receives synthetic addresses for invitations issued
	// without an email hint.
	FallbackDomain string
}

func (r *Resolver) Resolve(ctx context.Context, inv ValidatedInvitation, session *identity.Session) (Resolution, error) {
	log := slogx.FromContext(ctx)

	if session != nil && session.UserID != "" {
		holdsAll, err := r.holdsAll(ctx, session.UserID, inv.Products())
		if err != nil {
			return Resolution{}, err
		}
		return Resolution{
			Decision: DecisionSatisfied,
			UserID:   session.UserID,
			Email:    session.Email,
			HoldsAll: holdsAll,
		}, nil
	}

	email := strings.TrimSpace(inv.Hint.Email)
	if email == "" {
		email = FallbackEmail(inv.Code, r.FallbackDomain)
	}
	res := Resolution{Email: email, Name: inv.Hint.Name}

	_, err := r.Store.Accounts().GetAccountByEmail(ctx, email)
	switch {
	case err == nil:
		res.Decision = DecisionSignIn
	case errors.Is(err, store.ErrNotFound):
		res.Decision = DecisionSignUp
	default:
		log.Error("failed to look up known account", slog.Any("error", err))
		return Resolution{}, err
	}
	return res, nil
}

func (r *Resolver) holdsAll(ctx context.Context, userID string, products []string) (bool, error) {
	held, err := r.Store.Entitlements().ListEntitlementsByUser(ctx, userID)
	if err != nil {
		return false, err
	}

	active := make(map[string]bool, len(held))
	for _, e := range held {
		if e.IsActive {
			active[e.ProductID] = true
		}
	}
	for _, p := range products {
		if !active[p] {
			return false, nil
		}
	}
	return true, nil
}

// FallbackEmail derives the synthetic address for code: lower-cased, with
// anything outside [a-z0-9._-] replaced by '-'. The same code always yields
// the same address.
func FallbackEmail(code, domainName string) string {
	local := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			return r
		default:
			return '-'
		}
	}, strings.ToLower(strings.TrimSpace(code)))

	return local + "@" + domainName
}
