package service

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/muster/internal/invites/domain"
	"github.com/aussiebroadwan/muster/internal/invites/identity"
	"github.com/aussiebroadwan/muster/internal/invites/identity/identitytest"
	"github.com/aussiebroadwan/muster/internal/invites/store"
	"github.com/aussiebroadwan/muster/internal/invites/store/drivers/sqlite"
	"github.com/aussiebroadwan/muster/internal/invites/store/storetest"
	"github.com/stretchr/testify/require"
)

const fallbackDomain = "guards.example.com"

var testNow = storetest.Now

func fixedClock() time.Time { return testNow }

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.ApplyMigrations())
	return s
}

type fixture struct {
	store       store.Store
	org         domain.Organization
	validator   *Validator
	resolver    *Resolver
	granter     *Granter
	provisioner *identitytest.Provisioner
	sessions    identitytest.Sessions
	orch        *Orchestrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := newTestStore(t)

	f := &fixture{
		store:       s,
		org:         storetest.SeedOrganization(t, s),
		validator:   &Validator{Store: s, Now: fixedClock},
		resolver:    &Resolver{Store: s, FallbackDomain: fallbackDomain},
		granter:     &Granter{Store: s, Now: fixedClock},
		provisioner: &identitytest.Provisioner{},
		sessions:    identitytest.Sessions{},
	}
	f.orch = &Orchestrator{
		Store:       s,
		Validator:   f.validator,
		Resolver:    f.resolver,
		Granter:     f.granter,
		Provisioner: f.provisioner,
		Sessions:    f.sessions,
	}
	return f
}

// guardInvitation seeds the GRD-ABC123 invitation used across scenarios:
// pending, seven days to run, no identity hint.
func (f *fixture) guardInvitation(t *testing.T, mutate func(*domain.Invitation)) domain.Invitation {
	t.Helper()
	return storetest.SeedInvitation(t, f.store, f.org.ID, func(i *domain.Invitation) {
		i.Code = "GRD-ABC123"
		if mutate != nil {
			mutate(i)
		}
	})
}

func (f *fixture) signIn(userID, email string) string {
	token := "token-" + userID
	f.sessions[token] = identitySession(userID, email, token)
	return token
}

func (f *fixture) invitation(t *testing.T, id string) domain.Invitation {
	t.Helper()
	inv, err := f.store.Invitations().GetInvitationByID(context.Background(), id)
	require.NoError(t, err)
	return inv
}

func (f *fixture) products(t *testing.T, userID string) []string {
	t.Helper()
	list, err := f.store.Entitlements().ListEntitlementsByUser(context.Background(), userID)
	require.NoError(t, err)

	var out []string
	for _, e := range list {
		if e.IsActive {
			out = append(out, e.ProductID)
		}
	}
	return out
}

func identitySession(userID, email, token string) identity.Session {
	return identity.Session{UserID: userID, Email: email, Token: token}
}
