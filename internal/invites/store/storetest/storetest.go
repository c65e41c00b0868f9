// Package storetest holds the behaviour every store driver must share. Each
// driver's tests call Run with a constructor for a fresh, migrated store.
package storetest

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/muster/internal/invites/domain"
	"github.com/aussiebroadwan/muster/internal/invites/store"
	"github.com/aussiebroadwan/muster/pkg/idx"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty store with migrations applied.
type Factory func(t *testing.T) store.Store

// Run executes the conformance suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("organizations", func(t *testing.T) { testOrganizations(t, newStore(t)) })
	t.Run("invitation lookup", func(t *testing.T) { testInvitationLookup(t, newStore(t)) })
	t.Run("claim", func(t *testing.T) { testClaim(t, newStore(t)) })
	t.Run("claim is exclusive", func(t *testing.T) { testClaimExclusive(t, newStore(t)) })
	t.Run("revoke and expire", func(t *testing.T) { testRevokeAndExpire(t, newStore(t)) })
	t.Run("entitlement upsert", func(t *testing.T) { testEntitlementUpsert(t, newStore(t)) })
	t.Run("transactions", func(t *testing.T) { testTransactions(t, newStore(t)) })
	t.Run("accounts", func(t *testing.T) { testAccounts(t, newStore(t)) })
}

// Now is the reference instant fixtures are built around.
var Now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// SeedOrganization inserts an organization and returns it.
func SeedOrganization(t *testing.T, s store.Store) domain.Organization {
	t.Helper()
	org := domain.Organization{ID: idx.New().String(), Name: "Acme Security", CreatedAt: Now}
	require.NoError(t, s.Organizations().CreateOrganization(context.Background(), org))
	return org
}

// SeedInvitation inserts a pending invitation, applying mutate before insert.
func SeedInvitation(t *testing.T, s store.Store, orgID string, mutate func(*domain.Invitation)) domain.Invitation {
	t.Helper()
	inv := domain.Invitation{
		ID:             idx.New().String(),
		Code:           "GRD-" + idx.New().String()[20:],
		Kind:           domain.KindGuard,
		OrganizationID: orgID,
		Status:         domain.StatusPending,
		ExpiresAt:      Now.Add(7 * 24 * time.Hour),
		CreatedBy:      "user_admin",
		CreatedAt:      Now,
	}
	if mutate != nil {
		mutate(&inv)
	}
	require.NoError(t, s.Invitations().CreateInvitation(context.Background(), inv))
	return inv
}

func testOrganizations(t *testing.T, s store.Store) {
	ctx := context.Background()
	org := SeedOrganization(t, s)

	got, err := s.Organizations().GetOrganizationByID(ctx, org.ID)
	require.NoError(t, err)
	require.Equal(t, org.Name, got.Name)
	require.True(t, org.CreatedAt.Equal(got.CreatedAt))

	_, err = s.Organizations().GetOrganizationByID(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.ErrorIs(t, s.Organizations().CreateOrganization(ctx, org), store.ErrAlreadyExists)
}

func testInvitationLookup(t *testing.T, s store.Store) {
	ctx := context.Background()
	org := SeedOrganization(t, s)

	inv := SeedInvitation(t, s, org.ID, func(i *domain.Invitation) {
		i.Code = "PRD-XYZ"
		i.Kind = domain.KindProduct
		i.RequestedProducts = []string{"time-tracking", "tasks"}
		i.Hint = domain.IdentityHint{Email: "sam@example.com", Name: "Sam"}
	})

	found, err := s.Invitations().FindInvitationsByCode(ctx, "PRD-XYZ")
	require.NoError(t, err)
	require.Len(t, found, 1)
	got := found[0]
	require.Equal(t, inv.ID, got.ID)
	require.Equal(t, domain.KindProduct, got.Kind)
	require.Equal(t, domain.StatusPending, got.Status)
	require.Equal(t, []string{"time-tracking", "tasks"}, got.RequestedProducts)
	require.Equal(t, "sam@example.com", got.Hint.Email)
	require.Equal(t, "Sam", got.Hint.Name)
	require.True(t, inv.ExpiresAt.Equal(got.ExpiresAt))
	require.Empty(t, got.AcceptedBy)
	require.Nil(t, got.AcceptedAt)

	none, err := s.Invitations().FindInvitationsByCode(ctx, "NOPE")
	require.NoError(t, err)
	require.Empty(t, none)

	_, err = s.Invitations().GetInvitationByID(ctx, "missing")
	require.ErrorIs(t, err, store.ErrNotFound)

	t.Run("same code same kind is rejected", func(t *testing.T) {
		dup := inv
		dup.ID = idx.New().String()
		require.ErrorIs(t, s.Invitations().CreateInvitation(ctx, dup), store.ErrAlreadyExists)
	})

	t.Run("same code across kinds is stored and both are returned", func(t *testing.T) {
		SeedInvitation(t, s, org.ID, func(i *domain.Invitation) { i.Code = "PRD-XYZ" })

		found, err := s.Invitations().FindInvitationsByCode(ctx, "PRD-XYZ")
		require.NoError(t, err)
		require.Len(t, found, 2)
	})
}

func testClaim(t *testing.T, s store.Store) {
	ctx := context.Background()
	org := SeedOrganization(t, s)
	inv := SeedInvitation(t, s, org.ID, nil)
	repo := s.Invitations()

	ok, err := repo.ClaimInvitation(ctx, inv.ID, "user_42", Now)
	require.NoError(t, err)
	require.True(t, ok)

	got, err := repo.GetInvitationByID(ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusAccepted, got.Status)
	require.Equal(t, "user_42", got.AcceptedBy)
	require.NotNil(t, got.AcceptedAt)
	require.True(t, Now.Equal(*got.AcceptedAt))

	ok, err = repo.ClaimInvitation(ctx, inv.ID, "user_42", Now)
	require.NoError(t, err)
	require.False(t, ok, "second claim must not match")

	t.Run("expired invitation is never claimed", func(t *testing.T) {
		expired := SeedInvitation(t, s, org.ID, func(i *domain.Invitation) { i.ExpiresAt = Now.Add(-time.Second) })
		ok, err := repo.ClaimInvitation(ctx, expired.ID, "user_42", Now)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("expiry instant counts as expired", func(t *testing.T) {
		edge := SeedInvitation(t, s, org.ID, func(i *domain.Invitation) { i.ExpiresAt = Now })
		ok, err := repo.ClaimInvitation(ctx, edge.ID, "user_42", Now)
		require.NoError(t, err)
		require.False(t, ok)
	})
}

func testClaimExclusive(t *testing.T, s store.Store) {
	ctx := context.Background()
	org := SeedOrganization(t, s)
	inv := SeedInvitation(t, s, org.ID, nil)

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func(user string) {
			defer wg.Done()
			ok, err := s.Invitations().ClaimInvitation(ctx, inv.ID, user, Now)
			if err == nil && ok {
				wins.Add(1)
			}
		}("user_" + string(rune('a'+i)))
	}
	wg.Wait()

	require.Equal(t, int32(1), wins.Load())
}

func testRevokeAndExpire(t *testing.T, s store.Store) {
	ctx := context.Background()
	org := SeedOrganization(t, s)
	repo := s.Invitations()

	live := SeedInvitation(t, s, org.ID, nil)
	stale1 := SeedInvitation(t, s, org.ID, func(i *domain.Invitation) { i.ExpiresAt = Now.Add(-time.Hour) })
	stale2 := SeedInvitation(t, s, org.ID, func(i *domain.Invitation) { i.ExpiresAt = Now })
	revoked := SeedInvitation(t, s, org.ID, func(i *domain.Invitation) { i.ExpiresAt = Now.Add(-time.Hour) })

	ok, err := repo.RevokeInvitation(ctx, revoked.ID, Now)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.RevokeInvitation(ctx, revoked.ID, Now)
	require.NoError(t, err)
	require.False(t, ok)

	n, err := repo.ExpirePendingInvitations(ctx, Now)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	for id, want := range map[string]domain.Status{
		live.ID:    domain.StatusPending,
		stale1.ID:  domain.StatusExpired,
		stale2.ID:  domain.StatusExpired,
		revoked.ID: domain.StatusRevoked,
	} {
		got, err := repo.GetInvitationByID(ctx, id)
		require.NoError(t, err)
		require.Equal(t, want, got.Status)
	}

	n, err = repo.ExpirePendingInvitations(ctx, Now)
	require.NoError(t, err)
	require.Zero(t, n)
}

func testEntitlementUpsert(t *testing.T, s store.Store) {
	ctx := context.Background()
	repo := s.Entitlements()

	first := domain.Entitlement{
		ID:             idx.New().String(),
		UserID:         "user_42",
		ProductID:      domain.ProductGuardManagement,
		OrganizationID: "org_a",
		GrantedBy:      "user_admin",
		GrantedAt:      Now,
	}
	require.NoError(t, repo.UpsertEntitlement(ctx, first))

	again := first
	again.ID = idx.New().String()
	again.OrganizationID = "org_b"
	again.GrantedBy = "user_other_admin"
	again.GrantedAt = Now.Add(time.Hour)
	require.NoError(t, repo.UpsertEntitlement(ctx, again))

	list, err := repo.ListEntitlementsByUser(ctx, "user_42")
	require.NoError(t, err)
	require.Len(t, list, 1)

	got := list[0]
	require.Equal(t, first.ID, got.ID)
	require.Equal(t, "org_a", got.OrganizationID)
	require.Equal(t, "user_other_admin", got.GrantedBy)
	require.True(t, again.GrantedAt.Equal(got.GrantedAt))
	require.True(t, got.IsActive)

	_, err = repo.GetEntitlement(ctx, "user_99", domain.ProductGuardManagement)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func testTransactions(t *testing.T, s store.Store) {
	ctx := context.Background()

	grant := func(user string) domain.Entitlement {
		return domain.Entitlement{
			ID: idx.New().String(), UserID: user, ProductID: "tasks",
			OrganizationID: "org_a", GrantedBy: "user_admin", GrantedAt: Now,
		}
	}

	err := s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Entitlements().UpsertEntitlement(ctx, grant("user_rolled_back")); err != nil {
			return err
		}
		return context.Canceled
	})
	require.ErrorIs(t, err, context.Canceled)

	_, err = s.Entitlements().GetEntitlement(ctx, "user_rolled_back", "tasks")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.WithTx(ctx, func(tx store.Tx) error {
		return tx.Entitlements().UpsertEntitlement(ctx, grant("user_committed"))
	}))

	_, err = s.Entitlements().GetEntitlement(ctx, "user_committed", "tasks")
	require.NoError(t, err)
}

func testAccounts(t *testing.T, s store.Store) {
	ctx := context.Background()
	repo := s.Accounts()

	require.NoError(t, repo.RememberAccount(ctx, domain.Account{ID: "user_1", Email: "Guard@Example.com", CreatedAt: Now}))

	got, err := repo.GetAccountByEmail(ctx, "guard@example.COM")
	require.NoError(t, err)
	require.Equal(t, "user_1", got.ID)

	require.NoError(t, repo.RememberAccount(ctx, domain.Account{ID: "user_1", Email: "new@example.com", CreatedAt: Now}))
	_, err = repo.GetAccountByEmail(ctx, "guard@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)

	err = repo.RememberAccount(ctx, domain.Account{ID: "user_2", Email: "new@example.com", CreatedAt: Now})
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}
