package service

import (
	"context"
	"testing"
	"time"

	"github.com/aussiebroadwan/muster/internal/invites/domain"
	"github.com/aussiebroadwan/muster/internal/invites/store"
	"github.com/aussiebroadwan/muster/internal/invites/store/storetest"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	seeded := f.guardInvitation(t, nil)

	t.Run("found", func(t *testing.T) {
		got, err := f.validator.Validate(ctx, "  GRD-ABC123 ")
		require.NoError(t, err)
		require.Equal(t, seeded.ID, got.ID)
		require.Equal(t, domain.KindGuard, got.Kind)
		require.Equal(t, domain.StatusPending, got.Status)
		require.Equal(t, []string{domain.ProductGuardManagement}, got.Products())
		require.False(t, got.IsExpired)
	})

	t.Run("not found is a plain outcome", func(t *testing.T) {
		_, err := f.validator.Validate(ctx, "GRD-NOPE")
		require.ErrorIs(t, err, ErrInvitationNotFound)
	})

	t.Run("empty code", func(t *testing.T) {
		_, err := f.validator.Validate(ctx, "   ")
		require.ErrorIs(t, err, ErrInvalidRequest)
	})
}

func TestValidateReportsLazyExpiry(t *testing.T) {
	f := newFixture(t)
	f.guardInvitation(t, func(i *domain.Invitation) { i.ExpiresAt = testNow.Add(-time.Minute) })

	got, err := f.validator.Validate(context.Background(), "GRD-ABC123")
	require.NoError(t, err)
	require.Equal(t, domain.StatusPending, got.Status, "status is reported as stored")
	require.True(t, got.IsExpired)

	// Nothing was written.
	require.Equal(t, domain.StatusPending, f.invitation(t, got.ID).Status)
}

func TestValidateDistinguishesRevoked(t *testing.T) {
	f := newFixture(t)
	inv := f.guardInvitation(t, nil)
	_, err := f.store.Invitations().RevokeInvitation(context.Background(), inv.ID, testNow)
	require.NoError(t, err)

	got, err := f.validator.Validate(context.Background(), "GRD-ABC123")
	require.NoError(t, err)
	require.Equal(t, domain.StatusRevoked, got.Status)
	require.False(t, got.IsExpired)
}

func TestValidateCrossKindCollision(t *testing.T) {
	f := newFixture(t)
	f.guardInvitation(t, nil)
	storetest.SeedInvitation(t, f.store, f.org.ID, func(i *domain.Invitation) {
		i.Code = "GRD-ABC123"
		i.Kind = domain.KindProduct
		i.RequestedProducts = []string{"tasks"}
	})

	_, err := f.validator.Validate(context.Background(), "GRD-ABC123")
	require.ErrorIs(t, err, ErrDuplicateInvitationCode)
	require.ErrorIs(t, err, store.ErrIntegrity)

	_, err = f.granter.GrantAndAccept(context.Background(), "GRD-ABC123", "user_42")
	require.ErrorIs(t, err, store.ErrIntegrity)
}
