package domain_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/muster/internal/invites/domain"
	"github.com/stretchr/testify/require"
)

func TestInvitationProducts(t *testing.T) {
	t.Parallel()

	t.Run("guard always maps to guard-management", func(t *testing.T) {
		inv := domain.Invitation{Kind: domain.KindGuard, RequestedProducts: []string{"time-tracking"}}
		require.Equal(t, []string{domain.ProductGuardManagement}, inv.Products())
	})

	t.Run("product keeps order and drops duplicates", func(t *testing.T) {
		inv := domain.Invitation{
			Kind:              domain.KindProduct,
			RequestedProducts: []string{"tasks", "time-tracking", "tasks", ""},
		}
		require.Equal(t, []string{"tasks", "time-tracking"}, inv.Products())
	})
}

func TestInvitationIsExpired(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	inv := domain.Invitation{ExpiresAt: now}

	require.True(t, inv.IsExpired(now))
	require.True(t, inv.IsExpired(now.Add(time.Second)))
	require.False(t, inv.IsExpired(now.Add(-time.Second)))
}

func TestAcceptedByUser(t *testing.T) {
	t.Parallel()

	inv := domain.Invitation{Status: domain.StatusAccepted, AcceptedBy: "user_42"}
	require.True(t, inv.AcceptedByUser("user_42"))
	require.False(t, inv.AcceptedByUser("user_99"))
	require.False(t, inv.AcceptedByUser(""))

	inv.Status = domain.StatusPending
	require.False(t, inv.AcceptedByUser("user_42"))
}
