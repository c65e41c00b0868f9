package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/muster/internal/invites/domain"
	"github.com/stretchr/testify/require"
)

func TestIssueInvitation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	issuer := &Issuer{Store: f.store, Now: fixedClock}

	t.Run("guard with generated code", func(t *testing.T) {
		inv, err := issuer.IssueInvitation(ctx, IssueRequest{
			Kind:           domain.KindGuard,
			OrganizationID: f.org.ID,
			Products:       []string{"ignored"},
			TTL:            48 * time.Hour,
			CreatedBy:      "user_admin",
		})
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(inv.Code, "GRD-"))
		require.Len(t, inv.Code, len("GRD-")+8)
		require.Empty(t, inv.RequestedProducts)
		require.Equal(t, domain.StatusPending, inv.Status)
		require.True(t, testNow.Add(48*time.Hour).Equal(inv.ExpiresAt))

		got, err := f.validator.Validate(ctx, inv.Code)
		require.NoError(t, err)
		require.Equal(t, inv.ID, got.ID)
	})

	t.Run("product with explicit code", func(t *testing.T) {
		inv, err := issuer.IssueInvitation(ctx, IssueRequest{
			Kind:           domain.KindProduct,
			OrganizationID: f.org.ID,
			Products:       []string{"tasks", "rostering"},
			Hint:           domain.IdentityHint{Email: "lee@example.com", Name: "Lee"},
			TTL:            time.Hour,
			CreatedBy:      "user_admin",
			Code:           "PRD-WELCOME",
		})
		require.NoError(t, err)
		require.Equal(t, "PRD-WELCOME", inv.Code)
		require.Equal(t, []string{"tasks", "rostering"}, inv.Products())
	})

	t.Run("code reused across kinds", func(t *testing.T) {
		_, err := issuer.IssueInvitation(ctx, IssueRequest{
			Kind:           domain.KindGuard,
			OrganizationID: f.org.ID,
			TTL:            time.Hour,
			CreatedBy:      "user_admin",
			Code:           "PRD-WELCOME",
		})
		require.ErrorIs(t, err, ErrInvalidRequest)
	})
}

func TestIssueInvitationValidation(t *testing.T) {
	f := newFixture(t)
	issuer := &Issuer{Store: f.store, Now: fixedClock}

	valid := func() IssueRequest {
		return IssueRequest{
			Kind:           domain.KindProduct,
			OrganizationID: f.org.ID,
			Products:       []string{"tasks"},
			TTL:            time.Hour,
			CreatedBy:      "user_admin",
		}
	}

	tests := []struct {
		name   string
		mutate func(*IssueRequest)
	}{
		{"unknown kind", func(r *IssueRequest) { r.Kind = "team" }},
		{"no organization", func(r *IssueRequest) { r.OrganizationID = "" }},
		{"unknown organization", func(r *IssueRequest) { r.OrganizationID = "org_missing" }},
		{"no issuer", func(r *IssueRequest) { r.CreatedBy = "" }},
		{"zero ttl", func(r *IssueRequest) { r.TTL = 0 }},
		{"no products", func(r *IssueRequest) { r.Products = nil }},
		{"product with space", func(r *IssueRequest) { r.Products = []string{"time tracking"} }},
		{"bad hint email", func(r *IssueRequest) { r.Hint.Email = "not-an-email" }},
		{"code with space", func(r *IssueRequest) { r.Code = "PRD-A B" }},
		{"lower-case code", func(r *IssueRequest) { r.Code = "prd-welcome" }},
		{"non-ascii code", func(r *IssueRequest) { r.Code = "PRD-ÉTÉ" }},
		{"code with slash", func(r *IssueRequest) { r.Code = "PRD/A" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(&req)
			_, err := issuer.IssueInvitation(context.Background(), req)
			require.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestRevokeInvitation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	issuer := &Issuer{Store: f.store, Now: fixedClock}

	f.guardInvitation(t, nil)

	inv, err := issuer.RevokeInvitation(ctx, "GRD-ABC123")
	require.NoError(t, err)
	require.Equal(t, domain.StatusRevoked, inv.Status)

	inv, err = issuer.RevokeInvitation(ctx, "GRD-ABC123")
	require.NoError(t, err)
	require.Equal(t, domain.StatusRevoked, inv.Status)

	_, err = f.orch.AcceptInvitation(ctx, "GRD-ABC123", "")
	require.ErrorIs(t, err, ErrInvitationRevoked)

	f.guardInvitation(t, func(i *domain.Invitation) { i.Code = "GRD-USED" })
	_, err = f.granter.GrantAndAccept(ctx, "GRD-USED", "user_42")
	require.NoError(t, err)

	_, err = issuer.RevokeInvitation(ctx, "GRD-USED")
	require.ErrorIs(t, err, ErrInvitationAlreadyClaimed)

	_, err = issuer.RevokeInvitation(ctx, "GRD-MISSING")
	require.ErrorIs(t, err, ErrInvitationNotFound)
}

func TestExplicitCodesKeepDistinctFallbackEmails(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	issuer := &Issuer{Store: f.store, Now: fixedClock}

	req := IssueRequest{Kind: domain.KindGuard, OrganizationID: f.org.ID, TTL: time.Hour, CreatedBy: "user_admin"}

	req.Code = "GRD-A-B"
	_, err := issuer.IssueInvitation(ctx, req)
	require.NoError(t, err)

	// Each would fold onto grd-a-b@ if accepted.
	for _, code := range []string{"GRD-A B", "grd-a-b", "GRD-A\tB"} {
		req.Code = code
		_, err = issuer.IssueInvitation(ctx, req)
		require.ErrorIs(t, err, ErrInvalidRequest, code)
	}
}
