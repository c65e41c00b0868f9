package jwtx_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/muster/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestClaimsValidation(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := jwtx.NewSessionClaims("user_42", "guard@example.com", nil, time.Minute, "idp", []string{"muster"}, now)

	t.Run("issuer", func(t *testing.T) {
		require.NoError(t, c.ValidateIssuer(""))
		require.NoError(t, c.ValidateIssuer("idp"))
		require.ErrorIs(t, c.ValidateIssuer("other"), jwtx.ErrIssuer)
	})

	t.Run("audience", func(t *testing.T) {
		require.NoError(t, c.ValidateAudience(nil))
		require.NoError(t, c.ValidateAudience([]string{"x", "muster"}))
		require.ErrorIs(t, c.ValidateAudience([]string{"x"}), jwtx.ErrAudience)
	})

	t.Run("expiry with leeway", func(t *testing.T) {
		require.NoError(t, c.ValidateExpiryWithLeeway(now.Add(30*time.Second), 0))
		require.ErrorIs(t, c.ValidateExpiryWithLeeway(now.Add(2*time.Minute), 0), jwtx.ErrExpired)
		require.NoError(t, c.ValidateExpiryWithLeeway(now.Add(61*time.Second), 5*time.Second))
	})

	t.Run("not before", func(t *testing.T) {
		early := c
		early.NotBefore = jwt.NewNumericDate(now.Add(time.Hour))
		require.ErrorIs(t, early.ValidateExpiryWithLeeway(now, time.Second), jwtx.ErrNotYetValid)
	})
}

func TestNewJTIIsRandom(t *testing.T) {
	require.NotEqual(t, jwtx.NewJTI(), jwtx.NewJTI())
}
