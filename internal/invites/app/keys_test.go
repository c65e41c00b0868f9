package app

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/muster/pkg/cryptox"
	"github.com/aussiebroadwan/muster/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func TestInitSessionKeys(t *testing.T) {
	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	signer, err := jwtx.NewSignerEdDSA("idp-1", pemKey)
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/.well-known/jwks.json", r.URL.Path)
		_ = json.NewEncoder(w).Encode(jwtx.JWKS{Keys: []jwtx.JWK{signer.PublicJWK()}})
	}))
	defer srv.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	cfg := Config{
		IdentityURL:      srv.URL,
		IdentityIssuer:   "idp",
		IdentityTimeout:  time.Second,
		IdentityKeysWait: time.Second,
	}
	keys, verifier, err := InitSessionKeys(context.Background(), cfg, logger)
	require.NoError(t, err)
	require.True(t, keys.IsReady())
	require.Equal(t, 1, strings.Count(buf.String(), "session keys loaded"))

	tok, err := signer.Sign(jwtx.NewSessionClaims("user_1", "a@example.com", nil, time.Hour, "idp", nil, time.Now()))
	require.NoError(t, err)
	claims, err := verifier.Verify(tok)
	require.NoError(t, err)
	require.Equal(t, "user_1", claims.Subject)
}
