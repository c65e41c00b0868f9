package invites_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/muster/internal/invites/app"
	"github.com/aussiebroadwan/muster/internal/invites/domain"
	"github.com/aussiebroadwan/muster/internal/invites/service"
	"github.com/aussiebroadwan/muster/internal/invites/store"
	"github.com/aussiebroadwan/muster/pkg/cryptox"
	"github.com/aussiebroadwan/muster/pkg/idx"
	"github.com/aussiebroadwan/muster/pkg/invitesdk"
	"github.com/aussiebroadwan/muster/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

/*
 * End-to-end tests run the full application in-process against a fake
 * identity provider that serves a JWKS and the account creation endpoint.
 */

const (
	idpIssuer      = "test-idp"
	fallbackDomain = "guards.example.com"
)

// fakeIdP stands in for the identity provider.
type fakeIdP struct {
	t      *testing.T
	signer jwtx.Signer
	server *httptest.Server

	mu       sync.Mutex
	accounts map[string]string // email -> user id
	confirm  bool
	down     bool
}

func newFakeIdP(t *testing.T) *fakeIdP {
	t.Helper()

	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	signer, err := jwtx.NewSignerEdDSA("idp-key-1", pemKey)
	require.NoError(t, err)

	idp := &fakeIdP{t: t, signer: signer, accounts: map[string]string{}}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /.well-known/jwks.json", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, jwtx.JWKS{Keys: []jwtx.JWK{signer.PublicJWK()}})
	})
	mux.HandleFunc("POST /v1/accounts", idp.createAccount)

	idp.server = httptest.NewServer(mux)
	t.Cleanup(idp.server.Close)
	return idp
}

func (p *fakeIdP) createAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid_request"})
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case p.down:
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "unavailable"})
		return
	case p.accounts[req.Email] != "":
		writeJSON(w, http.StatusConflict, map[string]string{"error": "email_taken"})
		return
	}

	userID := "usr_" + idx.New().String()
	p.accounts[req.Email] = userID

	if p.confirm {
		writeJSON(w, http.StatusAccepted, map[string]string{"user_id": userID, "email": req.Email})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"user_id": userID,
		"email":   req.Email,
		"session": map[string]any{
			"access_token": p.token(userID, req.Email),
			"expires_in":   3600,
		},
	})
}

// register creates an account directly, as if the user signed up elsewhere.
func (p *fakeIdP) register(email string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	userID := "usr_" + idx.New().String()
	p.accounts[email] = userID
	return userID
}

func (p *fakeIdP) setDown(down bool) {
	p.mu.Lock()
	p.down = down
	p.mu.Unlock()
}

func (p *fakeIdP) setConfirm(confirm bool) {
	p.mu.Lock()
	p.confirm = confirm
	p.mu.Unlock()
}

func (p *fakeIdP) token(userID, email string, scopes ...string) string {
	tok, err := p.signer.Sign(jwtx.NewSessionClaims(userID, email, scopes, time.Hour, idpIssuer, nil, time.Now()))
	require.NoError(p.t, err)
	return tok
}

type env struct {
	idp    *fakeIdP
	store  store.Store
	org    domain.Organization
	client *invitesdk.Client
}

// setupService starts the application against a fresh SQLite file.
func setupService(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	idp := newFakeIdP(t)

	cfg := app.Config{
		Env:                 "test",
		LogLevel:            "error",
		LogFormat:           "json",
		Port:                8080,
		ShutdownGracePeriod: 5 * time.Second,
		DatabaseDriver:      app.DriverSQLite,
		DatabaseFile:        filepath.Join(t.TempDir(), "muster.db"),
		IdentityURL:         idp.server.URL,
		IdentityIssuer:      idpIssuer,
		IdentityTimeout:     5 * time.Second,
		IdentityKeysWait:    5 * time.Second,
		FallbackEmailDomain: fallbackDomain,
		SweepInterval:       time.Hour,
	}
	require.NoError(t, cfg.Validate())

	application, err := app.New(cfg)
	require.NoError(t, err)
	application.Start()

	srv := httptest.NewServer(application.Handler())
	t.Cleanup(func() {
		srv.Close()
		if err := application.Shutdown(); err != nil {
			t.Logf("shutdown: %v", err)
		}
	})

	// A second handle on the same file plays the operator seeding data.
	st, err := app.OpenStore(ctx, cfg, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	org := domain.Organization{ID: idx.New().String(), Name: "Night Shift", CreatedAt: time.Now().UTC()}
	require.NoError(t, st.Organizations().CreateOrganization(ctx, org))

	return &env{
		idp:    idp,
		store:  st,
		org:    org,
		client: invitesdk.NewClient(srv.URL),
	}
}

func (e *env) issue(t *testing.T, req service.IssueRequest) domain.Invitation {
	t.Helper()
	if req.Kind == "" {
		req.Kind = domain.KindGuard
	}
	if req.TTL == 0 {
		req.TTL = 24 * time.Hour
	}
	req.OrganizationID = e.org.ID
	req.CreatedBy = "usr_admin"

	inv, err := (&service.Issuer{Store: e.store}).IssueInvitation(context.Background(), req)
	require.NoError(t, err)
	return inv
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		panic(fmt.Sprintf("encode: %v", err))
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
