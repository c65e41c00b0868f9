package http_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/muster/internal/invites/domain"
	invitehttp "github.com/aussiebroadwan/muster/internal/invites/http"
	"github.com/aussiebroadwan/muster/internal/invites/identity"
	"github.com/aussiebroadwan/muster/internal/invites/identity/identitytest"
	"github.com/aussiebroadwan/muster/internal/invites/metrics"
	"github.com/aussiebroadwan/muster/internal/invites/service"
	"github.com/aussiebroadwan/muster/internal/invites/store"
	"github.com/aussiebroadwan/muster/internal/invites/store/drivers/sqlite"
	"github.com/aussiebroadwan/muster/internal/invites/store/storetest"
	"github.com/aussiebroadwan/muster/pkg/cryptox"
	"github.com/aussiebroadwan/muster/pkg/invitesdk"
	"github.com/aussiebroadwan/muster/pkg/jwtx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type harness struct {
	store       store.Store
	org         domain.Organization
	signer      jwtx.Signer
	provisioner *identitytest.Provisioner
	server      *httptest.Server
	client      *invitesdk.Client
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	signer, err := jwtx.NewSignerEdDSA("idp-1", pemKey)
	require.NoError(t, err)
	keys := jwtx.NewKeySet()
	require.NoError(t, keys.AddSigner(signer))
	verifier := jwtx.NewVerifier(keys, jwtx.VerifyOptions{Issuer: "idp"})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	rec := metrics.NewCollector(reg)
	clock := func() time.Time { return storetest.Now }

	validator := &service.Validator{Store: st, Metrics: rec, Now: clock}
	granter := &service.Granter{Store: st, Metrics: rec, Now: clock}
	provisioner := &identitytest.Provisioner{}

	sweeper := service.NewSweeper(st, logger, 0, rec)
	sweeper.Now = clock

	router := invitehttp.NewRouter(keys, verifier, "test", st, reg, logger)
	router.Validator = validator
	router.Sweeper = sweeper
	router.Orchestrator = &service.Orchestrator{
		Store:       st,
		Validator:   validator,
		Resolver:    &service.Resolver{Store: st, FallbackDomain: "guards.example.com"},
		Granter:     granter,
		Provisioner: provisioner,
		Sessions:    identity.JWTSessions{Verifier: verifier},
		Metrics:     rec,
	}
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &harness{
		store:       st,
		org:         storetest.SeedOrganization(t, st),
		signer:      signer,
		provisioner: provisioner,
		server:      srv,
		client:      invitesdk.NewClient(srv.URL),
	}
}

func (h *harness) seed(t *testing.T, code string, mutate func(*domain.Invitation)) domain.Invitation {
	t.Helper()
	return storetest.SeedInvitation(t, h.store, h.org.ID, func(i *domain.Invitation) {
		i.Code = code
		if mutate != nil {
			mutate(i)
		}
	})
}

func (h *harness) token(t *testing.T, sub string, scopes ...string) string {
	t.Helper()
	tok, err := h.signer.Sign(jwtx.NewSessionClaims(sub, sub+"@example.com", scopes, time.Hour, "idp", nil, time.Now()))
	require.NoError(t, err)
	return tok
}

func TestValidateEndpoint(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "GRD-ABC123", func(i *domain.Invitation) { i.ExpiresAt = storetest.Now.Add(-time.Minute) })

	inv, err := h.client.ValidateInvitation(context.Background(), "GRD-ABC123")
	require.NoError(t, err)
	require.Equal(t, "guard", inv.Kind)
	require.Equal(t, "pending", inv.Status)
	require.True(t, inv.IsExpired)
	require.Equal(t, []string{domain.ProductGuardManagement}, inv.Products)

	_, err = h.client.ValidateInvitation(context.Background(), "GRD-NOPE")
	require.True(t, invitesdk.IsNotFound(err))
}

func TestAcceptEndpointAnonymous(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.seed(t, "GRD-ABC123", nil)

	res, err := h.client.AcceptInvitation(ctx, "GRD-ABC123")
	require.NoError(t, err)
	require.Equal(t, invitesdk.StateAccepted, res.State)
	require.Equal(t, "user_grd-abc123", res.UserID)
	require.NotNil(t, res.Session)
	require.Equal(t, "session-user_grd-abc123", res.Session.Token)
	require.Equal(t, []string{domain.ProductGuardManagement}, res.GrantedProducts)

	_, err = h.client.AcceptInvitation(ctx, "GRD-ABC123")
	require.True(t, invitesdk.IsAlreadyClaimed(err))
}

func TestAcceptEndpointWithSession(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.seed(t, "PRD-1", func(i *domain.Invitation) {
		i.Kind = domain.KindProduct
		i.RequestedProducts = []string{"tasks"}
	})

	res, err := h.client.WithToken(h.token(t, "user_42")).AcceptInvitation(ctx, "PRD-1")
	require.NoError(t, err)
	require.Equal(t, invitesdk.StateAccepted, res.State)
	require.Equal(t, "user_42", res.UserID)
	require.Nil(t, res.Session)
	require.Empty(t, h.provisioner.Calls())

	res, err = h.client.WithToken(h.token(t, "user_42")).AcceptInvitation(ctx, "PRD-1")
	require.NoError(t, err)
	require.Equal(t, invitesdk.StateAlreadyAccepted, res.State)

	_, err = h.client.WithToken(h.token(t, "user_99")).AcceptInvitation(ctx, "PRD-1")
	require.True(t, invitesdk.IsAlreadyClaimed(err))
}

func TestAcceptEndpointRejectsForgedSession(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "GRD-ABC123", nil)

	_, err := h.client.WithToken("not-a-jwt").AcceptInvitation(context.Background(), "GRD-ABC123")
	require.Equal(t, invitesdk.ErrorCodeInvalidToken, invitesdk.Code(err))
	require.Empty(t, h.provisioner.Calls())
}

func TestAcceptEndpointDeferred(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.seed(t, "GRD-ABC123", nil)
	h.provisioner.Result = identitytest.Fail(identity.ProvisionAlreadyRegistered)

	res, err := h.client.AcceptInvitation(ctx, "GRD-ABC123")
	require.NoError(t, err)
	require.Equal(t, invitesdk.StateDeferredCompletion, res.State)
	require.Equal(t, invitesdk.ReasonAlreadyRegistered, res.Reason)
	require.True(t, res.SuggestSignIn)

	_, err = h.client.CompleteInvitation(ctx, "GRD-ABC123")
	require.Equal(t, invitesdk.ErrorCodeInvalidToken, invitesdk.Code(err))

	done, err := h.client.WithToken(h.token(t, "user_7")).CompleteInvitation(ctx, "GRD-ABC123")
	require.NoError(t, err)
	require.Equal(t, invitesdk.StateAccepted, done.State)
	require.Equal(t, "user_7", done.UserID)
}

func TestAcceptEndpointErrorMapping(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		setup  func(t *testing.T, h *harness)
		status int
		code   string
	}{
		{
			name: "expired",
			setup: func(t *testing.T, h *harness) {
				h.seed(t, "GRD-X", func(i *domain.Invitation) { i.ExpiresAt = storetest.Now })
			},
			status: http.StatusGone,
			code:   invitesdk.ErrorCodeExpired,
		},
		{
			name: "revoked",
			setup: func(t *testing.T, h *harness) {
				inv := h.seed(t, "GRD-X", nil)
				_, err := h.store.Invitations().RevokeInvitation(ctx, inv.ID, storetest.Now)
				require.NoError(t, err)
			},
			status: http.StatusGone,
			code:   invitesdk.ErrorCodeRevoked,
		},
		{
			name: "missing organization",
			setup: func(t *testing.T, h *harness) {
				h.seed(t, "GRD-X", func(i *domain.Invitation) { i.OrganizationID = "org_gone" })
			},
			status: http.StatusUnprocessableEntity,
			code:   invitesdk.ErrorCodeInvalid,
		},
		{
			name: "provider down",
			setup: func(t *testing.T, h *harness) {
				h.seed(t, "GRD-X", nil)
				h.provisioner.Result = identitytest.Fail(identity.ProvisionUnavailable)
			},
			status: http.StatusBadGateway,
			code:   invitesdk.ErrorCodeProvisioning,
		},
		{
			name: "code collides across kinds",
			setup: func(t *testing.T, h *harness) {
				h.seed(t, "GRD-X", nil)
				h.seed(t, "GRD-X", func(i *domain.Invitation) { i.Kind = domain.KindProduct })
			},
			status: http.StatusInternalServerError,
			code:   invitesdk.ErrorCodeIntegrity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			tt.setup(t, h)

			_, err := h.client.AcceptInvitation(ctx, "GRD-X")
			var apiErr *invitesdk.APIError
			require.ErrorAs(t, err, &apiErr)
			require.Equal(t, tt.status, apiErr.StatusCode)
			require.Equal(t, tt.code, apiErr.Code)
		})
	}
}

func TestSweepEndpoint(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.seed(t, "GRD-OLD", func(i *domain.Invitation) { i.ExpiresAt = storetest.Now.Add(-time.Hour) })

	_, err := h.client.WithToken(h.token(t, "user_1", "profile:read")).SweepExpired(ctx)
	require.Equal(t, invitesdk.ErrorCodeInsufficientScope, invitesdk.Code(err))

	res, err := h.client.WithToken(h.token(t, "user_admin", "admin:write")).SweepExpired(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, res.Expired)
}

func TestSystemEndpoints(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	live, err := h.client.GetLiveness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", live.Status)
	require.Equal(t, "test", live.Version)

	ready, err := h.client.GetReadiness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Checks.Database)
	require.Equal(t, "ok", ready.Checks.Keys)

	_, err = h.client.ValidateInvitation(ctx, "GRD-NOPE")
	require.Error(t, err)

	resp, err := http.Get(h.server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, strings.Contains(string(body), `muster_validations_total{outcome="not_found"} 1`))
}

func TestValidateRateLimitedPerCode(t *testing.T) {
	h := newHarness(t)
	h.seed(t, "GRD-ABC123", nil)

	var lastErr error
	for range 30 {
		_, lastErr = h.client.ValidateInvitation(context.Background(), "GRD-ABC123")
		if lastErr != nil {
			break
		}
	}
	require.Equal(t, invitesdk.ErrorCodeRateLimited, invitesdk.Code(lastErr))

	_, err := h.client.ValidateInvitation(context.Background(), "GRD-OTHER")
	require.True(t, invitesdk.IsNotFound(err))
}
