package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/muster/internal/invites/metrics"
	"github.com/aussiebroadwan/muster/internal/invites/service"
	"github.com/aussiebroadwan/muster/internal/invites/store"
	"github.com/aussiebroadwan/muster/pkg/httpx"
	"github.com/aussiebroadwan/muster/pkg/jwtx"
	"github.com/aussiebroadwan/muster/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus"

	_ "github.com/aussiebroadwan/muster/api/invites" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	keys         *jwtx.KeySet
	verifier     jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
	store        store.Store
	gatherer     prometheus.Gatherer

	Validator    *service.Validator
	Orchestrator *service.Orchestrator
	Sweeper      *service.Sweeper

	// Limits picks the bucket profiles. Unset profiles use the defaults.
	Limits httpx.RateLimits
}

func NewRouter(
	keys *jwtx.KeySet,
	verifier jwtx.Verifier,
	buildVersion string,
	st store.Store,
	gatherer prometheus.Gatherer,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		keys:         keys,
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		gatherer:     gatherer,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.Limits = r.Limits.OrDefaults()

	r.registerInvitations()
	r.registerOperator()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Muster Invitation Service API
//	@version		0.1.0
//	@description	Accepts invitation codes and grants the products they carry.
//	@description
//	@description				Sessions are bearer JWTs issued by the identity provider.
//
//	@contact.name				AussieBroadWAN Team
//	@contact.url				https://github.com/aussiebroadwan/muster
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Identity provider session. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerInvitations() {
	validate := &ValidateHandler{Validator: r.Validator}
	accept := &AcceptHandler{Orchestrator: r.Orchestrator}

	// Code lookups are limited per IP and code so codes can't be enumerated
	r.Mux.Handle("GET /v1/invitations/{code}",
		httpx.Chain(validate,
			httpx.RateLimitByIPAndPathValue(r.Limits.Strict, "code"),
		),
	)

	r.Mux.Handle("POST /v1/invitations/{code}/accept",
		httpx.Chain(http.HandlerFunc(accept.HandleAccept),
			httpx.RateLimitByIPAndPathValue(r.Limits.Strict, "code"),
			httpx.OptionalAuthnMiddleware(r.verifier),
		),
	)

	r.Mux.Handle("POST /v1/invitations/{code}/complete",
		httpx.Chain(http.HandlerFunc(accept.HandleComplete),
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByUser(r.Limits.Moderate),
		),
	)
}

func (r *Router) registerOperator() {
	h := &SweepHandler{Sweeper: r.Sweeper}

	r.Mux.Handle("POST /v1/invitations/sweep",
		httpx.Chain(h,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireAnyScope("admin:write"),
			httpx.RateLimitByUser(r.Limits.Moderate),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(r.Limits.Lenient),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.keys),
			httpx.RateLimitByIP(r.Limits.Lenient),
		),
	)
	r.Mux.Handle("GET /metrics", metrics.Handler(r.gatherer))
}
