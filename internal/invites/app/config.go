package app

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aussiebroadwan/muster/pkg/httpx"
	"github.com/caarlos0/env/v11"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Env                 string        `env:"ENV"                   envDefault:"dev"`
	LogLevel            string        `env:"LOG_LEVEL"             envDefault:"info"`
	LogFormat           string        `env:"LOG_FORMAT"            envDefault:"json"`
	Port                int           `env:"PORT"                  envDefault:"8080"`
	ShutdownGracePeriod time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`

	DatabaseDriver   string `env:"MUSTER_DATABASE_DRIVER"    envDefault:"sqlite"`
	DatabaseFile     string `env:"MUSTER_DATABASE_FILE"      envDefault:"muster.db"`
	DatabaseURL      string `env:"MUSTER_DATABASE_URL"`
	DatabaseMaxConns int32  `env:"MUSTER_DATABASE_MAX_CONNS" envDefault:"20"`

	// IdentityURL is the provider's base URL. Account creation goes to
	// {IdentityURL}/v1/accounts and keys are read from IdentityJWKSURL,
	// which defaults to {IdentityURL}/.well-known/jwks.json.
	IdentityURL         string        `env:"MUSTER_IDENTITY_URL"`
	IdentityJWKSURL     string        `env:"MUSTER_IDENTITY_JWKS_URL"`
	IdentityIssuer      string        `env:"MUSTER_IDENTITY_ISSUER"`
	IdentityAudience    []string      `env:"MUSTER_IDENTITY_AUDIENCE"      envSeparator:","`
	IdentityTimeout     time.Duration `env:"MUSTER_IDENTITY_TIMEOUT"       envDefault:"10s"`
	IdentityKeysWait    time.Duration `env:"MUSTER_IDENTITY_KEYS_WAIT"     envDefault:"1m"`
	IdentityKeysRefresh time.Duration `env:"MUSTER_IDENTITY_KEYS_REFRESH"  envDefault:"1h"`

	// FallbackEmailDomain addresses accounts created for invitations that
	// carry no email hint.
	FallbackEmailDomain string        `env:"MUSTER_FALLBACK_EMAIL_DOMAIN" envDefault:"guards.muster.invalid"`
	SweepInterval       time.Duration `env:"MUSTER_SWEEP_INTERVAL"        envDefault:"15m"`

	// RateLimits reads RATELIMIT_{STRICT,MODERATE,LENIENT}_{REQUESTS,WINDOW,BURST}.
	RateLimits httpx.RateLimits `envPrefix:"RATELIMIT_"`
}

// LoadConfig reads Config from the environment and validates it.
func LoadConfig() (Config, error) {
	cfg := Config{RateLimits: httpx.DefaultRateLimits()}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	switch c.DatabaseDriver {
	case DriverSQLite:
		if c.DatabaseFile == "" {
			errs = append(errs, errors.New("MUSTER_DATABASE_FILE is required for sqlite"))
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("MUSTER_DATABASE_URL is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown MUSTER_DATABASE_DRIVER %q", c.DatabaseDriver))
	}

	if c.IdentityURL == "" {
		errs = append(errs, errors.New("MUSTER_IDENTITY_URL is required"))
	} else if u, err := url.Parse(c.IdentityURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("MUSTER_IDENTITY_URL %q is not an absolute URL", c.IdentityURL))
	}

	if c.FallbackEmailDomain == "" || strings.ContainsAny(c.FallbackEmailDomain, "@ ") {
		errs = append(errs, fmt.Errorf("MUSTER_FALLBACK_EMAIL_DOMAIN %q is not a domain", c.FallbackEmailDomain))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d out of range", c.Port))
	}
	if err := c.RateLimits.OrDefaults().Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// JWKSURL is where the provider publishes its session signing keys.
func (c Config) JWKSURL() string {
	if c.IdentityJWKSURL != "" {
		return c.IdentityJWKSURL
	}
	return strings.TrimRight(c.IdentityURL, "/") + "/.well-known/jwks.json"
}
