package app

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/muster/internal/invites/identity"
	"github.com/aussiebroadwan/muster/pkg/jwtx"
)

// InitSessionKeys loads the provider's signing keys and builds the verifier
// used for bearer sessions. It blocks until keys arrive or
// cfg.IdentityKeysWait passes.
func InitSessionKeys(ctx context.Context, cfg Config, logger *slog.Logger) (*jwtx.KeySet, jwtx.Verifier, error) {
	client := &http.Client{Timeout: cfg.IdentityTimeout}

	keys, err := identity.LoadKeySet(ctx, client, cfg.JWKSURL(), cfg.IdentityKeysWait, logger)
	if err != nil {
		return nil, nil, err
	}

	verifier := jwtx.NewVerifier(keys, jwtx.VerifyOptions{
		Issuer:   cfg.IdentityIssuer,
		Audience: cfg.IdentityAudience,
	})
	return keys, verifier, nil
}

// refreshKeys re-reads the JWKS every interval so provider key rotation is
// picked up. A failed fetch keeps the current keys.
func refreshKeys(ctx context.Context, keys *jwtx.KeySet, url string, interval, timeout time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		return
	}
	client := &http.Client{Timeout: timeout}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			set, err := jwtx.FetchJWKS(ctx, client, url)
			if err == nil {
				var skipped []error
				skipped, err = keys.ResetFromJWKS(set)
				for _, s := range skipped {
					logger.Warn("jwks key skipped", "url", url, "error", s)
				}
			}
			if err != nil {
				logger.Warn("session key refresh failed, keeping current keys",
					"url", url, "error", err, "loaded_at", keys.LoadedAt())
				continue
			}
			logger.Debug("session keys refreshed", "keys", keys.Len())
		}
	}
}
