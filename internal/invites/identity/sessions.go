package identity

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/muster/pkg/jwtx"
	"github.com/cenkalti/backoff/v5"
)

// JWTSessions resolves sessions from provider-issued JWTs.
type JWTSessions struct {
	Verifier jwtx.Verifier
}

func (s JWTSessions) CurrentSession(ctx context.Context, token string) (Session, error) {
	if token == "" {
		return Session{}, ErrInvalidSession
	}

	claims, err := s.Verifier.Verify(token)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if claims.Subject == "" {
		return Session{}, fmt.Errorf("%w: token has no subject", ErrInvalidSession)
	}

	sess := Session{UserID: claims.Subject, Email: claims.Email, Token: token}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time
	}
	return sess, nil
}

// LoadKeySet fetches the provider's JWKS, retrying with exponential backoff
// until maxElapsed passes. The provider often starts after this service.
func LoadKeySet(ctx context.Context, client *http.Client, url string, maxElapsed time.Duration, log *slog.Logger) (*jwtx.KeySet, error) {
	attempt := 0
	set, err := backoff.Retry(ctx, func() (jwtx.JWKS, error) {
		attempt++
		set, err := jwtx.FetchJWKS(ctx, client, url)
		if err != nil {
			log.Warn("jwks fetch failed", "url", url, "attempt", attempt, "error", err)
			return jwtx.JWKS{}, err
		}
		if len(set.Keys) == 0 {
			log.Warn("jwks is empty", "url", url, "attempt", attempt)
			return jwtx.JWKS{}, fmt.Errorf("identity: jwks at %s has no keys", url)
		}
		return set, nil
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(maxElapsed),
	)
	if err != nil {
		return nil, fmt.Errorf("identity: load jwks: %w", err)
	}

	keys := jwtx.NewKeySet()
	skipped, err := keys.ResetFromJWKS(set)
	for _, s := range skipped {
		log.Warn("jwks key skipped", "url", url, "error", s)
	}
	if err != nil {
		return nil, fmt.Errorf("identity: parse jwks: %w", err)
	}

	log.Info("session keys loaded", "url", url, "keys", keys.Len())
	return keys, nil
}
