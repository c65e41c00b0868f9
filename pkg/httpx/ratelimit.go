package httpx

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/muster/pkg/cryptox"
	"github.com/aussiebroadwan/muster/pkg/slogx"
	"golang.org/x/time/rate"
)

// RateLimitConfig is one token bucket profile. Fields carry env tags so a
// profile can be overridden under a prefix, e.g. RATELIMIT_STRICT_REQUESTS.
type RateLimitConfig struct {
	Requests int           `env:"REQUESTS"`
	Window   time.Duration `env:"WINDOW"`
	Burst    int           `env:"BURST"`
}

func (c RateLimitConfig) IsZero() bool { return c == RateLimitConfig{} }

func (c RateLimitConfig) Validate() error {
	if c.Requests <= 0 || c.Window <= 0 || c.Burst <= 0 {
		return fmt.Errorf("requests, window and burst must be positive, got %d/%s/%d", c.Requests, c.Window, c.Burst)
	}
	return nil
}

// RateLimits groups the profiles routes pick from.
type RateLimits struct {
	// Strict guards code lookups so invitation codes can't be enumerated.
	Strict RateLimitConfig `envPrefix:"STRICT_"`
	// Moderate is for authenticated calls.
	Moderate RateLimitConfig `envPrefix:"MODERATE_"`
	// Lenient is for probes.
	Lenient RateLimitConfig `envPrefix:"LENIENT_"`
}

func DefaultRateLimits() RateLimits {
	return RateLimits{
		Strict:   RateLimitConfig{Requests: 10, Window: time.Minute, Burst: 10},
		Moderate: RateLimitConfig{Requests: 30, Window: time.Minute, Burst: 30},
		Lenient:  RateLimitConfig{Requests: 300, Window: time.Minute, Burst: 300},
	}
}

// OrDefaults fills unset profiles from DefaultRateLimits.
func (l RateLimits) OrDefaults() RateLimits {
	d := DefaultRateLimits()
	if l.Strict.IsZero() {
		l.Strict = d.Strict
	}
	if l.Moderate.IsZero() {
		l.Moderate = d.Moderate
	}
	if l.Lenient.IsZero() {
		l.Lenient = d.Lenient
	}
	return l
}

func (l RateLimits) Validate() error {
	var errs []error
	for name, c := range map[string]RateLimitConfig{"strict": l.Strict, "moderate": l.Moderate, "lenient": l.Lenient} {
		if err := c.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("rate limit %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// KeyExtractor derives the bucket key for a request. An empty key skips
// limiting.
type KeyExtractor func(*http.Request) string

// IPKeyExtractor returns the client address, trusting X-Forwarded-For and
// X-Real-IP from the fronting proxy.
func IPKeyExtractor(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func UserIDKeyExtractor(r *http.Request) string {
	id, _ := UserIDFromContext(r.Context())
	return id
}

// PathValueKeyExtractor keys on a route wildcard such as {code}. The value
// is fingerprinted since it may be a secret and keys end up in logs.
func PathValueKeyExtractor(name string) KeyExtractor {
	return func(r *http.Request) string {
		v := r.PathValue(name)
		if v == "" {
			return ""
		}
		return cryptox.LogFingerprint(v)
	}
}

// CompositeKeyExtractor joins the non-empty keys of several extractors.
func CompositeKeyExtractor(sep string, extractors ...KeyExtractor) KeyExtractor {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(extractors))
		for _, extract := range extractors {
			if key := extract(r); key != "" {
				parts = append(parts, key)
			}
		}
		return strings.Join(parts, sep)
	}
}

const limiterIdleSweep = 5 * time.Minute

type buckets struct {
	limit rate.Limit
	burst int

	mu        sync.Mutex
	byKey     map[string]*rate.Limiter
	lastSweep time.Time
}

func newBuckets(c RateLimitConfig) *buckets {
	return &buckets{
		limit:     rate.Limit(float64(c.Requests) / c.Window.Seconds()),
		burst:     c.Burst,
		byKey:     make(map[string]*rate.Limiter),
		lastSweep: time.Now(),
	}
}

func (b *buckets) get(key string) *rate.Limiter {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Full buckets carry no state worth keeping.
	if time.Since(b.lastSweep) >= limiterIdleSweep {
		b.lastSweep = time.Now()
		for k, l := range b.byKey {
			if l.Tokens() >= float64(b.burst) {
				delete(b.byKey, k)
			}
		}
	}

	l, ok := b.byKey[key]
	if !ok {
		l = rate.NewLimiter(b.limit, b.burst)
		b.byKey[key] = l
	}
	return l
}

// RateLimitMiddleware rejects requests over config with 429 and a
// Retry-After header.
func RateLimitMiddleware(config RateLimitConfig, keyExtractor KeyExtractor) Middleware {
	b := newBuckets(config)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyExtractor(r)
			if key == "" {
				slogx.FromContext(r.Context()).Warn("rate limit key missing, allowing request")
				next.ServeHTTP(w, r)
				return
			}

			limiter := b.get(key)
			if limiter.Allow() {
				next.ServeHTTP(w, r)
				return
			}

			res := limiter.Reserve()
			retryAfter := max(int(res.Delay().Seconds()), 1)
			res.Cancel()

			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(config.Requests))
			w.Header().Set("X-RateLimit-Window", config.Window.String())

			slogx.FromContext(r.Context()).Warn("rate limit exceeded",
				"key", key,
				"route", r.Pattern,
				"retry_after", retryAfter,
			)
			WriteError(w, http.StatusTooManyRequests,
				"rate_limit_exceeded", "Too many requests. Please try again later.")
		})
	}
}

func RateLimitByIP(config RateLimitConfig) Middleware {
	return RateLimitMiddleware(config, IPKeyExtractor)
}

// RateLimitByUser limits by authenticated user, falling back to IP.
func RateLimitByUser(config RateLimitConfig) Middleware {
	return RateLimitMiddleware(config, CompositeKeyExtractor(":",
		UserIDKeyExtractor,
		IPKeyExtractor,
	))
}

// RateLimitByIPAndPathValue limits by IP plus a route wildcard, so hammering
// one invitation code doesn't lock the caller out of every other code.
func RateLimitByIPAndPathValue(config RateLimitConfig, name string) Middleware {
	return RateLimitMiddleware(config, CompositeKeyExtractor(":",
		IPKeyExtractor,
		PathValueKeyExtractor(name),
	))
}
