package httpx

import "context"

type ctxKey int

const (
	userIDKey ctxKey = iota
	scopesKey
	bearerKey
)

// UserIDFromContext returns the authenticated subject, if any.
func UserIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(userIDKey).(string)
	return v, ok && v != ""
}

// BearerFromContext returns the raw token the request was authenticated
// with. The acceptance flow re-resolves it into a provider session.
func BearerFromContext(ctx context.Context) string {
	v, _ := ctx.Value(bearerKey).(string)
	return v
}

func scopesFromCtx(ctx context.Context) []string {
	v, _ := ctx.Value(scopesKey).([]string)
	return v
}
