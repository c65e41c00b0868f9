package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// Token size constants (in bytes before encoding).
const (
	// TokenSize128 provides 128 bits of entropy (22 chars base64url).
	TokenSize128 = 16
	// TokenSize256 provides 256 bits of entropy (43 chars base64url).
	TokenSize256 = 32
)

// GenerateToken creates a cryptographically secure random token of size bytes,
// returned base64url-encoded without padding.
func GenerateToken(size int) (string, error) {
	if size <= 0 {
		return "", fmt.Errorf("token size must be positive, got %d", size)
	}

	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// FingerprintToken returns a deterministic SHA-256 fingerprint of a token,
// base64url-encoded (43 chars).
func FingerprintToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// LogFingerprint is a short fingerprint for log lines. Invitation codes are
// bearer secrets until accepted, so they never appear in logs verbatim.
func LogFingerprint(token string) string {
	return FingerprintToken(token)[:12]
}

// GenerateCode returns prefix followed by n random characters from the
// RFC 4648 base32 alphabet (A-Z, 2-7), which reads unambiguously off a
// printed QR label. n is capped at 26.
func GenerateCode(prefix string, n int) (string, error) {
	if n <= 0 || n > 26 {
		return "", fmt.Errorf("code length must be in 1..26, got %d", n)
	}
	return prefix + rand.Text()[:n], nil
}
