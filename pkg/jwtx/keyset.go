package jwtx

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"
)

var (
	ErrNoKey       = errors.New("jwtx: key not found")
	ErrNoUsableKey = errors.New("jwtx: key set has no signing keys")
)

// KeySet caches the identity provider's public verification keys. The
// refresher swaps the whole set while requests verify against it.
type KeySet struct {
	mu       sync.RWMutex
	pub      map[string]any // kid -> ed25519.PublicKey | *rsa.PublicKey | *ecdsa.PublicKey
	loadedAt time.Time
}

func NewKeySet() *KeySet {
	return &KeySet{pub: make(map[string]any)}
}

// AddSigner trusts s's public key. Tests use it to stand in for the provider.
func (k *KeySet) AddSigner(s Signer) error {
	return k.AddJWK(s.PublicJWK())
}

// AddJWK trusts a single key in addition to those already loaded.
func (k *KeySet) AddJWK(j JWK) error {
	key, err := parseJWK(j)
	if err != nil {
		return err
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	k.pub[j.Kid] = key
	k.loadedAt = time.Now()
	return nil
}

// Get returns the public key for kid.
func (k *KeySet) Get(kid string) (any, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	if pk, ok := k.pub[kid]; ok {
		return pk, nil
	}
	return nil, ErrNoKey
}

func (k *KeySet) Len() int {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return len(k.pub)
}

// IsReady reports whether at least one key is loaded.
func (k *KeySet) IsReady() bool {
	return k.Len() > 0
}

// LoadedAt is when the set last changed. Zero until the first load.
func (k *KeySet) LoadedAt() time.Time {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.loadedAt
}

// ResetFromJWKS replaces every key with the signing keys in jwks. Keys
// published for encryption are ignored and keys that cannot be parsed are
// skipped and reported, so one unfamiliar key does not block the others. A
// set with nothing left to verify with leaves the current keys in place.
func (k *KeySet) ResetFromJWKS(jwks JWKS) (skipped []error, err error) {
	next := make(map[string]any, len(jwks.Keys))
	for _, j := range jwks.Keys {
		if j.Use == "enc" {
			continue
		}
		key, perr := parseJWK(j)
		if perr != nil {
			skipped = append(skipped, fmt.Errorf("jwtx: key %q: %w", j.Kid, perr))
			continue
		}
		next[j.Kid] = key
	}
	if len(next) == 0 {
		return skipped, ErrNoUsableKey
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	k.pub = next
	k.loadedAt = time.Now()
	return skipped, nil
}

func parseJWK(j JWK) (any, error) {
	switch j.Kty {
	case "OKP":
		return parseOKP(j)
	case "RSA":
		return parseRSA(j)
	case "EC":
		return parseEC(j)
	default:
		return nil, errors.New("jwtx: unsupported kty " + j.Kty)
	}
}

func parseOKP(j JWK) (ed25519.PublicKey, error) {
	if j.Crv != "Ed25519" {
		return nil, errors.New("jwtx: unsupported OKP curve " + j.Crv)
	}
	xb, err := b64(j.X)
	if err != nil {
		return nil, err
	}
	if len(xb) != ed25519.PublicKeySize {
		return nil, errors.New("jwtx: invalid Ed25519 public key size")
	}
	return ed25519.PublicKey(xb), nil
}

func parseRSA(j JWK) (*rsa.PublicKey, error) {
	nb, err := b64(j.N)
	if err != nil {
		return nil, err
	}
	eb, err := b64(j.E)
	if err != nil {
		return nil, err
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nb),
		E: int(new(big.Int).SetBytes(eb).Int64()),
	}, nil
}

func parseEC(j JWK) (*ecdsa.PublicKey, error) {
	if j.Crv != "P-256" {
		return nil, errors.New("jwtx: unsupported EC curve " + j.Crv)
	}
	xb, err := b64(j.X)
	if err != nil {
		return nil, err
	}
	yb, err := b64(j.Y)
	if err != nil {
		return nil, err
	}
	return &ecdsa.PublicKey{
		Curve: elliptic.P256(),
		X:     new(big.Int).SetBytes(xb),
		Y:     new(big.Int).SetBytes(yb),
	}, nil
}

func b64(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(s)
}
