package jwtx

import (
	"crypto/ed25519"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Signer issues session tokens the way the identity provider does. This
// service never signs in production; tests, the end-to-end harness and
// local tooling use it to stand in for the provider.
type Signer interface {
	KID() string
	Sign(Claims) (string, error)
	PublicJWK() JWK
}

type edSigner struct {
	kid string
	key ed25519.PrivateKey
}

// NewSignerEdDSA loads a PKCS8 PEM Ed25519 private key.
func NewSignerEdDSA(kid string, pemKey []byte) (Signer, error) {
	block, _ := pem.Decode(pemKey)
	if block == nil || block.Type != "PRIVATE KEY" {
		return nil, errors.New("jwtx: expected PKCS8 PRIVATE KEY PEM")
	}
	priv, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("jwtx: parse PKCS8: %w", err)
	}
	key, ok := priv.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("jwtx: %T is not an Ed25519 key", priv)
	}
	return &edSigner{kid: kid, key: key}, nil
}

func (s *edSigner) KID() string { return s.kid }

func (s *edSigner) Sign(claims Claims) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	t.Header["kid"] = s.kid
	return t.SignedString(s.key)
}

func (s *edSigner) PublicJWK() JWK {
	return NewEd25519JWK(s.kid, "sig", jwt.SigningMethodEdDSA.Alg(), s.key.Public().(ed25519.PublicKey))
}
