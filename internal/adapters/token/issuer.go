// Package token mints opaque session tokens.
package token

import (
	"crypto/rand"
	"encoding/base64"
	"time"
)

// tokenBytes is the raw entropy per token; 32 bytes keeps tokens
// unguessable by enumeration.
const tokenBytes = 32

// Issuer mints URL-safe random session tokens from crypto/rand with a fixed
// lifetime.
type Issuer struct {
	Lifetime time.Duration
}

// NewIssuer constructs an Issuer. A non-positive lifetime falls back to 24h.
func NewIssuer(lifetime time.Duration) Issuer {
	if lifetime <= 0 {
		lifetime = 24 * time.Hour
	}
	return Issuer{Lifetime: lifetime}
}

// Issue returns a fresh token and its absolute expiry.
func (i Issuer) Issue() (string, time.Time) {
	buf := make([]byte, tokenBytes)
	// rand.Read never fails on supported platforms; it panics internally on
	// a broken entropy source rather than returning weak output.
	_, _ = rand.Read(buf)
	return base64.RawURLEncoding.EncodeToString(buf), time.Now().Add(i.Lifetime)
}
