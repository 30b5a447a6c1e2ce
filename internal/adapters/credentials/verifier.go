// Package credentials provides credential verification strategies.
package credentials

import (
	"crypto/subtle"

	"golang.org/x/crypto/bcrypt"
)

// BcryptVerifier compares a plaintext secret against a stored bcrypt hash.
//
// AllowPlaintextFallback additionally accepts rows whose stored
// representation is still the plaintext secret itself, for migrating
// pre-hashing accounts. It is off unless explicitly enabled in config and
// should be turned off again once migration completes.
type BcryptVerifier struct {
	AllowPlaintextFallback bool
}

// Verify reports whether supplied matches the stored representation.
// Malformed or empty stored hashes compare as "not equal"; Verify never
// panics and never returns an error.
func (v BcryptVerifier) Verify(supplied, stored string) bool {
	if err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(supplied)); err == nil {
		return true
	}
	if v.AllowPlaintextFallback {
		return subtle.ConstantTimeCompare([]byte(supplied), []byte(stored)) == 1
	}
	return false
}

// Hash produces a bcrypt hash for a new credential.
func Hash(secret string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}
