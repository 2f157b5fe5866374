package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"
)

// ErrMissingKeyMaterial is returned when a required server secret is absent.
// Operating with a degraded or default key is worse than refusing to start,
// so this error is fatal at startup.
var ErrMissingKeyMaterial = errors.New("missing required key material")

// KeyProvider derives the base encryption key from independent server-held
// secrets. The derivation is deterministic across restarts, so no single
// leaked secret yields the key, and the result is cached for the process
// lifetime.
type KeyProvider struct {
	baseKey [32]byte
}

// NewKeyProvider combines an auth-class secret and a salt-class secret into
// the base key via HMAC-SHA256. It fails when either secret is empty; there
// is deliberately no fallback key.
func NewKeyProvider(authKey, authSalt string) (*KeyProvider, error) {
	if authKey == "" || authSalt == "" {
		return nil, ErrMissingKeyMaterial
	}

	mac := hmac.New(sha256.New, []byte(authSalt))
	mac.Write([]byte(authKey))

	p := &KeyProvider{}
	copy(p.baseKey[:], mac.Sum(nil))
	return p, nil
}

// BaseKey returns the cached 32-byte base encryption key.
func (p *KeyProvider) BaseKey() [32]byte {
	return p.baseKey
}
