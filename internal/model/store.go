package model

import "context"

// SecretStore is the persistent key-value collaborator backing the credential
// vault. Keys are opaque storage keys computed by the vault; values are
// serialized encrypted envelopes. Get returns ErrNotFound for absent keys.
// Single-key reads and writes are atomic; concurrent writers to the same key
// race with last-write-wins semantics.
type SecretStore interface {
	Get(ctx context.Context, storageKey string) ([]byte, error)
	Put(ctx context.Context, storageKey string, value []byte) error
	Delete(ctx context.Context, storageKey string) error
}

// SaltProvider supplies the server-held salt mixed into vault storage-key
// hashing, so the derivation is testable without the host environment.
type SaltProvider interface {
	StorageSalt() string
}

// TokenManager issues and validates admin API access tokens.
type TokenManager interface {
	GenerateAccessToken(subject string) (string, error)
	ParseAccessToken(tokenString string) (string, error)
}
