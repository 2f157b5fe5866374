package vault

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"

	"github.com/modkit/modkit-server/internal/logger"
	"github.com/modkit/modkit-server/internal/model"
	"github.com/modkit/modkit-server/internal/security"
)

// StaticSalt is a SaltProvider over a fixed configured salt string.
type StaticSalt string

// StorageSalt returns the configured salt.
func (s StaticSalt) StorageSalt() string { return string(s) }

// Vault maps (namespace, key name) pairs to encrypted secret values. Every
// read and write goes through the cipher with a namespace-derived key, and
// storage keys are one-way hashes of namespace, key name and a server salt,
// so neither ciphertexts nor storage keys relate across namespaces.
//
// All failure modes on the read path collapse into "not found": a caller
// cannot distinguish a missing value from one it is not able to decrypt.
type Vault struct {
	store  model.SecretStore
	cipher *security.Cipher
	salts  model.SaltProvider
	logger *logger.Logger
}

// New creates a Vault over the given store, cipher and salt provider.
func New(
	store model.SecretStore,
	cipher *security.Cipher,
	salts model.SaltProvider,
	logger *logger.Logger,
) *Vault {
	return &Vault{
		store:  store,
		cipher: cipher,
		salts:  salts,
		logger: logger,
	}
}

// storageKey hashes the namespace, key name and server salt into the opaque
// store key. Without the salt an attacker enumerating store keys cannot
// recover key names; the separators keep distinct (namespace, key) pairs
// from colliding on concatenation.
func (v *Vault) storageKey(namespace, keyName string) string {
	h := sha256.New()
	h.Write([]byte(namespace))
	h.Write([]byte{0})
	h.Write([]byte(keyName))
	h.Write([]byte{0})
	h.Write([]byte(v.salts.StorageSalt()))
	return hex.EncodeToString(h.Sum(nil))
}

// SetSecure encrypts value under the namespace and persists the envelope.
// It returns false on any encryption or storage failure and never writes a
// partial entry.
func (v *Vault) SetSecure(ctx context.Context, namespace, keyName string, value any) bool {
	envelope, err := v.cipher.Encrypt(namespace, value)
	if err != nil {
		v.logger.Warn("failed to encrypt secret", "namespace", namespace, "error", err)
		return false
	}

	serialized, err := json.Marshal(envelope)
	if err != nil {
		v.logger.Warn("failed to serialize envelope", "namespace", namespace, "error", err)
		return false
	}

	if err := v.store.Put(ctx, v.storageKey(namespace, keyName), serialized); err != nil {
		v.logger.Warn("failed to persist secret", "namespace", namespace, "error", err)
		return false
	}
	return true
}

// UpdateSecure overwrites an existing secret. Semantically SetSecure.
func (v *Vault) UpdateSecure(ctx context.Context, namespace, keyName string, value any) bool {
	return v.SetSecure(ctx, namespace, keyName, value)
}

// GetSecure returns the decrypted value for (namespace, keyName), or def
// when the entry is absent or cannot be decrypted.
func (v *Vault) GetSecure(ctx context.Context, namespace, keyName string, def any) any {
	serialized, err := v.store.Get(ctx, v.storageKey(namespace, keyName))
	if err != nil {
		if !errors.Is(err, model.ErrNotFound) {
			v.logger.Warn("failed to read secret", "namespace", namespace, "error", err)
		}
		return def
	}

	var envelope model.EncryptedEnvelope
	if err := json.Unmarshal(serialized, &envelope); err != nil {
		v.logger.Debug("stored envelope is not decodable", "namespace", namespace)
		return def
	}

	value, err := v.cipher.Decrypt(namespace, envelope)
	if err != nil {
		v.logger.Debug("stored envelope did not decrypt", "namespace", namespace)
		return def
	}
	return value
}

// HasSecure reports whether a decryptable secret exists for (namespace, keyName).
func (v *Vault) HasSecure(ctx context.Context, namespace, keyName string) bool {
	return v.GetSecure(ctx, namespace, keyName, nil) != nil
}

// DeleteSecure removes the secret. Deleting an absent key is not an error.
func (v *Vault) DeleteSecure(ctx context.Context, namespace, keyName string) bool {
	err := v.store.Delete(ctx, v.storageKey(namespace, keyName))
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		v.logger.Warn("failed to delete secret", "namespace", namespace, "error", err)
		return false
	}
	return true
}

// SetBulkSecure stores multiple secrets and reports per-key success.
func (v *Vault) SetBulkSecure(ctx context.Context, namespace string, values map[string]any) map[string]bool {
	results := make(map[string]bool, len(values))
	for keyName, value := range values {
		results[keyName] = v.SetSecure(ctx, namespace, keyName, value)
	}
	return results
}

// GetBulkSecure returns the decrypted values for the requested key names.
// Keys that are absent or fail to decrypt are left out of the result.
func (v *Vault) GetBulkSecure(ctx context.Context, namespace string, keyNames []string) map[string]any {
	results := make(map[string]any, len(keyNames))
	for _, keyName := range keyNames {
		if value := v.GetSecure(ctx, namespace, keyName, nil); value != nil {
			results[keyName] = value
		}
	}
	return results
}
