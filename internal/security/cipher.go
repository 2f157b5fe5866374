package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/hkdf"

	"github.com/modkit/modkit-server/internal/model"
)

var (
	// ErrEmptyPlaintext is returned when there is nothing to encrypt.
	ErrEmptyPlaintext = errors.New("empty plaintext")
	// ErrMalformedEnvelope is returned when an envelope fails structural checks.
	ErrMalformedEnvelope = errors.New("malformed envelope")
	// ErrDecryptFailed is returned on integrity-check mismatch or bad padding.
	// Callers treat it as "credential absent", so it carries no detail about
	// which check failed.
	ErrDecryptFailed = errors.New("decryption failed")
)

const macSize = sha256.Size

// Cipher provides authenticated symmetric encryption of structured values
// under per-namespace keys. Each namespace gets an unrelated encryption and
// MAC key pair derived from the base key with HKDF-SHA256, so envelopes
// written by one module never decrypt under another module's namespace.
type Cipher struct {
	keys *KeyProvider
}

// NewCipher creates a Cipher on top of the given key provider.
func NewCipher(keys *KeyProvider) *Cipher {
	return &Cipher{keys: keys}
}

// namespaceKeys derives the AES-256 key and the HMAC key for a namespace.
func (c *Cipher) namespaceKeys(namespace string) (encKey, macKey []byte, err error) {
	baseKey := c.keys.BaseKey()
	kdf := hkdf.New(sha256.New, baseKey[:], nil, []byte("modkit/vault/"+namespace))

	material := make([]byte, 64)
	if _, err := io.ReadFull(kdf, material); err != nil {
		return nil, nil, fmt.Errorf("failed to derive namespace keys: %w", err)
	}
	return material[:32], material[32:], nil
}

// Encrypt serializes value, encrypts it under the namespace-derived key with
// AES-256-CBC and seals it with an encrypt-then-MAC HMAC-SHA256 tag folded
// into the envelope data. A fresh random IV is drawn on every call, so two
// encryptions of the same value never produce the same envelope.
func (c *Cipher) Encrypt(namespace string, value any) (model.EncryptedEnvelope, error) {
	if isEmptyValue(value) {
		return model.EncryptedEnvelope{}, ErrEmptyPlaintext
	}

	plaintext, err := json.Marshal(value)
	if err != nil {
		return model.EncryptedEnvelope{}, fmt.Errorf("failed to serialize plaintext: %w", err)
	}

	encKey, macKey, err := c.namespaceKeys(namespace)
	if err != nil {
		return model.EncryptedEnvelope{}, err
	}

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return model.EncryptedEnvelope{}, fmt.Errorf("failed to initialize cipher: %w", err)
	}

	iv := make([]byte, aes.BlockSize)
	if _, err := rand.Read(iv); err != nil {
		return model.EncryptedEnvelope{}, fmt.Errorf("failed to generate iv: %w", err)
	}

	padded := padPKCS7(plaintext, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	mac := hmac.New(sha256.New, macKey)
	mac.Write(iv)
	mac.Write(ciphertext)

	return model.EncryptedEnvelope{
		IV:        iv,
		Data:      mac.Sum(ciphertext),
		Version:   model.EnvelopeVersion,
		Timestamp: time.Now().Unix(),
	}, nil
}

// Decrypt verifies and opens an envelope under the namespace-derived key and
// deserializes the original value. It returns an error, never panics, for
// any malformed, truncated, tampered or wrong-namespace envelope.
func (c *Cipher) Decrypt(namespace string, envelope model.EncryptedEnvelope) (any, error) {
	if envelope.Version != model.EnvelopeVersion {
		return nil, ErrMalformedEnvelope
	}
	if len(envelope.IV) != aes.BlockSize {
		return nil, ErrMalformedEnvelope
	}
	if len(envelope.Data) < aes.BlockSize+macSize {
		return nil, ErrMalformedEnvelope
	}

	ciphertext := envelope.Data[:len(envelope.Data)-macSize]
	tag := envelope.Data[len(envelope.Data)-macSize:]
	if len(ciphertext)%aes.BlockSize != 0 {
		return nil, ErrMalformedEnvelope
	}

	encKey, macKey, err := c.namespaceKeys(namespace)
	if err != nil {
		return nil, err
	}

	mac := hmac.New(sha256.New, macKey)
	mac.Write(envelope.IV)
	mac.Write(ciphertext)
	if !hmac.Equal(tag, mac.Sum(nil)) {
		return nil, ErrDecryptFailed
	}

	block, err := aes.NewCipher(encKey)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cipher: %w", err)
	}

	padded := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, envelope.IV).CryptBlocks(padded, ciphertext)

	plaintext, err := unpadPKCS7(padded, aes.BlockSize)
	if err != nil {
		return nil, ErrDecryptFailed
	}

	var value any
	if err := json.Unmarshal(plaintext, &value); err != nil {
		return nil, ErrDecryptFailed
	}
	return value, nil
}

func isEmptyValue(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []byte:
		return len(v) == 0
	}
	return false
}

func padPKCS7(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}

func unpadPKCS7(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, ErrMalformedEnvelope
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > blockSize || padLen > len(data) {
		return nil, ErrDecryptFailed
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, ErrDecryptFailed
		}
	}
	return data[:len(data)-padLen], nil
}
