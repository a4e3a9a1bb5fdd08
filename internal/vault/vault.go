// Package vault encrypts per-user platform credentials with a process-wide
// symmetric key.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// ErrDecrypt is returned when a stored ciphertext cannot be read with the
// current process secret (malformed value, or the secret was rotated).
// Callers must treat it as a single-user failure, never as fatal to a batch;
// the affected user stays skipped until they re-enter their credentials.
var ErrDecrypt = errors.New("vault: cannot decrypt credential")

// Vault performs symmetric encryption of one secret string per user with
// AES-256-GCM. The key is derived once and is safe to share across
// concurrent calls.
type Vault struct {
	key []byte
}

// New derives the 32-byte key as SHA-256 of the configured process secret.
// The same secret always yields the same key, so ciphertext written before a
// restart stays readable after — provided the secret is stable.
func New(secret string) *Vault {
	sum := sha256.Sum256([]byte(secret))
	return &Vault{key: sum[:]}
}

// Encrypt encrypts plaintext and returns a base64 encoding of
// nonce || ciphertext || tag. An empty plaintext means "no credential
// configured" and round-trips as an empty string, never as an encrypted
// empty value.
func (v *Vault) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	gcm, err := v.cipher()
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("rand nonce: %w", err)
	}

	// Seal appends the ciphertext to nonce, producing: nonce || ciphertext || tag.
	sealed := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. An empty input short-circuits to an empty string;
// every other failure wraps ErrDecrypt.
func (v *Vault) Decrypt(encoded string) (string, error) {
	if encoded == "" {
		return "", nil
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: base64 decode: %v", ErrDecrypt, err)
	}

	gcm, err := v.cipher()
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("%w: ciphertext too short", ErrDecrypt)
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}

	return string(plaintext), nil
}

func (v *Vault) cipher() (cipher.AEAD, error) {
	block, err := aes.NewCipher(v.key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return gcm, nil
}
