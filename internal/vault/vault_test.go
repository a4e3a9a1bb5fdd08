package vault_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knguessan/moodlewatch/internal/vault"
)

func TestVault_RoundTrip(t *testing.T) {
	v := vault.New("test-secret")

	for _, plaintext := range []string{"p", "motdepasse123", "pässwörd €", "a long credential with spaces"} {
		encrypted, err := v.Encrypt(plaintext)
		require.NoError(t, err)
		assert.NotEqual(t, plaintext, encrypted)

		decrypted, err := v.Decrypt(encrypted)
		require.NoError(t, err)
		assert.Equal(t, plaintext, decrypted)
	}
}

func TestVault_EmptyStringShortCircuits(t *testing.T) {
	v := vault.New("test-secret")

	encrypted, err := v.Encrypt("")
	require.NoError(t, err)
	assert.Equal(t, "", encrypted, "no credential must round-trip as no credential, not as an encrypted empty string")

	decrypted, err := v.Decrypt("")
	require.NoError(t, err)
	assert.Equal(t, "", decrypted)
}

func TestVault_NonceVariesButBothDecrypt(t *testing.T) {
	v := vault.New("test-secret")

	first, err := v.Encrypt("same plaintext")
	require.NoError(t, err)
	second, err := v.Encrypt("same plaintext")
	require.NoError(t, err)

	// Random nonces: equality is not required, decryptability is.
	for _, encrypted := range []string{first, second} {
		decrypted, err := v.Decrypt(encrypted)
		require.NoError(t, err)
		assert.Equal(t, "same plaintext", decrypted)
	}
}

func TestVault_KeyStableAcrossInstances(t *testing.T) {
	a := vault.New("shared-secret")
	b := vault.New("shared-secret")

	encrypted, err := a.Encrypt("portable")
	require.NoError(t, err)

	decrypted, err := b.Decrypt(encrypted)
	require.NoError(t, err)
	assert.Equal(t, "portable", decrypted)
}

func TestVault_DecryptMalformed(t *testing.T) {
	v := vault.New("test-secret")

	for name, input := range map[string]string{
		"not base64":     "%%%not-base64%%%",
		"too short":      "YWJj", // "abc": shorter than a GCM nonce
		"garbage sealed": "aGVsbG8gd29ybGQgdGhpcyBpcyBub3QgYSBjaXBoZXJ0ZXh0",
	} {
		_, err := v.Decrypt(input)
		assert.ErrorIs(t, err, vault.ErrDecrypt, name)
	}
}

func TestVault_RotatedSecretFailsDecrypt(t *testing.T) {
	old := vault.New("old-secret")
	rotated := vault.New("new-secret")

	encrypted, err := old.Encrypt("credential")
	require.NoError(t, err)

	_, err = rotated.Decrypt(encrypted)
	assert.ErrorIs(t, err, vault.ErrDecrypt)
}
