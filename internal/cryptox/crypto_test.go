package cryptox

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSharedSecret_Symmetry(t *testing.T) {
	alicePriv, alicePub, err := GenerateKeyPair()
	require.NoError(t, err)

	bobPriv, bobPub, err := GenerateKeyPair()
	require.NoError(t, err)

	s1, err := SharedSecret(alicePriv, bobPub)
	require.NoError(t, err)

	s2, err := SharedSecret(bobPriv, alicePub)
	require.NoError(t, err)

	assert.Equal(t, s1, s2)
	assert.Len(t, s1, KeySize)
}

func TestSharedSecret_RejectsMalformedKeys(t *testing.T) {
	priv, _, err := GenerateKeyPair()
	require.NoError(t, err)

	// wrong length
	_, err = SharedSecret(priv, []byte{1, 2, 3})
	assert.Error(t, err)

	// all-zero public key is a low-order point
	_, err = SharedSecret(priv, make([]byte, KeySize))
	assert.Error(t, err)
}

func TestSealOpen_RoundTrip(t *testing.T) {
	_, _, err := GenerateKeyPair()
	require.NoError(t, err)

	alicePriv, _, err := GenerateKeyPair()
	require.NoError(t, err)
	_, bobPub, err := GenerateKeyPair()
	require.NoError(t, err)

	key, err := SharedSecret(alicePriv, bobPub)
	require.NoError(t, err)

	plaintext := []byte(`{"op":"list"}`)
	aad := []byte("envelope:abc")

	nonce, ciphertext, err := Seal(key, plaintext, aad)
	require.NoError(t, err)
	require.Len(t, nonce, NonceSize)
	require.NotEqual(t, plaintext, ciphertext)

	got, err := Open(key, nonce, ciphertext, aad)
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
}

func TestSeal_FreshNoncePerCall(t *testing.T) {
	key := bytes.Repeat([]byte{7}, KeySize)

	n1, _, err := Seal(key, []byte("x"), nil)
	require.NoError(t, err)
	n2, _, err := Seal(key, []byte("x"), nil)
	require.NoError(t, err)

	assert.NotEqual(t, n1, n2)
}

func TestOpen_FailsClosed(t *testing.T) {
	key := bytes.Repeat([]byte{9}, KeySize)
	aad := []byte("envelope:dev")

	nonce, ciphertext, err := Seal(key, []byte("secret"), aad)
	require.NoError(t, err)

	t.Run("tampered ciphertext", func(t *testing.T) {
		bad := append([]byte(nil), ciphertext...)
		bad[0] ^= 0xff
		_, err := Open(key, nonce, bad, aad)
		assert.Error(t, err)
	})

	t.Run("wrong key", func(t *testing.T) {
		other := bytes.Repeat([]byte{1}, KeySize)
		_, err := Open(other, nonce, ciphertext, aad)
		assert.Error(t, err)
	})

	t.Run("wrong associated data", func(t *testing.T) {
		_, err := Open(key, nonce, ciphertext, []byte("envelope:other"))
		assert.Error(t, err)
	})

	t.Run("short nonce", func(t *testing.T) {
		_, err := Open(key, nonce[:4], ciphertext, aad)
		assert.Error(t, err)
	})
}
