// Package cryptox implements the cryptographic primitives shared by the
// pairing handshake, the envelope codec and the vault: X25519 key agreement
// and ChaCha20-Poly1305 authenticated encryption.
package cryptox

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/curve25519"
)

const (
	// KeySize is the size of X25519 keys and derived shared secrets.
	KeySize = 32
	// NonceSize is the AEAD nonce size.
	NonceSize = chacha20poly1305.NonceSize
)

// GenerateKeyPair returns a fresh X25519 key pair. The private key is
// clamped per RFC 7748.
func GenerateKeyPair() (priv, pub []byte, err error) {
	priv = make([]byte, KeySize)
	if _, err = rand.Read(priv); err != nil {
		return nil, nil, fmt.Errorf("key generation: %w", err)
	}
	priv[0] &= 248
	priv[31] &= 127
	priv[31] |= 64

	pub, err = curve25519.X25519(priv, curve25519.Basepoint)
	if err != nil {
		return nil, nil, fmt.Errorf("key generation: %w", err)
	}
	return priv, pub, nil
}

// SharedSecret computes the X25519 Diffie–Hellman combination of a private
// key and a peer public key. It fails on malformed peer keys, including
// low-order points that would yield an all-zero secret.
func SharedSecret(priv, peerPub []byte) ([]byte, error) {
	if len(peerPub) != KeySize {
		return nil, fmt.Errorf("public key must be %d bytes, got %d", KeySize, len(peerPub))
	}
	secret, err := curve25519.X25519(priv, peerPub)
	if err != nil {
		return nil, fmt.Errorf("key agreement: %w", err)
	}
	return secret, nil
}

// NewNonce returns a fresh random AEAD nonce. Uniqueness per key is a hard
// requirement of the protocol; a failed read from the OS entropy source is
// an error, never a fallback.
func NewNonce() ([]byte, error) {
	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("nonce generation: %w", err)
	}
	return nonce, nil
}

// Seal encrypts plaintext with ChaCha20-Poly1305 under key, generating a
// fresh nonce. The associated data is authenticated but not encrypted and
// binds the ciphertext to its context (device, record).
func Seal(key, plaintext, additionalData []byte) (nonce, ciphertext []byte, err error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, nil, fmt.Errorf("cipher init: %w", err)
	}
	nonce, err = NewNonce()
	if err != nil {
		return nil, nil, err
	}
	ciphertext = aead.Seal(nil, nonce, plaintext, additionalData)
	return nonce, ciphertext, nil
}

// Open decrypts a ciphertext produced by Seal. The error does not say
// whether the key, the nonce, the ciphertext or the associated data was
// wrong; callers must treat any failure as a single authentication failure.
func Open(key, nonce, ciphertext, additionalData []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("cipher init: %w", err)
	}
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("nonce must be %d bytes", NonceSize)
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, additionalData)
	if err != nil {
		return nil, fmt.Errorf("decryption failed")
	}
	return plaintext, nil
}
