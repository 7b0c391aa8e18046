// Package common defines shared sentinel errors used across the server
// components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Validation errors (malformed public key, malformed envelope, bad
	// operation arguments). Rejected before any state change.
	ErrInvalidInput = errors.New("invalid input")

	// Authentication errors. Covers both an unknown device identifier and a
	// failed AEAD tag check; the two must stay indistinguishable to the
	// caller to avoid device enumeration and decryption oracles.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// Repository-level errors. Also returned on ownership mismatch so that
	// a foreign record cannot be told apart from an absent one.
	ErrNotFound = errors.New("not found")

	// Backend I/O failures. Retryable from the caller's perspective; the
	// write that failed must not have been partially applied.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// Internal invariant violations (identifier collision exhaustion,
	// nonce generation failure). Never ignored, never detailed to clients.
	ErrInternal = errors.New("internal error")
)
