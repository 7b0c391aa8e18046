// Package envelope implements the authenticated-encryption wrapper carried
// by every request and response after pairing.
//
// The device identifier is bound into the associated data, so an envelope
// intercepted for one device cannot be replayed against another. Replay of
// the same envelope to the same device is not prevented: nonces are unique,
// not fresh. A rekeying or counter scheme would close that and is a known
// gap.
package envelope

import (
	"context"
	"errors"
	"fmt"

	"github.com/onionkeep/onionkeep/internal/common"
	"github.com/onionkeep/onionkeep/internal/cryptox"
	"github.com/onionkeep/onionkeep/internal/logging"
	"github.com/onionkeep/onionkeep/internal/server/devices"
)

// Envelope is the transient wire shape of one encrypted message. Byte
// fields travel base64-encoded in JSON.
type Envelope struct {
	DeviceID   string `json:"device_id"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// DeviceLookup resolves a device identifier to its record. Satisfied by
// *devices.Service.
type DeviceLookup interface {
	Lookup(ctx context.Context, id string) (*devices.Device, error)
}

type Codec struct {
	devices DeviceLookup
	log     logging.Logger
}

func NewCodec(lookup DeviceLookup, log logging.Logger) *Codec {
	return &Codec{devices: lookup, log: log.With("module", "envelope")}
}

// additionalData binds a ciphertext to its addressed device and keeps the
// envelope nonce space separate from the vault's.
func additionalData(deviceID string) []byte {
	return []byte("envelope:" + deviceID)
}

// Seal encrypts plaintext for the given device under its shared secret with
// a fresh nonce.
func (c *Codec) Seal(ctx context.Context, deviceID string, plaintext []byte) (*Envelope, error) {
	device, err := c.devices.Lookup(ctx, deviceID)
	if err != nil {
		return nil, authFailure(err)
	}

	nonce, ciphertext, err := cryptox.Seal(device.SharedSecret, plaintext, additionalData(deviceID))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInternal, err)
	}

	return &Envelope{
		DeviceID:   deviceID,
		Nonce:      nonce,
		Ciphertext: ciphertext,
	}, nil
}

// SealFor encrypts a response for an already-resolved device, skipping the
// registry lookup. Needed when the operation itself removed the device
// record (revocation) but the response still has to reach it.
func (c *Codec) SealFor(device *devices.Device, plaintext []byte) (*Envelope, error) {
	nonce, ciphertext, err := cryptox.Seal(device.SharedSecret, plaintext, additionalData(device.ID))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInternal, err)
	}
	return &Envelope{
		DeviceID:   device.ID,
		Nonce:      nonce,
		Ciphertext: ciphertext,
	}, nil
}

// Open authenticates and decrypts an envelope. Every failure mode — unknown
// device, revoked device, tampered ciphertext, wrong nonce — collapses into
// common.ErrAuthenticationFailed so the caller learns nothing about which
// check failed. Any failure is terminal for the request.
func (c *Codec) Open(ctx context.Context, env *Envelope) ([]byte, error) {
	if env == nil || env.DeviceID == "" {
		return nil, fmt.Errorf("%w: missing device identifier", common.ErrInvalidInput)
	}

	device, err := c.devices.Lookup(ctx, env.DeviceID)
	if err != nil {
		return nil, authFailure(err)
	}

	plaintext, err := cryptox.Open(device.SharedSecret, env.Nonce, env.Ciphertext, additionalData(env.DeviceID))
	if err != nil {
		c.log.Debug(ctx, "envelope rejected", "device", env.DeviceID)
		return nil, common.ErrAuthenticationFailed
	}
	return plaintext, nil
}

// authFailure hides whether the device is unknown or revoked. Storage
// outages stay visible as retryable; everything else collapses into a
// single authentication failure.
func authFailure(err error) error {
	if errors.Is(err, common.ErrStorageUnavailable) {
		return err
	}
	return common.ErrAuthenticationFailed
}
