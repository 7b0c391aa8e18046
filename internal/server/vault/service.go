// Package vault implements the per-device store of encrypted secret
// records. Values are encrypted at rest under the owning device's shared
// secret with a fresh nonce per (re-)encryption; the associated data binds
// each ciphertext to its device and record, which also keeps the vault
// nonce space apart from the envelope's.
package vault

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/onionkeep/onionkeep/internal/common"
	"github.com/onionkeep/onionkeep/internal/cryptox"
	"github.com/onionkeep/onionkeep/internal/lockx"
	"github.com/onionkeep/onionkeep/internal/logging"
	"github.com/onionkeep/onionkeep/internal/server/devices"
)

// DeviceLookup resolves a device identifier to its record. Satisfied by
// *devices.Service.
type DeviceLookup interface {
	Lookup(ctx context.Context, id string) (*devices.Device, error)
}

type Service struct {
	repo    Repository
	devices DeviceLookup
	locks   *lockx.KeyedRWMutex
	log     logging.Logger
}

// NewService wires the vault. The locks must be the same KeyedRWMutex the
// device registry uses, so record mutations take the device read lock that
// revocation excludes.
func NewService(repo Repository, lookup DeviceLookup, locks *lockx.KeyedRWMutex, log logging.Logger) *Service {
	return &Service{
		repo:    repo,
		devices: lookup,
		locks:   locks,
		log:     log.With("module", "vault"),
	}
}

func additionalData(deviceID, recordID string) []byte {
	return []byte("secret:" + deviceID + ":" + recordID)
}

func recordLockKey(deviceID, recordID string) string {
	return "secret:" + deviceID + ":" + recordID
}

// Create encrypts the plaintext for the device and persists a new record.
// Returns the new record identifier.
func (s *Service) Create(ctx context.Context, deviceID, label string, plaintext []byte) (string, error) {
	if label == "" {
		return "", fmt.Errorf("%w: label must not be empty", common.ErrInvalidInput)
	}

	s.locks.RLock(deviceID)
	defer s.locks.RUnlock(deviceID)

	device, err := s.devices.Lookup(ctx, deviceID)
	if err != nil {
		return "", err
	}

	recordID := uuid.NewString()
	nonce, ciphertext, err := cryptox.Seal(device.SharedSecret, plaintext, additionalData(deviceID, recordID))
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrInternal, err)
	}

	now := time.Now().UTC()
	record := &SecretRecord{
		ID:         recordID,
		DeviceID:   deviceID,
		Label:      label,
		Ciphertext: ciphertext,
		Nonce:      nonce,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Save(ctx, record); err != nil {
		return "", err
	}

	s.log.Debug(ctx, "secret created", "device", deviceID, "record", recordID)
	return recordID, nil
}

// List returns index metadata for all of the device's records. Secret
// contents are never included.
func (s *Service) List(ctx context.Context, deviceID string) ([]RecordInfo, error) {
	records, err := s.repo.ListDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	result := make([]RecordInfo, 0, len(records))
	for _, r := range records {
		result = append(result, r.info())
	}
	return result, nil
}

// Get decrypts and returns the record's plaintext. A record owned by a
// different device is reported exactly like an absent one.
func (s *Service) Get(ctx context.Context, deviceID, recordID string) ([]byte, error) {
	record, err := s.repo.Get(ctx, deviceID, recordID)
	if err != nil {
		return nil, err
	}

	device, err := s.devices.Lookup(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	plaintext, err := cryptox.Open(device.SharedSecret, record.Nonce, record.Ciphertext, additionalData(deviceID, recordID))
	if err != nil {
		// a record that fails to decrypt under its owner's key is corrupt
		return nil, fmt.Errorf("%w: secret record unreadable", common.ErrInternal)
	}
	return plaintext, nil
}

// Update re-encrypts the record with a fresh nonce; the previous nonce is
// never reused. Concurrent updates of the same record are serialized and
// the record ends in the state of exactly one of them.
func (s *Service) Update(ctx context.Context, deviceID, recordID string, plaintext []byte) error {
	s.locks.RLock(deviceID)
	defer s.locks.RUnlock(deviceID)
	s.locks.Lock(recordLockKey(deviceID, recordID))
	defer s.locks.Unlock(recordLockKey(deviceID, recordID))

	record, err := s.repo.Get(ctx, deviceID, recordID)
	if err != nil {
		return err
	}

	device, err := s.devices.Lookup(ctx, deviceID)
	if err != nil {
		return err
	}

	nonce, ciphertext, err := cryptox.Seal(device.SharedSecret, plaintext, additionalData(deviceID, recordID))
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrInternal, err)
	}

	record.Ciphertext = ciphertext
	record.Nonce = nonce
	record.UpdatedAt = time.Now().UTC()
	return s.repo.Save(ctx, record)
}

// Delete removes the record. Deleting an absent record is not an error.
func (s *Service) Delete(ctx context.Context, deviceID, recordID string) error {
	s.locks.RLock(deviceID)
	defer s.locks.RUnlock(deviceID)
	s.locks.Lock(recordLockKey(deviceID, recordID))
	defer s.locks.Unlock(recordLockKey(deviceID, recordID))

	err := s.repo.Delete(ctx, deviceID, recordID)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return err
	}
	return nil
}
