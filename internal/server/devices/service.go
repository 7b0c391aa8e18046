// Package devices manages the lifecycle of paired devices: registration via
// the X25519 pairing handshake, lookup on every enveloped request, renaming,
// and revocation with cascade deletion of the device's secrets.
package devices

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
	"github.com/onionkeep/onionkeep/internal/passphrase"
	"github.com/onionkeep/onionkeep/internal/server/identity"
)

// A fresh uuid colliding even once is already a sign something is wrong
// with the entropy source; exhausting the retries is an internal fault.
const maxIDAttempts = 5

// SecretPurger removes every secret record owned by a device. Implemented
// by the vault repository; declared here so the registry does not depend on
// the vault package.
type SecretPurger interface {
	PurgeDevice(ctx context.Context, deviceID string) error
}

// Registration is what the pairing endpoint returns to the new device.
type Registration struct {
	Device           *Device
	ServerPublicKey  []byte
	VerificationCode string
}

type Service struct {
	repo     Repository
	identity *identity.Identity
	purger   SecretPurger
	locks    *lockx.KeyedRWMutex
	log      logging.Logger
}

func NewService(repo Repository, id *identity.Identity, purger SecretPurger, locks *lockx.KeyedRWMutex, log logging.Logger) *Service {
	return &Service{
		repo:     repo,
		identity: id,
		purger:   purger,
		locks:    locks,
		log:      log.With("module", "devices"),
	}
}

// Register runs the server side of the pairing handshake: validates the
// client public key, derives the shared secret from the server's long-term
// private key, mints a fresh identifier and commits the device record.
//
// The same public key may be registered again; that always produces a new
// device identity rather than deduplicating on the key.
func (s *Service) Register(ctx context.Context, publicKey []byte, name string) (*Registration, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: device name must not be empty", common.ErrInvalidInput)
	}

	// Rejects wrong-length keys and low-order points; the secret is never
	// transmitted, the client derives the same value on its side.
	sharedSecret, err := cryptox.SharedSecret(s.identity.PrivateKey, publicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}

	device := &Device{
		Name:         name,
		PublicKey:    append([]byte(nil), publicKey...),
		SharedSecret: sharedSecret,
		CreatedAt:    time.Now().UTC(),
	}

	// Verify-then-commit under the device lock so two pairings racing to
	// the same freshly-generated identifier cannot both claim it.
	committed := false
	for attempt := 0; attempt < maxIDAttempts && !committed; attempt++ {
		id := uuid.NewString()

		s.locks.Lock(id)
		_, err := s.repo.Get(ctx, id)
		switch {
		case err == nil:
			s.locks.Unlock(id)
			s.log.Warn(ctx, "device identifier collision, regenerating", "attempt", attempt)
			continue
		case errors.Is(err, common.ErrNotFound):
			device.ID = id
			err = s.repo.Save(ctx, device)
			s.locks.Unlock(id)
			if err != nil {
				return nil, err
			}
			committed = true
		default:
			s.locks.Unlock(id)
			return nil, err
		}
	}
	if !committed {
		return nil, fmt.Errorf("%w: device identifier space exhausted", common.ErrInternal)
	}

	code, err := passphrase.Generate()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInternal, err)
	}

	s.log.Info(ctx, "device registered", "device", device.ID, "name", device.Name)

	return &Registration{
		Device:           device,
		ServerPublicKey:  s.identity.PublicKey,
		VerificationCode: code,
	}, nil
}

// Lookup returns the device by identifier. Revoked and never-registered
// identifiers are indistinguishable: both are common.ErrNotFound.
func (s *Service) Lookup(ctx context.Context, id string) (*Device, error) {
	return s.repo.Get(ctx, id)
}

// List returns the public views of all paired devices.
func (s *Service) List(ctx context.Context) ([]PublicDevice, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]PublicDevice, 0, len(all))
	for _, d := range all {
		result = append(result, d.ToPublic())
	}
	return result, nil
}

// Rename updates the display name, the only mutable device attribute.
func (s *Service) Rename(ctx context.Context, id, name string) error {
	if name == "" {
		return fmt.Errorf("%w: device name must not be empty", common.ErrInvalidInput)
	}

	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	device, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	device.Name = name
	return s.repo.Save(ctx, device)
}

// Revoke deletes the device and cascades deletion of all its secrets.
// Secrets are purged before the device record goes away, so a failure
// partway leaves a device without secrets, never orphaned secrets without a
// device; the whole call is idempotent and can be retried.
func (s *Service) Revoke(ctx context.Context, id string) error {
	s.locks.Lock(id)
	defer s.locks.Unlock(id)

	if _, err := s.repo.Get(ctx, id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			// already gone; still purge in case an earlier attempt
			// failed between the two steps
			return s.purger.PurgeDevice(ctx, id)
		}
		return err
	}

	if err := s.purger.PurgeDevice(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.log.Info(ctx, "device revoked", "device", id)
	return nil
}
