package vault

import "context"

type Repository interface {
	Get(ctx context.Context, deviceID, recordID string) (*SecretRecord, error)
	Save(ctx context.Context, record *SecretRecord) error
	Delete(ctx context.Context, deviceID, recordID string) error
	ListDevice(ctx context.Context, deviceID string) ([]*SecretRecord, error)

	// PurgeDevice removes every record owned by deviceID. Idempotent; used
	// by device revocation.
	PurgeDevice(ctx context.Context, deviceID string) error
}
