package vault

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/onionkeep/onionkeep/internal/server/storage"
)

// StorageRepository persists records as JSON blobs under
// "secret:{device_id}:{record_id}". Scoping the key by device means a
// foreign record simply is not found under the caller's device prefix.
type StorageRepository struct {
	store storage.Storage
}

func NewStorageRepository(store storage.Storage) *StorageRepository {
	return &StorageRepository{store: store}
}

func recordKey(deviceID, recordID string) string {
	return devicePrefix(deviceID) + recordID
}

func devicePrefix(deviceID string) string {
	return "secret:" + deviceID + ":"
}

func (r *StorageRepository) Get(ctx context.Context, deviceID, recordID string) (*SecretRecord, error) {
	blob, err := r.store.Get(ctx, recordKey(deviceID, recordID))
	if err != nil {
		return nil, err
	}
	record := &SecretRecord{}
	if err := json.Unmarshal(blob, record); err != nil {
		return nil, fmt.Errorf("corrupt secret record %q: %w", recordID, err)
	}
	return record, nil
}

func (r *StorageRepository) Save(ctx context.Context, record *SecretRecord) error {
	blob, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("error serializing secret record: %w", err)
	}
	return r.store.Set(ctx, recordKey(record.DeviceID, record.ID), blob)
}

func (r *StorageRepository) Delete(ctx context.Context, deviceID, recordID string) error {
	return r.store.Delete(ctx, recordKey(deviceID, recordID))
}

func (r *StorageRepository) ListDevice(ctx context.Context, deviceID string) ([]*SecretRecord, error) {
	entries, err := r.store.List(ctx, devicePrefix(deviceID))
	if err != nil {
		return nil, err
	}

	result := make([]*SecretRecord, 0, len(entries))
	for _, e := range entries {
		record := &SecretRecord{}
		if err := json.Unmarshal(e.Value, record); err != nil {
			return nil, fmt.Errorf("corrupt secret record %q: %w", e.Key, err)
		}
		result = append(result, record)
	}
	return result, nil
}

func (r *StorageRepository) PurgeDevice(ctx context.Context, deviceID string) error {
	entries, err := r.store.List(ctx, devicePrefix(deviceID))
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := r.store.Delete(ctx, e.Key); err != nil {
			return err
		}
	}
	return nil
}
