package devices

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/onionkeep/onionkeep/internal/server/storage"
)

const keyPrefix = "device:"

// StorageRepository persists devices as JSON blobs under "device:{id}".
type StorageRepository struct {
	store storage.Storage
}

func NewStorageRepository(store storage.Storage) *StorageRepository {
	return &StorageRepository{store: store}
}

func deviceKey(id string) string {
	return keyPrefix + id
}

func (r *StorageRepository) Get(ctx context.Context, id string) (*Device, error) {
	blob, err := r.store.Get(ctx, deviceKey(id))
	if err != nil {
		return nil, err
	}
	device := &Device{}
	if err := json.Unmarshal(blob, device); err != nil {
		return nil, fmt.Errorf("corrupt device record %q: %w", id, err)
	}
	return device, nil
}

func (r *StorageRepository) Save(ctx context.Context, device *Device) error {
	blob, err := json.Marshal(device)
	if err != nil {
		return fmt.Errorf("error serializing device: %w", err)
	}
	return r.store.Set(ctx, deviceKey(device.ID), blob)
}

func (r *StorageRepository) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, deviceKey(id))
}

func (r *StorageRepository) List(ctx context.Context) ([]*Device, error) {
	entries, err := r.store.List(ctx, keyPrefix)
	if err != nil {
		return nil, err
	}

	result := make([]*Device, 0, len(entries))
	for _, e := range entries {
		device := &Device{}
		if err := json.Unmarshal(e.Value, device); err != nil {
			return nil, fmt.Errorf("corrupt device record %q: %w", e.Key, err)
		}
		result = append(result, device)
	}
	return result, nil
}
