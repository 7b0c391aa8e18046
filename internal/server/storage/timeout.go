package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/onionkeep/onionkeep/internal/common"
)

// TimeoutStorage decorates a backend with a per-operation deadline. A slow
// backend surfaces as common.ErrStorageUnavailable instead of a hang.
type TimeoutStorage struct {
	inner   Storage
	timeout time.Duration
}

func NewTimeoutStorage(inner Storage, timeout time.Duration) *TimeoutStorage {
	return &TimeoutStorage{inner: inner, timeout: timeout}
}

func (s *TimeoutStorage) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	value, err := s.inner.Get(ctx, key)
	return value, mapDeadline(err)
}

func (s *TimeoutStorage) Set(ctx context.Context, key string, value []byte) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return mapDeadline(s.inner.Set(ctx, key, value))
}

func (s *TimeoutStorage) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return mapDeadline(s.inner.Delete(ctx, key))
}

func (s *TimeoutStorage) List(ctx context.Context, prefix string) ([]Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	entries, err := s.inner.List(ctx, prefix)
	return entries, mapDeadline(err)
}

func mapDeadline(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
	}
	return err
}
