// Package lockx provides string-keyed read/write mutexes. The server uses
// them to serialize compound mutations that span several storage keys for
// one device or record, since the storage layer only guarantees per-key
// atomicity.
package lockx

import "sync"

// KeyedRWMutex hands out one RWMutex per key. Locks for distinct keys are
// fully independent. Mutexes are kept for the lifetime of the KeyedRWMutex;
// the key space here (device and record identifiers) is small enough that
// reclamation is not worth the bookkeeping.
type KeyedRWMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.RWMutex
}

func NewKeyedRWMutex() *KeyedRWMutex {
	return &KeyedRWMutex{locks: make(map[string]*sync.RWMutex)}
}

func (k *KeyedRWMutex) get(key string) *sync.RWMutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.RWMutex{}
		k.locks[key] = m
	}
	return m
}

// Lock acquires the write lock for key, creating the mutex on first use.
func (k *KeyedRWMutex) Lock(key string) {
	k.get(key).Lock()
}

// Unlock releases the write lock for key.
func (k *KeyedRWMutex) Unlock(key string) {
	k.get(key).Unlock()
}

// RLock acquires the read lock for key.
func (k *KeyedRWMutex) RLock(key string) {
	k.get(key).RLock()
}

// RUnlock releases the read lock for key.
func (k *KeyedRWMutex) RUnlock(key string) {
	k.get(key).RUnlock()
}
