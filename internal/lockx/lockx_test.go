package lockx

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyedRWMutex_SerializesSameKey(t *testing.T) {
	km := NewKeyedRWMutex()

	const iterations = 1000
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < iterations; j++ {
				km.Lock("device:a")
				counter++
				km.Unlock("device:a")
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 4*iterations, counter)
}

func TestKeyedRWMutex_DistinctKeysIndependent(t *testing.T) {
	km := NewKeyedRWMutex()

	km.Lock("a")
	done := make(chan struct{})
	go func() {
		// must not block on a different key
		km.Lock("b")
		km.Unlock("b")
		close(done)
	}()
	<-done
	km.Unlock("a")
}

func TestKeyedRWMutex_SharedReaders(t *testing.T) {
	km := NewKeyedRWMutex()

	km.RLock("a")
	done := make(chan struct{})
	go func() {
		km.RLock("a")
		km.RUnlock("a")
		close(done)
	}()
	<-done
	km.RUnlock("a")
}
