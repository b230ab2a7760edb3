package autotrip

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockRegistryTryAcquire(t *testing.T) {
	registry := NewLockRegistry()
	id := uuid.New()

	release, ok := registry.TryAcquire(id)
	require.True(t, ok)

	_, ok = registry.TryAcquire(id)
	assert.False(t, ok, "second acquire while held must fail")

	// A different connection is unaffected.
	otherRelease, ok := registry.TryAcquire(uuid.New())
	require.True(t, ok)
	otherRelease()

	release()

	release2, ok := registry.TryAcquire(id)
	require.True(t, ok, "lock must be free again after release")
	release2()
}

func TestLockRegistryReleaseIsIdempotent(t *testing.T) {
	registry := NewLockRegistry()
	id := uuid.New()

	release, ok := registry.TryAcquire(id)
	require.True(t, ok)

	release()
	release() // second call must be a no-op

	// If the double release freed someone else's lock this would succeed
	// twice in a row.
	r1, ok := registry.TryAcquire(id)
	require.True(t, ok)
	_, ok = registry.TryAcquire(id)
	assert.False(t, ok)
	r1()
}

func TestLockRegistryConcurrentAcquire(t *testing.T) {
	registry := NewLockRegistry()
	id := uuid.New()

	const attempts = 50
	var wg sync.WaitGroup
	var mu sync.Mutex
	acquired := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, ok := registry.TryAcquire(id); ok {
				mu.Lock()
				acquired++
				mu.Unlock()
				// Never released: every later attempt must fail.
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, acquired, "exactly one goroutine may hold the lock")
}
