package autotrip

import (
	"sync"

	"github.com/google/uuid"
)

// LockRegistry hands out per-connection processing locks so a scheduled tick
// and a manual trigger can't work the same vehicle at once. Locks live in
// process memory only; protection is best-effort within a single instance.
type LockRegistry struct {
	mu   sync.Mutex
	held map[uuid.UUID]struct{}
}

func NewLockRegistry() *LockRegistry {
	return &LockRegistry{held: make(map[uuid.UUID]struct{})}
}

// TryAcquire takes the lock for a connection if it is free. On success the
// returned release func gives it back; callers defer it immediately. A false
// result means the connection is already being processed.
func (l *LockRegistry) TryAcquire(connectionID uuid.UUID) (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, taken := l.held[connectionID]; taken {
		return nil, false
	}
	l.held[connectionID] = struct{}{}

	var once sync.Once
	release := func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.held, connectionID)
			l.mu.Unlock()
		})
	}
	return release, true
}
