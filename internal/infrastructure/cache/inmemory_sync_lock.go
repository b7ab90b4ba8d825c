package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	appfiscal "github.com/fiscalflow/backend/internal/application/fiscal"
)

// lockEntry represents a held lock with expiration
type lockEntry struct {
	expiresAt time.Time
}

// InMemorySyncLocker implements SyncLocker using an in-memory map
// This is suitable for single-instance deployments and testing
type InMemorySyncLocker struct {
	mu        sync.Mutex
	ttl       time.Duration
	locks     map[uuid.UUID]lockEntry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemorySyncLocker creates a new in-memory sync locker. Locks expire
// after ttl so a crashed sync cannot wedge a location forever.
// It starts a background goroutine to clean up expired locks.
func NewInMemorySyncLocker(ttl time.Duration) *InMemorySyncLocker {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	locker := &InMemorySyncLocker{
		ttl:      ttl,
		locks:    make(map[uuid.UUID]lockEntry),
		stopChan: make(chan struct{}),
	}

	locker.wg.Add(1)
	go locker.cleanupLoop()

	return locker
}

// Acquire takes the lock for a location.
// Returns true if the lock was taken, false if another sync already holds it.
func (l *InMemorySyncLocker) Acquire(ctx context.Context, locationID uuid.UUID) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, held := l.locks[locationID]; held {
		if time.Now().Before(e.expiresAt) {
			return false, nil // Another sync is in flight
		}
		// Lock exists but expired, will be overwritten
	}

	l.locks[locationID] = lockEntry{
		expiresAt: time.Now().Add(l.ttl),
	}

	return true, nil
}

// Release frees the lock for a location. Releasing a lock that is not held
// is a no-op.
func (l *InMemorySyncLocker) Release(ctx context.Context, locationID uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.locks, locationID)
	return nil
}

// Close stops the cleanup goroutine and releases resources
// Safe to call multiple times
func (l *InMemorySyncLocker) Close() error {
	l.closeOnce.Do(func() {
		close(l.stopChan)
		l.wg.Wait()
	})
	return nil
}

// cleanupLoop periodically removes expired locks
func (l *InMemorySyncLocker) cleanupLoop() {
	defer l.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopChan:
			return
		case <-ticker.C:
			l.cleanup()
		}
	}
}

// cleanup removes expired locks from the map
func (l *InMemorySyncLocker) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for locationID, e := range l.locks {
		if now.After(e.expiresAt) {
			delete(l.locks, locationID)
		}
	}
}

// Size returns the number of held locks (for testing/monitoring)
func (l *InMemorySyncLocker) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}

// Ensure InMemorySyncLocker implements SyncLocker
var _ appfiscal.SyncLocker = (*InMemorySyncLocker)(nil)
