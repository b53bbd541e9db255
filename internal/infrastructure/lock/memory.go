package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	appsales "github.com/erp/inventory-ledger/internal/application/sales"
	"github.com/erp/inventory-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// InMemoryVariantLocker is a keyed mutex for a single process.
// Entries are reference counted and dropped once no caller holds or awaits them.
type InMemoryVariantLocker struct {
	mu          sync.Mutex
	entries     map[uuid.UUID]*keyEntry
	waitTimeout time.Duration
}

type keyEntry struct {
	sem  chan struct{}
	refs int
}

// NewInMemoryVariantLocker creates a locker. waitTimeout bounds how long Lock
// waits for a busy variant; zero waits until ctx is done.
func NewInMemoryVariantLocker(waitTimeout time.Duration) *InMemoryVariantLocker {
	return &InMemoryVariantLocker{
		entries:     make(map[uuid.UUID]*keyEntry),
		waitTimeout: waitTimeout,
	}
}

// Lock acquires every variant in ids in sorted order. It fails with
// LOCK_TIMEOUT when the wait timeout passes first.
func (l *InMemoryVariantLocker) Lock(ctx context.Context, ids ...uuid.UUID) (func(), error) {
	keys := orderedKeys(ids)
	if l.waitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.waitTimeout)
		defer cancel()
	}

	held := make([]uuid.UUID, 0, len(keys))
	for _, id := range keys {
		entry := l.acquireRef(id)
		select {
		case entry.sem <- struct{}{}:
			held = append(held, id)
		case <-ctx.Done():
			l.releaseRef(id)
			l.unlock(held)
			return nil, lockWaitError(ctx.Err())
		}
	}

	var once sync.Once
	return func() { once.Do(func() { l.unlock(held) }) }, nil
}

func (l *InMemoryVariantLocker) unlock(held []uuid.UUID) {
	for i := len(held) - 1; i >= 0; i-- {
		l.mu.Lock()
		entry := l.entries[held[i]]
		l.mu.Unlock()
		<-entry.sem
		l.releaseRef(held[i])
	}
}

func (l *InMemoryVariantLocker) acquireRef(id uuid.UUID) *keyEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.entries[id]
	if !ok {
		entry = &keyEntry{sem: make(chan struct{}, 1)}
		l.entries[id] = entry
	}
	entry.refs++
	return entry
}

func (l *InMemoryVariantLocker) releaseRef(id uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry := l.entries[id]
	entry.refs--
	if entry.refs == 0 {
		delete(l.entries, id)
	}
}

// size reports how many variants are currently tracked
func (l *InMemoryVariantLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

func lockWaitError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return shared.ErrLockTimeout.WithCause(err)
	}
	return err
}

var _ appsales.VariantLocker = (*InMemoryVariantLocker)(nil)
