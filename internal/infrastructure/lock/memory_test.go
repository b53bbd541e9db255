package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/erp/inventory-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderedKeys(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	b := uuid.MustParse("00000000-0000-0000-0000-00000000000b")

	assert.Equal(t, []uuid.UUID{a, b}, orderedKeys([]uuid.UUID{b, uuid.Nil, a, b}))
	assert.Empty(t, orderedKeys(nil))
}

func TestInMemoryVariantLocker_MutualExclusion(t *testing.T) {
	locker := NewInMemoryVariantLocker(0)
	variant := uuid.New()
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(ctx, variant)
			if !assert.NoError(t, err) {
				return
			}
			defer unlock()

			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Zero(t, locker.size())
}

func TestInMemoryVariantLocker_DuplicateIDs(t *testing.T) {
	locker := NewInMemoryVariantLocker(time.Second)
	variant := uuid.New()

	unlock, err := locker.Lock(context.Background(), variant, variant)
	require.NoError(t, err)
	unlock()
	unlock()
	assert.Zero(t, locker.size())
}

func TestInMemoryVariantLocker_OppositeOrderDoesNotDeadlock(t *testing.T) {
	locker := NewInMemoryVariantLocker(2 * time.Second)
	a, b := uuid.New(), uuid.New()
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 100)
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(ctx, a, b)
			if err != nil {
				errs <- err
				return
			}
			unlock()
		}()
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(ctx, b, a)
			if err != nil {
				errs <- err
				return
			}
			unlock()
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("unexpected lock error: %v", err)
	}
}

func TestInMemoryVariantLocker_Timeout(t *testing.T) {
	locker := NewInMemoryVariantLocker(20 * time.Millisecond)
	a, b := uuid.New(), uuid.New()
	ctx := context.Background()

	unlockB, err := locker.Lock(ctx, b)
	require.NoError(t, err)

	_, err = locker.Lock(ctx, a, b)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrLockTimeout))

	// a was released when acquiring b failed
	unlockA, err := locker.Lock(ctx, a)
	require.NoError(t, err)
	unlockA()
	unlockB()
	assert.Zero(t, locker.size())
}

func TestInMemoryVariantLocker_CancelledContext(t *testing.T) {
	locker := NewInMemoryVariantLocker(0)
	variant := uuid.New()

	unlock, err := locker.Lock(context.Background(), variant)
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = locker.Lock(ctx, variant)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, shared.ErrLockTimeout))
}
