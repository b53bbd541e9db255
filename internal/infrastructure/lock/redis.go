package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	appsales "github.com/erp/inventory-ledger/internal/application/sales"
	"github.com/erp/inventory-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisLockerConfig configures RedisVariantLocker
type RedisLockerConfig struct {
	KeyPrefix       string        // defaults to "ledger:variant:"
	TTL             time.Duration // lease length, extended while held
	RefreshInterval time.Duration // defaults to TTL/2
	WaitTimeout     time.Duration
	RetryInterval   time.Duration
}

// RedisVariantLocker serialises variants across service instances with
// Redis leases obtained through redislock.
//
// Held leases are refreshed every RefreshInterval until unlock, so an
// operation may outlast TTL. If a refresh fails (Redis unreachable, lease
// already expired) the failure is logged and the lease may lapse; the
// guarded AdjustRemaining update still rejects any write that would push a
// batch counter out of range.
type RedisVariantLocker struct {
	client *redislock.Client
	cfg    RedisLockerConfig
	logger *zap.Logger
}

// NewRedisVariantLocker creates a locker on top of an existing Redis client
func NewRedisVariantLocker(rdb redis.Scripter, cfg RedisLockerConfig, logger *zap.Logger) *RedisVariantLocker {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "ledger:variant:"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Second
	}
	if cfg.RefreshInterval <= 0 || cfg.RefreshInterval >= cfg.TTL {
		cfg.RefreshInterval = cfg.TTL / 2
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 25 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisVariantLocker{
		client: redislock.New(rdb),
		cfg:    cfg,
		logger: logger,
	}
}

// Lock obtains a lease per variant in sorted order, retrying until the
// wait timeout. LOCK_TIMEOUT is returned when a lease stays taken.
func (l *RedisVariantLocker) Lock(ctx context.Context, ids ...uuid.UUID) (func(), error) {
	keys := orderedKeys(ids)
	waitCtx := ctx
	if l.cfg.WaitTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, l.cfg.WaitTimeout)
		defer cancel()
	}

	opts := &redislock.Options{RetryStrategy: redislock.LinearBackoff(l.cfg.RetryInterval)}
	held := make([]*redislock.Lock, 0, len(keys))
	for _, id := range keys {
		lease, err := l.client.Obtain(waitCtx, l.key(id), l.cfg.TTL, opts)
		if err != nil {
			l.release(held)
			if errors.Is(err, redislock.ErrNotObtained) {
				return nil, shared.ErrLockTimeout.WithCause(err)
			}
			if waitCtx.Err() != nil {
				return nil, lockWaitError(waitCtx.Err())
			}
			return nil, fmt.Errorf("obtain variant lock %s: %w", id, err)
		}
		held = append(held, lease)
	}

	stop := make(chan struct{})
	done := make(chan struct{})
	go l.keepAlive(held, stop, done)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(stop)
			<-done
			l.release(held)
		})
	}, nil
}

// keepAlive extends every held lease until stop is closed.
func (l *RedisVariantLocker) keepAlive(held []*redislock.Lock, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(l.cfg.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), l.cfg.RefreshInterval)
			for _, lease := range held {
				if err := lease.Refresh(ctx, l.cfg.TTL, nil); err != nil {
					l.logger.Warn("failed to refresh variant lock",
						zap.String("key", lease.Key()),
						zap.Error(err),
					)
				}
			}
			cancel()
		}
	}
}

func (l *RedisVariantLocker) release(held []*redislock.Lock) {
	// leases must be freed even when the request context is already cancelled
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for i := len(held) - 1; i >= 0; i-- {
		if err := held[i].Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.logger.Warn("failed to release variant lock",
				zap.String("key", held[i].Key()),
				zap.Error(err),
			)
		}
	}
}

func (l *RedisVariantLocker) key(id uuid.UUID) string {
	return l.cfg.KeyPrefix + id.String()
}

var _ appsales.VariantLocker = (*RedisVariantLocker)(nil)
