package funding

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrSettlementInProgress indicates another delivery of the same reference is
// being settled right now. Gateways retry webhooks, so refusing is safe.
var ErrSettlementInProgress = errors.New("reference settlement in progress")

// ReferenceLocker provides per-reference mutual exclusion around settlement.
// The unique reference index deduplicates records; the lock closes the
// remaining race where two concurrent deliveries both read "not yet settled"
// before either writes.
type ReferenceLocker interface {
	Acquire(ctx context.Context, reference string) (release func(), err error)
}

const lockPrefix = "settlement:lock:"

// RedisLocker implements ReferenceLocker with a Redis SETNX lease.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisLocker builds a locker. The TTL bounds how long a crashed settler
// can hold a reference hostage.
func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLocker{client: client, ttl: ttl}
}

// Acquire claims the reference or fails with ErrSettlementInProgress.
func (l *RedisLocker) Acquire(ctx context.Context, reference string) (func(), error) {
	key := lockPrefix + reference
	ok, err := l.client.SetNX(ctx, key, "1", l.ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrSettlementInProgress
	}
	release := func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		l.client.Del(releaseCtx, key)
	}
	return release, nil
}

// MemoryLocker is an in-process ReferenceLocker for tests and database-less
// development.
type MemoryLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

// NewMemoryLocker builds an empty in-process locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]bool)}
}

// Acquire claims the reference or fails with ErrSettlementInProgress.
func (l *MemoryLocker) Acquire(_ context.Context, reference string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[reference] {
		return nil, ErrSettlementInProgress
	}
	l.held[reference] = true
	release := func() {
		l.mu.Lock()
		delete(l.held, reference)
		l.mu.Unlock()
	}
	return release, nil
}
