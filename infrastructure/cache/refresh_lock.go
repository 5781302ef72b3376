package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/krishhhh88/instadrive-backend/domain/repository"
	"github.com/krishhhh88/instadrive-backend/infrastructure/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultLockTTL   = 30 * time.Second
	defaultLockRetry = 100 * time.Millisecond
)

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

// RefreshLocker serializes token refreshes per account. Inside one process a
// per-account slot is taken first; with Redis configured a SET NX PX lease then
// extends the exclusion across instances.
type RefreshLocker struct {
	mu    sync.Mutex
	slots map[int64]chan struct{}
	redis *redis.Client
	ttl   time.Duration
	retry time.Duration
}

// NewRefreshLocker returns a locker; client may be nil for single-instance deployments.
func NewRefreshLocker(client *redis.Client) repository.IRefreshLocker {
	return newRefreshLocker(client)
}

func newRefreshLocker(client *redis.Client) *RefreshLocker {
	return &RefreshLocker{
		slots: make(map[int64]chan struct{}),
		redis: client,
		ttl:   defaultLockTTL,
		retry: defaultLockRetry,
	}
}

func (l *RefreshLocker) slot(accountID int64) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[accountID]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[accountID] = ch
	}
	return ch
}

func (l *RefreshLocker) Lock(ctx context.Context, accountID int64) (func(), error) {
	ch := l.slot(accountID)
	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	releaseLocal := func() { <-ch }

	if l.redis == nil {
		var once sync.Once
		return func() { once.Do(releaseLocal) }, nil
	}

	key := fmt.Sprintf("instadrive:refresh-lock:%d", accountID)
	token := uuid.NewString()
	if err := l.acquire(ctx, key, token); err != nil {
		releaseLocal()
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// the caller's context may already be done; the lease must still be dropped
			relCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := releaseScript.Run(relCtx, l.redis, []string{key}, token).Err(); err != nil {
				logger.GetLogger().WithField("account_id", accountID).WithField("error", err).Warn("Failed to release refresh lock; it expires on its own")
			}
			releaseLocal()
		})
	}, nil
}

func (l *RefreshLocker) acquire(ctx context.Context, key, token string) error {
	for {
		ok, err := l.redis.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return fmt.Errorf("refresh lock: %w", err)
		}
		if ok {
			return nil
		}
		select {
		case <-time.After(l.retry):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
