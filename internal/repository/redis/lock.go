package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/Rrens/fairway/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	sessionLockPrefix = "lock:session:"
	lockRetryInterval = 50 * time.Millisecond
	defaultLockTTL    = 45 * time.Second
)

// Deletes the key only while it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// SessionLock serializes conversation handling across nodes with a
// token-guarded Redis key
type SessionLock struct {
	client *Client
	ttl    time.Duration
	retry  time.Duration
}

// NewSessionLock creates a lock whose keys expire after ttl
func NewSessionLock(client *Client, ttl time.Duration) *SessionLock {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &SessionLock{client: client, ttl: ttl, retry: lockRetryInterval}
}

// Lock acquires the key, waiting at most one TTL. It fails with
// domain.ErrBusy when the key stays held.
func (l *SessionLock) Lock(ctx context.Context, key string) (func(), error) {
	fullKey := sessionLockPrefix + key
	token := uuid.NewString()
	deadline := time.Now().Add(l.ttl)

	for {
		ok, err := l.client.rdb.SetNX(ctx, fullKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock: %w", err)
		}
		if ok {
			return func() { l.release(fullKey, token) }, nil
		}
		if time.Now().Add(l.retry).After(deadline) {
			return nil, fmt.Errorf("lock %s held: %w", key, domain.ErrBusy)
		}

		timer := time.NewTimer(l.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("lock %s: %w: %w", key, domain.ErrBusy, ctx.Err())
		case <-timer.C:
		}
	}
}

func (l *SessionLock) release(key, token string) {
	// The request context may already be done
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := releaseScript.Run(ctx, l.client.rdb, []string{key}, token).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to release session lock")
	}
}
