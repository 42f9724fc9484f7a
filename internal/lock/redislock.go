package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotAcquired is returned when the caller gives up waiting for a lock.
var ErrNotAcquired = errors.New("lock: not acquired")

// releaseScript deletes the lock only when the holder's token still matches,
// so an expired lock taken over by another holder is never released by the
// previous one.
var releaseScript = redis.NewScript(`if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`)

// Key builds a lock key for one scoped resource, e.g.
// Key("comparison", rfqNumber) for a sheet rebuild.
func Key(scope, id string) string {
	return fmt.Sprintf("lock:%s:%s", scope, id)
}

// Locker serialises work on a shared resource across processes. The engine
// uses it to keep concurrent workers from rebuilding the same RFQ's
// comparison sheet at once.
type Locker struct {
	R            *redis.Client
	RetryBackoff time.Duration
}

// WithLock runs fn while holding the lock for key, polling until the lock is
// free or ctx ends. The lock is released when fn returns, error or not; the
// TTL bounds how long a crashed holder can block other workers.
func (l Locker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error {
	if l.R == nil {
		return errors.New("lock: redis client not configured")
	}
	if fn == nil {
		return errors.New("lock: callback not provided")
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	retry := l.RetryBackoff
	if retry <= 0 {
		retry = 50 * time.Millisecond
	}

	token := uuid.NewString()
	for {
		ok, err := l.R.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return err
		}
		if ok {
			break
		}
		timer := time.NewTimer(retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, ctx.Err())
		case <-timer.C:
		}
	}

	// Release on a fresh context so a cancelled caller still unlocks.
	defer func() {
		_ = releaseScript.Run(context.Background(), l.R, []string{key}, token).Err()
	}()
	return fn(ctx)
}
