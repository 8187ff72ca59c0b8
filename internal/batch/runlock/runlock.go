// Package runlock serializes batch scan runs. Concurrent runs over
// overlapping pieces would race on read-modify-write piece updates, so the
// dispatcher takes one lock per store for the duration of a run: a Redis
// lock when the deployment runs several processes, a local mutex otherwise.
package runlock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Local serializes runs within a single process.
type Local struct {
	mu sync.Mutex
}

func NewLocal() *Local {
	return &Local{}
}

func (l *Local) Acquire(_ context.Context) (func(), error) {
	l.mu.Lock()
	return l.mu.Unlock, nil
}

// Redis serializes runs across processes with SET NX and a TTL so a crashed
// holder cannot wedge processing forever.
type Redis struct {
	client *redis.Client
	key    string
	ttl    time.Duration
	retry  time.Duration
}

// RedisOption configures a Redis lock.
type RedisOption func(*Redis)

// WithTTL overrides how long a held lock survives a crashed process.
func WithTTL(ttl time.Duration) RedisOption {
	return func(r *Redis) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithRetryInterval overrides the polling interval while the lock is held
// elsewhere.
func WithRetryInterval(interval time.Duration) RedisOption {
	return func(r *Redis) {
		if interval > 0 {
			r.retry = interval
		}
	}
}

// NewRedis constructs a Redis-backed run lock on the given key.
func NewRedis(client *redis.Client, key string, opts ...RedisOption) *Redis {
	lock := &Redis{
		client: client,
		key:    key,
		ttl:    time.Minute,
		retry:  50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(lock)
	}
	return lock
}

// releaseScript deletes the lock only when it still holds our token, so an
// expired lock re-acquired by another process is never released by us.
const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`

// Acquire blocks until the lock is held or ctx is done. The returned release
// func is safe to call exactly once.
func (r *Redis) Acquire(ctx context.Context) (func(), error) {
	token := uuid.NewString()
	for {
		ok, err := r.client.SetNX(ctx, r.key, token, r.ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.retry):
		}
	}
	release := func() {
		// Detached context: release must work even when the run's context
		// was cancelled after commit.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		r.client.Eval(ctx, releaseScript, []string{r.key}, token)
	}
	return release, nil
}
