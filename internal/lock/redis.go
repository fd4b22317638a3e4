package lock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultKey is the Redis key guarding roster imports.
const DefaultKey = "roster:import:lock"

const defaultRetryInterval = 100 * time.Millisecond

// releaseScript deletes the key only while it still holds our token, so an
// expired lock re-acquired by someone else is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Redis is a lock shared by every process using the same Redis key.
// The key expires after ttl so a crashed holder cannot block imports forever;
// ttl must exceed the longest import.
type Redis struct {
	client  redis.UniversalClient
	key     string
	ttl     time.Duration
	maxWait time.Duration
	retry   time.Duration
}

// RedisOption configures a Redis lock.
type RedisOption func(*Redis)

// WithKey overrides the lock key.
func WithKey(key string) RedisOption {
	return func(r *Redis) {
		if key != "" {
			r.key = key
		}
	}
}

// WithRetryInterval sets how often a waiter retries.
func WithRetryInterval(d time.Duration) RedisOption {
	return func(r *Redis) {
		if d > 0 {
			r.retry = d
		}
	}
}

// NewRedis creates a Redis-backed lock.
func NewRedis(client redis.UniversalClient, ttl, maxWait time.Duration, opts ...RedisOption) *Redis {
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	r := &Redis{
		client:  client,
		key:     DefaultKey,
		ttl:     ttl,
		maxWait: maxWait,
		retry:   defaultRetryInterval,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Acquire retries SET NX until it succeeds, maxWait elapses (ErrBusy) or ctx
// is done.
func (r *Redis) Acquire(ctx context.Context) (func(), error) {
	token := uuid.NewString()
	deadline := time.Now().Add(r.maxWait)

	for {
		ok, err := r.client.SetNX(ctx, r.key, token, r.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("acquire import lock: %w", err)
		}
		if ok {
			return r.releaser(token), nil
		}

		if time.Now().After(deadline) {
			return nil, ErrBusy
		}
		timer := time.NewTimer(r.retry)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (r *Redis) releaser(token string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			// The import's context may already be done; release regardless.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := releaseScript.Run(ctx, r.client, []string{r.key}, token).Err(); err != nil {
				slog.Warn("failed to release import lock", "key", r.key, "error", err)
			}
		})
	}
}
