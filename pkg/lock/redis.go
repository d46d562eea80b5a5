package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a distributed lock built on SET NX PX with token-checked release.
type Redis struct {
	client     *redis.Client
	prefix     string
	ttl        time.Duration
	retryEvery time.Duration
}

// NewRedis creates a Redis-backed locker. ttl bounds how long a crashed holder can block the key.
func NewRedis(client *redis.Client, prefix string, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Redis{
		client:     client,
		prefix:     prefix,
		ttl:        ttl,
		retryEvery: 50 * time.Millisecond,
	}
}

// Acquire polls SET NX until it wins or ctx is done.
func (r *Redis) Acquire(ctx context.Context, key string) (func(), error) {
	fullKey := r.prefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(r.retryEvery)
	defer ticker.Stop()

	for {
		ok, err := r.client.SetNX(ctx, fullKey, token, r.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, fullKey, ctxErr)
			}
			return nil, fmt.Errorf("lock: set %s: %w", fullKey, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, fullKey, ctx.Err())
		case <-ticker.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = releaseScript.Run(releaseCtx, r.client, []string{fullKey}, token).Err()
		})
	}, nil
}
