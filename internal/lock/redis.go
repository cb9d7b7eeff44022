package lock

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// jitter picks a delay in [d/2, d] so contending waiters spread out.
func jitter(d time.Duration) time.Duration {
	if d <= 1 {
		return d
	}
	half := d / 2
	return half + rand.N(d-half+1)
}

// releaseScript deletes the key only if it still carries our token, so an
// expired lease that another holder has since taken is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis is a lease lock shared by every replica pointing at the same server.
// A lease that outlives its TTL is lost; the database guards in the ledger
// still hold in that case.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	prefix string

	minBackoff time.Duration
	maxBackoff time.Duration
}

// Connect initializes a Redis client from URL or host:port input and pings it.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	var client *redis.Client
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: redisURL})
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewRedis builds a lease locker. ttl bounds how long a crashed holder can
// block a key.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &Redis{
		client:     client,
		ttl:        ttl,
		prefix:     "videorental:lock:",
		minBackoff: 5 * time.Millisecond,
		maxBackoff: 100 * time.Millisecond,
	}
}

// Lock retries SET NX with jittered exponential backoff until it wins or ctx
// is done.
func (r *Redis) Lock(ctx context.Context, key string) (Unlock, error) {
	if r.client == nil {
		return nil, errors.New("redis lock: nil client")
	}
	full := r.prefix + key
	token := uuid.NewString()
	wait := r.minBackoff

	for {
		ok, err := r.client.SetNX(ctx, full, token, r.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("redis lock %s: %w", key, err)
		}
		if ok {
			break
		}
		t := time.NewTimer(jitter(wait))
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
		if wait *= 2; wait > r.maxBackoff {
			wait = r.maxBackoff
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// Release even if the request context is already cancelled.
			rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := releaseScript.Run(rctx, r.client, []string{full}, token).Err(); err != nil {
				log.Warn().Err(err).Str("key", key).Msg("redis lock release failed")
			}
		})
	}, nil
}
