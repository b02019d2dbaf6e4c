package lease

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/abhisek/casequiz/internal/logger"
)

const keyPrefix = "casequiz:lease:"

// releaseScript deletes the key only while it still holds our token, so an
// expired lease taken over by another holder is left alone.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Redis implements Locker with SET NX PX and a token-checked delete.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
	log *logger.Logger
}

// NewRedis connects to the Redis server at url (redis://...) and verifies
// it with a ping.
func NewRedis(ctx context.Context, url string, ttl time.Duration, log *logger.Logger) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second

	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisClient(rdb, ttl, log), nil
}

// NewRedisClient wraps an existing client.
func NewRedisClient(rdb *redis.Client, ttl time.Duration, log *logger.Logger) *Redis {
	return &Redis{rdb: rdb, ttl: ttl, log: logger.OrNop(log).With("component", "lease")}
}

func (r *Redis) TryAcquire(ctx context.Context, key string) (func(), bool, error) {
	token := uuid.NewString()
	full := keyPrefix + key

	ok, err := r.rdb.SetNX(ctx, full, token, r.ttl).Result()
	if err != nil {
		return func() {}, false, fmt.Errorf("acquire lease %s: %w", key, err)
	}
	if !ok {
		return func() {}, false, nil
	}

	release := func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, r.rdb, []string{full}, token).Err(); err != nil {
			r.log.Warn("release lease failed", "key", key, "error", err)
		}
	}
	return release, true, nil
}

// Close closes the Redis client.
func (r *Redis) Close() error {
	return r.rdb.Close()
}
