package sequence

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "seq:"

// Redis shares sequence numbers between server replicas, so a navigation
// served by one replica supersedes one still in flight on another.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects to redisURL. It returns nil when the URL is empty or the
// server cannot be reached; callers fall back to Memory.
func NewRedis(ctx context.Context, redisURL string, db int, ttl time.Duration) *Redis {
	if redisURL == "" {
		return nil
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("Failed to parse Redis URL: %v", err)
		return nil
	}
	opt.DB = db

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if _, err := client.Ping(pingCtx).Result(); err != nil {
		log.Printf("Redis connection failed: %v", err)
		_ = client.Close()
		return nil
	}

	log.Printf("Redis connected successfully, DB: %d, sequence TTL: %s", db, ttl)
	return &Redis{client: client, ttl: ttl}
}

func Key(view string) string {
	return keyPrefix + view
}

func (r *Redis) Next(ctx context.Context, view string) (uint64, error) {
	if !r.IsAvailable() {
		return 0, fmt.Errorf("redis client not available")
	}

	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, Key(view))
		if r.ttl > 0 {
			pipe.Expire(ctx, Key(view), r.ttl)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis incr error: %w", err)
	}
	return uint64(incr.Val()), nil
}

func (r *Redis) Latest(ctx context.Context, view string) (uint64, error) {
	if !r.IsAvailable() {
		return 0, fmt.Errorf("redis client not available")
	}

	val, err := r.client.Get(ctx, Key(view)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get error: %w", err)
	}

	n, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("redis sequence %q: %w", val, err)
	}
	return n, nil
}

func (r *Redis) Forget(ctx context.Context, view string) error {
	if !r.IsAvailable() {
		return nil
	}
	return r.client.Del(ctx, Key(view)).Err()
}

func (r *Redis) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}

func (r *Redis) IsAvailable() bool {
	return r != nil && r.client != nil
}

func (r *Redis) GetStats(ctx context.Context) map[string]interface{} {
	if !r.IsAvailable() {
		return map[string]interface{}{
			"status": "unavailable",
		}
	}

	keys, _ := r.client.Keys(ctx, keyPrefix+"*").Result()
	return map[string]interface{}{
		"status":      "connected",
		"ttl_seconds": int(r.ttl.Seconds()),
		"views":       len(keys),
	}
}
