// Package cache connects to the Redis server that holds login sessions. With no
// address configured it starts an embedded miniredis instead.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/inkpost/blog/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type Redis struct {
	client    *redis.Client
	miniRedis *miniredis.Miniredis
}

// Open connects to redisAddr, or to a fresh embedded server when it is empty.
func Open(ctx context.Context, redisAddr string) (*Redis, error) {
	r := &Redis{}
	if redisAddr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, fmt.Errorf("failed to start embedded Redis: %w", err)
		}
		r.miniRedis = mr
		r.client = redis.NewClient(&redis.Options{Addr: mr.Addr()})
		logger.Info("Embedded Redis started on", mr.Addr())
		return r, nil
	}

	opts, err := redis.ParseURL(redisAddr)
	if err != nil {
		opts = &redis.Options{Addr: redisAddr}
	}
	r.client = redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := r.client.Ping(pingCtx).Err(); err != nil {
		_ = r.client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", opts.Addr, err)
	}
	logger.Info("Connected to external Redis at", opts.Addr)
	return r, nil
}

func (r *Redis) Client() *redis.Client {
	return r.client
}

// IsEmbedded returns true if using embedded Redis.
func (r *Redis) IsEmbedded() bool {
	return r.miniRedis != nil
}

// Ping reports whether the server answers.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection and stops embedded Redis if running.
func (r *Redis) Close() error {
	var err error
	if r.client != nil {
		err = r.client.Close()
	}
	if r.miniRedis != nil {
		r.miniRedis.Close()
	}
	return err
}
