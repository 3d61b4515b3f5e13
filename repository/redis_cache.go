package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisOptions configure the Redis connection.
type RedisOptions struct {
	Address  string
	Password string
	DB       int
}

type RedisCache struct {
	client *redis.Client
	log    *zap.Logger
}

// NewRedisCache connects to Redis with the pool settings used across services.
func NewRedisCache(opts RedisOptions, log *zap.Logger) *RedisCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:         opts.Address,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
	return NewRedisCacheFromClient(rdb, log)
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(client *redis.Client, log *zap.Logger) *RedisCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisCache{client: client, log: log}
}

// Ping checks the connection.
func (r *RedisCache) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.log.Warn("redis get failed", zap.String("key", key), zap.Error(err))
		}
		return "", false
	}
	return val, true
}

func (r *RedisCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Close releases the connection pool.
func (r *RedisCache) Close() error {
	return r.client.Close()
}
