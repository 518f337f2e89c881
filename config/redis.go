package config

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	redisClient *redis.Client
	redisOnce   sync.Once
)

// ConnectRedis dials Redis once with the loaded configuration and keeps the
// client as a singleton. When the ping fails the client stays nil and the
// booking rate limiter runs without Redis.
func ConnectRedis() (*redis.Client, error) {
	var err error
	redisOnce.Do(func() {
		cfg := LoadConfig()
		if cfg != nil && cfg.AppEnv == "test" {
			// Tests never talk to a real Redis.
			return
		}

		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       cfg.RedisDB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err = rdb.Ping(ctx).Err(); err != nil {
			redisClient = nil
			err = fmt.Errorf("redis ping failed: %w", err)
			return
		}

		redisClient = rdb
		log.Printf("Connected to Redis at %s", cfg.RedisAddr)
	})
	return redisClient, err
}

// GetRedisClient returns the shared client. Nil means Redis is unavailable.
func GetRedisClient() *redis.Client {
	return redisClient
}

// SetRedisClientForTesting swaps the shared client so tests can inject a
// mock or force the no-Redis path. This should only be used in tests.
func SetRedisClientForTesting(client *redis.Client) {
	redisClient = client
}
