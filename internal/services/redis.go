package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"bgaming-proxy/internal/config"
	"bgaming-proxy/internal/models"
)

const (
	keySession   = "session:%s"
	keyRateLimit = "ratelimit:%s"
)

// RedisSessionCache is the Redis-backed SessionCache, for deployments where
// more than one proxy instance shares the fast-lookup index.
type RedisSessionCache struct {
	client *redis.Client
	ctx    context.Context
	ttl    time.Duration
}

func NewRedisSessionCache(cfg *config.Config) (*RedisSessionCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})

	ctx := context.Background()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %v", err)
	}

	return &RedisSessionCache{
		client: client,
		ctx:    ctx,
		ttl:    cfg.SessionTTL,
	}, nil
}

func (c *RedisSessionCache) Get(tokenInternal string) (*models.Session, bool) {
	key := fmt.Sprintf(keySession, tokenInternal)

	data, err := c.client.Get(c.ctx, key).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("Failed to get session %s from redis: %v", tokenInternal, err)
		return nil, false
	}

	var session models.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		log.Printf("Failed to unmarshal cached session %s: %v", tokenInternal, err)
		return nil, false
	}
	return &session, true
}

func (c *RedisSessionCache) Put(tokenInternal string, session *models.Session) {
	key := fmt.Sprintf(keySession, tokenInternal)

	data, err := json.Marshal(session)
	if err != nil {
		log.Printf("Failed to marshal session %s: %v", tokenInternal, err)
		return
	}

	if err := c.client.Set(c.ctx, key, data, c.ttl).Err(); err != nil {
		log.Printf("Failed to cache session %s: %v", tokenInternal, err)
	}
}

func (c *RedisSessionCache) Del(tokenInternal string) {
	key := fmt.Sprintf(keySession, tokenInternal)
	if err := c.client.Del(c.ctx, key).Err(); err != nil {
		log.Printf("Failed to delete cached session %s: %v", tokenInternal, err)
	}
}

// Allow implements RateLimiter with a shared counter, so the limit holds
// across proxy instances behind the same Redis.
func (c *RedisSessionCache) Allow(key string, limit int, window time.Duration) (bool, error) {
	rkey := fmt.Sprintf(keyRateLimit, key)

	count, err := c.client.Incr(c.ctx, rkey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit: %v", err)
	}

	if count == 1 {
		c.client.Expire(c.ctx, rkey, window)
	}

	return count <= int64(limit), nil
}

func (c *RedisSessionCache) Close() error {
	return c.client.Close()
}
