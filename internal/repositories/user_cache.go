package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/wagwan/backend/internal/models"
	"github.com/go-redis/redis/v8"
)

// UserCache is a read-through cache for user profiles. Get returns (nil, nil)
// on a miss. Writers store the committed row with Set; readers populate a
// missing entry with Fill, which never replaces an existing one.
type UserCache interface {
	Get(ctx context.Context, id string) (*models.User, error)
	Set(ctx context.Context, user *models.User) error
	Fill(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}

type RedisUserCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisUserCache(client *redis.Client, ttl time.Duration) *RedisUserCache {
	return &RedisUserCache{client: client, ttl: ttl}
}

func userCacheKey(id string) string {
	return fmt.Sprintf("user:%s", id)
}

func (c *RedisUserCache) Get(ctx context.Context, id string) (*models.User, error) {
	data, err := c.client.Get(ctx, userCacheKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached user: %w", err)
	}

	var user models.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("failed to decode cached user: %w", err)
	}
	return &user, nil
}

func (c *RedisUserCache) Set(ctx context.Context, user *models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	if err := c.client.Set(ctx, userCacheKey(user.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache user: %w", err)
	}
	return nil
}

// Fill stores user only if no entry exists for it yet.
func (c *RedisUserCache) Fill(ctx context.Context, user *models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	if err := c.client.SetNX(ctx, userCacheKey(user.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache user: %w", err)
	}
	return nil
}

func (c *RedisUserCache) Delete(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, userCacheKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to evict cached user: %w", err)
	}
	return nil
}

type noopUserCache struct{}

func NewNoopUserCache() UserCache {
	return noopUserCache{}
}

func (noopUserCache) Get(context.Context, string) (*models.User, error) { return nil, nil }
func (noopUserCache) Set(context.Context, *models.User) error           { return nil }
func (noopUserCache) Fill(context.Context, *models.User) error          { return nil }
func (noopUserCache) Delete(context.Context, string) error              { return nil }
