// internal/domain/cart/store.go
package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store persists carts. The Redis implementation is the production one;
// tests substitute an in-memory fake.
type Store interface {
	// Get loads the cart, returning a fresh empty cart when none exists.
	Get(ctx context.Context, id string) (*Cart, error)
	Save(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, id string) error
}

// Carts are kept for 30 days from the last mutation.
const cartTTL = 30 * 24 * time.Hour

// RedisStore stores carts as JSON blobs in Redis.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis-backed cart store
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func cartKey(id string) string {
	return fmt.Sprintf("cart:%s", id)
}

// Get loads the cart for the given ID, or returns an empty cart.
func (s *RedisStore) Get(ctx context.Context, id string) (*Cart, error) {
	data, err := s.client.Get(ctx, cartKey(id)).Result()
	if err == redis.Nil {
		now := time.Now().UTC()
		return &Cart{
			ID:        id,
			Lines:     []Line{},
			CreatedAt: now,
			UpdatedAt: now,
		}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	var c Cart
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}

	return &c, nil
}

// Save persists the cart with a sliding expiration.
func (s *RedisStore) Save(ctx context.Context, c *Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}

	if err := s.client.Set(ctx, cartKey(c.ID), data, cartTTL).Err(); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}

	return nil
}

// Delete removes the cart entirely.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, cartKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}
