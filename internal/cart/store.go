package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisclient "github.com/angelmondragon/storefront-backend/pkg/redis"
)

// Store persists carts keyed by session id. Load returns an empty cart when
// nothing is stored.
type Store interface {
	Load(ctx context.Context, sessionID string) (*Cart, error)
	Save(ctx context.Context, sessionID string, cart *Cart) error
	Delete(ctx context.Context, sessionID string) error
}

type redisBackend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CartKey(sessionID string) string
}

// RedisStore keeps the cart as a JSON document that expires with the session.
type RedisStore struct {
	client redisBackend
	ttl    time.Duration
}

// NewRedisStore builds a cart store on the shared redis client.
func NewRedisStore(client redisBackend, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cart ttl must be positive")
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func (s *RedisStore) Load(ctx context.Context, sessionID string) (*Cart, error) {
	raw, err := s.client.Get(ctx, s.client.CartKey(sessionID))
	if err != nil {
		if redisclient.IsNil(err) {
			return &Cart{}, nil
		}
		return nil, fmt.Errorf("load cart: %w", err)
	}
	var c Cart
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	return &c, nil
}

func (s *RedisStore) Save(ctx context.Context, sessionID string, c *Cart) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.client.Set(ctx, s.client.CartKey(sessionID), payload, s.ttl); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.client.CartKey(sessionID)); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}
