package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	redisclient "github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
)

var ErrSessionNotFound = errors.New("session not found")

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

type sessionKeyer interface {
	SessionKey(sessionID string) string
}

// Manager tracks live login sessions in Redis. A session id doubles as the
// access token jti and as the key of the session cart.
type Manager struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
}

// AccessSessionChecker exposes the read-only surface needed by middleware.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, sessionID string) (bool, error)
}

// NewManager constructs a session manager backed by Redis.
func NewManager(client *redisclient.Client, cfg config.SessionConfig, jwtCfg config.JWTConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	if accessTTL := jwtCfg.Expiration(); cfg.TTL < accessTTL {
		return nil, fmt.Errorf("session ttl (%s) must be at least the access token ttl (%s)", cfg.TTL, accessTTL)
	}

	return &Manager{
		store: client,
		keyer: client,
		ttl:   cfg.TTL,
	}, nil
}

// TTL is the lifetime of a session and everything keyed by it.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Create registers a new session for the user and returns its id.
func (m *Manager) Create(ctx context.Context, userID uint) (string, error) {
	if userID == 0 {
		return "", fmt.Errorf("user id is required")
	}
	sessionID := NewSessionID()
	if err := m.store.Set(ctx, m.keyer.SessionKey(sessionID), strconv.FormatUint(uint64(userID), 10), m.ttl); err != nil {
		return "", err
	}
	return sessionID, nil
}

// UserID returns the user bound to the session.
func (m *Manager) UserID(ctx context.Context, sessionID string) (uint, error) {
	if strings.TrimSpace(sessionID) == "" {
		return 0, ErrSessionNotFound
	}
	raw, err := m.store.Get(ctx, m.keyer.SessionKey(sessionID))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return 0, ErrSessionNotFound
		}
		return 0, err
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt session value: %w", err)
	}
	return uint(id), nil
}

// Revoke deletes the session marker.
func (m *Manager) Revoke(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("session id is required")
	}
	return m.store.Del(ctx, m.keyer.SessionKey(sessionID))
}

// HasSession reports whether the session is still live.
func (m *Manager) HasSession(ctx context.Context, sessionID string) (bool, error) {
	if _, err := m.UserID(ctx, sessionID); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// NewSessionID produces a stable identifier used as the JWT jti and Redis key.
func NewSessionID() string {
	return uuid.NewString()
}
