// This file implements a Redis-backed session store. Contexts are stored as
// JSON under a per-session key with an optional TTL so idle conversations
// eventually expire on the Redis side.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/treinafit/luka/internal/models"
)

const redisKeyPrefix = "luka:session:"

// RedisOpts holds configuration options for the Redis session store.
type RedisOpts struct {
	Addr string
	TTL  time.Duration
}

// RedisOption defines a configuration option for the Redis session store.
type RedisOption func(*RedisOpts)

// WithAddr sets the Redis server address (host:port).
func WithAddr(addr string) RedisOption {
	return func(o *RedisOpts) { o.Addr = addr }
}

// WithTTL sets the expiry applied to every saved context.
func WithTTL(ttl time.Duration) RedisOption {
	return func(o *RedisOpts) { o.TTL = ttl }
}

// RedisStore persists session contexts in Redis.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis session store and verifies the connection.
func NewRedisStore(opts ...RedisOption) (*RedisStore, error) {
	var cfg RedisOpts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewRedisStore invoked", "addr_set", cfg.Addr != "", "ttl", cfg.TTL)
	if cfg.Addr == "" {
		slog.Error("RedisStore address not set")
		return nil, fmt.Errorf("redis address not set")
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.Addr})

	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		slog.Error("Redis ping failed", "error", err, "addr", cfg.Addr)
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	slog.Debug("Redis ping successful", "addr", cfg.Addr)

	return &RedisStore{client: client, ttl: cfg.TTL}, nil
}

func (s *RedisStore) Get(ctx context.Context, sessionID string) (*models.SessionContext, error) {
	if sessionID == "" {
		return nil, models.ErrEmptySessionID
	}
	data, err := s.client.Get(ctx, redisKeyPrefix+sessionID).Bytes()
	if err == redis.Nil {
		slog.Debug("RedisStore Get not found", "sessionID", sessionID)
		return nil, nil
	}
	if err != nil {
		slog.Error("RedisStore Get failed", "error", err, "sessionID", sessionID)
		return nil, fmt.Errorf("failed to get session %s: %w", sessionID, err)
	}
	var sc models.SessionContext
	if err := json.Unmarshal(data, &sc); err != nil {
		slog.Error("RedisStore Get unmarshal failed", "error", err, "sessionID", sessionID)
		return nil, fmt.Errorf("failed to decode session %s: %w", sessionID, err)
	}
	return &sc, nil
}

func (s *RedisStore) Save(ctx context.Context, sessionID string, sc *models.SessionContext) error {
	if sessionID == "" {
		return models.ErrEmptySessionID
	}
	data, err := json.Marshal(sc)
	if err != nil {
		slog.Error("RedisStore Save marshal failed", "error", err, "sessionID", sessionID)
		return fmt.Errorf("failed to encode session %s: %w", sessionID, err)
	}
	if err := s.client.Set(ctx, redisKeyPrefix+sessionID, data, s.ttl).Err(); err != nil {
		slog.Error("RedisStore Save failed", "error", err, "sessionID", sessionID)
		return fmt.Errorf("failed to save session %s: %w", sessionID, err)
	}
	slog.Debug("RedisStore Save succeeded", "sessionID", sessionID, "flow", sc.Flow, "step", sc.Step)
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return models.ErrEmptySessionID
	}
	if err := s.client.Del(ctx, redisKeyPrefix+sessionID).Err(); err != nil {
		slog.Error("RedisStore Delete failed", "error", err, "sessionID", sessionID)
		return fmt.Errorf("failed to delete session %s: %w", sessionID, err)
	}
	return nil
}

// Close releases the underlying Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
