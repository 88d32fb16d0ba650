package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/airadmin/config"
	"github.com/Domenick1991/airadmin/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client     *redis.Client
	sessionTTL time.Duration
	summaryTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, sessionTTL, summaryTTL time.Duration) *RedisCache {
	return NewRedisCacheWithClient(
		redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		sessionTTL, summaryTTL,
	)
}

func NewRedisCacheWithClient(client *redis.Client, sessionTTL, summaryTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, sessionTTL: sessionTTL, summaryTTL: summaryTTL}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: redis: %w", domain.ErrUnavailable, err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// CreateSession stores s under a fresh token and returns the stored copy. The
// token is also indexed under its user so DeleteUserSessions can find it.
func (c *RedisCache) CreateSession(ctx context.Context, s domain.Session) (*domain.Session, error) {
	s.Token = uuid.NewString()
	s.ExpiresAt = time.Now().Add(c.sessionTTL).UTC()

	payload, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	index := userSessionsKey(s.UserID)
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, sessionKey(s.Token), payload, c.sessionTTL)
	pipe.SAdd(ctx, index, s.Token)
	pipe.Expire(ctx, index, c.sessionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	return &s, nil
}

// GetSession returns domain.ErrNotFound for unknown or expired tokens.
func (c *RedisCache) GetSession(ctx context.Context, token string) (*domain.Session, error) {
	if _, err := uuid.Parse(token); err != nil {
		return nil, domain.ErrNotFound
	}

	data, err := c.client.Get(ctx, sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	var s domain.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *RedisCache) DeleteSession(ctx context.Context, token string) error {
	return c.client.Del(ctx, sessionKey(token)).Err()
}

// DeleteUserSessions logs userID out everywhere.
func (c *RedisCache) DeleteUserSessions(ctx context.Context, userID string) error {
	index := userSessionsKey(userID)
	tokens, err := c.client.SMembers(ctx, index).Result()
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(tokens)+1)
	for _, token := range tokens {
		keys = append(keys, sessionKey(token))
	}
	keys = append(keys, index)
	return c.client.Del(ctx, keys...).Err()
}

// GetCountrySummary returns nil without error on a cache miss.
func (c *RedisCache) GetCountrySummary(ctx context.Context) ([]domain.CountryCount, error) {
	data, err := c.client.Get(ctx, summaryKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var summary []domain.CountryCount
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, err
	}
	return summary, nil
}

func (c *RedisCache) SetCountrySummary(ctx context.Context, summary []domain.CountryCount) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, summaryKey(), payload, c.summaryTTL).Err()
}

func (c *RedisCache) InvalidateCountrySummary(ctx context.Context) error {
	return c.client.Del(ctx, summaryKey()).Err()
}

func sessionKey(token string) string {
	return "session:" + token
}

func userSessionsKey(userID string) string {
	return "user-sessions:" + userID
}

func summaryKey() string {
	return "cache:airports:summary"
}
