//go:build integration

package cache_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Domenick1991/airadmin/internal/cache"
	"github.com/Domenick1991/airadmin/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

type RedisCacheSuite struct {
	suite.Suite
	ctx       context.Context
	container *tcredis.RedisContainer
	client    *redis.Client
	cache     *cache.RedisCache
}

func TestRedisCacheSuite(t *testing.T) {
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	s.ctx = context.Background()

	var err error
	s.container, err = tcredis.Run(s.ctx,
		"docker.io/redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("* Ready to accept connections").
				WithOccurrence(1).
				WithStartupTimeout(time.Minute),
		),
	)
	s.Require().NoError(err)

	host, err := s.container.Host(s.ctx)
	s.Require().NoError(err)
	port, err := s.container.MappedPort(s.ctx, "6379/tcp")
	s.Require().NoError(err)

	s.client = redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	s.cache = cache.NewRedisCacheWithClient(s.client, time.Minute, time.Minute)
	s.Require().NoError(s.cache.Ping(s.ctx))
}

func (s *RedisCacheSuite) TearDownSuite() {
	if s.client != nil {
		_ = s.client.Close()
	}
	if s.container != nil {
		s.Require().NoError(s.container.Terminate(s.ctx))
	}
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.client.FlushDB(s.ctx).Err())
}

func (s *RedisCacheSuite) TestSessionRoundTrip() {
	created, err := s.cache.CreateSession(s.ctx, domain.Session{UserID: "alice", FirstName: "Alice", IsAdmin: true})
	s.Require().NoError(err)
	s.NotEmpty(created.Token)
	s.True(created.ExpiresAt.After(time.Now()))

	got, err := s.cache.GetSession(s.ctx, created.Token)
	s.Require().NoError(err)
	s.Equal("alice", got.UserID)
	s.True(got.IsAdmin)

	ttl, err := s.client.TTL(s.ctx, "session:"+created.Token).Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))

	s.Require().NoError(s.cache.DeleteSession(s.ctx, created.Token))
	_, err = s.cache.GetSession(s.ctx, created.Token)
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *RedisCacheSuite) TestDeleteUserSessions() {
	first, err := s.cache.CreateSession(s.ctx, domain.Session{UserID: "alice", IsAdmin: true})
	s.Require().NoError(err)
	second, err := s.cache.CreateSession(s.ctx, domain.Session{UserID: "alice", IsAdmin: true})
	s.Require().NoError(err)
	other, err := s.cache.CreateSession(s.ctx, domain.Session{UserID: "bob"})
	s.Require().NoError(err)

	s.Require().NoError(s.cache.DeleteUserSessions(s.ctx, "alice"))

	for _, token := range []string{first.Token, second.Token} {
		_, err = s.cache.GetSession(s.ctx, token)
		s.ErrorIs(err, domain.ErrNotFound)
	}
	_, err = s.cache.GetSession(s.ctx, other.Token)
	s.NoError(err)

	s.NoError(s.cache.DeleteUserSessions(s.ctx, "nobody"))
}

func (s *RedisCacheSuite) TestCountrySummary() {
	miss, err := s.cache.GetCountrySummary(s.ctx)
	s.Require().NoError(err)
	s.Nil(miss)

	summary := []domain.CountryCount{{Country: "France", Count: 3}}
	s.Require().NoError(s.cache.SetCountrySummary(s.ctx, summary))

	hit, err := s.cache.GetCountrySummary(s.ctx)
	s.Require().NoError(err)
	s.Equal(summary, hit)

	s.Require().NoError(s.cache.InvalidateCountrySummary(s.ctx))
	miss, err = s.cache.GetCountrySummary(s.ctx)
	s.Require().NoError(err)
	s.Nil(miss)
}
