package auth

import (
	"context"
	"fmt"
	"testing"
	"time"

	models "sustainability-council/shared/models"

	"github.com/docker/docker/client"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

// RedisIntegrationSuite проверяет хранилище сессий на настоящем Redis.
type RedisIntegrationSuite struct {
	suite.Suite
	ctx         context.Context
	container   *tcredis.RedisContainer
	redisClient *redis.Client
	store       SessionStore
	auth        Authenticator
}

func (s *RedisIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error

	s.container, err = tcredis.Run(s.ctx,
		"docker.io/redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("* Ready to accept connections").
				WithOccurrence(1).
				WithStartupTimeout(1*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to start redis container")

	host, err := s.container.Host(s.ctx)
	require.NoError(s.T(), err)
	port, err := s.container.MappedPort(s.ctx, "6379/tcp")
	require.NoError(s.T(), err)

	s.redisClient = redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	require.NoError(s.T(), s.redisClient.Ping(s.ctx).Err(), "Failed to connect to test redis")

	s.store = NewRedisSessionStore(s.redisClient, zap.NewNop())
	keys, err := DeriveKeys("integration-secret")
	require.NoError(s.T(), err)
	s.auth, err = NewAuthenticator(s.store, keys.JWT, 2*time.Second, zap.NewNop())
	require.NoError(s.T(), err)
}

func (s *RedisIntegrationSuite) TearDownSuite() {
	if s.redisClient != nil {
		_ = s.redisClient.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *RedisIntegrationSuite) SetupTest() {
	require.NoError(s.T(), s.redisClient.FlushDB(s.ctx).Err())
}

func (s *RedisIntegrationSuite) TestLoginLogoutCycle() {
	session, token, err := s.auth.Login(s.ctx, "Greta")
	s.Require().NoError(err)

	ttl, err := s.redisClient.TTL(s.ctx, sessionKey(session.ID)).Result()
	s.Require().NoError(err)
	s.Greater(ttl, time.Duration(0))

	current, err := s.auth.CurrentUser(s.ctx, token)
	s.Require().NoError(err)
	s.Equal("Greta", current.User.Name)

	s.Require().NoError(s.auth.Logout(s.ctx, token))
	_, err = s.auth.CurrentUser(s.ctx, token)
	s.ErrorIs(err, models.ErrSessionNotFound)
}

func (s *RedisIntegrationSuite) TestSessionExpiresInRedis() {
	session, _, err := s.auth.Login(s.ctx, "Greta")
	s.Require().NoError(err)

	s.Eventually(func() bool {
		_, err := s.store.Get(s.ctx, session.ID)
		return err != nil
	}, 5*time.Second, 100*time.Millisecond)
}

func TestRedisIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode.")
	}
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		t.Skipf("Skipping integration tests: docker client unavailable: %v", err)
	}
	defer cli.Close()
	if _, err := cli.Ping(context.Background()); err != nil {
		t.Skipf("Skipping integration tests: docker is not running: %v", err)
	}
	suite.Run(t, new(RedisIntegrationSuite))
}
