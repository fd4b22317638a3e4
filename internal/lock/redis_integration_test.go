//go:build integration

package lock_test

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/JonMunkholm/roster/internal/lock"
)

type RedisLockSuite struct {
	suite.Suite
	container *tcredis.RedisContainer
	client    *redis.Client
}

func TestRedisLockSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisLockSuite))
}

func (s *RedisLockSuite) SetupSuite() {
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	s.Require().NoError(err)
	s.container = container

	addr, err := container.ConnectionString(ctx)
	s.Require().NoError(err)
	opts, err := redis.ParseURL(addr)
	s.Require().NoError(err)

	s.client = redis.NewClient(opts)
	s.Require().NoError(s.client.Ping(ctx).Err())
}

func (s *RedisLockSuite) TearDownSuite() {
	if s.client != nil {
		_ = s.client.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(context.Background())
	}
}

func (s *RedisLockSuite) SetupTest() {
	s.Require().NoError(s.client.FlushAll(context.Background()).Err())
}

func (s *RedisLockSuite) TestExclusive() {
	ctx := context.Background()
	first := lock.NewRedis(s.client, time.Minute, 100*time.Millisecond, lock.WithRetryInterval(10*time.Millisecond))
	second := lock.NewRedis(s.client, time.Minute, 100*time.Millisecond, lock.WithRetryInterval(10*time.Millisecond))

	release, err := first.Acquire(ctx)
	s.Require().NoError(err)

	_, err = second.Acquire(ctx)
	s.Require().ErrorIs(err, lock.ErrBusy)

	release()

	release2, err := second.Acquire(ctx)
	s.Require().NoError(err)
	release2()
}

func (s *RedisLockSuite) TestExpiredLockIsNotReleasedByOldHolder() {
	ctx := context.Background()
	short := lock.NewRedis(s.client, 50*time.Millisecond, time.Second, lock.WithRetryInterval(10*time.Millisecond))

	staleRelease, err := short.Acquire(ctx)
	s.Require().NoError(err)

	time.Sleep(100 * time.Millisecond)

	release, err := short.Acquire(ctx)
	s.Require().NoError(err)

	staleRelease()
	exists, err := s.client.Exists(ctx, lock.DefaultKey).Result()
	require.NoError(s.T(), err)
	s.Equal(int64(1), exists, "stale holder must not delete the new holder's key")

	release()
	exists, err = s.client.Exists(ctx, lock.DefaultKey).Result()
	s.Require().NoError(err)
	s.Equal(int64(0), exists)
}
