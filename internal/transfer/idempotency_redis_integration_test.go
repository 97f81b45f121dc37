//go:build integration

package transfer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	platformredis "bondgate/internal/platform/redis"
	"bondgate/internal/transfer"
	"bondgate/pkg/testutil/containers"
)

type RedisIdempotencySuite struct {
	suite.Suite
	redis *containers.RedisContainer
	store *transfer.RedisIdempotencyStore
}

func TestRedisIdempotencySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisIdempotencySuite))
}

func (s *RedisIdempotencySuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	client, err := platformredis.New(context.Background(), s.redis.Addr)
	s.Require().NoError(err)
	s.store = transfer.NewRedisIdempotencyStore(client)
}

func (s *RedisIdempotencySuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisIdempotencySuite) TestReserveIsFirstWriterWins() {
	ctx := context.Background()

	ok, err := s.store.Reserve(ctx, "req-1")
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.store.Reserve(ctx, "req-1")
	s.Require().NoError(err)
	s.False(ok)

	ok, err = s.store.Reserve(ctx, "req-2")
	s.Require().NoError(err)
	s.True(ok)
}

func (s *RedisIdempotencySuite) TestReleaseFreesTheKey() {
	ctx := context.Background()

	ok, err := s.store.Reserve(ctx, "req-1")
	s.Require().NoError(err)
	s.True(ok)

	s.Require().NoError(s.store.Release(ctx, "req-1"))

	ok, err = s.store.Reserve(ctx, "req-1")
	s.Require().NoError(err)
	s.True(ok)
}
