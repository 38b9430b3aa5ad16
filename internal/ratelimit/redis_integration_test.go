//go:build integration

package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"enroll/internal/ratelimit"
	"enroll/pkg/testutil/containers"
)

type RedisLimiterSuite struct {
	suite.Suite
	redis *containers.RedisContainer
}

func TestRedisLimiterSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisLimiterSuite))
}

func (s *RedisLimiterSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
}

func (s *RedisLimiterSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisLimiterSuite) TestWindowIsSharedAcrossInstances() {
	ctx := context.Background()
	a := ratelimit.NewRedis(s.redis.Client)
	b := ratelimit.NewRedis(s.redis.Client)

	res, err := a.Allow(ctx, "ip:203.0.113.7", 2, time.Minute)
	s.Require().NoError(err)
	s.True(res.Allowed)
	s.Equal(1, res.Remaining)

	res, err = b.Allow(ctx, "ip:203.0.113.7", 2, time.Minute)
	s.Require().NoError(err)
	s.True(res.Allowed)
	s.Equal(0, res.Remaining)

	res, err = a.Allow(ctx, "ip:203.0.113.7", 2, time.Minute)
	s.Require().NoError(err)
	s.False(res.Allowed)
	s.Positive(res.RetryAfter)

	res, err = b.Allow(ctx, "ip:198.51.100.1", 2, time.Minute)
	s.Require().NoError(err)
	s.True(res.Allowed)
}
