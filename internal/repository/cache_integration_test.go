//go:build integration

package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	resource, err := pool.Run("redis", "7-alpine", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Purge(resource) })
	_ = resource.Expire(120)

	client := redis.NewClient(&redis.Options{Addr: resource.GetHostPort("6379/tcp")})
	require.NoError(t, pool.Retry(func() error {
		return client.Ping(context.Background()).Err()
	}))
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestCacheRepositoryRoundTripAndInvalidate(t *testing.T) {
	ctx := context.Background()
	repo := NewCacheRepository(startRedis(t))

	type row struct {
		Label string `json:"label"`
		Value int    `json:"value"`
	}
	for i := 0; i < unlinkBatchSize+15; i++ {
		require.NoError(t, repo.Set(ctx, fmt.Sprintf("reports:participation:user-%d", i), []row{{"Hackathon", i}}, time.Minute))
	}
	require.NoError(t, repo.Set(ctx, "sessions:keep", "x", time.Minute))

	var got []row
	require.NoError(t, repo.Get(ctx, "reports:participation:user-3", &got))
	assert.Equal(t, []row{{"Hackathon", 3}}, got)

	require.NoError(t, repo.DeleteByPattern(ctx, "reports:*"))
	assert.ErrorIs(t, repo.Get(ctx, "reports:participation:user-3", &got), appErrors.ErrCacheMiss)

	var kept string
	require.NoError(t, repo.Get(ctx, "sessions:keep", &kept))
	assert.Equal(t, "x", kept)
}
