package ratelimit

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestSlidingWindowAllow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	now := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)
	limiter := SlidingWindow{Client: client, Prefix: "test:", Now: func() time.Time { return now }}

	ctx := context.Background()
	window := 2 * time.Second
	limit := 2

	for i := 0; i < limit; i++ {
		d, err := limiter.Allow(ctx, "key", window, limit)
		require.NoError(t, err)
		require.True(t, d.Allowed, "request %d", i)
		require.Equal(t, limit-(i+1), d.Remaining)
	}

	d, err := limiter.Allow(ctx, "key", window, limit)
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Zero(t, d.Remaining)
	require.Equal(t, now.Add(window), d.ResetAt.UTC())

	now = now.Add(window + time.Millisecond)
	d, err = limiter.Allow(ctx, "key", window, limit)
	require.NoError(t, err)
	require.True(t, d.Allowed)
	require.Equal(t, limit-1, d.Remaining)
}

func TestSlidingWindowWithoutClientAllows(t *testing.T) {
	d, err := SlidingWindow{}.Allow(context.Background(), "key", time.Second, 1)
	require.NoError(t, err)
	require.True(t, d.Allowed)
}
