package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBucket_BurstThenDeny(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	l := NewTokenBucket(3, time.Minute, WithClock(clock.Now))

	for i := 0; i < 3; i++ {
		res, err := l.TryConsume(ctx, GlobalKey)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}

	res, err := l.TryConsume(ctx, GlobalKey)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.Equal(t, 20*time.Second, res.RetryAfter)
}

func TestTokenBucket_DeniedCallDoesNotConsume(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	l := NewTokenBucket(2, time.Minute, WithClock(clock.Now))

	_, _ = l.TryConsume(ctx, GlobalKey)
	_, _ = l.TryConsume(ctx, GlobalKey)

	// Серия отказов не должна отодвигать пополнение
	for i := 0; i < 10; i++ {
		res, _ := l.TryConsume(ctx, GlobalKey)
		require.False(t, res.Allowed)
	}

	clock.Advance(31 * time.Second)
	res, err := l.TryConsume(ctx, GlobalKey)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestTokenBucket_RefillsOverWindow(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	l := NewTokenBucket(4, time.Minute, WithClock(clock.Now))

	for i := 0; i < 4; i++ {
		_, _ = l.TryConsume(ctx, GlobalKey)
	}
	clock.Advance(time.Minute + time.Second)

	for i := 0; i < 4; i++ {
		res, _ := l.TryConsume(ctx, GlobalKey)
		assert.True(t, res.Allowed, "request %d after refill", i+1)
	}
	res, _ := l.TryConsume(ctx, GlobalKey)
	assert.False(t, res.Allowed)
}

func TestTokenBucket_CleanupIdleKeys(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	l := NewTokenBucket(4, time.Minute, WithClock(clock.Now), WithCleanupEvery(0))

	_, _ = l.TryConsume(ctx, "a")
	clock.Advance(2 * time.Minute)
	l.Cleanup()

	assert.Equal(t, 0, l.Len())
}
