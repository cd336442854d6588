package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallLimiter_BurstThenSuspend(t *testing.T) {
	limiter := NewCallLimiter(4, 10)

	// The full burst is immediately available.
	for i := 0; i < 10; i++ {
		require.True(t, limiter.Allow(), "burst token %d should be available", i)
	}

	// The burst+1-th caller has to wait for the sustained-rate interval.
	start := time.Now()
	err := limiter.Acquire(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
}

func TestCallLimiter_AcquireHonorsCancellation(t *testing.T) {
	limiter := NewCallLimiter(1, 1)
	require.True(t, limiter.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := limiter.Acquire(ctx)
	assert.Error(t, err)
}

func TestCallLimiter_DefaultsApplied(t *testing.T) {
	limiter := NewCallLimiter(0, 0)
	for i := 0; i < DefaultCallBurst; i++ {
		assert.True(t, limiter.Allow())
	}
	assert.False(t, limiter.Allow())
}

func TestSharedCallLimiter_SingleInstance(t *testing.T) {
	assert.Same(t, SharedCallLimiter(), SharedCallLimiter())
}
