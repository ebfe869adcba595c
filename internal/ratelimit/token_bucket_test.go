package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultBucketTTL(t *testing.T) {
	assert.Equal(t, time.Second, defaultBucketTTL(0, 5))
	assert.Equal(t, 10*time.Second, defaultBucketTTL(1, 5))
	assert.Equal(t, 600*time.Second, defaultBucketTTL(10.0/60, 50))
	assert.Equal(t, time.Second, defaultBucketTTL(100, 1))
}

func TestRetryAfter(t *testing.T) {
	assert.Zero(t, retryAfter(true, 0, 1))
	assert.Equal(t, 500*time.Millisecond, retryAfter(false, 0.5, 1))
	assert.Equal(t, 6*time.Second, retryAfter(false, 0, 10.0/60))
}

func TestCastScriptValues(t *testing.T) {
	assert.EqualValues(t, 1, castToInt(int64(1)))
	assert.EqualValues(t, 3, castToInt("3"))
	assert.InDelta(t, 2.5, castToFloat("2.5"), 1e-9)
	assert.InDelta(t, 4, castToFloat(int64(4)), 1e-9)
	assert.Zero(t, castToFloat(nil))
}

func TestUnconfiguredBucket(t *testing.T) {
	var bucket *TokenBucket
	_, err := bucket.Allow(context.Background(), "k", 1, 1)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestNilLoginLimiterAllows(t *testing.T) {
	var limiter *LoginLimiter
	res := limiter.Allow(context.Background(), "127.0.0.1")
	require.NotNil(t, res)
	assert.True(t, res.Allowed)
}
