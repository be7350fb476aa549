package ratelimit

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/smallbiznis/membership/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeBucket struct {
	keys   []string
	rate   float64
	burst  int
	result *RateLimitResult
	err    error
}

func (f *fakeBucket) Allow(_ context.Context, key string, rate float64, burst int) (*RateLimitResult, error) {
	f.keys = append(f.keys, key)
	f.rate, f.burst = rate, burst
	return f.result, f.err
}

func TestNilLoginLimiterAllows(t *testing.T) {
	var limiter *LoginLimiter
	res, err := limiter.Allow(context.Background(), "1.2.3.4", "a@b.com")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestLoginLimiterUsesDefaultsWithoutRuntime(t *testing.T) {
	fb := &fakeBucket{result: &RateLimitResult{Allowed: true, Limit: 5, Remaining: 4}}
	limiter := newLoginLimiter(fb, nil, zap.NewNop())

	res, err := limiter.Allow(context.Background(), "1.2.3.4", "A@B.com ")
	require.NoError(t, err)
	assert.Equal(t, 4, res.Remaining)
	assert.Equal(t, 0.2, fb.rate)
	assert.Equal(t, 5, fb.burst)

	require.Len(t, fb.keys, 1)
	assert.True(t, strings.HasPrefix(fb.keys[0], "membership:login:1.2.3.4:"))
	assert.NotContains(t, fb.keys[0], "a@b.com")
}

func TestLoginKeyNormalizesEmail(t *testing.T) {
	assert.Equal(t, loginKey("10.0.0.1", "Ana@X.com"), loginKey("10.0.0.1", " ana@x.com"))
	assert.NotEqual(t, loginKey("10.0.0.1", "ana@x.com"), loginKey("10.0.0.2", "ana@x.com"))
}

func TestLoginLimiterDenies(t *testing.T) {
	fb := &fakeBucket{result: &RateLimitResult{Allowed: false, RetryAfter: 3 * time.Second}}
	limiter := newLoginLimiter(fb, nil, zap.NewNop())

	res, err := limiter.Allow(context.Background(), "1.2.3.4", "a@b.com")
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, 3*time.Second, res.RetryAfter)
}

func TestLoginLimiterFailsOpen(t *testing.T) {
	fb := &fakeBucket{err: errors.New("connection refused")}
	limiter := newLoginLimiter(fb, nil, zap.NewNop())

	res, err := limiter.Allow(context.Background(), "1.2.3.4", "a@b.com")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestNewLoginLimiterDisabledWithoutRedis(t *testing.T) {
	limiter, err := NewLoginLimiter(Params{Config: config.Config{}, Log: zap.NewNop()})
	require.NoError(t, err)
	assert.Nil(t, limiter)
}

func TestBuildResult(t *testing.T) {
	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()

	denied := buildResult(false, 0.5, ts, 0.25, 5)
	assert.False(t, denied.Allowed)
	assert.Equal(t, 2*time.Second, denied.RetryAfter)
	assert.Equal(t, 0, denied.Remaining)
	assert.Equal(t, time.UnixMilli(ts).Add(2*time.Second), denied.ResetTime)

	allowed := buildResult(true, 3.7, ts, 1, 5)
	assert.True(t, allowed.Allowed)
	assert.Equal(t, 3, allowed.Remaining)
	assert.Zero(t, allowed.RetryAfter)
	assert.Equal(t, 5, allowed.Limit)
}

func TestDefaultBucketTTL(t *testing.T) {
	assert.Equal(t, 50*time.Second, defaultBucketTTL(0.2, 5))
	assert.Equal(t, time.Second, defaultBucketTTL(100, 5))
	assert.Equal(t, time.Second, defaultBucketTTL(0, 5))
}

func TestCasts(t *testing.T) {
	assert.EqualValues(t, 1, castToInt(int64(1)))
	assert.EqualValues(t, 42, castToInt("42"))
	assert.InDelta(t, 2.5, castToFloat("2.5"), 1e-9)
	assert.InDelta(t, 3, castToFloat(int64(3)), 1e-9)
	assert.Zero(t, castToFloat(nil))
}

func TestTokenBucketRejectsBadInput(t *testing.T) {
	var nilBucket *TokenBucket
	_, err := nilBucket.Allow(context.Background(), "k", 1, 1)
	assert.Error(t, err)
}
