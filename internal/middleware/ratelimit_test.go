// AngelaMos | 2026
// ratelimit_test.go

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketSetAllowsBurstThenLimits(t *testing.T) {
	s := newBucketSet(time.Minute)
	limit := redis_rate.Limit{Rate: 60, Burst: 2, Period: time.Minute}
	now := time.Now()

	for range 2 {
		res, err := s.allow("k", limit, now)
		require.NoError(t, err)
		assert.Equal(t, 1, res.Allowed)
	}

	res, err := s.allow("k", limit, now)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Allowed)
	assert.Equal(t, time.Second, res.RetryAfter)

	res, err = s.allow("other", limit, now)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Allowed)

	res, err = s.allow("k", limit, now.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Allowed)
}

func TestBucketSetDropsIdleBuckets(t *testing.T) {
	s := newBucketSet(time.Minute)
	limit := redis_rate.Limit{Rate: 10, Burst: 1, Period: time.Minute}
	now := time.Now()

	_, err := s.allow("idle", limit, now)
	require.NoError(t, err)
	_, err = s.allow("busy", limit, now.Add(2*time.Minute))
	require.NoError(t, err)

	assert.NotContains(t, s.buckets, "idle")
	assert.Contains(t, s.buckets, "busy")
}

func TestBucketSetRejectsEmptyLimit(t *testing.T) {
	_, err := newBucketSet(time.Minute).allow("k", redis_rate.Limit{}, time.Now())
	assert.Error(t, err)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:5555"
	assert.Equal(t, "192.0.2.1", ClientIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.4")
	assert.Equal(t, "198.51.100.4", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.7")
	assert.Equal(t, "10.0.0.7", ClientIP(req))
}

func TestRateLimiterFallsBackWhenRedisIsDown(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })

	h := NewRateLimiter(rdb, RateLimitConfig{
		Name:  "test",
		Limit: redis_rate.Limit{Rate: 1, Burst: 1, Period: time.Minute},
		Skip:  SkipPaths("/healthz"),
	}).Handler(ok)

	first := do(h, httptest.NewRequest(http.MethodGet, "/v1/clients", nil))
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))

	second := do(h, httptest.NewRequest(http.MethodGet, "/v1/clients", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "60", second.Header().Get("Retry-After"))

	probe := do(h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, probe.Code)
}
