// AngelaMos | 2026
// ratelimit.go

package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/marketflow/agency-api/internal/config"
	"github.com/marketflow/agency-api/internal/core"
)

// RateLimitConfig describes one budget. Name namespaces the Redis keys so
// the global budget and the sign in budget never share a counter.
type RateLimitConfig struct {
	Name     string
	Limit    redis_rate.Limit
	Key      func(*http.Request) string
	Skip     func(*http.Request) bool
	FailOpen bool
}

// RateLimiter counts requests in Redis and falls back to in-process token
// buckets while Redis is unreachable.
type RateLimiter struct {
	redis  *redis_rate.Limiter
	local  *bucketSet
	config RateLimitConfig
}

func NewRateLimiter(rdb *redis.Client, cfg RateLimitConfig) *RateLimiter {
	if cfg.Key == nil {
		cfg.Key = KeyByIP
	}
	if cfg.Name == "" {
		cfg.Name = "global"
	}

	return &RateLimiter{
		redis:  redis_rate.NewLimiter(rdb),
		local:  newBucketSet(10 * time.Minute),
		config: cfg,
	}
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.config.Skip != nil && rl.config.Skip(r) {
			next.ServeHTTP(w, r)
			return
		}

		key := "ratelimit:" + rl.config.Name + ":" + rl.config.Key(r)
		res, err := rl.allow(r.Context(), key)
		switch {
		case err != nil && rl.config.FailOpen:
			slog.WarnContext(r.Context(), "rate limiter failing open",
				"limiter", rl.config.Name,
				"error", err,
			)
			next.ServeHTTP(w, r)
		case err != nil:
			core.JSON(w, http.StatusServiceUnavailable, core.Response{
				Error: &core.ErrorBody{
					Code:    "UNAVAILABLE",
					Message: "rate limiter unavailable",
				},
			})
		case res.Allowed == 0:
			writeLimitHeaders(w, res)
			writeLimited(w, res)
		default:
			writeLimitHeaders(w, res)
			next.ServeHTTP(w, r)
		}
	})
}

func (rl *RateLimiter) allow(
	ctx context.Context,
	key string,
) (*redis_rate.Result, error) {
	res, err := rl.redis.Allow(ctx, key, rl.config.Limit)
	if err == nil {
		return res, nil
	}

	slog.DebugContext(ctx, "redis rate limit unavailable, using local buckets",
		"error", err,
	)
	return rl.local.allow(key, rl.config.Limit, time.Now())
}

// ClientIP is the address the request came from. The last X-Forwarded-For
// hop is the one appended by our own proxy.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		return strings.TrimSpace(hops[len(hops)-1])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func KeyByIP(r *http.Request) string {
	return "ip:" + ClientIP(r)
}

// KeyByProfile budgets signed in callers per profile and everyone else
// per address.
func KeyByProfile(r *http.Request) string {
	if userID := GetUserID(r.Context()); userID != "" {
		return "profile:" + userID
	}
	return KeyByIP(r)
}

// SkipPaths exempts probes and scrapes from the budget.
func SkipPaths(paths ...string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		set[p] = struct{}{}
	}
	return func(r *http.Request) bool {
		_, ok := set[r.URL.Path]
		return ok
	}
}

func writeLimitHeaders(w http.ResponseWriter, res *redis_rate.Result) {
	h := w.Header()
	limit := res.Limit

	h.Set("X-RateLimit-Limit", strconv.Itoa(limit.Rate))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(
		time.Now().Add(res.ResetAfter).Unix(), 10))
	h.Set("RateLimit-Policy", fmt.Sprintf("%d;w=%d", limit.Rate, int(limit.Period.Seconds())))
	h.Set("RateLimit", fmt.Sprintf("%d;t=%d", res.Remaining, int(res.ResetAfter.Seconds())))
}

func writeLimited(w http.ResponseWriter, res *redis_rate.Result) {
	wait := max(int(math.Ceil(res.RetryAfter.Seconds())), 1)

	w.Header().Set("Retry-After", strconv.Itoa(wait))
	core.JSON(w, http.StatusTooManyRequests, core.Response{
		Error: &core.ErrorBody{
			Code:    "RATE_LIMITED",
			Message: fmt.Sprintf("Too many requests. Try again in %d seconds.", wait),
		},
	})
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// bucketSet holds one token bucket per key. Idle buckets are dropped
// during allow once per idle period.
type bucketSet struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	idle      time.Duration
	lastSweep time.Time
}

func newBucketSet(idle time.Duration) *bucketSet {
	return &bucketSet{
		buckets: make(map[string]*bucket),
		idle:    idle,
	}
}

func (s *bucketSet) allow(
	key string,
	limit redis_rate.Limit,
	now time.Time,
) (*redis_rate.Result, error) {
	if limit.Rate <= 0 || limit.Period <= 0 {
		return nil, fmt.Errorf("rate limit %q: rate and period must be positive", key)
	}
	perToken := limit.Period / time.Duration(limit.Rate)

	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastSweep) >= s.idle {
		for k, b := range s.buckets {
			if now.Sub(b.lastSeen) >= s.idle {
				delete(s.buckets, k)
			}
		}
		s.lastSweep = now
	}

	b, ok := s.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Every(perToken), max(limit.Burst, 1))}
		s.buckets[key] = b
	}
	b.lastSeen = now

	res := &redis_rate.Result{
		Limit:      limit,
		Remaining:  max(int(b.limiter.TokensAt(now)), 0),
		RetryAfter: -1,
		ResetAfter: perToken,
	}
	if b.limiter.AllowN(now, 1) {
		res.Allowed = 1
		res.Remaining = max(res.Remaining-1, 0)
		return res, nil
	}
	res.RetryAfter = perToken
	return res, nil
}

// LimitFromConfig converts the configured request budget into a limit.
func LimitFromConfig(cfg config.RateLimitConfig) redis_rate.Limit {
	return redis_rate.Limit{
		Rate:   cfg.Requests,
		Burst:  cfg.Burst,
		Period: cfg.Window,
	}
}

// AuthLimitFromConfig is the tighter budget for sign in, sign up and
// refresh.
func AuthLimitFromConfig(cfg config.RateLimitConfig) redis_rate.Limit {
	return redis_rate.Limit{
		Rate:   cfg.AuthRequests,
		Burst:  cfg.AuthRequests,
		Period: cfg.Window,
	}
}
