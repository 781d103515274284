// AngelaMos | 2026
// cache.go

// Package cache keeps short-lived copies of list query results in Redis.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/marketflow/agency-api/internal/config"
	"github.com/marketflow/agency-api/internal/core"
)

const (
	Clients  = "clients"
	Briefs   = "briefs"
	Tasks    = "tasks"
	Ads      = "ads"
	Profiles = "profiles"
)

type backend interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(
		ctx context.Context,
		key string,
		value any,
		expiration time.Duration,
	) *redis.StatusCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
}

// Cache is safe for concurrent use. A nil *Cache disables caching and
// runs every load directly.
type Cache struct {
	rdb     backend
	prefix  string
	ttl     time.Duration
	metrics *core.Metrics
}

func New(
	rdb *redis.Client,
	cfg config.CacheConfig,
	metrics *core.Metrics,
) *Cache {
	if !cfg.Enabled || rdb == nil {
		return nil
	}
	return newCache(rdb, cfg, metrics)
}

func newCache(
	rdb backend,
	cfg config.CacheConfig,
	metrics *core.Metrics,
) *Cache {
	return &Cache{
		rdb:     rdb,
		prefix:  cfg.Prefix,
		ttl:     cfg.TTL,
		metrics: metrics,
	}
}

type Scope struct {
	Collections []string
	Params      any
}

func (s Scope) label() string {
	return strings.Join(s.Collections, "+")
}

// Fetch returns the cached value for scope, or runs load and caches its
// result. Redis failures fall back to load.
func Fetch[T any](
	ctx context.Context,
	c *Cache,
	scope Scope,
	load func(ctx context.Context) (T, error),
) (T, error) {
	if c == nil {
		return load(ctx)
	}

	key, err := c.key(ctx, scope)
	if err != nil {
		slog.WarnContext(ctx, "cache key unavailable",
			"scope", scope.label(),
			"error", err,
		)
		return load(ctx)
	}

	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var cached T
		if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
			c.metrics.ObserveCache(scope.label(), true)
			return cached, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		slog.WarnContext(ctx, "cache read failed",
			"scope", scope.label(),
			"error", err,
		)
	}
	c.metrics.ObserveCache(scope.label(), false)

	value, err := load(ctx)
	if err != nil {
		return value, err
	}

	encoded, err := json.Marshal(value)
	if err != nil {
		return value, nil //nolint:nilerr // an unencodable value is served uncached
	}
	if err := c.rdb.Set(ctx, key, encoded, c.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "cache write failed",
			"scope", scope.label(),
			"error", err,
		)
	}

	return value, nil
}

func (c *Cache) Invalidate(ctx context.Context, collection string) error {
	if c == nil {
		return nil
	}
	if err := c.rdb.Incr(ctx, c.versionKey(collection)).Err(); err != nil {
		return fmt.Errorf("invalidate %s: %w", collection, err)
	}
	return nil
}

// InvalidateQuietly invalidates collection and logs a failure instead of
// returning it. Entries expire after the TTL either way.
func (c *Cache) InvalidateQuietly(ctx context.Context, collection string) {
	if err := c.Invalidate(ctx, collection); err != nil {
		slog.WarnContext(ctx, "cache invalidation failed",
			"collection", collection,
			"error", err,
		)
	}
}

func (c *Cache) key(ctx context.Context, scope Scope) (string, error) {
	var b strings.Builder
	b.WriteString(c.prefix)

	for _, collection := range scope.Collections {
		version, err := c.version(ctx, collection)
		if err != nil {
			return "", err
		}
		b.WriteString(collection)
		b.WriteByte(':')
		b.WriteString(strconv.FormatInt(version, 10))
		b.WriteByte(':')
	}

	params, err := json.Marshal(scope.Params)
	if err != nil {
		return "", fmt.Errorf("encode cache params: %w", err)
	}
	sum := sha256.Sum256(params)
	b.WriteString(hex.EncodeToString(sum[:12]))

	return b.String(), nil
}

func (c *Cache) version(ctx context.Context, collection string) (int64, error) {
	v, err := c.rdb.Get(ctx, c.versionKey(collection)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read %s version: %w", collection, err)
	}
	return v, nil
}

func (c *Cache) versionKey(collection string) string {
	return c.prefix + "ver:" + collection
}
