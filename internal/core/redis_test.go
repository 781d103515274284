// AngelaMos | 2026
// redis_test.go

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketflow/agency-api/internal/config"
)

func TestRedisOptions(t *testing.T) {
	opts, err := redisOptions(config.RedisConfig{
		URL:          "redis://:pw@cache.internal:6380/2",
		PoolSize:     20,
		MinIdleConns: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, "cache.internal:6380", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 20, opts.PoolSize)
	assert.Equal(t, 3, opts.MinIdleConns)

	opts, err = redisOptions(config.RedisConfig{URL: "redis://localhost:6379"})
	require.NoError(t, err)
	assert.Equal(t, 0, opts.MinIdleConns)

	_, err = redisOptions(config.RedisConfig{URL: "http://nope"})
	assert.Error(t, err)
}
