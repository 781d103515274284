// AngelaMos | 2026
// security_test.go

package core

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.Contains(t, hash, "$argon2id$")

	ok, upgraded, err := VerifyPasswordWithRehash("correct horse", hash)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, upgraded)

	ok, _, err = VerifyPasswordWithRehash("wrong", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOutdatedHashIsUpgraded(t *testing.T) {
	salt := []byte("0123456789abcdef")
	old := argonParams{memory: 32 * 1024, time: 1, threads: 2, keyLen: 32}
	hash := old.encode(salt, old.key("s3cret", salt))

	ok, upgraded, err := VerifyPasswordWithRehash("s3cret", hash)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NotEmpty(t, upgraded)

	params, _, _, err := decodeHash(upgraded)
	require.NoError(t, err)
	assert.Equal(t, currentParams, params)
}

func TestMalformedHash(t *testing.T) {
	for _, hash := range []string{
		"",
		"plain",
		"$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=1$m=1,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=x$c2FsdA$a2V5",
		"$argon2id$v=19$m=1,t=1,p=1$!!$a2V5",
	} {
		_, _, err := VerifyPasswordWithRehash("pw", hash)
		assert.ErrorIs(t, err, ErrMalformedHash, hash)
	}
}

func TestVerifyPasswordTimingSafeWithoutHash(t *testing.T) {
	ok, upgraded, err := VerifyPasswordTimingSafe("anything", nil)
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, upgraded)

	empty := ""
	ok, _, err = VerifyPasswordTimingSafe("anything", &empty)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestRefreshTokens(t *testing.T) {
	a, err := GenerateRefreshToken()
	require.NoError(t, err)
	b, err := GenerateRefreshToken()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	raw, err := base64.URLEncoding.DecodeString(a)
	require.NoError(t, err)
	assert.Len(t, raw, 32)

	assert.Equal(t, HashToken(a), HashToken(a))
	assert.Len(t, HashToken(a), 64)
}
