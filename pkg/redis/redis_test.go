package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ikkim/storefront-backend/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBlacklist(t *testing.T) (*TokenBlacklist, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	c := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { c.Close() })
	return NewTokenBlacklist(c), mr
}

func TestTokenBlacklist_RevokeAndCheck(t *testing.T) {
	bl, mr := newBlacklist(t)
	ctx := context.Background()

	revoked, err := bl.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, bl.Revoke(ctx, "jti-1", time.Minute))

	revoked, err = bl.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Minute)
	revoked, err = bl.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestTokenBlacklist_ExpiredTokenSkipped(t *testing.T) {
	bl, mr := newBlacklist(t)

	require.NoError(t, bl.Revoke(context.Background(), "jti-2", 0))
	assert.False(t, mr.Exists("blacklist:jti-2"))
}

func TestInit(t *testing.T) {
	mr := miniredis.RunT(t)
	t.Cleanup(func() { _ = Close(); client = nil })

	require.NoError(t, Init(&config.RedisConfig{Host: mr.Host(), Port: mr.Port()}))
	assert.NotNil(t, GetClient())
}

func TestInit_Unreachable(t *testing.T) {
	t.Cleanup(func() { _ = Close(); client = nil })

	err := Init(&config.RedisConfig{Host: "127.0.0.1", Port: "1"})
	assert.Error(t, err)
}
