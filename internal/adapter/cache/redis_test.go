package cache

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedis(rdb, "interview:"), mr
}

func TestRedis_SetGet(t *testing.T) {
	c, mr := newTestRedis(t)
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "answer_score_1_A")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "answer_score_1_A", `{"score":80}`))
	v, ok, err := c.Get(ctx, "answer_score_1_A")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"score":80}`, v)

	raw, err := mr.Get("interview:answer_score_1_A")
	require.NoError(t, err)
	assert.Equal(t, `{"score":80}`, raw)
	assert.Equal(t, 0, int(mr.TTL("interview:answer_score_1_A")))
	require.NoError(t, c.Ping(ctx))
}

func TestRedis_ErrorsWhenUnavailable(t *testing.T) {
	c, mr := newTestRedis(t)
	mr.Close()

	_, _, err := c.Get(context.Background(), "k")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "op=cache.redis.Get")
	require.Error(t, c.Set(context.Background(), "k", "v"))
}

func TestNewRedisFromURL(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	c, rdb, err := NewRedisFromURL("redis://"+mr.Addr()+"/0", "")
	require.NoError(t, err)
	defer func() { _ = rdb.Close() }()
	require.NoError(t, c.Set(context.Background(), "x", "y"))
	assert.True(t, mr.Exists("x"))

	_, _, err = NewRedisFromURL("://bad", "")
	require.Error(t, err)
}
