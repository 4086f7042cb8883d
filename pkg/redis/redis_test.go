package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAdapter(t *testing.T, prefix string) (*miniredis.Miniredis, RedisAdapter) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	adapter, err := NewRedisAdapter(t.Name()+"-"+mr.Addr(), prefix, &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)
	return mr, adapter
}

func TestRedisAdapter_BasicOperations(t *testing.T) {
	mr, adapter := setupAdapter(t, "inbox:")

	require.NoError(t, adapter.Set("k", []byte("v"), time.Minute))
	assert.True(t, mr.Exists("inbox:k"))

	v, err := adapter.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	ok, err := adapter.SetNX("k", []byte("other"), time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := adapter.Exist("k")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, adapter.Del("k"))
	_, err = adapter.Get("k")
	assert.ErrorIs(t, err, NilError)

	assert.NoError(t, adapter.Ping(context.Background()))
}

func TestRedisAdapter_EvalPrefixesKeys(t *testing.T) {
	mr, adapter := setupAdapter(t, "inbox:")
	require.NoError(t, mr.Set("inbox:lock", "token"))

	res, err := adapter.Eval(`return redis.call("GET", KEYS[1])`, []string{"lock"})
	require.NoError(t, err)
	assert.Equal(t, "token", res)
}

func TestNewRedisAdapter_ReusesNamedConnection(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	opts := &goredis.UniversalOptions{Addrs: []string{mr.Addr()}}
	name := t.Name()
	first, err := NewRedisAdapter(name, "", opts)
	require.NoError(t, err)
	second, err := NewRedisAdapter(name, "", opts)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Same(t, first, GetRedis(name))
}
