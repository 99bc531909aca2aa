package ledger

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRedisLedger(t *testing.T, opts ...Option) (*Ledger, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(NewRedisStore(client, ""), zap.NewNop(), opts...), mr
}

func TestRedisStore_LazyInitAndDebit(t *testing.T) {
	ctx := context.Background()
	l, mr := newRedisLedger(t, WithInitialBalance(4))

	ok, balance, err := l.CheckAvailable(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(4), balance)
	assert.True(t, mr.Exists(DefaultRedisKey))

	ok, err = l.Debit(ctx, 3)
	require.NoError(t, err)
	assert.True(t, ok)

	snap, err := l.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.FreeBalance)
	assert.Equal(t, int64(3), snap.TotalConsumed)

	ok, err = l.Debit(ctx, 2)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisStore_NotInitialized(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := NewRedisStore(client, "custom:key")
	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestRedisStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := NewRedisStore(client, "")
	in := &Snapshot{SchemaVersion: SchemaVersion, FreeBalance: 7, TotalConsumed: 2}
	require.NoError(t, store.Save(ctx, in))

	out, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), out.FreeBalance)
	assert.Equal(t, int64(2), out.TotalConsumed)
}
