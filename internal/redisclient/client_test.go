package redisclient

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client, err := NewClient(mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestNewClientFailsWithoutServer(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewClient(addr, "", 0)
	assert.Error(t, err)
}

func TestIdempotencyKey(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()

	_, found, err := client.GetIdempotencyKey(ctx, "req-1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, client.SetIdempotencyKey(ctx, "req-1", "ord-1", time.Hour))

	orderID, found, err := client.GetIdempotencyKey(ctx, "req-1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "ord-1", orderID)
	assert.True(t, mr.Exists("idempotency:req-1"))

	mr.FastForward(time.Hour + time.Second)
	_, found, err = client.GetIdempotencyKey(ctx, "req-1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestLock(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()

	lock, err := client.AcquireLock(ctx, "order:req-1", 10*time.Second)
	require.NoError(t, err)
	require.NotNil(t, lock)

	again, err := client.AcquireLock(ctx, "order:req-1", 10*time.Second)
	require.NoError(t, err)
	assert.Nil(t, again, "lock is exclusive")

	require.NoError(t, client.ReleaseLock(ctx, lock))
	assert.False(t, mr.Exists("lock:order:req-1"))

	next, err := client.AcquireLock(ctx, "order:req-1", 10*time.Second)
	require.NoError(t, err)
	assert.NotNil(t, next)
}

func TestReleaseLockKeepsForeignHolder(t *testing.T) {
	client, mr := newTestClient(t)
	ctx := context.Background()

	stale, err := client.AcquireLock(ctx, "k", time.Second)
	require.NoError(t, err)
	require.NotNil(t, stale)

	mr.FastForward(2 * time.Second)
	current, err := client.AcquireLock(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.NotNil(t, current)

	require.NoError(t, client.ReleaseLock(ctx, stale))
	assert.True(t, mr.Exists("lock:k"), "stale holder must not release the new lock")

	require.NoError(t, client.ReleaseLock(ctx, current))
	assert.False(t, mr.Exists("lock:k"))
	assert.NoError(t, client.ReleaseLock(ctx, nil))
}
