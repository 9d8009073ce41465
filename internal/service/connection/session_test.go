package connection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionPool_OpenGetRemove(t *testing.T) {
	pool := newTestPool()
	client := &mockEngineClient{}

	s := pool.Open("u1", "c1", client)
	assert.NotEmpty(t, s.ID)
	assert.True(t, s.ExpiresAt.After(s.CreatedAt))

	got, ok := pool.Get(s.ID)
	require.True(t, ok)
	assert.Equal(t, "u1", got.OwnerUserID)

	assert.True(t, pool.Remove(s.ID))
	assert.Equal(t, 1, client.CloseCalls())
	_, ok = pool.Get(s.ID)
	assert.False(t, ok)
	assert.False(t, pool.Remove(s.ID))
}

func TestSessionPool_CapacityEvictionClosesClient(t *testing.T) {
	pool := NewSessionPool(1, time.Hour, testLogger())
	first := &mockEngineClient{}

	pool.Open("u1", "c1", first)
	pool.Open("u2", "c1", &mockEngineClient{})

	assert.Equal(t, 1, pool.Len())
	assert.Equal(t, 1, first.CloseCalls())
}

func TestSessionPool_Expiry(t *testing.T) {
	pool := NewSessionPool(4, 50*time.Millisecond, testLogger())
	client := &mockEngineClient{}
	s := pool.Open("u1", "c1", client)

	assert.Eventually(t, func() bool {
		_, ok := pool.Get(s.ID)
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestSessionPool_CloseDestroysAll(t *testing.T) {
	pool := newTestPool()
	a, b := &mockEngineClient{}, &mockEngineClient{}
	pool.Open("u1", "c1", a)
	pool.Open("u2", "c1", b)

	pool.Close()
	assert.Equal(t, 0, pool.Len())
	assert.Equal(t, 1, a.CloseCalls())
	assert.Equal(t, 1, b.CloseCalls())
}

func TestSessionPool_EmptyID(t *testing.T) {
	_, ok := newTestPool().Get("")
	assert.False(t, ok)
}

func TestSessionPool_LeasedClientOutlivesRemoval(t *testing.T) {
	pool := newTestPool()
	client := &mockEngineClient{}
	s := pool.Open("u1", "c1", client)

	_, release, ok := pool.Acquire(s.ID)
	require.True(t, ok)

	require.True(t, pool.Remove(s.ID))
	assert.Equal(t, 0, client.CloseCalls(), "client stays open while leased")

	_, _, ok = pool.Acquire(s.ID)
	assert.False(t, ok, "a removed session cannot be leased again")

	release()
	assert.Equal(t, 1, client.CloseCalls())
	release()
	assert.Equal(t, 1, client.CloseCalls(), "release is idempotent")
}

func TestSessionPool_LeasedClientOutlivesCapacityEviction(t *testing.T) {
	pool := NewSessionPool(1, time.Hour, testLogger())
	first := &mockEngineClient{}
	s := pool.Open("u1", "c1", first)

	_, release, ok := pool.Acquire(s.ID)
	require.True(t, ok)

	pool.Open("u2", "c1", &mockEngineClient{})
	assert.Equal(t, 0, first.CloseCalls())

	release()
	assert.Equal(t, 1, first.CloseCalls())
}

func TestSessionPool_ReleaseWithoutRemovalKeepsClient(t *testing.T) {
	pool := newTestPool()
	client := &mockEngineClient{}
	s := pool.Open("u1", "c1", client)

	_, release, ok := pool.Acquire(s.ID)
	require.True(t, ok)
	release()

	assert.Equal(t, 0, client.CloseCalls())
	_, ok = pool.Get(s.ID)
	assert.True(t, ok)
}
