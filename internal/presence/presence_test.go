package presence

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client), mr
}

func TestPresenceUnknownUser(t *testing.T) {
	store, _ := newTestStore(t)

	p, err := store.Get(context.Background(), "stranger")
	require.NoError(t, err)
	assert.False(t, p.Online)
	assert.Nil(t, p.LastSeen)
}

func TestHeartbeat(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)

	require.NoError(t, store.Heartbeat(ctx, "u1"))

	p, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, p.Online)
	require.NotNil(t, p.LastSeen)
	assert.WithinDuration(t, time.Now(), *p.LastSeen, 5*time.Second)

	// Once the heartbeat window lapses the user reads as offline, but
	// last-seen survives.
	mr.FastForward(3 * time.Minute)

	p, err = store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, p.Online)
	assert.NotNil(t, p.LastSeen)
}

func TestSetOffline(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	require.NoError(t, store.Heartbeat(ctx, "u1"))
	require.NoError(t, store.SetOffline(ctx, "u1"))

	p, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, p.Online)
	assert.NotNil(t, p.LastSeen)
}
