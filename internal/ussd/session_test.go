package ussd

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, *RedisStore) {
	t.Helper()

	mr := miniredis.NewMiniRedis()
	require.NoError(t, mr.Start())
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	return mr, NewRedisStore(client, ttl)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	_, store := setupStore(t, 0)
	ctx := context.Background()

	created, err := store.Create(ctx, "sess-1", "08031234567")
	require.NoError(t, err)
	assert.Equal(t, MenuMain, created.MenuLevel)
	assert.False(t, created.IsAuthenticated)

	created.MenuLevel = MenuAuth
	created.Auth = &AuthProgress{Step: AuthAwaitPIN, Phone: "08031234567"}
	require.NoError(t, store.Update(ctx, created))

	got, err := store.Get(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, MenuAuth, got.MenuLevel)
	require.NotNil(t, got.Auth)
	assert.Equal(t, AuthAwaitPIN, got.Auth.Step)
	assert.Equal(t, "08031234567", got.Auth.Phone)
}

func TestRedisStoreMissingSession(t *testing.T) {
	_, store := setupStore(t, 0)

	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStoreExpiry(t *testing.T) {
	mr, store := setupStore(t, 0)
	ctx := context.Background()

	_, err := store.Create(ctx, "sess-1", "08031234567")
	require.NoError(t, err)

	mr.FastForward(DefaultSessionTTL + time.Second)

	_, err = store.Get(ctx, "sess-1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStoreUpdateRefreshesTTL(t *testing.T) {
	mr, store := setupStore(t, time.Minute)
	ctx := context.Background()

	ses, err := store.Create(ctx, "sess-1", "08031234567")
	require.NoError(t, err)

	mr.FastForward(45 * time.Second)
	require.NoError(t, store.Update(ctx, ses))

	// Past the original deadline but inside the refreshed one.
	mr.FastForward(45 * time.Second)

	_, err = store.Get(ctx, "sess-1")
	assert.NoError(t, err)
}
