package payrun

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisSessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisSessionStore(client, 30*time.Minute), mr
}

func TestRedisSessionStoreRoundTrip(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()
	sess := testSession()

	require.NoError(t, store.Put(ctx, sess))

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	require.Equal(t, sess.PayrunID, got.PayrunID)
	require.True(t, got.Working.Equal(sess.Working))
	require.True(t, got.Baseline.Equal(sess.Baseline))
	require.Equal(t, sess.SelectedAccounts, got.SelectedAccounts)

	// The projector is transient state; it rebuilds after deserialization.
	proj := got.Projection()
	require.True(t, proj.AnyEnabled)
}

func TestRedisSessionStoreMissingSession(t *testing.T) {
	store, _ := newRedisStore(t)
	_, err := store.Get(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisSessionStoreExpiry(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()
	sess := testSession()
	require.NoError(t, store.Put(ctx, sess))

	mr.FastForward(31 * time.Minute)

	_, err := store.Get(ctx, sess.ID)
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisSessionStoreGetRefreshesTTL(t *testing.T) {
	store, mr := newRedisStore(t)
	ctx := context.Background()
	sess := testSession()
	require.NoError(t, store.Put(ctx, sess))

	mr.FastForward(20 * time.Minute)
	_, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)

	// 20 + 20 minutes exceeds the original TTL; the Get in between slid it.
	mr.FastForward(20 * time.Minute)
	_, err = store.Get(ctx, sess.ID)
	require.NoError(t, err)
}

func TestRedisSessionStoreDelete(t *testing.T) {
	store, _ := newRedisStore(t)
	ctx := context.Background()
	sess := testSession()
	require.NoError(t, store.Put(ctx, sess))
	require.NoError(t, store.Delete(ctx, sess.ID))

	_, err := store.Get(ctx, sess.ID)
	require.ErrorIs(t, err, ErrSessionNotFound)
}
