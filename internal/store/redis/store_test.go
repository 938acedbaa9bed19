package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/crawler-notifier/internal/crawler"
)

func newTestStore(t *testing.T, now time.Time) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	mr.SetTime(now)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client), mr
}

func TestSuppressUntilInstallsTTL(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	store, mr := newTestStore(t, now)
	ctx := context.Background()
	key := crawler.SuppressionKey("stock_a", "AAA")

	suppressed, err := store.IsSuppressed(ctx, key)
	require.NoError(t, err)
	require.False(t, suppressed)

	expiresAt := crawler.NextQuietCutoff(now, crawler.QuietCutoff{Hour: 22, Minute: 30})
	require.NoError(t, store.SuppressUntil(ctx, key, expiresAt))

	require.True(t, mr.Exists("notify:stop:stock_a:AAA"))
	require.Equal(t, 45000*time.Second, mr.TTL(key))

	suppressed, err = store.IsSuppressed(ctx, key)
	require.NoError(t, err)
	require.True(t, suppressed)

	mr.FastForward(45000*time.Second - time.Second)
	suppressed, err = store.IsSuppressed(ctx, key)
	require.NoError(t, err)
	require.True(t, suppressed, "entry must survive until the cutoff")

	mr.FastForward(time.Second)
	suppressed, err = store.IsSuppressed(ctx, key)
	require.NoError(t, err)
	require.False(t, suppressed)
}

func TestSuppressUntilOverwrites(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 15, 23, 0, 0, 0, time.UTC)
	store, mr := newTestStore(t, now)
	ctx := context.Background()
	key := crawler.SuppressionKey("stock_a", "AAA")

	require.NoError(t, store.SuppressUntil(ctx, key, now.Add(time.Hour)))
	require.NoError(t, store.SuppressUntil(ctx, key, now.Add(84600*time.Second)))
	require.Equal(t, 84600*time.Second, mr.TTL(key))
}

func TestStoreUnavailable(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	store, mr := newTestStore(t, now)
	mr.Close()

	_, err := store.IsSuppressed(context.Background(), "k")
	require.ErrorIs(t, err, crawler.ErrStoreUnavailable)

	err = store.SuppressUntil(context.Background(), "k", now.Add(time.Hour))
	require.ErrorIs(t, err, crawler.ErrStoreUnavailable)
}

func TestNewClient(t *testing.T) {
	t.Parallel()

	mr := miniredis.RunT(t)
	client, err := NewClient(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	require.NoError(t, client.Close())

	_, err = NewClient(context.Background(), "not a url")
	require.Error(t, err)
}
