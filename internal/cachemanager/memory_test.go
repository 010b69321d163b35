package cachemanager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type pageKey string

type renderedPage struct {
	Digest string
	Lines  int
}

func TestInMemoryCacheManager_GetExistingValue(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("digests", DefaultExpiration, DefaultCleanupInterval)
	cache.Set(context.Background(), "html/main.html", "abc123", DefaultExpiration)

	got, ok := cache.Get(context.Background(), "html/main.html")
	require.True(t, ok)
	require.Equal(t, "abc123", got)
}

func TestInMemoryCacheManager_NamedKeyAndStructValue(t *testing.T) {
	cache := NewInMemoryCacheManager[pageKey, renderedPage]("pages", DefaultExpiration, DefaultCleanupInterval)
	want := renderedPage{Digest: "d1", Lines: 12}
	cache.Set(context.Background(), pageKey("main"), want, DefaultExpiration)

	got, ok := cache.Get(context.Background(), pageKey("main"))
	require.True(t, ok)
	require.Equal(t, want, got)
	require.Equal(t, 1, cache.Len())
}

func TestInMemoryCacheManager_Miss(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("digests", DefaultExpiration, DefaultCleanupInterval)

	got, ok := cache.Get(context.Background(), "missing")
	require.False(t, ok)
	require.Empty(t, got)
}

func TestInMemoryCacheManager_WrongValueType(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("digests", DefaultExpiration, DefaultCleanupInterval)
	cache.cache.Set("main", 123, DefaultExpiration)

	got, ok := cache.Get(context.Background(), "main")
	require.False(t, ok)
	require.Empty(t, got)
}

func TestInMemoryCacheManager_Expiry(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("digests", DefaultExpiration, DefaultCleanupInterval)
	cache.Set(context.Background(), "main", "abc", time.Millisecond)

	require.Eventually(t, func() bool {
		_, ok := cache.Get(context.Background(), "main")
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestInMemoryCacheManager_GetWithRefresh(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("digests", DefaultExpiration, DefaultCleanupInterval)

	got, ok := cache.GetWithRefresh(context.Background(), "main", time.Hour)
	require.False(t, ok)
	require.Empty(t, got)

	cache.Set(context.Background(), "main", "abc", 50*time.Millisecond)
	got, ok = cache.GetWithRefresh(context.Background(), "main", time.Hour)
	require.True(t, ok)
	require.Equal(t, "abc", got)

	_, expires, found := cache.cache.GetWithExpiration("main")
	require.True(t, found)
	require.Greater(t, time.Until(expires), 30*time.Minute)
}

func TestInMemoryCacheManager_Delete(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("digests", DefaultExpiration, DefaultCleanupInterval)
	require.NoError(t, cache.Delete(context.Background()))

	cache.Set(context.Background(), "a", "1", DefaultExpiration)
	cache.Set(context.Background(), "b", "2", DefaultExpiration)
	require.NoError(t, cache.Delete(context.Background(), "a", "missing"))

	_, ok := cache.Get(context.Background(), "a")
	require.False(t, ok)
	_, ok = cache.Get(context.Background(), "b")
	require.True(t, ok)
}

func TestInMemoryCacheManager_Flush(t *testing.T) {
	cache := NewInMemoryCacheManager[string, string]("digests", DefaultExpiration, DefaultCleanupInterval)
	cache.Set(context.Background(), "a", "1", DefaultExpiration)
	cache.Set(context.Background(), "b", "2", DefaultExpiration)

	require.NoError(t, cache.Flush(context.Background()))
	require.Zero(t, cache.Len())
}
