package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"CandlePull/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenStore_ReadFirstAvailable(t *testing.T) {
	mc := cache.NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()
	require.NoError(t, mc.Set(ctx, "token:B", "tok-b", time.Minute))
	require.NoError(t, mc.Set(ctx, "token:C", "tok-c", time.Minute))

	s := NewTokenStore(mc)
	tok, ok, err := s.ReadFirstAvailable(ctx, []string{"A", "B", "C"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok-b", tok)
}

func TestTokenStore_ReadNoneAvailable(t *testing.T) {
	mc := cache.NewMemoryCache()
	defer mc.Close()

	tok, ok, err := NewTokenStore(mc).ReadFirstAvailable(context.Background(), []string{"A", "B"})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, tok)
}

func TestTokenStore_WriteWithTTL(t *testing.T) {
	mc := cache.NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()
	s := NewTokenStore(mc)

	require.NoError(t, s.WriteWithTTL(ctx, []string{"A", "B"}, "fresh", 50*time.Millisecond))
	for _, key := range []string{"token:A", "token:B"} {
		var got string
		require.NoError(t, mc.Get(ctx, key, &got))
		assert.Equal(t, "fresh", got)
	}

	time.Sleep(80 * time.Millisecond)
	_, ok, err := s.ReadFirstAvailable(ctx, []string{"A", "B"})
	require.NoError(t, err)
	assert.False(t, ok)
}

type failingCache struct{ cache.Service }

func (failingCache) Get(context.Context, string, interface{}) error {
	return errors.New("connection refused")
}

func (failingCache) Set(context.Context, string, interface{}, time.Duration) error {
	return errors.New("connection refused")
}

func (failingCache) TTL(context.Context, string) (time.Duration, error) {
	return 0, errors.New("connection refused")
}

func TestTokenStore_ErrorsSurface(t *testing.T) {
	s := NewTokenStore(failingCache{})
	ctx := context.Background()

	_, ok, err := s.ReadFirstAvailable(ctx, []string{"A"})
	assert.False(t, ok)
	assert.ErrorContains(t, err, "read token A")

	err = s.WriteWithTTL(ctx, []string{"A", "B"}, "x", time.Minute)
	assert.ErrorContains(t, err, "write token A")
	assert.ErrorContains(t, err, "write token B")
}

func TestTokenStore_Inspect(t *testing.T) {
	mc := cache.NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()
	require.NoError(t, mc.Set(ctx, "token:B", "tok-b", time.Hour))

	got := NewTokenStore(mc).Inspect(ctx, []string{"A", "B"})
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Account)
	assert.False(t, got[0].Cached)
	assert.Zero(t, got[0].TTLSeconds)

	assert.Equal(t, "B", got[1].Account)
	assert.True(t, got[1].Cached)
	assert.InDelta(t, 3600, got[1].TTLSeconds, 5)
	assert.Empty(t, got[1].Error)
}

func TestTokenStore_InspectReportsReadErrors(t *testing.T) {
	got := NewTokenStore(failingCache{}).Inspect(context.Background(), []string{"A"})
	require.Len(t, got, 1)
	assert.False(t, got[0].Cached)
	assert.Equal(t, "connection refused", got[0].Error)
}
