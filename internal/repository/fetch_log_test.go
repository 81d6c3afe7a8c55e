package repository

import (
	"context"
	"testing"
	"time"

	domrepo "CandlePull/internal/domain/repository"
	"CandlePull/pkg/cache"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheFetchLog_RoundTrip(t *testing.T) {
	mc := cache.NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()
	log := NewCacheFetchLog(mc)

	_, ok, err := log.LastFetch(ctx, domrepo.TF15m)
	require.NoError(t, err)
	assert.False(t, ok)

	at := time.Date(2025, 10, 17, 12, 15, 3, 0, time.UTC)
	require.NoError(t, log.RecordFetch(ctx, domrepo.TF15m, at))

	got, ok, err := log.LastFetch(ctx, domrepo.TF15m)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, at.Equal(got))

	var raw string
	require.NoError(t, mc.Get(ctx, "fetchlog:15", &raw))
	assert.Equal(t, "2025-10-17T12:15:03Z", raw)
}

func TestCacheFetchLog_GarbageCountsAsNeverFetched(t *testing.T) {
	mc := cache.NewMemoryCache()
	defer mc.Close()
	ctx := context.Background()
	require.NoError(t, mc.Set(ctx, "fetchlog:5", "yesterday", time.Minute))

	_, ok, err := NewCacheFetchLog(mc).LastFetch(ctx, domrepo.TF5m)
	require.NoError(t, err)
	assert.False(t, ok)
}
