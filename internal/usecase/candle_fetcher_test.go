package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"CandlePull/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fetcherDeps struct {
	store   *fakeTokenStore
	renewer *fakeRenewer
	market  *fakeMarket
	writer  *fakeWriter
	pub     *fakePublisher
}

func newTestFetcher(d fetcherDeps) *CandleFetcher {
	refresher := NewTokenRefresher(d.store, d.renewer, nopMetrics{}, []string{"a", "b"}, time.Hour, nil)
	persister := NewCandlePersister(d.writer, d.pub, nopMetrics{}, nil)
	return NewCandleFetcher(refresher, d.market, persister, nopMetrics{}, FetcherConfig{
		DefaultSymbol:     "MNQZ5",
		DefaultBars:       10,
		Timeout:           30 * time.Second,
		HistoricalTimeout: 120 * time.Second,
	}, nil)
}

func defaultDeps() fetcherDeps {
	return fetcherDeps{
		store:   &fakeTokenStore{token: "cached"},
		renewer: &fakeRenewer{tokens: models.SessionTokens{AccessToken: "acc", MDAccessToken: "md"}},
		market:  &fakeMarket{candles: sampleCandles(3)},
		writer:  &fakeWriter{},
		pub:     &fakePublisher{},
	}
}

func TestCandleFetcher_InvalidTimeframeDoesNoIO(t *testing.T) {
	d := defaultDeps()
	f := newTestFetcher(d)

	_, err := f.Fetch(context.Background(), models.FetchRequest{Timeframe: 7})
	require.ErrorIs(t, err, ErrInvalidTimeframe)
	assert.Zero(t, d.store.reads)
	assert.Empty(t, d.renewer.got)
	assert.Empty(t, d.market.queries)
}

func TestCandleFetcher_NoToken(t *testing.T) {
	d := defaultDeps()
	d.store.token = ""
	f := newTestFetcher(d)

	_, err := f.Fetch(context.Background(), models.FetchRequest{Timeframe: 5})
	require.ErrorIs(t, err, ErrNoToken)
	assert.Empty(t, d.renewer.got)
	assert.Empty(t, d.market.queries)
}

func TestCandleFetcher_RenewFailure(t *testing.T) {
	d := defaultDeps()
	d.renewer.err = errors.New("token renewal failed: 401")
	f := newTestFetcher(d)

	_, err := f.Fetch(context.Background(), models.FetchRequest{Timeframe: 5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Empty(t, d.market.queries)
}

func TestCandleFetcher_NoCandles(t *testing.T) {
	d := defaultDeps()
	d.market.candles = nil
	f := newTestFetcher(d)

	_, err := f.Fetch(context.Background(), models.FetchRequest{Timeframe: 5})
	require.ErrorIs(t, err, ErrNoCandles)
	assert.Zero(t, d.writer.calls)
}

func TestCandleFetcher_MarketError(t *testing.T) {
	d := defaultDeps()
	cause := errors.New("websocket timeout")
	d.market.err = cause
	f := newTestFetcher(d)

	_, err := f.Fetch(context.Background(), models.FetchRequest{Timeframe: 5})
	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "websocket timeout")
	assert.Zero(t, d.writer.calls)
	assert.Empty(t, d.pub.published)
}

func TestCandleFetcher_Success(t *testing.T) {
	d := defaultDeps()
	d.writer.failAt = map[int]bool{1: true}
	f := newTestFetcher(d)

	res, err := f.Fetch(context.Background(), models.FetchRequest{Timeframe: 15})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, 15, res.Timeframe)
	assert.Equal(t, "MNQZ5", res.Symbol)
	assert.Equal(t, 3, res.CandlesFetched)
	assert.Equal(t, 2, res.CandlesStored)
	assert.Equal(t, 1, res.Errors)
	assert.Equal(t, res.CandlesFetched, res.CandlesStored+res.Errors)

	require.Len(t, d.market.queries, 1)
	q := d.market.queries[0]
	assert.Equal(t, "md", d.market.tokens[0])
	assert.Equal(t, "MNQZ5", q.Symbol)
	assert.Equal(t, 15, q.Timeframe)
	assert.Equal(t, 10, q.Bars)
	assert.Equal(t, 30*time.Second, q.Timeout)

	assert.Equal(t, map[string]string{"a": "acc", "b": "acc"}, d.store.written)
	require.Len(t, d.pub.published, 1)
	assert.Len(t, d.pub.published[0], 2)
}

func TestCandleFetcher_DaysBackSetsBarsAndTimeout(t *testing.T) {
	d := defaultDeps()
	f := newTestFetcher(d)

	_, err := f.Fetch(context.Background(), models.FetchRequest{Timeframe: 60, Symbol: "ESZ5", DaysBack: 2})
	require.NoError(t, err)

	require.Len(t, d.market.queries, 1)
	q := d.market.queries[0]
	assert.Equal(t, "ESZ5", q.Symbol)
	assert.Equal(t, 48, q.Bars)
	assert.Equal(t, 120*time.Second, q.Timeout)
}

func TestCandleFetcher_WriteBackFailureIsSwallowed(t *testing.T) {
	d := defaultDeps()
	d.store.writeErr = errors.New("redis down")
	f := newTestFetcher(d)

	res, err := f.Fetch(context.Background(), models.FetchRequest{Timeframe: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, res.CandlesStored)
}
