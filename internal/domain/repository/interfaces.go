package repository

import (
	"context"
	"time"

	"CandlePull/internal/domain/models"
)

// TokenStore is the shared broker-token cache.
type TokenStore interface {
	// ReadFirstAvailable returns the first token present for accountIDs, in order.
	ReadFirstAvailable(ctx context.Context, accountIDs []string) (token string, ok bool, err error)
	// WriteWithTTL stores token under every account key with a fresh TTL.
	WriteWithTTL(ctx context.Context, accountIDs []string, token string, ttl time.Duration) error
	// Inspect reports presence and remaining TTL per account. Read failures
	// are reported on the entry, not returned.
	Inspect(ctx context.Context, accountIDs []string) []models.TokenStatus
}

// TokenRenewer exchanges a long-lived session token for a short-lived pair.
type TokenRenewer interface {
	Renew(ctx context.Context, token string) (models.SessionTokens, error)
}

// MarketData fetches historical candles from the broker feed.
type MarketData interface {
	FetchCandles(ctx context.Context, mdToken string, q models.ChartQuery) ([]models.Candle, error)
}

// CandleWriter persists one candle through the per-symbol, per-timeframe upsert.
type CandleWriter interface {
	Persist(ctx context.Context, tf Timeframe, symbol string, c models.Candle) error
	Close() error
}

// CandlePublisher announces persisted candles to downstream consumers.
type CandlePublisher interface {
	PublishCandles(ctx context.Context, tf Timeframe, symbol string, candles []models.Candle) error
	Close() error
}

// FetchLog remembers when each timeframe was last fetched by the scheduler.
type FetchLog interface {
	LastFetch(ctx context.Context, tf Timeframe) (time.Time, bool, error)
	RecordFetch(ctx context.Context, tf Timeframe, at time.Time) error
}

// Metrics records pipeline counters and latencies.
type Metrics interface {
	RecordFetch(timeframe, symbol, result string)
	RecordCandlesStored(timeframe, symbol string, stored, errors int)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}

// Locker is a best-effort distributed mutex with expiry.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}
