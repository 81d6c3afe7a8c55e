package usecase

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"CandlePull/internal/domain/models"
	domrepo "CandlePull/internal/domain/repository"
	applogger "CandlePull/pkg/logger"
	"CandlePull/pkg/util"

	"github.com/google/uuid"
)

// SessionProvider yields a renewed broker session.
type SessionProvider interface {
	Session(ctx context.Context) (models.SessionTokens, error)
}

// FetcherConfig holds request defaults.
type FetcherConfig struct {
	DefaultSymbol     string
	DefaultBars       int
	Timeout           time.Duration
	HistoricalTimeout time.Duration
}

// CandleFetcher runs the full pipeline for one request: session, chart fetch,
// persistence.
type CandleFetcher struct {
	sessions  SessionProvider
	market    domrepo.MarketData
	persister *CandlePersister
	metrics   domrepo.Metrics
	cfg       FetcherConfig
	log       *applogger.Logger
	now       func() time.Time
}

func NewCandleFetcher(sessions SessionProvider, market domrepo.MarketData, persister *CandlePersister, metrics domrepo.Metrics, cfg FetcherConfig, log *applogger.Logger) *CandleFetcher {
	if cfg.DefaultSymbol == "" {
		cfg.DefaultSymbol = "MNQZ5"
	}
	if cfg.DefaultBars <= 0 {
		cfg.DefaultBars = 10
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.HistoricalTimeout <= 0 {
		cfg.HistoricalTimeout = 120 * time.Second
	}
	if log == nil {
		log = applogger.Nop()
	}
	return &CandleFetcher{
		sessions:  sessions,
		market:    market,
		persister: persister,
		metrics:   metrics,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

// Fetch validates the request before any I/O, then renews the session, pulls
// the chart and persists every candle. A non-positive DaysBack means "latest
// bars"; otherwise the look-back window sets the bar count and the longer
// deadline applies.
func (f *CandleFetcher) Fetch(ctx context.Context, req models.FetchRequest) (*models.FetchResult, error) {
	tf := domrepo.Timeframe(req.Timeframe)
	if !domrepo.IsValidTimeframe(tf) {
		return nil, ErrInvalidTimeframe
	}

	symbol := req.Symbol
	if symbol == "" {
		symbol = f.cfg.DefaultSymbol
	}
	q := models.ChartQuery{
		Symbol:    symbol,
		Timeframe: tf.Minutes(),
		Bars:      f.cfg.DefaultBars,
		Timeout:   f.cfg.Timeout,
	}
	if req.DaysBack > 0 {
		q.Bars = util.BarCount(req.DaysBack, tf.Minutes())
		q.Timeout = f.cfg.HistoricalTimeout
	}

	tfLabel := strconv.Itoa(tf.Minutes())
	log := f.log.With(
		applogger.String("fetch_id", uuid.NewString()),
		applogger.String("symbol", symbol),
		applogger.Int("timeframe", tf.Minutes()),
	)
	start := time.Now()

	candles, err := f.fetch(ctx, q)
	f.metrics.RecordLatency("candle_fetch_seconds", time.Since(start).Seconds())
	if err != nil {
		f.metrics.RecordFetch(tfLabel, symbol, "error")
		log.Error("candle fetch failed", applogger.Error(err))
		return nil, err
	}

	res := f.persister.Persist(ctx, tf, symbol, candles)
	f.metrics.RecordFetch(tfLabel, symbol, "success")
	log.Info("candles fetched",
		applogger.Int("bars", q.Bars),
		applogger.Int("fetched", len(candles)),
		applogger.Int("stored", res.Stored),
		applogger.Int("errors", res.Errors),
		applogger.Duration("took", time.Since(start)),
	)

	return &models.FetchResult{
		Success:          true,
		Timeframe:        tf.Minutes(),
		Symbol:           symbol,
		CandlesFetched:   len(candles),
		CandlesStored:    res.Stored,
		Errors:           res.Errors,
		Timestamp:        f.now().UTC(),
		DaysBack:         req.DaysBack,
		CandlesRequested: q.Bars,
		DateRange: &models.DateRange{
			Start: candles[0].Datetime,
			End:   candles[len(candles)-1].Datetime,
		},
	}, nil
}

func (f *CandleFetcher) fetch(ctx context.Context, q models.ChartQuery) ([]models.Candle, error) {
	tokens, err := f.sessions.Session(ctx)
	if err != nil {
		return nil, err
	}

	candles, err := f.market.FetchCandles(ctx, tokens.MDAccessToken, q)
	if err != nil {
		f.metrics.RecordError("market_data")
		return nil, fmt.Errorf("fetch candles: %w", err)
	}
	if len(candles) == 0 {
		return nil, ErrNoCandles
	}
	return candles, nil
}
