package usecase

import (
	"context"
	"strconv"
	"time"

	"CandlePull/internal/domain/models"
	domrepo "CandlePull/internal/domain/repository"
	applogger "CandlePull/pkg/logger"
)

// CandlePersister writes candles one at a time through the candle writer and
// announces the stored ones to the publisher.
type CandlePersister struct {
	writer    domrepo.CandleWriter
	publisher domrepo.CandlePublisher
	metrics   domrepo.Metrics
	log       *applogger.Logger
}

func NewCandlePersister(writer domrepo.CandleWriter, publisher domrepo.CandlePublisher, metrics domrepo.Metrics, log *applogger.Logger) *CandlePersister {
	if log == nil {
		log = applogger.Nop()
	}
	return &CandlePersister{writer: writer, publisher: publisher, metrics: metrics, log: log}
}

// Persist never aborts on a single failure; every candle is attempted.
func (p *CandlePersister) Persist(ctx context.Context, tf domrepo.Timeframe, symbol string, candles []models.Candle) models.PersistResult {
	var (
		res    models.PersistResult
		stored = make([]models.Candle, 0, len(candles))
		start  = time.Now()
	)
	for _, c := range candles {
		if err := p.writer.Persist(ctx, tf, symbol, c); err != nil {
			res.Errors++
			p.log.Warn("candle persist failed",
				applogger.String("symbol", symbol),
				applogger.Int("timeframe", tf.Minutes()),
				applogger.Time("datetime", c.Datetime),
				applogger.Error(err),
			)
			continue
		}
		res.Stored++
		stored = append(stored, c)
	}
	p.metrics.RecordLatency("candle_persist_seconds", time.Since(start).Seconds())
	p.metrics.RecordCandlesStored(strconv.Itoa(tf.Minutes()), symbol, res.Stored, res.Errors)

	if p.publisher != nil && len(stored) > 0 {
		if err := p.publisher.PublishCandles(ctx, tf, symbol, stored); err != nil {
			p.metrics.RecordError("candle_publish")
			p.log.Error("candle publish failed", applogger.String("symbol", symbol), applogger.Error(err))
		}
	}
	return res
}
