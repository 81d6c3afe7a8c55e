package repository

import (
	"context"
	"database/sql"
	"fmt"

	"CandlePull/internal/domain/models"
	domrepo "CandlePull/internal/domain/repository"
	pkgch "CandlePull/pkg/clickhouse"
	applogger "CandlePull/pkg/logger"
)

const chCandleTableDDL = `
CREATE TABLE IF NOT EXISTS %s (
    symbol       LowCardinality(String),
    candle_time  DateTime64(3, 'UTC'),
    open         Float64,
    high         Float64,
    low          Float64,
    close        Float64,
    volume       Int64,
    up_volume    Int64,
    down_volume  Int64,
    up_ticks     Int64,
    down_ticks   Int64,
    updated_at   DateTime64(3, 'UTC') DEFAULT now64(3)
) ENGINE = ReplacingMergeTree(updated_at)
ORDER BY (symbol, candle_time)`

// CHCandleWriter stores candles in one ReplacingMergeTree table per procedure,
// so re-inserting the same (symbol, candle_time) collapses on merge.
type CHCandleWriter struct {
	ch     *pkgch.Client
	db     *sql.DB
	schema *schemaSet
	l      *applogger.Logger
}

var _ domrepo.CandleWriter = (*CHCandleWriter)(nil)

// NewCHCandleWriter takes ownership of ch; Close releases its pool.
func NewCHCandleWriter(ch *pkgch.Client, l *applogger.Logger) *CHCandleWriter {
	if l == nil {
		l = applogger.Nop()
	}
	return &CHCandleWriter{ch: ch, db: ch.DB(), schema: newSchemaSet(), l: l}
}

func (w *CHCandleWriter) Persist(ctx context.Context, tf domrepo.Timeframe, symbol string, c models.Candle) error {
	table, err := TableName(tf, symbol)
	if err != nil {
		return err
	}

	if err := w.schema.ensure(table, func() error {
		_, err := w.db.ExecContext(ctx, fmt.Sprintf(chCandleTableDDL, table))
		return err
	}); err != nil {
		w.l.Error("clickhouse candle schema error", applogger.String("table", table), applogger.Error(err))
		return err
	}

	q := fmt.Sprintf(`INSERT INTO %s (symbol, candle_time, open, high, low, close, volume, up_volume, down_volume, up_ticks, down_ticks)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, table)
	if _, err := w.db.ExecContext(ctx, q,
		symbol, c.Datetime.UTC(),
		c.Open, c.High, c.Low, c.Close,
		c.Volume, c.UpVolume, c.DownVolume, c.UpTicks, c.DownTicks,
	); err != nil {
		return fmt.Errorf("insert %s: %w", table, err)
	}
	return nil
}

func (w *CHCandleWriter) Close() error {
	return w.ch.Close()
}
