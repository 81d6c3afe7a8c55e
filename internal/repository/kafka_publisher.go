package repository

import (
	"context"
	"time"

	"CandlePull/internal/domain/models"
	domrepo "CandlePull/internal/domain/repository"
	pkgkafka "CandlePull/pkg/kafka"
)

// CandleEvent is the message published for every persisted candle.
type CandleEvent struct {
	Symbol     string    `json:"symbol"`
	Timeframe  int       `json:"timeframe"`
	Procedure  string    `json:"procedure"`
	Datetime   time.Time `json:"datetime"`
	Open       float64   `json:"open"`
	High       float64   `json:"high"`
	Low        float64   `json:"low"`
	Close      float64   `json:"close"`
	Volume     int64     `json:"volume"`
	UpVolume   int64     `json:"up_volume"`
	DownVolume int64     `json:"down_volume"`
	UpTicks    int64     `json:"up_ticks"`
	DownTicks  int64     `json:"down_ticks"`
}

// KafkaCandlePublisher publishes candle events keyed by symbol, so one
// instrument's candles stay ordered within a partition.
type KafkaCandlePublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

var _ domrepo.CandlePublisher = (*KafkaCandlePublisher)(nil)

// NewKafkaCandlePublisher creates Kafka publisher.
func NewKafkaCandlePublisher(producer *pkgkafka.Producer, topic string) *KafkaCandlePublisher {
	return &KafkaCandlePublisher{producer: producer, topic: topic}
}

func (p *KafkaCandlePublisher) PublishCandles(ctx context.Context, tf domrepo.Timeframe, symbol string, candles []models.Candle) error {
	msgs, err := candleMessages(tf, symbol, candles)
	if err != nil || len(msgs) == 0 {
		return err
	}
	return p.producer.Publish(ctx, p.topic, msgs...)
}

func (p *KafkaCandlePublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

func candleMessages(tf domrepo.Timeframe, symbol string, candles []models.Candle) ([]pkgkafka.Message, error) {
	if len(candles) == 0 {
		return nil, nil
	}
	proc, err := ProcedureName(tf, symbol)
	if err != nil {
		return nil, err
	}
	hdr := map[string]string{"timeframe": tf.String(), "procedure": proc}
	msgs := make([]pkgkafka.Message, len(candles))
	for i, c := range candles {
		msgs[i] = pkgkafka.Message{
			Key:     []byte(symbol),
			Headers: hdr,
			Value: CandleEvent{
				Symbol:     symbol,
				Timeframe:  tf.Minutes(),
				Procedure:  proc,
				Datetime:   c.Datetime.UTC(),
				Open:       c.Open,
				High:       c.High,
				Low:        c.Low,
				Close:      c.Close,
				Volume:     c.Volume,
				UpVolume:   c.UpVolume,
				DownVolume: c.DownVolume,
				UpTicks:    c.UpTicks,
				DownTicks:  c.DownTicks,
			},
		}
	}
	return msgs, nil
}

// NopCandlePublisher is used when Kafka is disabled.
type NopCandlePublisher struct{}

func (NopCandlePublisher) PublishCandles(context.Context, domrepo.Timeframe, string, []models.Candle) error {
	return nil
}

func (NopCandlePublisher) Close() error { return nil }
