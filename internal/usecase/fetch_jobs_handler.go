package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"CandlePull/internal/domain/models"
	"CandlePull/pkg/kafka"
	applogger "CandlePull/pkg/logger"
)

// FetchJobsHandler runs fetch requests that arrive on a Kafka topic.
type FetchJobsHandler struct {
	topic   string
	fetcher Fetcher
	log     *applogger.Logger
}

func NewFetchJobsHandler(topic string, fetcher Fetcher, log *applogger.Logger) *FetchJobsHandler {
	if log == nil {
		log = applogger.Nop()
	}
	return &FetchJobsHandler{topic: topic, fetcher: fetcher, log: log}
}

func (h *FetchJobsHandler) Topic() string { return h.topic }

// Handle decodes a FetchRequest. Malformed payloads and invalid timeframes are
// permanent failures; anything else may be retried by the consumer.
func (h *FetchJobsHandler) Handle(ctx context.Context, payload []byte) error {
	var req models.FetchRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return kafka.Permanent(fmt.Errorf("decode fetch job: %w", err))
	}
	res, err := h.fetcher.Fetch(ctx, req)
	if err != nil {
		if errors.Is(err, ErrInvalidTimeframe) {
			return kafka.Permanent(err)
		}
		return err
	}
	h.log.Debug("fetch job done",
		applogger.String("symbol", res.Symbol),
		applogger.Int("timeframe", res.Timeframe),
		applogger.Int("stored", res.CandlesStored),
	)
	return nil
}
