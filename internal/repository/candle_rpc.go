package repository

import (
	"context"
	"fmt"
	"strings"

	"CandlePull/internal/domain/models"
	domrepo "CandlePull/internal/domain/repository"
	xhttp "CandlePull/pkg/http"
)

const isoMillis = "2006-01-02T15:04:05.000Z"

// rpcCandle is the named-parameter payload of the insert_* procedures.
type rpcCandle struct {
	Symbol     string  `json:"p_symbol"`
	CandleTime string  `json:"p_candle_time"`
	Open       float64 `json:"p_open"`
	High       float64 `json:"p_high"`
	Low        float64 `json:"p_low"`
	Close      float64 `json:"p_close"`
	Volume     int64   `json:"p_volume"`
	UpVolume   int64   `json:"p_up_volume"`
	DownVolume int64   `json:"p_down_volume"`
	UpTicks    int64   `json:"p_up_ticks"`
	DownTicks  int64   `json:"p_down_ticks"`
}

// RPCCandleWriter calls the Postgres upsert procedures through the PostgREST
// RPC endpoint.
type RPCCandleWriter struct {
	baseURL string
	apiKey  string
	client  *xhttp.Client
}

var _ domrepo.CandleWriter = (*RPCCandleWriter)(nil)

// NewRPCCandleWriter creates a writer for the REST endpoint at baseURL,
// authenticated with the service-role apiKey.
func NewRPCCandleWriter(baseURL, apiKey string, client *xhttp.Client) *RPCCandleWriter {
	if client == nil {
		client = xhttp.NewClient()
	}
	return &RPCCandleWriter{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
	}
}

func (w *RPCCandleWriter) Persist(ctx context.Context, tf domrepo.Timeframe, symbol string, c models.Candle) error {
	proc, err := ProcedureName(tf, symbol)
	if err != nil {
		return err
	}

	err = w.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    fmt.Sprintf("%s/rest/v1/rpc/%s", w.baseURL, proc),
		Headers: map[string]string{
			"apikey":        w.apiKey,
			"Authorization": "Bearer " + w.apiKey,
			"Content-Type":  "application/json",
		},
		Body: rpcCandle{
			Symbol:     symbol,
			CandleTime: c.Datetime.UTC().Format(isoMillis),
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
	}, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", proc, err)
	}
	return nil
}

func (w *RPCCandleWriter) Close() error { return nil }
