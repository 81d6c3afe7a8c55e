package models

import "time"

// Candle is one OHLCV bar for one instrument, timeframe and bucket.
type Candle struct {
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

// SessionTokens is the short-lived pair obtained by renewing a broker session.
type SessionTokens struct {
	AccessToken   string
	MDAccessToken string
}

// ChartQuery describes one historical chart request on the market-data feed.
type ChartQuery struct {
	Symbol    string
	Timeframe int
	Bars      int
	Timeout   time.Duration
}

// PersistResult tallies per-candle persistence outcomes.
type PersistResult struct {
	Stored int
	Errors int
}
