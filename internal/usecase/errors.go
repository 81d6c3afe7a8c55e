package usecase

import "errors"

var (
	ErrInvalidTimeframe = errors.New("invalid timeframe")
	ErrNoToken          = errors.New("no token available in cache")
	ErrNoCandles        = errors.New("no candle data received")
	ErrSchedulerBusy    = errors.New("scheduler run already in progress")
)
