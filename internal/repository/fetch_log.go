package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	domrepo "CandlePull/internal/domain/repository"
	"CandlePull/pkg/cache"
)

const (
	fetchLogPrefix = "fetchlog"
	fetchLogTTL    = 7 * 24 * time.Hour
)

// CacheFetchLog stores the scheduler's last fetch time per timeframe as an
// RFC3339 string under fetchlog:<minutes>.
type CacheFetchLog struct {
	cache cache.Service
}

var _ domrepo.FetchLog = (*CacheFetchLog)(nil)

func NewCacheFetchLog(c cache.Service) *CacheFetchLog {
	return &CacheFetchLog{cache: c}
}

func (l *CacheFetchLog) LastFetch(ctx context.Context, tf domrepo.Timeframe) (time.Time, bool, error) {
	var raw string
	err := l.cache.Get(ctx, fetchLogKey(tf), &raw)
	if errors.Is(err, cache.ErrCacheMiss) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read fetch log: %w", err)
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		// unreadable entries count as never fetched
		return time.Time{}, false, nil
	}
	return t, true, nil
}

func (l *CacheFetchLog) RecordFetch(ctx context.Context, tf domrepo.Timeframe, at time.Time) error {
	if err := l.cache.Set(ctx, fetchLogKey(tf), at.UTC().Format(time.RFC3339), fetchLogTTL); err != nil {
		return fmt.Errorf("write fetch log: %w", err)
	}
	return nil
}

func fetchLogKey(tf domrepo.Timeframe) string {
	return cache.GenerateKey(fetchLogPrefix, strconv.Itoa(tf.Minutes()))
}
