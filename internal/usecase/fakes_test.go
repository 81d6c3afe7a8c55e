package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"CandlePull/internal/domain/models"
	domrepo "CandlePull/internal/domain/repository"
)

type fakeTokenStore struct {
	mu       sync.Mutex
	token    string
	readErr  error
	writeErr error
	written  map[string]string
	ttl      time.Duration
	reads    int
	status   []models.TokenStatus
}

func (s *fakeTokenStore) ReadFirstAvailable(_ context.Context, _ []string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	return s.token, s.token != "", s.readErr
}

func (s *fakeTokenStore) WriteWithTTL(_ context.Context, ids []string, token string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	if s.written == nil {
		s.written = map[string]string{}
	}
	for _, id := range ids {
		s.written[id] = token
	}
	s.ttl = ttl
	return nil
}

func (s *fakeTokenStore) Inspect(_ context.Context, _ []string) []models.TokenStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.TokenStatus(nil), s.status...)
}

type fakeRenewer struct {
	tokens models.SessionTokens
	err    error
	got    []string
}

func (r *fakeRenewer) Renew(_ context.Context, token string) (models.SessionTokens, error) {
	r.got = append(r.got, token)
	return r.tokens, r.err
}

type fakeMarket struct {
	candles []models.Candle
	err     error
	queries []models.ChartQuery
	tokens  []string
}

func (m *fakeMarket) FetchCandles(_ context.Context, mdToken string, q models.ChartQuery) ([]models.Candle, error) {
	m.tokens = append(m.tokens, mdToken)
	m.queries = append(m.queries, q)
	return m.candles, m.err
}

type fakeWriter struct {
	failAt map[int]bool
	calls  int
	stored []models.Candle
}

func (w *fakeWriter) Persist(_ context.Context, _ domrepo.Timeframe, _ string, c models.Candle) error {
	i := w.calls
	w.calls++
	if w.failAt[i] {
		return errors.New("rpc failed")
	}
	w.stored = append(w.stored, c)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

type fakePublisher struct {
	err       error
	published [][]models.Candle
}

func (p *fakePublisher) PublishCandles(_ context.Context, _ domrepo.Timeframe, _ string, candles []models.Candle) error {
	p.published = append(p.published, candles)
	return p.err
}

func (p *fakePublisher) Close() error { return nil }

type nopMetrics struct{}

func (nopMetrics) RecordFetch(string, string, string) {}
func (nopMetrics) RecordCandlesStored(string, string, int, int) {}
func (nopMetrics) RecordError(string) {}
func (nopMetrics) RecordLatency(string, float64) {}

type memFetchLog struct {
	last    map[domrepo.Timeframe]time.Time
	readErr error
}

func (l *memFetchLog) LastFetch(_ context.Context, tf domrepo.Timeframe) (time.Time, bool, error) {
	if l.readErr != nil {
		return time.Time{}, false, l.readErr
	}
	t, ok := l.last[tf]
	return t, ok, nil
}

func (l *memFetchLog) RecordFetch(_ context.Context, tf domrepo.Timeframe, at time.Time) error {
	if l.last == nil {
		l.last = map[domrepo.Timeframe]time.Time{}
	}
	l.last[tf] = at
	return nil
}

type fakeLocker struct {
	held     bool
	unlocked int
}

func (l *fakeLocker) TryLock(context.Context, string, time.Duration) (bool, error) {
	if l.held {
		return false, nil
	}
	l.held = true
	return true, nil
}

func (l *fakeLocker) Unlock(context.Context, string) error {
	l.held = false
	l.unlocked++
	return nil
}

type stubFetcher struct {
	mu   sync.Mutex
	errs map[int]error
	reqs []models.FetchRequest
}

func (f *stubFetcher) Fetch(_ context.Context, req models.FetchRequest) (*models.FetchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	if err := f.errs[req.Timeframe]; err != nil {
		return nil, err
	}
	return &models.FetchResult{Success: true, Timeframe: req.Timeframe, Symbol: req.Symbol, CandlesFetched: 1, CandlesStored: 1}, nil
}

func sampleCandles(n int) []models.Candle {
	base := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
	out := make([]models.Candle, n)
	for i := range out {
		out[i] = models.Candle{Datetime: base.Add(time.Duration(i) * time.Minute), Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10}
	}
	return out
}
