package usecase

import (
	"context"
	"errors"
	"testing"

	"CandlePull/internal/domain/models"
	"CandlePull/pkg/kafka"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type errFetcher struct{ err error }

func (f errFetcher) Fetch(context.Context, models.FetchRequest) (*models.FetchResult, error) {
	return nil, f.err
}

func TestFetchJobsHandler_RunsFetch(t *testing.T) {
	f := &stubFetcher{}
	h := NewFetchJobsHandler("candlepull.fetch-jobs", f, nil)

	assert.Equal(t, "candlepull.fetch-jobs", h.Topic())
	require.NoError(t, h.Handle(context.Background(), []byte(`{"timeframe":5,"symbol":"ESZ5","days_back":1}`)))
	require.Len(t, f.reqs, 1)
	assert.Equal(t, 5, f.reqs[0].Timeframe)
	assert.Equal(t, "ESZ5", f.reqs[0].Symbol)
	assert.Equal(t, 1, f.reqs[0].DaysBack)
}

func TestFetchJobsHandler_BadPayloadIsPermanent(t *testing.T) {
	h := NewFetchJobsHandler("jobs", &stubFetcher{}, nil)

	err := h.Handle(context.Background(), []byte(`not json`))
	var perm *kafka.PermanentError
	assert.ErrorAs(t, err, &perm)
}

func TestFetchJobsHandler_InvalidTimeframeIsPermanent(t *testing.T) {
	h := NewFetchJobsHandler("jobs", errFetcher{err: ErrInvalidTimeframe}, nil)

	err := h.Handle(context.Background(), []byte(`{"timeframe":7}`))
	var perm *kafka.PermanentError
	require.ErrorAs(t, err, &perm)
	assert.ErrorIs(t, err, ErrInvalidTimeframe)
}

func TestFetchJobsHandler_TransientErrorIsRetryable(t *testing.T) {
	h := NewFetchJobsHandler("jobs", errFetcher{err: errors.New("websocket timeout")}, nil)

	err := h.Handle(context.Background(), []byte(`{"timeframe":5}`))
	require.Error(t, err)
	var perm *kafka.PermanentError
	assert.False(t, errors.As(err, &perm))
}
