package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorder_CountsFetchesAndCandles(t *testing.T) {
	r := New(prometheus.NewRegistry())

	r.RecordFetch("5", "MNQZ5", "success")
	r.RecordFetch("5", "MNQZ5", "success")
	r.RecordFetch("5", "MNQZ5", "error")
	r.RecordCandlesStored("5", "MNQZ5", 9, 1)
	r.RecordCandlesStored("5", "MNQZ5", 0, 0)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.fetches.WithLabelValues("5", "MNQZ5", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.fetches.WithLabelValues("5", "MNQZ5", "error")))
	assert.Equal(t, 9.0, testutil.ToFloat64(r.candlesSaved.WithLabelValues("5", "MNQZ5")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.candleErrors.WithLabelValues("5", "MNQZ5")))
}
