package repository

import (
	"testing"

	domrepo "CandlePull/internal/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcedureName(t *testing.T) {
	tests := []struct {
		tf     domrepo.Timeframe
		symbol string
		want   string
	}{
		{domrepo.TF5m, "MNQZ5", "insert_mnq_candles_5min"},
		{domrepo.TF1h, "NQH6", "insert_nq_candles_1hour"},
		{domrepo.TF1m, "MESZ5", "insert_mes_candles_1min"},
		{domrepo.TF15m, "ESZ5", "insert_es_candles_15min"},
		{domrepo.TF10m, "CLZ5", "insert_nq_candles_10min"},
		{domrepo.TF30m, "mnqz5", "insert_mnq_candles_30min"},
	}
	for _, tt := range tests {
		got, err := ProcedureName(tt.tf, tt.symbol)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestProcedureName_UnsupportedTimeframe(t *testing.T) {
	_, err := ProcedureName(domrepo.Timeframe(7), "MNQZ5")
	assert.Error(t, err)
}

func TestTableName(t *testing.T) {
	got, err := TableName(domrepo.TF5m, "MNQZ5")
	require.NoError(t, err)
	assert.Equal(t, "mnq_candles_5min", got)
}
