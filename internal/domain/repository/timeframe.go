package repository

import "fmt"

// Timeframe is a candle bucket width in minutes.
type Timeframe int

const (
	TF1m  Timeframe = 1
	TF5m  Timeframe = 5
	TF10m Timeframe = 10
	TF15m Timeframe = 15
	TF30m Timeframe = 30
	TF1h  Timeframe = 60
)

// Timeframes lists every supported timeframe in ascending order.
var Timeframes = []Timeframe{TF1m, TF5m, TF10m, TF15m, TF30m, TF1h}

// IsValidTimeframe returns true if tf is a supported timeframe.
func IsValidTimeframe(tf Timeframe) bool {
	switch tf {
	case TF1m, TF5m, TF10m, TF15m, TF30m, TF1h:
		return true
	default:
		return false
	}
}

// Minutes returns the bucket width in minutes.
func (tf Timeframe) Minutes() int { return int(tf) }

// PeriodLabel returns the suffix used by the persistence procedures.
func (tf Timeframe) PeriodLabel() (string, error) {
	switch tf {
	case TF1m:
		return "1min", nil
	case TF5m:
		return "5min", nil
	case TF10m:
		return "10min", nil
	case TF15m:
		return "15min", nil
	case TF30m:
		return "30min", nil
	case TF1h:
		return "1hour", nil
	default:
		return "", fmt.Errorf("unsupported timeframe: %d", int(tf))
	}
}

func (tf Timeframe) String() string {
	if l, err := tf.PeriodLabel(); err == nil {
		return l
	}
	return fmt.Sprintf("%dmin", int(tf))
}
