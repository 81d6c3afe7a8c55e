package models

import "time"

// Requests for the candle functions. Defined in domain for consistency and reuse.

type FetchRequest struct {
	Timeframe int    `json:"timeframe" validate:"required,oneof=1 5 10 15 30 60"`
	Symbol    string `json:"symbol,omitempty"`
	DaysBack  int    `json:"days_back,omitempty" validate:"gte=0,lte=365"`
}

// HistoricalFetchRequest is a FetchRequest whose look-back window is mandatory.
type HistoricalFetchRequest struct {
	Timeframe int    `json:"timeframe" validate:"required,oneof=1 5 10 15 30 60"`
	Symbol    string `json:"symbol,omitempty"`
	DaysBack  int    `json:"days_back" default:"5" validate:"gte=1,lte=365"`
}

// FetchResult is the outcome of one orchestrated fetch.
type FetchResult struct {
	Success        bool      `json:"success"`
	Timeframe      int       `json:"timeframe"`
	Symbol         string    `json:"symbol"`
	CandlesFetched int       `json:"candles_fetched"`
	CandlesStored  int       `json:"candles_stored"`
	Errors         int       `json:"errors"`
	Timestamp      time.Time `json:"timestamp"`

	DaysBack         int        `json:"days_back,omitempty"`
	CandlesRequested int        `json:"candles_requested,omitempty"`
	DateRange        *DateRange `json:"date_range,omitempty"`
}

// DateRange spans the first and last candle of a fetch.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// RefreshResult is the outcome of a token refresh.
type RefreshResult struct {
	Success         bool      `json:"success"`
	AccountsUpdated int       `json:"accounts_updated"`
	Timestamp       time.Time `json:"timestamp"`
}

// TokenStatus is the cache state of one account's broker token.
type TokenStatus struct {
	Account    string     `json:"account"`
	Cached     bool       `json:"cached"`
	TTLSeconds int64      `json:"ttl_seconds,omitempty"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// TokenStatusReport answers the token status action.
type TokenStatusReport struct {
	Success   bool          `json:"success"`
	Cached    int           `json:"cached"`
	Accounts  []TokenStatus `json:"accounts"`
	Timestamp time.Time     `json:"timestamp"`
}

// ScheduleStatus values.
const (
	ScheduleSuccess = "success"
	ScheduleSkipped = "skipped"
	ScheduleError   = "error"
)

// ScheduleOutcome is the result of one timeframe check by the scheduler.
type ScheduleOutcome struct {
	Timeframe         int          `json:"timeframe"`
	Name              string       `json:"name"`
	Status            string       `json:"status"`
	Result            *FetchResult `json:"result,omitempty"`
	NextFetchInMinute *int         `json:"next_fetch_in_minutes,omitempty"`
	Error             string       `json:"error,omitempty"`
}

// ScheduleSummary aggregates one scheduler run.
type ScheduleSummary struct {
	Timestamp      time.Time         `json:"timestamp"`
	TotalSchedules int               `json:"total_schedules"`
	Fetched        int               `json:"fetched"`
	Skipped        int               `json:"skipped"`
	Errors         int               `json:"errors"`
	Results        []ScheduleOutcome `json:"results"`
}
