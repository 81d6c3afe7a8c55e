package util

import (
	"math"
	"strconv"
	"time"
)

const minutesPerDay = 24 * 60

// ParseTime tries RFC3339, RFC3339Nano, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// LatestClosedBoundary returns the start of the timeframe bucket containing now,
// with buckets aligned from UTC midnight. The bucket itself may still be open;
// callers drop the newest fetched bar to get closed bars only.
func LatestClosedBoundary(timeframeMinutes int, now time.Time) time.Time {
	now = now.UTC()
	if timeframeMinutes <= 0 {
		return now.Truncate(time.Minute)
	}
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	elapsed := now.Hour()*60 + now.Minute()
	aligned := (elapsed / timeframeMinutes) * timeframeMinutes
	return midnight.Add(time.Duration(aligned) * time.Minute)
}

// BarCount converts a look-back window in days into a number of bars.
func BarCount(daysBack, timeframeMinutes int) int {
	if daysBack <= 0 || timeframeMinutes <= 0 {
		return 0
	}
	return int(math.Ceil(float64(daysBack*minutesPerDay) / float64(timeframeMinutes)))
}

// FormatUTCSeconds renders t as RFC3339 in UTC without fractional seconds.
func FormatUTCSeconds(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format("2006-01-02T15:04:05Z")
}
