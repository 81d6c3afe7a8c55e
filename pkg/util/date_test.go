package util

import (
	"strconv"
	"testing"
	"time"
)

func TestParseTimeRFC3339(t *testing.T) {
	s := "2024-10-10T10:10:10Z"
	got, ok := ParseTime(s)
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.UTC().Format(time.RFC3339) != s {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTimeUnix(t *testing.T) {
	ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
	got, ok := ParseTime(strconv.FormatInt(ts, 10))
	if !ok {
		t.Fatalf("expected ok")
	}
	if got.Unix() != ts {
		t.Fatalf("unexpected unix %v", got.Unix())
	}
}

func TestLatestClosedBoundary(t *testing.T) {
	day := func(h, m, s, ns int) time.Time { return time.Date(2025, 11, 3, h, m, s, ns, time.UTC) }
	cases := []struct {
		name string
		tf   int
		now  time.Time
		want time.Time
	}{
		{"mid bucket", 5, day(12, 7, 0, 0), day(12, 5, 0, 0)},
		{"exact boundary", 5, day(12, 0, 0, 0), day(12, 0, 0, 0)},
		{"seconds dropped", 1, day(9, 31, 59, 999), day(9, 31, 0, 0)},
		{"hourly", 60, day(23, 59, 30, 0), day(23, 0, 0, 0)},
		{"ten minutes", 10, day(0, 9, 0, 0), day(0, 0, 0, 0)},
		{"thirty minutes", 30, day(14, 45, 10, 0), day(14, 30, 0, 0)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := LatestClosedBoundary(tc.tf, tc.now)
			if !got.Equal(tc.want) {
				t.Fatalf("got %s want %s", got, tc.want)
			}
		})
	}
}

func TestLatestClosedBoundaryConvertsToUTC(t *testing.T) {
	ny := time.FixedZone("EST", -5*3600)
	now := time.Date(2025, 11, 3, 7, 7, 0, 0, ny) // 12:07Z
	got := LatestClosedBoundary(5, now)
	want := time.Date(2025, 11, 3, 12, 5, 0, 0, time.UTC)
	if !got.Equal(want) || got.Location() != time.UTC {
		t.Fatalf("got %s want %s", got, want)
	}
}

func TestBarCount(t *testing.T) {
	if got := BarCount(1, 60); got != 24 {
		t.Fatalf("BarCount(1,60)=%d", got)
	}
	if got := BarCount(5, 15); got != 480 {
		t.Fatalf("BarCount(5,15)=%d", got)
	}
	if got := BarCount(1, 7); got != 206 { // 1440/7 = 205.7
		t.Fatalf("BarCount(1,7)=%d", got)
	}
	if got := BarCount(0, 5); got != 0 {
		t.Fatalf("BarCount(0,5)=%d", got)
	}
}

func TestFormatUTCSeconds(t *testing.T) {
	ts := time.Date(2025, 11, 3, 12, 5, 0, 0, time.UTC)
	if got := FormatUTCSeconds(ts); got != "2025-11-03T12:05:00Z" {
		t.Fatalf("got %s", got)
	}
}
