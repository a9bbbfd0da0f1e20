package candle

import (
	"fmt"
	"strings"
)

// standardIntervals maps every accepted spelling (both "1m" and "M1" forms)
// to its duration in simulated milliseconds.
var standardIntervals = map[string]int64{
	"1m": 60_000, "m1": 60_000,
	"5m": 5 * 60_000, "m5": 5 * 60_000,
	"15m": 15 * 60_000, "m15": 15 * 60_000,
	"30m": 30 * 60_000, "m30": 30 * 60_000,
	"1h": 3_600_000, "h1": 3_600_000,
	"1d": 86_400_000, "d1": 86_400_000,
}

// canonicalNames is the fixed, deterministic list of intervals every
// registered symbol is tracked at.
var canonicalNames = []string{"1m", "5m", "15m", "30m", "1h", "1d"}

// ParseIntervalMs accepts both "1m"/"M1" spellings and returns the
// interval's duration in simulated milliseconds.
func ParseIntervalMs(s string) (int64, error) {
	ms, ok := standardIntervals[strings.ToLower(s)]
	if !ok {
		return 0, fmt.Errorf("candle: unknown interval %q", s)
	}
	return ms, nil
}

// bucket floors t to the nearest interval-ms boundary at or before it.
func bucket(t, intervalMs int64) int64 {
	if intervalMs <= 0 {
		return t
	}
	return (t / intervalMs) * intervalMs
}
