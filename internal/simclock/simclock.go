// Package simclock provides a deterministic simulated-time source: a
// monotonic mapping from a tick index to an epoch-millisecond timestamp.
package simclock

import (
	"fmt"
	"time"
)

// marketOpenOffsetMs pins the parsed start date to 09:30 UTC, matching the
// reference implementation's "market open" convention. This bit is not
// reflected in the "YYYY-MM-DD" format string itself; it is a deliberate,
// documented part of this implementation (see DESIGN.md Open Question 1).
const marketOpenOffsetMs = int64((9*time.Hour + 30*time.Minute) / time.Millisecond)

const msPerDay = int64(24 * time.Hour / time.Millisecond)

// Clock maps (start date, ticks per day) to an advancing simulated
// timestamp. Every method is called only while the engine's write lock is
// held, so Clock itself does no internal locking.
type Clock struct {
	startMs        int64
	simTimeMs      int64
	ticksPerDay    int64
	referenceTicks int64
	tickInDay      int64
	totalTicks     int64
}

// New parses a "YYYY-MM-DD" start date as UTC midnight plus the market-open
// offset, and builds a Clock ticking ticksPerDay times per simulated day.
// referenceTicksPerDay is the canonical cadence other components normalize
// against via TickScale; pass the same value as ticksPerDay if there is no
// separate reference cadence.
func New(startDate string, ticksPerDay, referenceTicksPerDay int) (*Clock, error) {
	if ticksPerDay <= 0 {
		return nil, fmt.Errorf("simclock: ticksPerDay must be > 0, got %d", ticksPerDay)
	}
	if referenceTicksPerDay <= 0 {
		referenceTicksPerDay = ticksPerDay
	}
	t, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return nil, fmt.Errorf("simclock: malformed date %q: %w", startDate, err)
	}
	startMs := t.UTC().UnixMilli() + marketOpenOffsetMs
	return &Clock{
		startMs:        startMs,
		simTimeMs:      startMs,
		ticksPerDay:    int64(ticksPerDay),
		referenceTicks: int64(referenceTicksPerDay),
	}, nil
}

// Tick advances the clock by one tick and returns the new simulated time in
// epoch milliseconds.
func (c *Clock) Tick() int64 {
	c.totalTicks++
	c.tickInDay = (c.tickInDay + 1) % c.ticksPerDay
	step := msPerDay / c.ticksPerDay
	c.simTimeMs += step
	return c.simTimeMs
}

// IsNewDay reports whether the most recent Tick() crossed a day boundary.
func (c *Clock) IsNewDay() bool {
	return c.tickInDay == 0 && c.totalTicks > 0
}

// NowMs returns the current simulated epoch-millisecond timestamp.
func (c *Clock) NowMs() int64 { return c.simTimeMs }

// TotalTicks returns the number of Tick() calls made since construction.
func (c *Clock) TotalTicks() int64 { return c.totalTicks }

// TickInDay returns the current tick index within the simulated day.
func (c *Clock) TickInDay() int64 { return c.tickInDay }

// TicksPerDay returns the configured cadence.
func (c *Clock) TicksPerDay() int64 { return c.ticksPerDay }

// TickScale returns reference/current ticks-per-day, used to normalize
// per-tick stochastic terms so total variance per simulated day is invariant
// to tick granularity (see GLOSSARY).
func (c *Clock) TickScale() float64 {
	return float64(c.referenceTicks) / float64(c.ticksPerDay)
}

// SetTicksPerDay hot-changes the cadence (e.g. for populate's coarse/fine
// phases or a ticksPerDay config patch). It does not reset tick-in-day or
// total-tick counters.
func (c *Clock) SetTicksPerDay(ticksPerDay int) {
	if ticksPerDay <= 0 {
		return
	}
	c.ticksPerDay = int64(ticksPerDay)
	if c.tickInDay >= c.ticksPerDay {
		c.tickInDay = 0
	}
}

// Snapshot is an immutable point-in-time view of the clock, handed to
// downstream components as part of the per-tick market snapshot (§4.6).
type Snapshot struct {
	TotalTicks  int64
	TickInDay   int64
	TicksPerDay int64
	SimTimeMs   int64
	TickScale   float64
}

// Snapshot returns the clock's current state.
func (c *Clock) Snapshot() Snapshot {
	return Snapshot{
		TotalTicks:  c.totalTicks,
		TickInDay:   c.tickInDay,
		TicksPerDay: c.ticksPerDay,
		SimTimeMs:   c.simTimeMs,
		TickScale:   c.TickScale(),
	}
}

// Date returns the current simulated date, formatted "YYYY-MM-DD" in UTC.
func (c *Clock) Date() string {
	return time.UnixMilli(c.simTimeMs).UTC().Format("2006-01-02")
}

// DateTime returns the current simulated timestamp in RFC3339 UTC.
func (c *Clock) DateTime() string {
	return time.UnixMilli(c.simTimeMs).UTC().Format(time.RFC3339)
}
