// Package candle maintains per-(symbol, interval) OHLCV candles: a partial
// current candle plus a bounded FIFO of completed ones, rolled up from raw
// tick prints at fixed, interval-boundary-aligned bucket times.
package candle

import (
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

// MaxCompleted bounds the retained completed-candle deque per
// (symbol, interval), per §3/§4.4.
const MaxCompleted = 10_000

// Candle is one completed or in-progress OHLCV bar.
type Candle struct {
	Time   int64 // bucket-start time, simulated ms
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume int64
}

type seriesKey struct {
	Symbol     string
	IntervalMs int64
}

type series struct {
	current   *Candle
	completed []Candle
}

// Aggregator rolls raw (symbol, price, volume, sim_time) ticks up into
// OHLCV candles at every canonical interval, for every registered symbol.
type Aggregator struct {
	mu         sync.Mutex
	registered map[string]bool
	data       map[seriesKey]*series
}

// New constructs an empty Aggregator.
func New() *Aggregator {
	return &Aggregator{
		registered: make(map[string]bool),
		data:       make(map[seriesKey]*series),
	}
}

// RegisterSymbol enables candle tracking for symbol. Ticks for symbols that
// have never been registered are silently ignored by OnTick.
func (a *Aggregator) RegisterSymbol(symbol string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.registered[symbol] = true
}

// OnTick rolls one tick's price/volume into every canonical interval's
// current candle for symbol, closing and archiving any candle whose bucket
// the tick has crossed. Ignored if symbol was never registered.
func (a *Aggregator) OnTick(symbol string, price decimal.Decimal, volume int64, simTimeMs int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.registered[symbol] {
		return
	}
	for _, name := range canonicalNames {
		intervalMs := standardIntervals[name]
		a.rollup(symbol, intervalMs, price, volume, simTimeMs)
	}
}

func (a *Aggregator) rollup(symbol string, intervalMs int64, price decimal.Decimal, volume int64, simTimeMs int64) {
	key := seriesKey{symbol, intervalMs}
	s, ok := a.data[key]
	if !ok {
		s = &series{}
		a.data[key] = s
	}

	bucketTime := bucket(simTimeMs, intervalMs)

	switch {
	case s.current == nil:
		s.current = &Candle{Time: bucketTime, Open: price, High: price, Low: price, Close: price, Volume: volume}
	case bucketTime > s.current.Time:
		s.completed = append(s.completed, *s.current)
		if len(s.completed) > MaxCompleted {
			s.completed = s.completed[len(s.completed)-MaxCompleted:]
		}
		s.current = &Candle{Time: bucketTime, Open: price, High: price, Low: price, Close: price, Volume: volume}
	default:
		if price.GreaterThan(s.current.High) {
			s.current.High = price
		}
		if price.LessThan(s.current.Low) {
			s.current.Low = price
		}
		s.current.Close = price
		s.current.Volume += volume
	}
}

// GetCandles returns completed candles for (symbol, interval) with
// Time >= since, chronologically ordered and truncated to the most recent
// limit entries. The current open candle is never included. limit <= 0
// means unbounded.
func (a *Aggregator) GetCandles(symbol, interval string, since int64, limit int) ([]Candle, error) {
	intervalMs, err := ParseIntervalMs(interval)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	s, ok := a.data[seriesKey{symbol, intervalMs}]
	if !ok {
		return nil, nil
	}
	var out []Candle
	for _, c := range s.completed {
		if c.Time >= since {
			out = append(out, c)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

// GetAllCandles returns GetCandles for interval across every registered
// symbol, keyed by symbol.
func (a *Aggregator) GetAllCandles(interval string, since int64) (map[string][]Candle, error) {
	intervalMs, err := ParseIntervalMs(interval)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	symbols := make([]string, 0, len(a.registered))
	for sym := range a.registered {
		symbols = append(symbols, sym)
	}
	a.mu.Unlock()
	sort.Strings(symbols)

	out := make(map[string][]Candle, len(symbols))
	for _, sym := range symbols {
		cs, err := a.GetCandles(sym, interval, since, 0)
		if err != nil {
			return nil, err
		}
		out[sym] = cs
	}
	return out, nil
}

// GetCurrentCandle returns the partial (open) candle for (symbol,
// interval), or the zero value and false if none exists yet.
func (a *Aggregator) GetCurrentCandle(symbol, interval string) (Candle, bool, error) {
	intervalMs, err := ParseIntervalMs(interval)
	if err != nil {
		return Candle{}, false, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.data[seriesKey{symbol, intervalMs}]
	if !ok || s.current == nil {
		return Candle{}, false, nil
	}
	return *s.current, true, nil
}

// Reset clears every series and registration.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.registered = make(map[string]bool)
	a.data = make(map[seriesKey]*series)
}
