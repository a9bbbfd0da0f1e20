package simulation

import "github.com/shopspring/decimal"

// TickRow is one symbol's OHLCV print for a single tick.
type TickRow struct {
	Open, High, Low, Close decimal.Decimal
	Volume                 int64
}

// newsRow is one news event attributed to the tick it fired on.
type newsRow struct {
	Symbol    string
	Category  string
	Sentiment string
	Magnitude float64
	Headline  string
}

// TickBuffer is a bounded, per-symbol ring of OHLCV rows plus a parallel
// per-tick news log, populated once per tick by the run loop and read back
// by dump.go's exporters (§6).
type TickBuffer struct {
	capacity int
	ticks    []int64
	bySymbol map[string][]TickRow
	news     map[int64][]newsRow
	symbols  []string
}

// NewTickBuffer builds an empty buffer bounded to capacity ticks (<=0 means
// unbounded, per cfg.Simulation.TickBufferCapacity).
func NewTickBuffer(capacity int) *TickBuffer {
	return &TickBuffer{
		capacity: capacity,
		bySymbol: make(map[string][]TickRow),
		news:     make(map[int64][]newsRow),
	}
}

// Record appends one tick's per-symbol rows, evicting the oldest tick if the
// buffer is at capacity.
func (b *TickBuffer) Record(tick int64, rows map[string]TickRow) {
	if len(b.ticks) == 0 {
		b.symbols = make([]string, 0, len(rows))
		for symbol := range rows {
			b.symbols = append(b.symbols, symbol)
			b.bySymbol[symbol] = nil
		}
	}
	for _, symbol := range b.symbols {
		b.bySymbol[symbol] = append(b.bySymbol[symbol], rows[symbol])
	}
	b.ticks = append(b.ticks, tick)

	if b.capacity > 0 && len(b.ticks) > b.capacity {
		evicted := b.ticks[0]
		b.ticks = b.ticks[1:]
		for _, symbol := range b.symbols {
			b.bySymbol[symbol] = b.bySymbol[symbol][1:]
		}
		delete(b.news, evicted)
	}
}

// RecordNews attaches news events to the tick they fired on.
func (b *TickBuffer) RecordNews(tick int64, rows []newsRow) {
	b.news[tick] = rows
}

// Ticks returns the tick indices currently retained, oldest first.
func (b *TickBuffer) Ticks() []int64 { return b.ticks }

// Rows returns one symbol's retained OHLCV rows, aligned with Ticks().
func (b *TickBuffer) Rows(symbol string) []TickRow { return b.bySymbol[symbol] }

// Symbols returns the symbols this buffer tracks.
func (b *TickBuffer) Symbols() []string { return b.symbols }

// NewsAt returns the news events recorded for one tick, if any.
func (b *TickBuffer) NewsAt(tick int64) []newsRow { return b.news[tick] }

// Len returns how many ticks are currently retained in the buffer.
func (b *TickBuffer) Len() int { return len(b.ticks) }
