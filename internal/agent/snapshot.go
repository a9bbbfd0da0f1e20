// Package agent implements the simulation's trader population: a shared
// Agent capability set plus concrete variants (fundamental, momentum,
// mean-reversion, noise, market maker, supply/demand, cross-effects,
// inventory, event), and the Factory that builds a stable-ordered
// population from RuntimeConfig.
package agent

import (
	"github.com/ndrandal/commoditysim/internal/commodity"
	"github.com/ndrandal/commoditysim/internal/news"
	"github.com/shopspring/decimal"
)

// MarketSnapshot is the read-only market state built once per tick and
// passed to every agent. Agents never retain it across ticks and never
// reach back into the engine's live state through it.
type MarketSnapshot struct {
	SimTimeMs int64
	TickScale float64

	// Prices, Fundamentals, and Volatility are keyed by symbol.
	Prices       map[string]decimal.Decimal
	Fundamentals map[string]decimal.Decimal
	Volatility   map[string]float64
	Mid          map[string]decimal.Decimal
	Imbalance    map[string]float64
	Inventory    map[string]commodity.SupplyDemand

	// PriceHistory holds a bounded recent window per symbol, oldest first.
	PriceHistory map[string][]decimal.Decimal

	Categories map[string]commodity.Category

	RecentNews []news.Event

	GlobalSentiment   float64
	IndustrySentiment map[string]float64 // keyed by commodity.Category
	SymbolSentiment   map[string]float64 // keyed by symbol
}

// ReturnOverTicks computes the simple return of symbol over the last k
// samples of its price history, or 0 if there isn't enough history.
func (s *MarketSnapshot) ReturnOverTicks(symbol string, k int) float64 {
	hist := s.PriceHistory[symbol]
	n := len(hist)
	if k <= 0 || k >= n {
		return 0
	}
	prior := hist[n-k-1]
	if prior.IsZero() {
		return 0
	}
	cur := hist[n-1]
	ret, _ := cur.Sub(prior).Div(prior).Float64()
	return ret
}

// CategoryNames returns the symbol -> category-name index used by agents'
// sentiment bookkeeping.
func (s *MarketSnapshot) CategoryNames() map[string]string {
	out := make(map[string]string, len(s.Categories))
	for sym, cat := range s.Categories {
		out[sym] = string(cat)
	}
	return out
}

// MovingAverage returns the mean of the last window samples of symbol's
// price history (fewer if history is shorter), or 0 if there's no history.
func (s *MarketSnapshot) MovingAverage(symbol string, window int) float64 {
	hist := s.PriceHistory[symbol]
	n := len(hist)
	if n == 0 {
		return 0
	}
	if window > n {
		window = n
	}
	sum := 0.0
	for _, p := range hist[n-window:] {
		f, _ := p.Float64()
		sum += f
	}
	return sum / float64(window)
}
