package agent

import (
	"math"

	"github.com/ndrandal/commoditysim/internal/orderbook"
	"github.com/shopspring/decimal"
)

// MeanReversionAgent computes a z-score of the current price against a
// per-agent lookback window and fades extremes, sentiment-adjusted.
type MeanReversionAgent struct {
	BaseAgent
	Lookback  int
	Threshold float64
}

// NewMeanReversionAgent constructs a MeanReversionAgent for one symbol.
func NewMeanReversionAgent(id uint64, symbol string, cash decimal.Decimal, p Params, lookback int, threshold float64) *MeanReversionAgent {
	return &MeanReversionAgent{BaseAgent: newBaseAgent(id, symbol, cash, p), Lookback: lookback, Threshold: threshold}
}

// TypeName identifies this agent's kind.
func (a *MeanReversionAgent) TypeName() string { return "meanReversion" }

// OnTick buys when z < -threshold, sells when z > +threshold, where the
// threshold is sentiment-adjusted (bullish sentiment lowers the buy bar and
// raises the sell bar, and vice versa).
func (a *MeanReversionAgent) OnTick(s *MarketSnapshot, rng Rand) []orderbook.Order {
	category := string(s.Categories[a.Symbol()])
	a.updateSentiment(s.RecentNews, s.CategoryNames())

	hist := s.PriceHistory[a.Symbol()]
	n := len(hist)
	if n < 2 {
		return nil
	}
	window := a.Lookback
	if window > n {
		window = n
	}
	samples := hist[n-window:]

	mean, variance := 0.0, 0.0
	floats := make([]float64, len(samples))
	for i, p := range samples {
		f, _ := p.Float64()
		floats[i] = f
		mean += f
	}
	mean /= float64(len(floats))
	for _, f := range floats {
		d := f - mean
		variance += d * d
	}
	variance /= float64(len(floats))
	stddev := math.Sqrt(variance)
	if stddev <= 0 {
		return nil
	}

	price := floats[len(floats)-1]
	z := (price - mean) / stddev

	sentiment := a.effectiveSentiment(category)
	buyBar := -a.Threshold + sentiment*0.5
	sellBar := a.Threshold + sentiment*0.5

	curPrice, ok := s.Prices[a.Symbol()]
	if !ok {
		return nil
	}

	var side orderbook.Side
	switch {
	case z < buyBar:
		side = orderbook.Buy
	case z > sellBar:
		side = orderbook.Sell
	default:
		return nil
	}

	qty, ok := a.sizeOrder(side, curPrice)
	if !ok {
		return nil
	}
	return []orderbook.Order{a.newOrder(a.TypeName(), a.Symbol(), side, orderbook.Market, decimal.Zero, qty)}
}
