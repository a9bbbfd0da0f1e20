package agent

import (
	"github.com/ndrandal/commoditysim/internal/orderbook"
	"github.com/shopspring/decimal"
)

// SupplyDemandAgent trades on the physical supply/demand imbalance of its
// commodity: a positive imbalance (consumption exceeds production) implies
// a coming price rise, so it buys; a negative imbalance, it sells.
type SupplyDemandAgent struct {
	BaseAgent
	Threshold float64
}

// NewSupplyDemandAgent constructs a SupplyDemandAgent for one symbol.
func NewSupplyDemandAgent(id uint64, symbol string, cash decimal.Decimal, p Params, threshold float64) *SupplyDemandAgent {
	return &SupplyDemandAgent{BaseAgent: newBaseAgent(id, symbol, cash, p), Threshold: threshold}
}

// TypeName identifies this agent's kind.
func (a *SupplyDemandAgent) TypeName() string { return "supplyDemand" }

// OnTick trades directionally on the commodity's imbalance once it
// exceeds this agent's personal threshold, scaled by confidence.
func (a *SupplyDemandAgent) OnTick(s *MarketSnapshot, rng Rand) []orderbook.Order {
	a.updateSentiment(s.RecentNews, s.CategoryNames())

	imbalance, ok := s.Imbalance[a.Symbol()]
	if !ok {
		return nil
	}
	price, ok := s.Prices[a.Symbol()]
	if !ok || price.Sign() <= 0 {
		return nil
	}

	if imbalance < a.Threshold && imbalance > -a.Threshold {
		return nil
	}

	var side orderbook.Side
	if imbalance >= a.Threshold {
		side = orderbook.Buy
	} else {
		side = orderbook.Sell
	}

	qty, ok := a.sizeOrder(side, price)
	if !ok {
		return nil
	}
	scaled := int64(float64(qty) * a.params.Confidence)
	if scaled < 1 {
		scaled = 1
	}
	return []orderbook.Order{a.newOrder(a.TypeName(), a.Symbol(), side, orderbook.Market, decimal.Zero, scaled)}
}
