package agent

import (
	"github.com/ndrandal/commoditysim/internal/orderbook"
	"github.com/shopspring/decimal"
)

// InventoryAgent rebalances its own portfolio toward a target fraction of
// total account value held in its symbol, buying when under-weight and
// selling when over-weight. This is a constant-mix portfolio agent, not a
// physical-inventory trader — see SupplyDemandAgent for that signal.
type InventoryAgent struct {
	BaseAgent
	TargetRatio float64
	Band        float64
}

// NewInventoryAgent constructs an InventoryAgent for one symbol.
func NewInventoryAgent(id uint64, symbol string, cash decimal.Decimal, p Params, targetRatio, band float64) *InventoryAgent {
	return &InventoryAgent{BaseAgent: newBaseAgent(id, symbol, cash, p), TargetRatio: targetRatio, Band: band}
}

// TypeName identifies this agent's kind.
func (a *InventoryAgent) TypeName() string { return "inventory" }

// OnTick compares the fraction of total account value currently held in
// its symbol against TargetRatio and trades to close the gap once it
// exceeds Band.
func (a *InventoryAgent) OnTick(s *MarketSnapshot, rng Rand) []orderbook.Order {
	a.updateSentiment(s.RecentNews, s.CategoryNames())

	price, ok := s.Prices[a.Symbol()]
	if !ok || price.Sign() <= 0 {
		return nil
	}
	priceF, _ := price.Float64()
	cashF, _ := a.cash.Float64()
	positionValue := float64(a.position.Quantity) * priceF
	totalValue := cashF + positionValue
	if totalValue <= 0 {
		return nil
	}

	currentRatio := positionValue / totalValue
	gap := a.TargetRatio - currentRatio
	if gap < a.Band && gap > -a.Band {
		return nil
	}

	var side orderbook.Side
	if gap > 0 {
		side = orderbook.Buy
	} else {
		side = orderbook.Sell
	}

	qty, ok := a.sizeOrder(side, price)
	if !ok {
		return nil
	}
	return []orderbook.Order{a.newOrder(a.TypeName(), a.Symbol(), side, orderbook.Limit, price, qty)}
}
