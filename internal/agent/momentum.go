package agent

import (
	"github.com/ndrandal/commoditysim/internal/orderbook"
	"github.com/shopspring/decimal"
)

// MomentumAgent compares a short and a long moving average of recent price
// history and trades in the direction of a crossover, risk-scaled.
type MomentumAgent struct {
	BaseAgent
	ShortWindow int
	LongWindow  int
}

// NewMomentumAgent constructs a MomentumAgent for one symbol.
func NewMomentumAgent(id uint64, symbol string, cash decimal.Decimal, p Params, shortWindow, longWindow int) *MomentumAgent {
	return &MomentumAgent{BaseAgent: newBaseAgent(id, symbol, cash, p), ShortWindow: shortWindow, LongWindow: longWindow}
}

// TypeName identifies this agent's kind.
func (a *MomentumAgent) TypeName() string { return "momentum" }

// OnTick buys when the short MA crosses above the long MA by a risk-scaled
// threshold, sells on the opposite crossover.
func (a *MomentumAgent) OnTick(s *MarketSnapshot, rng Rand) []orderbook.Order {
	a.updateSentiment(s.RecentNews, s.CategoryNames())

	price, ok := s.Prices[a.Symbol()]
	if !ok || price.Sign() <= 0 {
		return nil
	}
	shortMA := s.MovingAverage(a.Symbol(), a.ShortWindow)
	longMA := s.MovingAverage(a.Symbol(), a.LongWindow)
	if shortMA <= 0 || longMA <= 0 {
		return nil
	}

	spread := (shortMA - longMA) / longMA
	threshold := 0.001 + a.params.RiskAversion*0.004

	var side orderbook.Side
	switch {
	case spread > threshold:
		side = orderbook.Buy
	case spread < -threshold:
		side = orderbook.Sell
	default:
		return nil
	}

	offsetFrac := decimal.NewFromFloat(0.0005)
	var limitPrice decimal.Decimal
	if side == orderbook.Buy {
		limitPrice = price.Mul(decimal.NewFromInt(1).Add(offsetFrac))
	} else {
		limitPrice = price.Mul(decimal.NewFromInt(1).Sub(offsetFrac))
	}

	qty, ok := a.sizeOrder(side, limitPrice)
	if !ok {
		return nil
	}
	return []orderbook.Order{a.newOrder(a.TypeName(), a.Symbol(), side, orderbook.Limit, limitPrice, qty)}
}
