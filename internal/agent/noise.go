package agent

import (
	"github.com/ndrandal/commoditysim/internal/orderbook"
	"github.com/shopspring/decimal"
)

// NoiseAgent trades at random each tick with probability ActivityRate,
// direction biased by current sentiment and a personal Gaussian draw.
type NoiseAgent struct {
	BaseAgent
	ActivityRate float64
}

// NewNoiseAgent constructs a NoiseAgent for one symbol.
func NewNoiseAgent(id uint64, symbol string, cash decimal.Decimal, p Params, activityRate float64) *NoiseAgent {
	return &NoiseAgent{BaseAgent: newBaseAgent(id, symbol, cash, p), ActivityRate: activityRate}
}

// TypeName identifies this agent's kind.
func (a *NoiseAgent) TypeName() string { return "noise" }

// OnTick fires a random market or limit order with probability
// ActivityRate, direction biased by sentiment plus personal noise.
func (a *NoiseAgent) OnTick(s *MarketSnapshot, rng Rand) []orderbook.Order {
	category := string(s.Categories[a.Symbol()])
	a.updateSentiment(s.RecentNews, s.CategoryNames())

	if rng.Float64() > a.ActivityRate {
		return nil
	}
	price, ok := s.Prices[a.Symbol()]
	if !ok || price.Sign() <= 0 {
		return nil
	}

	sentiment := a.effectiveSentiment(category)
	bias := sentiment + rng.Gaussian()*0.5

	var side orderbook.Side
	if bias >= 0 {
		side = orderbook.Buy
	} else {
		side = orderbook.Sell
	}

	var kind orderbook.Kind
	var limitPrice decimal.Decimal
	if rng.Float64() < 0.4 {
		kind = orderbook.Market
		limitPrice = decimal.Zero
	} else {
		kind = orderbook.Limit
		offsetFrac := rng.TruncatedGaussian(0, 0.003, -0.01, 0.01)
		limitPrice = price.Mul(decimal.NewFromFloat(1 + offsetFrac))
		if limitPrice.Sign() <= 0 {
			limitPrice = price
		}
	}

	qty, ok := a.sizeOrder(side, price)
	if !ok {
		return nil
	}
	return []orderbook.Order{a.newOrder(a.TypeName(), a.Symbol(), side, kind, limitPrice, qty)}
}
