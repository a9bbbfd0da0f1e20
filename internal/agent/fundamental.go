package agent

import (
	"github.com/ndrandal/commoditysim/internal/orderbook"
	"github.com/shopspring/decimal"
)

// FundamentalAgent trades toward its own noisy estimate of fundamental
// value: if the market price strays from (fundamental + sentiment-weighted
// noise) by more than its personal threshold, it posts a limit order
// leaning the price back toward fundamental.
type FundamentalAgent struct {
	BaseAgent
	Threshold float64 // personal mispricing threshold, fraction of price
}

// NewFundamentalAgent constructs a FundamentalAgent for one symbol.
func NewFundamentalAgent(id uint64, symbol string, cash decimal.Decimal, p Params, threshold float64) *FundamentalAgent {
	return &FundamentalAgent{BaseAgent: newBaseAgent(id, symbol, cash, p), Threshold: threshold}
}

// TypeName identifies this agent's kind for metrics and trade attribution.
func (a *FundamentalAgent) TypeName() string { return "fundamental" }

// OnTick compares price to a sentiment-shaded fundamental estimate and
// trades toward it when the mispricing exceeds the personal threshold.
func (a *FundamentalAgent) OnTick(s *MarketSnapshot, rng Rand) []orderbook.Order {
	category := string(s.Categories[a.Symbol()])
	a.updateSentiment(s.RecentNews, s.CategoryNames())

	price, ok := s.Prices[a.Symbol()]
	if !ok || price.Sign() <= 0 {
		return nil
	}
	fundamental, ok := s.Fundamentals[a.Symbol()]
	if !ok {
		return nil
	}

	sentiment := a.effectiveSentiment(category)
	fundF, _ := fundamental.Float64()
	adjustedFundamental := fundF * (1 + sentiment*0.02)

	priceF, _ := price.Float64()
	if priceF <= 0 {
		return nil
	}
	mispricing := (adjustedFundamental - priceF) / priceF
	if mispricing > a.Threshold {
		return a.order(orderbook.Buy, price, rng)
	}
	if mispricing < -a.Threshold {
		return a.order(orderbook.Sell, price, rng)
	}
	return nil
}

func (a *FundamentalAgent) order(side orderbook.Side, mid decimal.Decimal, rng Rand) []orderbook.Order {
	offsetFrac := rng.Float64() * 0.002
	var limitPrice decimal.Decimal
	if side == orderbook.Buy {
		limitPrice = mid.Mul(decimal.NewFromFloat(1 + offsetFrac))
	} else {
		limitPrice = mid.Mul(decimal.NewFromFloat(1 - offsetFrac))
	}
	qty, ok := a.sizeOrder(side, limitPrice)
	if !ok {
		return nil
	}
	return []orderbook.Order{a.newOrder(a.TypeName(), a.Symbol(), side, orderbook.Limit, limitPrice, qty)}
}
