package agent

import (
	"github.com/ndrandal/commoditysim/internal/news"
	"github.com/ndrandal/commoditysim/internal/orderbook"
	"github.com/shopspring/decimal"
)

// EventAgent reacts purely to this tick's news: any event targeting its
// symbol or its category moves it directionally, sized by magnitude and
// personal news weight, independent of any mispricing estimate.
type EventAgent struct {
	BaseAgent
}

// NewEventAgent constructs an EventAgent for one symbol.
func NewEventAgent(id uint64, symbol string, cash decimal.Decimal, p Params) *EventAgent {
	return &EventAgent{BaseAgent: newBaseAgent(id, symbol, cash, p)}
}

// TypeName identifies this agent's kind.
func (a *EventAgent) TypeName() string { return "event" }

// OnTick scans this tick's news for anything targeting its symbol or
// category and trades in the sentiment's direction, sized by magnitude.
func (a *EventAgent) OnTick(s *MarketSnapshot, rng Rand) []orderbook.Order {
	a.updateSentiment(s.RecentNews, s.CategoryNames())

	category := string(s.Categories[a.Symbol()])
	price, ok := s.Prices[a.Symbol()]
	if !ok || price.Sign() <= 0 {
		return nil
	}

	strongest := 0.0
	for _, e := range s.RecentNews {
		if e.Category != news.CategorySupply && e.Category != news.CategoryDemand &&
			e.Category != news.CategoryCompany && e.Category != news.CategoryIndustry {
			continue
		}
		targetsMe := e.Target == a.Symbol() || e.Target == category
		if !targetsMe {
			continue
		}
		signed := signedMagnitude(e) * a.params.NewsWeight
		if absFloat(signed) > absFloat(strongest) {
			strongest = signed
		}
	}
	if strongest == 0 {
		return nil
	}

	var side orderbook.Side
	if strongest > 0 {
		side = orderbook.Buy
	} else {
		side = orderbook.Sell
	}

	qty, ok := a.sizeOrder(side, price)
	if !ok {
		return nil
	}
	scaled := int64(float64(qty) * absFloat(strongest))
	if scaled < 1 {
		scaled = 1
	}
	if scaled > qty {
		scaled = qty
	}
	return []orderbook.Order{a.newOrder(a.TypeName(), a.Symbol(), side, orderbook.Market, decimal.Zero, scaled)}
}
