package agent

import (
	"github.com/ndrandal/commoditysim/internal/news"
	"github.com/ndrandal/commoditysim/internal/orderbook"
	"github.com/shopspring/decimal"
)

// Agent is the shared capability set every concrete trader variant
// implements.
type Agent interface {
	TypeName() string
	ID() uint64
	OnTick(snapshot *MarketSnapshot, rng Rand) []orderbook.Order
	OnFill(side orderbook.Side, trade orderbook.Trade)
}

// Rand is the subset of marketrand.RNG agents draw from. Kept as an
// interface so agent code never imports marketrand directly — the engine
// is the only caller that owns an *marketrand.RNG.
type Rand interface {
	Float64() float64
	Gaussian() float64
	TruncatedGaussian(mean, sigma, min, max float64) float64
	Intn(n int) int
}

// Position is one agent's holding in one symbol.
type Position struct {
	Quantity int64
	AvgCost  decimal.Decimal
}

// Params holds the per-agent sampled distribution parameters and sizing
// configuration, shared by every concrete variant.
type Params struct {
	RiskAversion    float64
	ReactionSpeed   float64
	NewsWeight      float64
	Confidence      float64
	HorizonTicks    float64
	CapitalFraction float64
	MaxOrderSize    int64
	CashReserve     float64
	ShortCap        int64
	SentimentDecay  float64
}

// BaseAgent implements the bookkeeping shared by every concrete variant:
// cash/position tracking on fill, order sizing, and sentiment cache decay.
// Concrete agents embed it and implement TypeName/OnTick themselves.
type BaseAgent struct {
	id     uint64
	symbol string
	cash   decimal.Decimal
	params Params

	position Position

	sentimentGlobal   float64
	sentimentIndustry map[string]float64
	sentimentSymbol   map[string]float64
}

func newBaseAgent(id uint64, symbol string, cash decimal.Decimal, p Params) BaseAgent {
	return BaseAgent{
		id:                id,
		symbol:            symbol,
		cash:              cash,
		params:            p,
		sentimentIndustry: make(map[string]float64),
		sentimentSymbol:   make(map[string]float64),
	}
}

// ID returns the agent's stable identifier.
func (b *BaseAgent) ID() uint64 { return b.id }

// Symbol returns the one commodity this agent instance trades.
func (b *BaseAgent) Symbol() string { return b.symbol }

// Cash returns the agent's current cash balance.
func (b *BaseAgent) Cash() decimal.Decimal { return b.cash }

// PositionQuantity returns the agent's current signed position.
func (b *BaseAgent) PositionQuantity() int64 { return b.position.Quantity }

// OnFill applies one of this agent's own fills to cash and position,
// updating the position's average cost on same-direction adds.
func (b *BaseAgent) OnFill(side orderbook.Side, trade orderbook.Trade) {
	notional := trade.Price.Mul(decimal.NewFromInt(trade.Quantity))
	switch side {
	case orderbook.Buy:
		b.cash = b.cash.Sub(notional)
		b.addToPosition(trade.Quantity, trade.Price)
	case orderbook.Sell:
		b.cash = b.cash.Add(notional)
		b.addToPosition(-trade.Quantity, trade.Price)
	}
}

func (b *BaseAgent) addToPosition(delta int64, price decimal.Decimal) {
	old := b.position.Quantity
	newQty := old + delta
	sameDirection := (old >= 0 && delta >= 0) || (old <= 0 && delta <= 0)
	if sameDirection && newQty != 0 {
		oldAbs := decimal.NewFromInt(absInt64(old))
		deltaAbs := decimal.NewFromInt(absInt64(delta))
		totalAbs := oldAbs.Add(deltaAbs)
		if totalAbs.Sign() > 0 {
			b.position.AvgCost = b.position.AvgCost.Mul(oldAbs).Add(price.Mul(deltaAbs)).Div(totalAbs)
		}
	} else if !sameDirection {
		// Crossing through (or to) zero/flip: re-anchor cost basis on the
		// remaining or newly opened side.
		b.position.AvgCost = price
	}
	b.position.Quantity = newQty
	if b.position.Quantity == 0 {
		b.position.AvgCost = decimal.Zero
	}
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// updateSentiment decays all three caches multiplicatively and folds in
// this tick's news events: global/political feed the global cache,
// industry events feed the category cache, supply/demand/company events
// feed the targeted symbol's cache. Signed by sentiment polarity.
func (b *BaseAgent) updateSentiment(events []news.Event, categoryOf map[string]string) {
	decay := b.params.SentimentDecay
	b.sentimentGlobal *= decay
	for k, v := range b.sentimentIndustry {
		b.sentimentIndustry[k] = v * decay
	}
	for k, v := range b.sentimentSymbol {
		b.sentimentSymbol[k] = v * decay
	}

	for _, e := range events {
		signed := signedMagnitude(e)
		switch e.Category {
		case news.CategoryGlobal, news.CategoryPolitical:
			b.sentimentGlobal += signed * b.params.NewsWeight
		case news.CategoryIndustry:
			b.sentimentIndustry[e.Target] += signed * b.params.NewsWeight
		case news.CategorySupply, news.CategoryDemand, news.CategoryCompany:
			b.sentimentSymbol[e.Target] += signed * b.params.NewsWeight
			if cat, ok := categoryOf[e.Target]; ok {
				b.sentimentIndustry[cat] += signed * b.params.NewsWeight * 0.5
			}
		}
	}
}

func signedMagnitude(e news.Event) float64 {
	switch e.Sentiment {
	case news.SentimentPositive:
		return e.Magnitude
	case news.SentimentNegative:
		return -e.Magnitude
	default:
		return 0
	}
}

// effectiveSentiment blends global, industry (if known), and symbol
// sentiment for this agent's own symbol.
func (b *BaseAgent) effectiveSentiment(category string) float64 {
	s := b.sentimentGlobal
	s += b.sentimentIndustry[category]
	s += b.sentimentSymbol[b.symbol]
	return s
}

// sizeOrder implements §4.7's sizing formula: clamp(capital_fraction *
// cash/price, 1, max_order_size), reduced so the reserved cash fraction is
// respected, refused outright if cash can't cover a buy. A sell is reduced to
// what the configured short cap still allows, and refused when that is
// nothing. Returns (quantity, ok).
func (b *BaseAgent) sizeOrder(side orderbook.Side, price decimal.Decimal) (int64, bool) {
	if price.Sign() <= 0 {
		return 0, false
	}
	cashF, _ := b.cash.Float64()
	priceF, _ := price.Float64()
	if priceF <= 0 {
		return 0, false
	}

	raw := b.params.CapitalFraction * cashF / priceF
	qty := int64(raw)
	if qty < 1 {
		qty = 1
	}
	if qty > b.params.MaxOrderSize {
		qty = b.params.MaxOrderSize
	}

	switch side {
	case orderbook.Buy:
		reserve := cashF * (1 - b.params.CashReserve)
		for qty > 0 && float64(qty)*priceF > reserve {
			qty--
		}
		if qty <= 0 {
			return 0, false
		}
		notional := decimal.NewFromInt(qty).Mul(price)
		if notional.GreaterThan(b.cash) {
			return 0, false
		}
	case orderbook.Sell:
		projected := b.position.Quantity - qty
		if -projected > b.params.ShortCap {
			allowed := b.position.Quantity + b.params.ShortCap
			if allowed <= 0 {
				return 0, false
			}
			qty = allowed
		}
	}
	if qty <= 0 {
		return 0, false
	}
	return qty, true
}

// newOrder builds an order request stamped with this agent's identity. The
// engine assigns the id and timestamp on ingestion.
func (b *BaseAgent) newOrder(typeName, symbol string, side orderbook.Side, kind orderbook.Kind, price decimal.Decimal, qty int64) orderbook.Order {
	return orderbook.Order{
		AgentID:   b.id,
		AgentType: typeName,
		Symbol:    symbol,
		Side:      side,
		Kind:      kind,
		Price:     price,
		Quantity:  qty,
	}
}
