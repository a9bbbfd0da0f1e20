package agent

import (
	"github.com/ndrandal/commoditysim/internal/orderbook"
	"github.com/shopspring/decimal"
)

// MarketMakerAgent quotes symmetric bid/ask around a mid price blended
// between the book mid and the fundamental. Spread widens with volatility
// and sentiment; quotes skew against inventory, and inventory is capped.
type MarketMakerAgent struct {
	BaseAgent
	FundamentalWeight          float64
	BaseSpreadBps              float64
	VolatilitySpreadMultiplier float64
	InventorySkew              float64
	InventoryCap               int64
}

// NewMarketMakerAgent constructs a MarketMakerAgent for one symbol.
func NewMarketMakerAgent(id uint64, symbol string, cash decimal.Decimal, p Params,
	fundamentalWeight, baseSpreadBps, volSpreadMult, invSkew float64, invCap int64,
) *MarketMakerAgent {
	return &MarketMakerAgent{
		BaseAgent:                  newBaseAgent(id, symbol, cash, p),
		FundamentalWeight:          fundamentalWeight,
		BaseSpreadBps:              baseSpreadBps,
		VolatilitySpreadMultiplier: volSpreadMult,
		InventorySkew:              invSkew,
		InventoryCap:               invCap,
	}
}

// TypeName identifies this agent's kind.
func (a *MarketMakerAgent) TypeName() string { return "marketMaker" }

// OnTick posts a bid and an ask around a fundamental-blended mid, widened
// by volatility and sentiment, skewed against current inventory.
func (a *MarketMakerAgent) OnTick(s *MarketSnapshot, rng Rand) []orderbook.Order {
	category := string(s.Categories[a.Symbol()])
	a.updateSentiment(s.RecentNews, s.CategoryNames())

	bookMid, ok := s.Mid[a.Symbol()]
	if !ok || bookMid.Sign() <= 0 {
		bookMid, ok = s.Prices[a.Symbol()]
		if !ok || bookMid.Sign() <= 0 {
			return nil
		}
	}
	fundamental, hasFund := s.Fundamentals[a.Symbol()]
	midF, _ := bookMid.Float64()
	blended := midF
	if hasFund {
		fundF, _ := fundamental.Float64()
		blended = midF*(1-a.FundamentalWeight) + fundF*a.FundamentalWeight
	}

	vol := s.Volatility[a.Symbol()]
	sentiment := a.effectiveSentiment(category)
	spreadBps := a.BaseSpreadBps + vol*a.VolatilitySpreadMultiplier + absFloat(sentiment)*a.BaseSpreadBps
	halfSpreadFrac := spreadBps / 2 / 10_000

	skew := float64(a.position.Quantity) * a.InventorySkew
	adjustedMid := blended - skew

	bidPrice := decimal.NewFromFloat(adjustedMid * (1 - halfSpreadFrac))
	askPrice := decimal.NewFromFloat(adjustedMid * (1 + halfSpreadFrac))
	if bidPrice.Sign() <= 0 || askPrice.Sign() <= 0 {
		return nil
	}

	var orders []orderbook.Order
	if a.position.Quantity < a.InventoryCap {
		if qty, ok := a.sizeOrder(orderbook.Buy, bidPrice); ok {
			orders = append(orders, a.newOrder(a.TypeName(), a.Symbol(), orderbook.Buy, orderbook.Limit, bidPrice, qty))
		}
	}
	if a.position.Quantity > -a.InventoryCap {
		if qty, ok := a.sizeOrder(orderbook.Sell, askPrice); ok {
			orders = append(orders, a.newOrder(a.TypeName(), a.Symbol(), orderbook.Sell, orderbook.Limit, askPrice, qty))
		}
	}
	return orders
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
