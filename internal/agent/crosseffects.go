package agent

import (
	"github.com/ndrandal/commoditysim/internal/orderbook"
	"github.com/shopspring/decimal"
)

// CrossEffectsAgent trades its own symbol in response to a peer
// commodity's recent return, scaled by a personal coefficient. The peer is
// typically another member of the same category (e.g. heating oil
// reacting to crude), modeling substitution/complementary co-movement
// rather than a full cross-elasticity matrix.
type CrossEffectsAgent struct {
	BaseAgent
	PeerSymbol  string
	Coefficient float64
	Lookback    int
	Threshold   float64
}

// NewCrossEffectsAgent constructs a CrossEffectsAgent for one symbol,
// reactive to a named peer symbol.
func NewCrossEffectsAgent(id uint64, symbol, peerSymbol string, cash decimal.Decimal, p Params, coefficient float64, lookback int, threshold float64) *CrossEffectsAgent {
	return &CrossEffectsAgent{
		BaseAgent:   newBaseAgent(id, symbol, cash, p),
		PeerSymbol:  peerSymbol,
		Coefficient: coefficient,
		Lookback:    lookback,
		Threshold:   threshold,
	}
}

// TypeName identifies this agent's kind.
func (a *CrossEffectsAgent) TypeName() string { return "crossEffects" }

// OnTick reads the peer symbol's recent return and, once the implied
// co-movement signal exceeds this agent's threshold, trades its own
// symbol in the same direction.
func (a *CrossEffectsAgent) OnTick(s *MarketSnapshot, rng Rand) []orderbook.Order {
	a.updateSentiment(s.RecentNews, s.CategoryNames())

	peerReturn := s.ReturnOverTicks(a.PeerSymbol, a.Lookback)
	signal := peerReturn * a.Coefficient
	if signal < a.Threshold && signal > -a.Threshold {
		return nil
	}

	price, ok := s.Prices[a.Symbol()]
	if !ok || price.Sign() <= 0 {
		return nil
	}

	var side orderbook.Side
	if signal > 0 {
		side = orderbook.Buy
	} else {
		side = orderbook.Sell
	}

	qty, ok := a.sizeOrder(side, price)
	if !ok {
		return nil
	}
	return []orderbook.Order{a.newOrder(a.TypeName(), a.Symbol(), side, orderbook.Market, decimal.Zero, qty)}
}
