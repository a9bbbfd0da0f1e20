package agent

import (
	"testing"

	"github.com/ndrandal/commoditysim/internal/commodity"
	"github.com/ndrandal/commoditysim/internal/news"
	"github.com/ndrandal/commoditysim/internal/orderbook"
	"github.com/shopspring/decimal"
)

// fakeRand is a deterministic stand-in for marketrand.RNG in unit tests.
type fakeRand struct {
	f float64
	g float64
}

func (f fakeRand) Float64() float64 { return f.f }
func (f fakeRand) Gaussian() float64 { return f.g }
func (f fakeRand) TruncatedGaussian(mean, sigma, min, max float64) float64 {
	v := mean + f.g*sigma
	if v < min {
		v = min
	}
	if v > max {
		v = max
	}
	return v
}
func (f fakeRand) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return 0
}

func basicSnapshot() *MarketSnapshot {
	return &MarketSnapshot{
		SimTimeMs:    1000,
		TickScale:    1.0,
		Prices:       map[string]decimal.Decimal{"CL": d(70)},
		Fundamentals: map[string]decimal.Decimal{"CL": d(70)},
		Mid:          map[string]decimal.Decimal{"CL": d(70)},
		Volatility:   map[string]float64{"CL": 0.01},
		Imbalance:    map[string]float64{"CL": 0.0},
		PriceHistory: map[string][]decimal.Decimal{"CL": {d(68), d(69), d(70)}},
		Categories:   map[string]commodity.Category{"CL": commodity.CategoryEnergy},
	}
}

func TestFundamentalAgentBuysWhenUnderpriced(t *testing.T) {
	a := NewFundamentalAgent(1, "CL", d(1_000_000), testParams(), 0.01)
	snap := basicSnapshot()
	snap.Fundamentals["CL"] = d(80) // fundamental well above price -> buy

	orders := a.OnTick(snap, fakeRand{f: 0.5})
	if len(orders) != 1 {
		t.Fatalf("len(orders) = %d, want 1", len(orders))
	}
	if orders[0].Side != orderbook.Buy {
		t.Fatalf("Side = %v, want Buy", orders[0].Side)
	}
}

func TestFundamentalAgentNoOrderWithinThreshold(t *testing.T) {
	a := NewFundamentalAgent(1, "CL", d(1_000_000), testParams(), 0.2)
	snap := basicSnapshot()
	orders := a.OnTick(snap, fakeRand{f: 0.5})
	if len(orders) != 0 {
		t.Fatalf("expected no orders within threshold, got %+v", orders)
	}
}

func TestMarketMakerQuotesBothSides(t *testing.T) {
	a := NewMarketMakerAgent(1, "CL", d(1_000_000), testParams(), 0.3, 10, 50, 0.0005, 2000)
	orders := a.OnTick(basicSnapshot(), fakeRand{f: 0.5})
	if len(orders) != 2 {
		t.Fatalf("len(orders) = %d, want 2 (bid+ask)", len(orders))
	}
	var sawBuy, sawSell bool
	for _, o := range orders {
		if o.Side == orderbook.Buy {
			sawBuy = true
		}
		if o.Side == orderbook.Sell {
			sawSell = true
		}
	}
	if !sawBuy || !sawSell {
		t.Fatalf("expected both sides quoted, got %+v", orders)
	}
}

func TestMarketMakerSkipsSideBeyondInventoryCap(t *testing.T) {
	a := NewMarketMakerAgent(1, "CL", d(1_000_000), testParams(), 0.3, 10, 50, 0.0005, 100)
	a.position.Quantity = 100 // already at the long cap
	orders := a.OnTick(basicSnapshot(), fakeRand{f: 0.5})
	for _, o := range orders {
		if o.Side == orderbook.Buy {
			t.Fatal("expected no further buy once at inventory cap")
		}
	}
}

func TestSupplyDemandAgentBuysOnPositiveImbalance(t *testing.T) {
	a := NewSupplyDemandAgent(1, "CL", d(1_000_000), testParams(), 0.05)
	snap := basicSnapshot()
	snap.Imbalance["CL"] = 0.2
	orders := a.OnTick(snap, fakeRand{f: 0.5})
	if len(orders) != 1 || orders[0].Side != orderbook.Buy {
		t.Fatalf("orders = %+v, want one Buy", orders)
	}
}

func TestNoiseAgentSkipsTickBelowActivityRate(t *testing.T) {
	a := NewNoiseAgent(1, "CL", d(1_000_000), testParams(), 0.1)
	orders := a.OnTick(basicSnapshot(), fakeRand{f: 0.9}) // 0.9 > 0.1 activity rate
	if len(orders) != 0 {
		t.Fatalf("expected no orders when draw exceeds activity rate, got %+v", orders)
	}
}

func TestNoiseAgentTradesWhenActive(t *testing.T) {
	a := NewNoiseAgent(1, "CL", d(1_000_000), testParams(), 0.9)
	orders := a.OnTick(basicSnapshot(), fakeRand{f: 0.05, g: 1.0})
	if len(orders) != 1 {
		t.Fatalf("expected one order when active, got %+v", orders)
	}
}

func TestInventoryAgentBuysWhenUnderweight(t *testing.T) {
	a := NewInventoryAgent(1, "CL", d(1_000_000), testParams(), 0.5, 0.05)
	orders := a.OnTick(basicSnapshot(), fakeRand{f: 0.5})
	if len(orders) != 1 || orders[0].Side != orderbook.Buy {
		t.Fatalf("orders = %+v, want one Buy (currently 0%% weight vs 50%% target)", orders)
	}
}

func TestEventAgentReactsToTargetedNews(t *testing.T) {
	a := NewEventAgent(1, "CL", d(1_000_000), testParams())
	snap := basicSnapshot()
	snap.RecentNews = []news.Event{
		{Category: news.CategorySupply, Sentiment: news.SentimentNegative, Magnitude: 0.8, Target: "CL"},
	}
	orders := a.OnTick(snap, fakeRand{f: 0.5})
	if len(orders) != 1 || orders[0].Side != orderbook.Sell {
		t.Fatalf("orders = %+v, want one Sell from a negative supply shock", orders)
	}
}

func TestMomentumAgentBuysOnUpwardCrossover(t *testing.T) {
	a := NewMomentumAgent(1, "CL", d(1_000_000), testParams(), 2, 5)
	snap := basicSnapshot()
	snap.PriceHistory["CL"] = []decimal.Decimal{d(60), d(61), d(62), d(68), d(70)}
	orders := a.OnTick(snap, fakeRand{f: 0.5})
	if len(orders) != 1 || orders[0].Side != orderbook.Buy {
		t.Fatalf("orders = %+v, want one Buy on an upward crossover", orders)
	}
}

func TestMeanReversionAgentSellsOnHighZScore(t *testing.T) {
	a := NewMeanReversionAgent(1, "CL", d(1_000_000), testParams(), 5, 1.0)
	snap := basicSnapshot()
	snap.PriceHistory["CL"] = []decimal.Decimal{d(70), d(70), d(70), d(70), d(100)}
	snap.Prices["CL"] = d(100)
	orders := a.OnTick(snap, fakeRand{f: 0.5})
	if len(orders) != 1 || orders[0].Side != orderbook.Sell {
		t.Fatalf("orders = %+v, want one Sell on a high z-score spike", orders)
	}
}

func TestCrossEffectsAgentFollowsPeerReturn(t *testing.T) {
	a := NewCrossEffectsAgent(1, "HO", "CL", d(1_000_000), testParams(), 0.8, 2, 0.01)
	snap := basicSnapshot()
	snap.Prices["HO"] = d(2)
	snap.PriceHistory["CL"] = []decimal.Decimal{d(60), d(70), d(80)}
	orders := a.OnTick(snap, fakeRand{f: 0.5})
	if len(orders) != 1 || orders[0].Side != orderbook.Buy {
		t.Fatalf("orders = %+v, want one Buy following peer's upward move", orders)
	}
}

func TestEventAgentIgnoresUntargetedNews(t *testing.T) {
	a := NewEventAgent(1, "CL", d(1_000_000), testParams())
	snap := basicSnapshot()
	snap.RecentNews = []news.Event{
		{Category: news.CategorySupply, Sentiment: news.SentimentNegative, Magnitude: 0.8, Target: "GC"},
	}
	orders := a.OnTick(snap, fakeRand{f: 0.5})
	if len(orders) != 0 {
		t.Fatalf("expected no orders for news targeting a different symbol, got %+v", orders)
	}
}
