// Package commodity holds per-instrument scalar state: price, fundamental
// value, supply/demand, circuit breaker, and bounded price history.
package commodity

import (
	"math"

	"github.com/shopspring/decimal"
)

// MaxHistory bounds the retained price history, per §3's Commodity
// invariant ("history retains the last MAX_HISTORY samples only").
const MaxHistory = 1000

// Tuning holds the hot-settable knobs the engine applies on config updates.
type Tuning struct {
	ImpactDampening       float64 // Kyle-lambda style trade-impact alpha numerator
	FundamentalShockClamp float64
	MaxDailyMove          float64 // circuit breaker band, fraction of day-open
	PriceFloor            decimal.Decimal
	DecayRate             float64 // supply/demand mean-reversion decay per reference tick
}

// DefaultTuning returns a standalone set of reference tuning values. The
// engine does not use it: it builds each commodity's Tuning from
// RuntimeConfig.
func DefaultTuning() Tuning {
	return Tuning{
		ImpactDampening:       0.1,
		FundamentalShockClamp: 0.02,
		MaxDailyMove:          0.07,
		PriceFloor:            decimal.NewFromFloat(0.01),
		DecayRate:             0.98,
	}
}

// Commodity is one tradable instrument's full scalar state.
type Commodity struct {
	Symbol   string
	Name     string
	Category Category

	Price       decimal.Decimal
	Fundamental decimal.Decimal

	history []decimal.Decimal

	DailyVolume int64

	DayOpenPrice   decimal.Decimal
	CircuitBroken  bool
	hasDayOpen     bool

	SupplyDemand SupplyDemand

	Tuning Tuning
}

// New constructs a Commodity seeded from a catalog Listing.
func New(l Listing, tuning Tuning) *Commodity {
	c := &Commodity{
		Symbol:      l.Symbol,
		Name:        l.Name,
		Category:    l.Category,
		Price:       l.BasePrice,
		Fundamental: l.BasePrice,
		Tuning:      tuning,
		SupplyDemand: SupplyDemand{
			Production:      l.BaseProduction,
			Consumption:     l.BaseConsumption,
			BaseProduction:  l.BaseProduction,
			BaseConsumption: l.BaseConsumption,
		},
	}
	c.history = append(c.history, l.BasePrice)
	return c
}

// SetPrice clamps to the price floor, trips the circuit breaker if the move
// since day-open exceeds MaxDailyMove, and appends to bounded history.
func (c *Commodity) SetPrice(p decimal.Decimal) {
	if p.Sign() <= 0 {
		p = c.Tuning.PriceFloor
	}
	if p.LessThan(c.Tuning.PriceFloor) {
		p = c.Tuning.PriceFloor
	}

	if c.hasDayOpen && !c.DayOpenPrice.IsZero() {
		move := p.Div(c.DayOpenPrice).Sub(decimal.NewFromInt(1))
		limit := decimal.NewFromFloat(c.Tuning.MaxDailyMove)
		if move.Abs().GreaterThan(limit) {
			c.CircuitBroken = true
			if move.Sign() > 0 {
				p = c.DayOpenPrice.Mul(decimal.NewFromInt(1).Add(limit))
			} else {
				p = c.DayOpenPrice.Mul(decimal.NewFromInt(1).Sub(limit))
			}
		}
	}

	c.Price = p
	c.history = append(c.history, p)
	if len(c.history) > MaxHistory {
		c.history = c.history[len(c.history)-MaxHistory:]
	}
}

// ApplyTradePrice blends the current price toward a trade print with a
// quantity-dampened alpha, no-op while the circuit breaker is tripped.
func (c *Commodity) ApplyTradePrice(tradePrice decimal.Decimal, qty int64) {
	if c.CircuitBroken {
		return
	}
	q := float64(qty)
	if q < 1 {
		q = 1
	}
	alpha := c.Tuning.ImpactDampening / math.Sqrt(q)
	if alpha > 0.5 {
		alpha = 0.5
	}
	a := decimal.NewFromFloat(alpha)
	blended := c.Price.Mul(decimal.NewFromInt(1).Sub(a)).Add(tradePrice.Mul(a))
	c.SetPrice(blended)
}

// ApplySupplyShock adds an additive production shock proportional to base
// production, clamped so production never goes negative.
func (c *Commodity) ApplySupplyShock(m float64) {
	c.SupplyDemand.Production += c.SupplyDemand.BaseProduction * m
	if c.SupplyDemand.Production < 0 {
		c.SupplyDemand.Production = 0
	}
}

// ApplyDemandShock adds an additive consumption shock proportional to base
// consumption, clamped so consumption never goes negative.
func (c *Commodity) ApplyDemandShock(m float64) {
	c.SupplyDemand.Consumption += c.SupplyDemand.BaseConsumption * m
	if c.SupplyDemand.Consumption < 0 {
		c.SupplyDemand.Consumption = 0
	}
}

// UpdateSupplyDemand mean-reverts production/consumption/inventory and adds
// Gaussian noise scaled to tickScale. gaussian is a closure over the
// engine-owned RNG so Commodity itself carries no PRNG dependency.
func (c *Commodity) UpdateSupplyDemand(tickScale float64, gaussian func() float64) {
	c.SupplyDemand.update(tickScale, c.Tuning.DecayRate, gaussian)
}

// MarkDayOpen records the current price as the day's open, used by the
// circuit breaker band on subsequent SetPrice calls. Called by the engine
// on a SimClock day boundary.
func (c *Commodity) MarkDayOpen() {
	c.DayOpenPrice = c.Price
	c.hasDayOpen = true
}

// ResetCircuitBreaker clears the tripped flag. Called alongside
// MarkDayOpen on a day boundary.
func (c *Commodity) ResetCircuitBreaker() {
	c.CircuitBroken = false
}

// ResetDailyVolume zeroes the running daily-volume counter.
func (c *Commodity) ResetDailyVolume() {
	c.DailyVolume = 0
}

// AddVolume accumulates traded quantity into the daily-volume counter.
func (c *Commodity) AddVolume(qty int64) {
	c.DailyVolume += qty
}

// GetReturn returns (price - price[k ticks ago]) / price[k ticks ago], or 0
// if history does not extend back that far.
func (c *Commodity) GetReturn(k int) float64 {
	n := len(c.history)
	if k < 0 || k >= n {
		return 0
	}
	idx := n - k - 1
	if idx < 0 {
		return 0
	}
	prior := c.history[idx]
	if prior.IsZero() {
		return 0
	}
	cur := c.history[n-1]
	ret, _ := cur.Sub(prior).Div(prior).Float64()
	return ret
}

// GetVolatilityEstimate returns the sample standard deviation of log
// returns over the last window prices (fewer if history is shorter).
func (c *Commodity) GetVolatilityEstimate(window int) float64 {
	n := len(c.history)
	if n < 2 {
		return 0
	}
	if window > n-1 {
		window = n - 1
	}
	if window < 1 {
		return 0
	}
	start := n - window - 1
	returns := make([]float64, 0, window)
	for i := start; i < n-1; i++ {
		p0, _ := c.history[i].Float64()
		p1, _ := c.history[i+1].Float64()
		if p0 <= 0 || p1 <= 0 {
			continue
		}
		returns = append(returns, math.Log(p1/p0))
	}
	if len(returns) < 2 {
		return 0
	}
	mean := 0.0
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))
	variance := 0.0
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns) - 1)
	return math.Sqrt(variance)
}

// History returns a defensive copy of the retained price history, oldest
// first.
func (c *Commodity) History() []decimal.Decimal {
	out := make([]decimal.Decimal, len(c.history))
	copy(out, c.history)
	return out
}
