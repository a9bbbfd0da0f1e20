package commodity

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
)

func newTestCommodity() *Commodity {
	l := Listing{
		Symbol: "CL", Name: "WTI Crude Oil", Category: CategoryEnergy,
		BasePrice: decimal.NewFromFloat(70), TickSize: decimal.NewFromFloat(0.01),
		VolatilityMultiplier: 1.0, BaseProduction: 1000, BaseConsumption: 980,
	}
	return New(l, DefaultTuning())
}

func TestSetPriceClampsToFloor(t *testing.T) {
	c := newTestCommodity()
	c.SetPrice(decimal.NewFromFloat(-5))
	if !c.Price.Equal(c.Tuning.PriceFloor) {
		t.Fatalf("Price = %v, want price floor %v", c.Price, c.Tuning.PriceFloor)
	}
}

func TestSetPriceTripsCircuitBreakerBeyondDailyMove(t *testing.T) {
	c := newTestCommodity()
	c.MarkDayOpen() // day open = 70
	c.SetPrice(decimal.NewFromFloat(100))
	if !c.CircuitBroken {
		t.Fatal("expected circuit breaker to trip on a >7% move")
	}
	maxAllowed := c.DayOpenPrice.Mul(decimal.NewFromFloat(1.07))
	if !c.Price.Equal(maxAllowed) {
		t.Fatalf("Price = %v, want clamped to %v", c.Price, maxAllowed)
	}
}

func TestApplyTradePriceNoOpWhileCircuitBroken(t *testing.T) {
	c := newTestCommodity()
	c.MarkDayOpen()
	c.CircuitBroken = true
	before := c.Price
	c.ApplyTradePrice(decimal.NewFromFloat(999), 100)
	if !c.Price.Equal(before) {
		t.Fatalf("Price changed while circuit broken: %v -> %v", before, c.Price)
	}
}

func TestApplyTradePriceDampensBySqrtQuantity(t *testing.T) {
	c := newTestCommodity()
	small := newTestCommodity()

	c.ApplyTradePrice(decimal.NewFromFloat(80), 1)
	small.ApplyTradePrice(decimal.NewFromFloat(80), 100)

	moveLarge := c.Price.Sub(decimal.NewFromFloat(70)).Abs()
	moveSmallQty := small.Price.Sub(decimal.NewFromFloat(70)).Abs()
	if moveLarge.LessThanOrEqual(moveSmallQty) {
		t.Fatalf("expected qty=1 trade to move price more than qty=100: %v vs %v", moveLarge, moveSmallQty)
	}
}

func TestApplySupplyShockNeverGoesNegative(t *testing.T) {
	c := newTestCommodity()
	c.ApplySupplyShock(-10) // absurdly large negative shock
	if c.SupplyDemand.Production < 0 {
		t.Fatalf("Production = %v, want >= 0", c.SupplyDemand.Production)
	}
}

func TestGetReturnWithInsufficientHistory(t *testing.T) {
	c := newTestCommodity()
	if got := c.GetReturn(5); got != 0 {
		t.Fatalf("GetReturn(5) = %v, want 0 with only one history sample", got)
	}
}

func TestGetReturnComputesRelativeChange(t *testing.T) {
	c := newTestCommodity()
	c.SetPrice(decimal.NewFromFloat(77)) // +10% from 70
	got := c.GetReturn(1)
	if math.Abs(got-0.10) > 1e-6 {
		t.Fatalf("GetReturn(1) = %v, want ~0.10", got)
	}
}

func TestGetVolatilityEstimateZeroWithFlatPrices(t *testing.T) {
	c := newTestCommodity()
	for i := 0; i < 5; i++ {
		c.SetPrice(c.Price)
	}
	if got := c.GetVolatilityEstimate(5); got != 0 {
		t.Fatalf("GetVolatilityEstimate = %v, want 0 for flat prices", got)
	}
}

func TestImbalanceFormula(t *testing.T) {
	sd := SupplyDemand{Production: 90, Consumption: 110}
	got := sd.Imbalance()
	want := (110.0 - 90.0) / ((90.0 + 110.0) / 2)
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("Imbalance() = %v, want %v", got, want)
	}
}

func TestImbalanceZeroWhenMeanNonPositive(t *testing.T) {
	sd := SupplyDemand{Production: 0, Consumption: 0}
	if got := sd.Imbalance(); got != 0 {
		t.Fatalf("Imbalance() = %v, want 0", got)
	}
}

func TestUpdateSupplyDemandMeanReverts(t *testing.T) {
	sd := SupplyDemand{
		Production: 2000, Consumption: 980, Inventory: 500,
		BaseProduction: 1000, BaseConsumption: 980, BaseInventory: 100,
	}
	zero := func() float64 { return 0 }
	for i := 0; i < 100; i++ {
		sd.update(1.0, 0.9, zero)
	}
	if math.Abs(sd.Production-sd.BaseProduction) > 1 {
		t.Fatalf("Production = %v, want close to base %v", sd.Production, sd.BaseProduction)
	}
}

func TestResetCircuitBreakerAndDayOpen(t *testing.T) {
	c := newTestCommodity()
	c.MarkDayOpen()
	c.SetPrice(decimal.NewFromFloat(200))
	if !c.CircuitBroken {
		t.Fatal("setup: expected circuit breaker tripped")
	}
	c.ResetCircuitBreaker()
	if c.CircuitBroken {
		t.Fatal("ResetCircuitBreaker did not clear the flag")
	}
}

func TestHistoryBoundedAtMaxHistory(t *testing.T) {
	c := newTestCommodity()
	for i := 0; i < MaxHistory+50; i++ {
		c.SetPrice(decimal.NewFromFloat(70 + float64(i%3)))
	}
	if len(c.History()) != MaxHistory {
		t.Fatalf("len(History()) = %d, want %d", len(c.History()), MaxHistory)
	}
}
