package candle

import (
	"testing"

	"github.com/shopspring/decimal"
)

func p(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func TestOnTickIgnoresUnregisteredSymbol(t *testing.T) {
	a := New()
	a.OnTick("CL", p(70), 10, 0)
	cur, ok, err := a.GetCurrentCandle("CL", "1m")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatalf("expected no candle for unregistered symbol, got %+v", cur)
	}
}

func TestOnTickCreatesCurrentCandle(t *testing.T) {
	a := New()
	a.RegisterSymbol("CL")
	a.OnTick("CL", p(70), 10, 1000)
	cur, ok, err := a.GetCurrentCandle("CL", "1m")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected a current candle after first tick")
	}
	if cur.Time != 0 {
		t.Fatalf("Time = %d, want bucket(1000, 60000) = 0", cur.Time)
	}
	if !cur.Open.Equal(p(70)) || !cur.Close.Equal(p(70)) {
		t.Fatalf("candle = %+v, want OHLC all 70", cur)
	}
	if cur.Volume != 10 {
		t.Fatalf("Volume = %d, want 10", cur.Volume)
	}
}

func TestOnTickUpdatesWithinSameBucket(t *testing.T) {
	a := New()
	a.RegisterSymbol("CL")
	a.OnTick("CL", p(70), 10, 1000)
	a.OnTick("CL", p(72), 5, 2000)
	a.OnTick("CL", p(68), 3, 3000)
	cur, _, _ := a.GetCurrentCandle("CL", "1m")
	if !cur.Open.Equal(p(70)) {
		t.Fatalf("Open = %v, want 70", cur.Open)
	}
	if !cur.High.Equal(p(72)) {
		t.Fatalf("High = %v, want 72", cur.High)
	}
	if !cur.Low.Equal(p(68)) {
		t.Fatalf("Low = %v, want 68", cur.Low)
	}
	if !cur.Close.Equal(p(68)) {
		t.Fatalf("Close = %v, want 68", cur.Close)
	}
	if cur.Volume != 18 {
		t.Fatalf("Volume = %d, want 18", cur.Volume)
	}
}

func TestOnTickClosesOnBucketCross(t *testing.T) {
	a := New()
	a.RegisterSymbol("CL")
	a.OnTick("CL", p(70), 10, 1000)         // bucket 0
	a.OnTick("CL", p(71), 5, 60_000+1000)   // bucket 60000, crosses boundary

	completed, err := a.GetCandles("CL", "1m", 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(completed) != 1 {
		t.Fatalf("len(completed) = %d, want 1", len(completed))
	}
	if completed[0].Time != 0 {
		t.Fatalf("completed[0].Time = %d, want 0", completed[0].Time)
	}
	cur, ok, _ := a.GetCurrentCandle("CL", "1m")
	if !ok || cur.Time != 60_000 {
		t.Fatalf("current candle = %+v, want bucket 60000", cur)
	}
}

func TestGetCandlesRespectsSinceAndLimit(t *testing.T) {
	a := New()
	a.RegisterSymbol("CL")
	for i := 0; i < 5; i++ {
		t64 := int64(i) * 60_000
		a.OnTick("CL", p(70+float64(i)), 1, t64)
		// advance into next bucket so the previous one closes
		a.OnTick("CL", p(70+float64(i)), 1, t64+60_000)
	}
	all, _ := a.GetCandles("CL", "1m", 0, 0)
	if len(all) < 4 {
		t.Fatalf("expected several completed candles, got %d", len(all))
	}
	limited, _ := a.GetCandles("CL", "1m", 0, 2)
	if len(limited) != 2 {
		t.Fatalf("len(limited) = %d, want 2", len(limited))
	}
	if limited[len(limited)-1].Time != all[len(all)-1].Time {
		t.Fatalf("limit should keep the most recent candles")
	}
	since, _ := a.GetCandles("CL", "1m", 120_000, 0)
	if len(since) != 3 || since[0].Time != 120_000 {
		t.Fatalf("since=120000 returned %+v, want 3 candles starting at 120000", since)
	}
}

func TestGetAllCandlesCoversEveryRegisteredSymbol(t *testing.T) {
	a := New()
	a.RegisterSymbol("CL")
	a.RegisterSymbol("GC")
	a.OnTick("CL", p(70), 1, 1000)
	a.OnTick("GC", p(2000), 1, 1000)

	all, err := a.GetAllCandles("1m", 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := all["CL"]; !ok {
		t.Fatal("missing CL in GetAllCandles")
	}
	if _, ok := all["GC"]; !ok {
		t.Fatal("missing GC in GetAllCandles")
	}
}

func TestParseIntervalAcceptsBothSpellings(t *testing.T) {
	ms1, err := ParseIntervalMs("1m")
	if err != nil {
		t.Fatal(err)
	}
	ms2, err := ParseIntervalMs("M1")
	if err != nil {
		t.Fatal(err)
	}
	if ms1 != ms2 {
		t.Fatalf("1m (%d) != M1 (%d)", ms1, ms2)
	}
}

func TestParseIntervalRejectsUnknown(t *testing.T) {
	if _, err := ParseIntervalMs("7x"); err == nil {
		t.Fatal("expected error for unknown interval")
	}
}

func TestResetClearsEverything(t *testing.T) {
	a := New()
	a.RegisterSymbol("CL")
	a.OnTick("CL", p(70), 1, 1000)
	a.Reset()
	_, ok, _ := a.GetCurrentCandle("CL", "1m")
	if ok {
		t.Fatal("expected no current candle after Reset")
	}
}

func TestCompletedDequeBoundedAtMaxCompleted(t *testing.T) {
	a := New()
	a.RegisterSymbol("CL")
	for i := 0; i < MaxCompleted+25; i++ {
		a.OnTick("CL", p(70), 1, int64(i)*60_000)
	}
	all, _ := a.GetCandles("CL", "1m", 0, 0)
	if len(all) != MaxCompleted {
		t.Fatalf("len(all) = %d, want %d", len(all), MaxCompleted)
	}
}
