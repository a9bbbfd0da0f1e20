package simulation

import (
	"bytes"
	"testing"

	"go.uber.org/zap"

	"github.com/ndrandal/commoditysim/internal/config"
	"github.com/ndrandal/commoditysim/internal/metrics"
)

func testSimulation(t *testing.T, name string) *Simulation {
	t.Helper()
	cfg := config.Default()
	cfg.Agents.Fundamental = 2
	cfg.Agents.Noise = 2
	cfg.Agents.Momentum = 0
	cfg.Agents.MeanReversion = 0
	cfg.Agents.MarketMaker = 0
	cfg.Agents.SupplyDemand = 0
	cfg.Agents.CrossEffects = 0
	cfg.Agents.Inventory = 0
	cfg.Agents.Event = 0

	m, _, err := metrics.Setup(name)
	if err != nil {
		t.Fatalf("metrics.Setup: %v", err)
	}
	s, err := New(cfg, zap.NewNop().Sugar(), m)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestLifecycleStartStop(t *testing.T) {
	s := testSimulation(t, "commoditysim-sim-test-1")
	if got := s.GetState(); got.Running {
		t.Fatal("expected idle simulation not running")
	}
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !s.GetState().Running {
		t.Fatal("expected running after Start")
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if s.GetState().Running {
		t.Fatal("expected idle after Stop")
	}
}

func TestLifecyclePauseResume(t *testing.T) {
	s := testSimulation(t, "commoditysim-sim-test-2")
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if !s.GetState().Paused {
		t.Fatal("expected paused")
	}
	if err := s.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if !s.GetState().Running {
		t.Fatal("expected running after resume")
	}
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestStepRejectedWhileRunning(t *testing.T) {
	s := testSimulation(t, "commoditysim-sim-test-3")
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()
	if err := s.Step(1); err == nil {
		t.Fatal("expected Step to be rejected while running")
	}
}

func TestStepAdvancesTicksAndBuffer(t *testing.T) {
	s := testSimulation(t, "commoditysim-sim-test-4")
	if err := s.Step(5); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if got := s.GetState().CurrentTick; got != 5 {
		t.Fatalf("CurrentTick = %d, want 5", got)
	}
	if s.tickBuffer.Len() != 5 {
		t.Fatalf("tick buffer len = %d, want 5", s.tickBuffer.Len())
	}
}

// TestPopulateIsDeterministicForSameSeed mirrors §8 scenario 6: two runs
// built from the same seed, populated for the same number of days, must
// produce identical final commodity prices.
func TestPopulateIsDeterministicForSameSeed(t *testing.T) {
	s1 := testSimulation(t, "commoditysim-sim-test-5a")
	s2 := testSimulation(t, "commoditysim-sim-test-5b")

	if err := s1.Populate(5); err != nil {
		t.Fatalf("Populate s1: %v", err)
	}
	if err := s2.Populate(5); err != nil {
		t.Fatalf("Populate s2: %v", err)
	}

	for _, view1 := range s1.GetCommodities() {
		var found bool
		for _, view2 := range s2.GetCommodities() {
			if view2.Symbol != view1.Symbol {
				continue
			}
			found = true
			if !view1.Price.Equal(view2.Price) {
				t.Fatalf("symbol %s: populate diverged across identical seeds: %v vs %v", view1.Symbol, view1.Price, view2.Price)
			}
		}
		if !found {
			t.Fatalf("symbol %s missing from second run", view1.Symbol)
		}
	}
}

func TestPopulateRejectedWhileRunning(t *testing.T) {
	s := testSimulation(t, "commoditysim-sim-test-6")
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()
	if err := s.Populate(1); err == nil {
		t.Fatal("expected Populate to be rejected while running")
	}
}

func TestPopulateReturnsToIdleAndRecordsTicks(t *testing.T) {
	s := testSimulation(t, "commoditysim-sim-test-7")
	cfg := s.GetConfig()
	if err := s.Populate(cfg.Simulation.PopulateFineDays); err != nil {
		t.Fatalf("Populate: %v", err)
	}
	if s.GetState().Populating {
		t.Fatal("expected idle after populate finishes")
	}
	want := int64(cfg.Simulation.PopulateFineDays * cfg.Simulation.PopulateFineTicksPerDay)
	if got := s.GetState().CurrentTick; got != want {
		t.Fatalf("CurrentTick = %d, want %d", got, want)
	}
}

// TestPatchConfigHotReloadsWithoutReinitializing mirrors §8 scenario 7:
// patching tick rate and news lambda must take effect without touching the
// agent population.
func TestPatchConfigHotReloadsWithoutReinitializing(t *testing.T) {
	s := testSimulation(t, "commoditysim-sim-test-8")
	before := len(s.GetAgentSummary())

	err := s.PatchConfig(map[string]any{
		"simulation": map[string]any{"tickRateMs": 10},
		"news":       map[string]any{"lambda": 0.5},
	})
	if err != nil {
		t.Fatalf("PatchConfig: %v", err)
	}

	cfg := s.GetConfig()
	if cfg.Simulation.TickRateMs != 10 {
		t.Fatalf("TickRateMs = %d, want 10", cfg.Simulation.TickRateMs)
	}
	if cfg.News.Lambda != 0.5 {
		t.Fatalf("News.Lambda = %v, want 0.5", cfg.News.Lambda)
	}
	if after := len(s.GetAgentSummary()); after != before {
		t.Fatalf("agent population changed across a hot config patch: %d vs %d", before, after)
	}
}

func TestResetConfigRestoresDefaults(t *testing.T) {
	s := testSimulation(t, "commoditysim-sim-test-9")
	if err := s.PatchConfig(map[string]any{"news": map[string]any{"lambda": 0.9}}); err != nil {
		t.Fatalf("PatchConfig: %v", err)
	}
	if err := s.ResetConfig(); err != nil {
		t.Fatalf("ResetConfig: %v", err)
	}
	if got := s.GetConfig().News.Lambda; got != config.Default().News.Lambda {
		t.Fatalf("News.Lambda after ResetConfig = %v, want default %v", got, config.Default().News.Lambda)
	}
}

func TestReinitializeRejectedWhileRunning(t *testing.T) {
	s := testSimulation(t, "commoditysim-sim-test-10")
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()
	if err := s.Reinitialize(); err == nil {
		t.Fatal("expected Reinitialize to be rejected while running")
	}
}

func TestGetOrderBookUnknownSymbolErrors(t *testing.T) {
	s := testSimulation(t, "commoditysim-sim-test-11")
	if _, err := s.GetOrderBook("NOPE", 5); err == nil {
		t.Fatal("expected an error for an unknown symbol")
	}
}

func TestDumpJSONRoundTripsAfterSteps(t *testing.T) {
	s := testSimulation(t, "commoditysim-sim-test-12")
	if err := s.Step(3); err != nil {
		t.Fatalf("Step: %v", err)
	}

	var buf bytes.Buffer
	if err := s.DumpJSON(&buf); err != nil {
		t.Fatalf("DumpJSON: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("expected non-empty JSON dump")
	}
}
