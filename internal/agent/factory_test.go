package agent

import (
	"testing"

	"github.com/ndrandal/commoditysim/internal/commodity"
	"github.com/ndrandal/commoditysim/internal/config"
	"github.com/ndrandal/commoditysim/internal/marketrand"
)

func TestBuildPopulationMatchesConfiguredCounts(t *testing.T) {
	cfg := config.Default()
	cfg.Agents.Fundamental = 3
	cfg.Agents.Momentum = 2
	cfg.Agents.MeanReversion = 0
	cfg.Agents.Noise = 1
	cfg.Agents.MarketMaker = 1
	cfg.Agents.SupplyDemand = 0
	cfg.Agents.CrossEffects = 1
	cfg.Agents.Inventory = 0
	cfg.Agents.Event = 1

	rng := marketrand.New(42)
	population := BuildPopulation(cfg, commodity.AllListings(), rng)

	want := 3 + 2 + 1 + 1 + 1 + 1
	if len(population) != want {
		t.Fatalf("len(population) = %d, want %d", len(population), want)
	}

	counts := map[string]int{}
	seen := map[uint64]bool{}
	for _, a := range population {
		counts[a.TypeName()]++
		if seen[a.ID()] {
			t.Fatalf("duplicate agent id %d", a.ID())
		}
		seen[a.ID()] = true
	}
	if counts["fundamental"] != 3 {
		t.Fatalf("fundamental count = %d, want 3", counts["fundamental"])
	}
	if counts["momentum"] != 2 {
		t.Fatalf("momentum count = %d, want 2", counts["momentum"])
	}
}

func TestBuildPopulationIDsStartAtOne(t *testing.T) {
	cfg := config.Default()
	cfg.Agents = config.AgentCounts{Noise: 1}
	rng := marketrand.New(1)
	population := BuildPopulation(cfg, commodity.AllListings(), rng)
	if len(population) != 1 {
		t.Fatalf("len(population) = %d, want 1", len(population))
	}
	if population[0].ID() != 1 {
		t.Fatalf("ID() = %d, want 1 (0 is reserved for user orders)", population[0].ID())
	}
}

func TestBuildPopulationIsDeterministicForSameSeed(t *testing.T) {
	cfg := config.Default()
	cfg.Agents = config.AgentCounts{Fundamental: 5, MarketMaker: 2}

	listings := commodity.AllListings()
	p1 := BuildPopulation(cfg, listings, marketrand.New(99))
	p2 := BuildPopulation(cfg, listings, marketrand.New(99))

	if len(p1) != len(p2) {
		t.Fatalf("population sizes differ: %d vs %d", len(p1), len(p2))
	}
	for i := range p1 {
		f1, ok1 := p1[i].(*FundamentalAgent)
		f2, ok2 := p2[i].(*FundamentalAgent)
		if ok1 != ok2 {
			t.Fatalf("type mismatch at index %d", i)
		}
		if ok1 && f1.Cash().Cmp(f2.Cash()) != 0 {
			t.Fatalf("cash differs at index %d for identical seed: %v vs %v", i, f1.Cash(), f2.Cash())
		}
	}
}
