package metrics

import (
	"context"
	"testing"
)

func TestRecordTickIncrementsInProcessCounter(t *testing.T) {
	m, _, err := Setup("commoditysim_test_tick")
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		m.RecordTick(ctx)
	}
	snap := m.Snapshot()
	if snap.TotalTicks != 3 {
		t.Fatalf("TotalTicks = %d, want 3", snap.TotalTicks)
	}
}

func TestRecordTradeUpdatesBothAgentTypes(t *testing.T) {
	m, _, err := Setup("commoditysim_test_trade")
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	m.RecordTrade(ctx, "CL", "fundamental", "noise", 10)

	snap := m.Snapshot()
	if snap.TotalTrades != 1 {
		t.Fatalf("TotalTrades = %d, want 1", snap.TotalTrades)
	}
	if snap.TotalVolume != 10 {
		t.Fatalf("TotalVolume = %d, want 10", snap.TotalVolume)
	}
	if snap.PerAgentType["fundamental"].TradesFilled != 1 {
		t.Fatalf("fundamental.TradesFilled = %d, want 1", snap.PerAgentType["fundamental"].TradesFilled)
	}
	if snap.PerAgentType["noise"].VolumeFilled != 10 {
		t.Fatalf("noise.VolumeFilled = %d, want 10", snap.PerAgentType["noise"].VolumeFilled)
	}
}

func TestSnapshotComputesAverageSpread(t *testing.T) {
	m, _, err := Setup("commoditysim_test_spread")
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	m.RecordSpread(ctx, "CL", 0.1)
	m.RecordSpread(ctx, "CL", 0.3)

	snap := m.Snapshot()
	if snap.AvgSpread != 0.2 {
		t.Fatalf("AvgSpread = %v, want 0.2", snap.AvgSpread)
	}
}

func TestResetZeroesInProcessState(t *testing.T) {
	m, _, err := Setup("commoditysim_test_reset")
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	m.RecordTick(ctx)
	m.RecordOrder(ctx, "momentum")
	m.Reset()

	snap := m.Snapshot()
	if snap.TotalTicks != 0 || snap.TotalOrders != 0 {
		t.Fatalf("snapshot after Reset = %+v, want all zero", snap)
	}
	if len(snap.PerAgentType) != 0 {
		t.Fatalf("PerAgentType after Reset = %+v, want empty", snap.PerAgentType)
	}
}

func TestAgentTypesReturnsSortedKeys(t *testing.T) {
	m, _, err := Setup("commoditysim_test_agent_types")
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	m.RecordOrder(ctx, "noise")
	m.RecordOrder(ctx, "fundamental")

	types := m.AgentTypes()
	if len(types) != 2 || types[0] != "fundamental" || types[1] != "noise" {
		t.Fatalf("AgentTypes() = %v, want sorted [fundamental noise]", types)
	}
}
