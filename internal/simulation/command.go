package simulation

import (
	"fmt"

	"github.com/ndrandal/commoditysim/internal/config"
	"github.com/ndrandal/commoditysim/internal/news"
	"github.com/ndrandal/commoditysim/internal/orderbook"
)

// ControlAction is one of the named control() actions (§6).
type ControlAction string

const (
	ActionStart   ControlAction = "start"
	ActionPause   ControlAction = "pause"
	ActionResume  ControlAction = "resume"
	ActionStop    ControlAction = "stop"
	ActionReset   ControlAction = "reset"
	ActionStep    ControlAction = "step"
)

// Control dispatches one control() action. count is only consulted for
// ActionStep.
func (s *Simulation) Control(action ControlAction, count int) error {
	switch action {
	case ActionStart:
		return s.Start()
	case ActionPause:
		return s.Pause()
	case ActionResume:
		return s.Resume()
	case ActionStop:
		return s.Stop()
	case ActionReset:
		return s.Reset()
	case ActionStep:
		if count <= 0 {
			count = 1
		}
		return s.Step(count)
	default:
		return fmt.Errorf("simulation: unknown control action %q", action)
	}
}

// PlaceOrderResult answers place_order() (§6).
type PlaceOrderResult struct {
	Status        string  `json:"status"`
	OrderID       uint64  `json:"orderId"`
	FilledQty     int64   `json:"filledQuantity"`
	AvgFillPrice  float64 `json:"avgFillPrice"`
}

// PlaceOrder submits an externally originated order and reports its
// immediate fill outcome.
func (s *Simulation) PlaceOrder(o orderbook.Order) (PlaceOrderResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orderID, trades, err := s.engine.PlaceOrder(o)
	if err != nil {
		return PlaceOrderResult{}, err
	}

	var filled int64
	var notional float64
	for _, t := range trades {
		filled += t.Quantity
		priceF, _ := t.Price.Float64()
		notional += priceF * float64(t.Quantity)
	}

	status := "pending"
	switch {
	case filled == 0:
		status = "pending"
	case filled >= o.Quantity:
		status = "filled"
	default:
		status = "partial"
	}

	avgPrice := 0.0
	if filled > 0 {
		avgPrice = notional / float64(filled)
	}

	return PlaceOrderResult{
		Status:       status,
		OrderID:      orderID,
		FilledQty:    filled,
		AvgFillPrice: avgPrice,
	}, nil
}

// InjectNews enqueues a news event for the next tick.
func (s *Simulation) InjectNews(ev news.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.InjectNews(ev)
}

// PatchConfig hot-patches a subset of the RuntimeConfig and re-propagates
// hot values to the engine without a reinitialize (§4.8/§9).
func (s *Simulation) PatchConfig(patch map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidate, err := config.Patch(s.cfg, patch)
	if err != nil {
		return fmt.Errorf("simulation: patch rejected: %w", err)
	}
	s.cfg = candidate
	s.engine.ApplyConfig(s.cfg)
	return nil
}

// ResetConfig replaces the RuntimeConfig with the reference defaults and
// reinitializes commodities and agents to match (§6).
func (s *Simulation) ResetConfig() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cfg = config.Default()
	s.engine.ApplyConfig(s.cfg)
	s.engine.Reinitialize()
	return nil
}

// Reinitialize rebuilds commodities and agents from the current config,
// leaving the clock and RNG stream running (§4.8/§6).
func (s *Simulation) Reinitialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateRunning || s.state == StatePopulating {
		return fmt.Errorf("simulation: cannot reinitialize from state %q", s.state)
	}
	s.engine.Reinitialize()
	return nil
}
