package simulation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ndrandal/commoditysim/internal/candle"
	"github.com/ndrandal/commoditysim/internal/config"
	"github.com/ndrandal/commoditysim/internal/metrics"
	"github.com/ndrandal/commoditysim/internal/news"
	"github.com/ndrandal/commoditysim/internal/orderbook"
)

// StateView answers get_state() (§6).
type StateView struct {
	Running          bool   `json:"running"`
	Paused           bool   `json:"paused"`
	Populating       bool   `json:"populating"`
	CurrentTick      int64  `json:"currentTick"`
	PopulateCurrent  int    `json:"populateCurrent"`
	PopulateTarget   int    `json:"populateTarget"`
	SimDate          string `json:"simDate"`
	SimDateTime      string `json:"simDateTime"`
	SimTimestamp     int64  `json:"simTimestamp"`
}

// GetState answers get_state().
func (s *Simulation) GetState() StateView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return StateView{
		Running:         s.state == StateRunning,
		Paused:          s.state == StatePaused,
		Populating:      s.state == StatePopulating,
		CurrentTick:     s.engine.Clock().TotalTicks(),
		PopulateCurrent: s.populateCurrent,
		PopulateTarget:  s.populateTarget,
		SimDate:         s.engine.Clock().Date(),
		SimDateTime:     s.engine.Clock().DateTime(),
		SimTimestamp:    s.engine.Clock().NowMs(),
	}
}

// SupplyDemandView mirrors commodity.SupplyDemand plus its derived
// imbalance for get_commodities() (§6).
type SupplyDemandView struct {
	Production  float64 `json:"production"`
	Consumption float64 `json:"consumption"`
	Imports     float64 `json:"imports"`
	Exports     float64 `json:"exports"`
	Inventory   float64 `json:"inventory"`
	Imbalance   float64 `json:"imbalance"`
}

// CommodityView is one row of get_commodities() (§6).
type CommodityView struct {
	Symbol       string            `json:"symbol"`
	Name         string            `json:"name"`
	Category     string            `json:"category"`
	Price        decimal.Decimal   `json:"price"`
	Fundamental  decimal.Decimal   `json:"fundamental"`
	DailyVolume  int64             `json:"dailyVolume"`
	SupplyDemand SupplyDemandView  `json:"supplyDemand"`
}

// GetCommodities answers get_commodities().
func (s *Simulation) GetCommodities() []CommodityView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]CommodityView, 0, len(s.engine.Symbols()))
	for _, c := range s.engine.Commodities() {
		sd := c.SupplyDemand
		out = append(out, CommodityView{
			Symbol:      c.Symbol,
			Name:        c.Name,
			Category:    string(c.Category),
			Price:       c.Price,
			Fundamental: c.Fundamental,
			DailyVolume: c.DailyVolume,
			SupplyDemand: SupplyDemandView{
				Production:  sd.Production,
				Consumption: sd.Consumption,
				Imports:     sd.Imports,
				Exports:     sd.Exports,
				Inventory:   sd.Inventory,
				Imbalance:   sd.Imbalance(),
			},
		})
	}
	return out
}

// GetOrderBook answers get_order_book(symbol, depth). Returns an error if
// the symbol is unknown (§7's synchronous order-error surfacing applies
// equally to query-side symbol lookups).
func (s *Simulation) GetOrderBook(symbol string, depth int) (orderbook.DepthSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	book := s.engine.Book(symbol)
	if book == nil {
		return orderbook.DepthSnapshot{}, fmt.Errorf("simulation: unknown symbol %q", symbol)
	}
	return book.Snapshot(depth), nil
}

// AgentSummaryRow is one row of get_agent_summary() (§6).
type AgentSummaryRow struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// GetAgentSummary answers get_agent_summary().
func (s *Simulation) GetAgentSummary() []AgentSummaryRow {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	var order []string
	for _, a := range s.engine.Agents() {
		t := a.TypeName()
		if _, ok := counts[t]; !ok {
			order = append(order, t)
		}
		counts[t]++
	}

	out := make([]AgentSummaryRow, 0, len(order))
	for _, t := range order {
		out = append(out, AgentSummaryRow{Type: t, Count: counts[t]})
	}
	return out
}

// GetMetrics answers get_metrics().
func (s *Simulation) GetMetrics() metrics.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.m.Snapshot()
}

// GetCandles answers get_candles(symbol, interval, since, limit).
func (s *Simulation) GetCandles(symbol, interval string, since int64, limit int) ([]candle.Candle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.Candles().GetCandles(symbol, interval, since, limit)
}

// GetAllCandles answers get_all_candles(interval, since).
func (s *Simulation) GetAllCandles(interval string, since int64) (map[string][]candle.Candle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.Candles().GetAllCandles(interval, since)
}

// GetRecentTrades answers get_recent_trades(symbol?, limit).
func (s *Simulation) GetRecentTrades(symbol string, limit int) []orderbook.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.RecentTrades(symbol, limit)
}

// GetNewsHistory answers get_news_history(limit).
func (s *Simulation) GetNewsHistory(limit int) []news.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.News().History(limit)
}

// GetConfig answers get_config(): the RuntimeConfig currently in effect.
func (s *Simulation) GetConfig() config.RuntimeConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.engine.Config()
}

// GetDefaultConfig answers get_default_config(): the reference RuntimeConfig,
// independent of whatever this run is currently configured with.
func (s *Simulation) GetDefaultConfig() config.RuntimeConfig {
	return *config.Default()
}
