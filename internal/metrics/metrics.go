// Package metrics wires an OpenTelemetry meter backed by a Prometheus
// exporter for scraping, and mirrors the same counts into plain in-process
// state so the simulation can answer a synchronous get_metrics() query
// without round-tripping through the Prometheus registry.
package metrics

import (
	"context"
	"net/http"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Metrics holds the otel instruments exported for scraping.
type Metrics struct {
	TicksTotal     metric.Int64Counter
	TradesTotal    metric.Int64Counter
	OrdersTotal    metric.Int64Counter
	TradeVolume    metric.Int64Counter
	Spread         metric.Float64Histogram
	AgentPnL       metric.Float64Histogram
	CircuitBreaker metric.Int64Counter

	mu            sync.Mutex
	totalTicks    int64
	totalTrades   int64
	totalOrders   int64
	totalVolume   int64
	spreadSum     float64
	spreadCount   int64
	perAgentType  map[string]*AgentTypeStats
}

// AgentTypeStats is the in-process summary kept per agent type.
type AgentTypeStats struct {
	OrdersSubmitted int64
	TradesFilled    int64
	VolumeFilled    int64
}

// Summary is the synchronous snapshot returned by get_metrics().
type Summary struct {
	TotalTicks   int64
	TotalTrades  int64
	TotalOrders  int64
	TotalVolume  int64
	AvgSpread    float64
	PerAgentType map[string]AgentTypeStats
}

// Setup builds the meter provider, registers every instrument, and returns
// the Prometheus scrape handler alongside the Metrics handle.
func Setup(serviceName string) (*Metrics, http.Handler, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, err
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)
	meter := provider.Meter(serviceName)

	m := &Metrics{perAgentType: make(map[string]*AgentTypeStats)}

	if m.TicksTotal, err = meter.Int64Counter(
		"commoditysim_ticks_total",
		metric.WithDescription("Total number of simulation ticks advanced"),
	); err != nil {
		return nil, nil, err
	}
	if m.TradesTotal, err = meter.Int64Counter(
		"commoditysim_trades_total",
		metric.WithDescription("Total number of trades executed"),
	); err != nil {
		return nil, nil, err
	}
	if m.OrdersTotal, err = meter.Int64Counter(
		"commoditysim_orders_total",
		metric.WithDescription("Total number of orders submitted"),
	); err != nil {
		return nil, nil, err
	}
	if m.TradeVolume, err = meter.Int64Counter(
		"commoditysim_trade_volume_total",
		metric.WithDescription("Total quantity traded across all commodities"),
	); err != nil {
		return nil, nil, err
	}
	if m.Spread, err = meter.Float64Histogram(
		"commoditysim_spread",
		metric.WithDescription("Observed bid/ask spread at each tick"),
	); err != nil {
		return nil, nil, err
	}
	if m.AgentPnL, err = meter.Float64Histogram(
		"commoditysim_agent_pnl",
		metric.WithDescription("Per-agent mark-to-market P&L sampled periodically"),
	); err != nil {
		return nil, nil, err
	}
	if m.CircuitBreaker, err = meter.Int64Counter(
		"commoditysim_circuit_breaker_trips_total",
		metric.WithDescription("Total number of circuit breaker trips"),
	); err != nil {
		return nil, nil, err
	}

	return m, promhttp.Handler(), nil
}

// RecordTick records one engine tick advance.
func (m *Metrics) RecordTick(ctx context.Context) {
	m.TicksTotal.Add(ctx, 1)
	m.mu.Lock()
	m.totalTicks++
	m.mu.Unlock()
}

// RecordOrder records one order submission by a given agent type.
func (m *Metrics) RecordOrder(ctx context.Context, agentType string) {
	m.OrdersTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("agent_type", agentType)))
	m.mu.Lock()
	m.totalOrders++
	m.statsFor(agentType).OrdersSubmitted++
	m.mu.Unlock()
}

// RecordTrade records one trade for a symbol, attributing fill volume to
// both the buying and the selling agent's type.
func (m *Metrics) RecordTrade(ctx context.Context, symbol, buyerType, sellerType string, quantity int64) {
	attrs := metric.WithAttributes(attribute.String("symbol", symbol))
	m.TradesTotal.Add(ctx, 1, attrs)
	m.TradeVolume.Add(ctx, quantity, attrs)

	m.mu.Lock()
	m.totalTrades++
	m.totalVolume += quantity
	m.statsFor(buyerType).TradesFilled++
	m.statsFor(buyerType).VolumeFilled += quantity
	m.statsFor(sellerType).TradesFilled++
	m.statsFor(sellerType).VolumeFilled += quantity
	m.mu.Unlock()
}

// RecordSpread records one bid/ask spread observation for a symbol.
func (m *Metrics) RecordSpread(ctx context.Context, symbol string, spread float64) {
	m.Spread.Record(ctx, spread, metric.WithAttributes(attribute.String("symbol", symbol)))
	m.mu.Lock()
	m.spreadSum += spread
	m.spreadCount++
	m.mu.Unlock()
}

// RecordAgentPnL records one agent's mark-to-market P&L sample.
func (m *Metrics) RecordAgentPnL(ctx context.Context, agentType string, pnl float64) {
	m.AgentPnL.Record(ctx, pnl, metric.WithAttributes(attribute.String("agent_type", agentType)))
}

// RecordCircuitBreakerTrip records one circuit breaker activation.
func (m *Metrics) RecordCircuitBreakerTrip(ctx context.Context, symbol string) {
	m.CircuitBreaker.Add(ctx, 1, metric.WithAttributes(attribute.String("symbol", symbol)))
}

// statsFor returns (creating if absent) the AgentTypeStats for a type.
// Caller must hold m.mu.
func (m *Metrics) statsFor(agentType string) *AgentTypeStats {
	s, ok := m.perAgentType[agentType]
	if !ok {
		s = &AgentTypeStats{}
		m.perAgentType[agentType] = s
	}
	return s
}

// Snapshot returns a synchronous summary of everything recorded so far.
func (m *Metrics) Snapshot() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	avgSpread := 0.0
	if m.spreadCount > 0 {
		avgSpread = m.spreadSum / float64(m.spreadCount)
	}

	perType := make(map[string]AgentTypeStats, len(m.perAgentType))
	for k, v := range m.perAgentType {
		perType[k] = *v
	}

	return Summary{
		TotalTicks:   m.totalTicks,
		TotalTrades:  m.totalTrades,
		TotalOrders:  m.totalOrders,
		TotalVolume:  m.totalVolume,
		AvgSpread:    avgSpread,
		PerAgentType: perType,
	}
}

// Reset zeroes every in-process counter.
// The otel/Prometheus side is cumulative by design and is left untouched.
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.totalTicks, m.totalTrades, m.totalOrders, m.totalVolume = 0, 0, 0, 0
	m.spreadSum, m.spreadCount = 0, 0
	m.perAgentType = make(map[string]*AgentTypeStats)
}

// AgentTypes returns the agent type keys currently tracked, sorted for
// stable output.
func (m *Metrics) AgentTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.perAgentType))
	for k := range m.perAgentType {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
