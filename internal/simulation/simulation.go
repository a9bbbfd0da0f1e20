// Package simulation drives the tick-by-tick or fast-forward execution of
// a MarketEngine behind a single reader/writer lock, and answers the
// read-only query surface and write commands external callers use to
// observe and steer a run (§4.8/§5/§6).
package simulation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ndrandal/commoditysim/internal/config"
	"github.com/ndrandal/commoditysim/internal/engine"
	"github.com/ndrandal/commoditysim/internal/metrics"
	"github.com/ndrandal/commoditysim/internal/orderbook"
)

// State is one of the four lifecycle states §4.8 names.
type State string

const (
	StateIdle        State = "idle"
	StateRunning     State = "running"
	StatePaused      State = "paused"
	StatePopulating  State = "populating"
)

// Simulation owns a MarketEngine and the reader/writer lock guarding it
// (§5): readers (queries) take a read guard, writers (tick, populate,
// commands) take the write guard. Only the run-loop goroutine and
// synchronous command callers ever draw from the engine's RNG, per the
// single-writer determinism contract.
type Simulation struct {
	mu sync.RWMutex

	id     string
	engine *engine.MarketEngine
	logger *zap.SugaredLogger
	cfg    *config.RuntimeConfig
	m      *metrics.Metrics

	state State

	cancel context.CancelFunc
	wg     sync.WaitGroup

	tickBuffer *TickBuffer

	populateCurrent int
	populateTarget  int

	tickScratch []orderbook.Trade
}

// New builds an idle Simulation from a RuntimeConfig. id is a fresh
// google/uuid run identifier (§2's domain-stack wiring), returned by ID()
// to distinguish concurrently running instances.
func New(cfg *config.RuntimeConfig, logger *zap.SugaredLogger, m *metrics.Metrics) (*Simulation, error) {
	eng, err := engine.New(cfg, logger, m)
	if err != nil {
		return nil, fmt.Errorf("simulation: build engine: %w", err)
	}
	s := &Simulation{
		id:         uuid.New().String(),
		engine:     eng,
		logger:     logger,
		cfg:        cfg,
		m:          m,
		state:      StateIdle,
		tickBuffer: NewTickBuffer(cfg.Simulation.TickBufferCapacity),
	}
	eng.SetTradeListener(s.onTrade)
	return s, nil
}

// ID returns this run's stable identifier.
func (s *Simulation) ID() string { return s.id }

// onTrade is the engine's trade listener; it buffers trades for the
// in-flight tick so recordTickLocked can build the tick buffer's OHLCV row once the
// tick finishes. Called synchronously from inside the write guard, so no
// locking of its own is needed.
func (s *Simulation) onTrade(t orderbook.Trade) {
	s.tickScratch = append(s.tickScratch, t)
}

// Start transitions idle -> running and launches the run-loop goroutine,
// which ticks every cfg.Simulation.TickRateMs until Stop is called or the
// loop is paused (§4.8).
func (s *Simulation) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return fmt.Errorf("simulation: cannot start from state %q", s.state)
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.state = StateRunning

	s.wg.Add(1)
	go s.runLoop(ctx)
	return nil
}

// Stop signals the run loop to exit at the next tick boundary, joins it,
// and returns to idle. A writer already inside a tick is allowed to
// finish; there is no tick preemption (§5).
func (s *Simulation) Stop() error {
	s.mu.Lock()
	if s.state != StateRunning && s.state != StatePaused {
		s.mu.Unlock()
		return fmt.Errorf("simulation: cannot stop from state %q", s.state)
	}
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()

	s.mu.Lock()
	s.state = StateIdle
	s.cancel = nil
	s.mu.Unlock()
	return nil
}

// Pause transitions running -> paused. The run loop keeps its ticker alive
// but skips ticking while paused, so Resume needs no new goroutine.
func (s *Simulation) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRunning {
		return fmt.Errorf("simulation: cannot pause from state %q", s.state)
	}
	s.state = StatePaused
	return nil
}

// Resume transitions paused -> running.
func (s *Simulation) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StatePaused {
		return fmt.Errorf("simulation: cannot resume from state %q", s.state)
	}
	s.state = StateRunning
	return nil
}

// runLoop is the dedicated tick thread (§4.8/§5). Suspension points are
// exactly the ticker wait and the write-lock acquisition; nothing inside a
// tick itself blocks.
func (s *Simulation) runLoop(ctx context.Context) {
	defer s.wg.Done()

	interval := time.Duration(s.cfg.Simulation.TickRateMs) * time.Millisecond
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.state == StateRunning {
				s.runTickLocked()
			}
			s.mu.Unlock()
		}
	}
}

// runTickLocked advances the engine exactly one tick and records the
// resulting OHLCV + news rows into the tick buffer. Caller must hold s.mu
// for writing.
func (s *Simulation) runTickLocked() {
	s.tickScratch = s.tickScratch[:0]
	s.engine.Tick()
	s.recordTickLocked()
}

// recordTickLocked builds this tick's per-symbol OHLCV row from whatever
// trades runTickLocked's listener captured (falling back to the
// commodity's current price with zero volume when none traded) and
// appends it, along with any news events timestamped this tick, to the
// tick buffer.
func (s *Simulation) recordTickLocked() {
	nowMs := s.engine.Clock().NowMs()
	tickIdx := s.engine.Clock().TotalTicks()

	rows := make(map[string]TickRow, len(s.engine.Symbols()))
	for _, symbol := range s.engine.Symbols() {
		c := s.engine.Commodity(symbol)
		rows[symbol] = TickRow{Open: c.Price, High: c.Price, Low: c.Price, Close: c.Price, Volume: 0}
	}
	for _, t := range s.tickScratch {
		row, ok := rows[t.Symbol]
		if !ok {
			continue
		}
		if row.Volume == 0 {
			row.Open = t.Price
			row.High = t.Price
			row.Low = t.Price
		} else {
			if t.Price.GreaterThan(row.High) {
				row.High = t.Price
			}
			if t.Price.LessThan(row.Low) {
				row.Low = t.Price
			}
		}
		row.Close = t.Price
		row.Volume += t.Quantity
		rows[t.Symbol] = row
	}
	s.tickBuffer.Record(tickIdx, rows)

	history := s.engine.News().History(0)
	var tickNews []newsRow
	for i := len(history) - 1; i >= 0 && history[i].Timestamp == nowMs; i-- {
		e := history[i]
		tickNews = append(tickNews, newsRow{
			Symbol:    e.Target,
			Category:  string(e.Category),
			Sentiment: string(e.Sentiment),
			Magnitude: e.Magnitude,
			Headline:  e.Headline,
		})
	}
	if len(tickNews) > 0 {
		s.tickBuffer.RecordNews(tickIdx, tickNews)
	}
}

// Step synchronously advances n ticks under the write lock (§4.8). Allowed
// from idle or paused only — a live run-loop goroutine is already the
// sole writer while running, and letting a second caller tick
// concurrently would violate the single-writer determinism contract.
func (s *Simulation) Step(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateRunning || s.state == StatePopulating {
		return fmt.Errorf("simulation: cannot step from state %q", s.state)
	}
	for i := 0; i < n; i++ {
		s.runTickLocked()
	}
	return nil
}

// Reset stops any run loop, clears the engine back to its initial state,
// and clears the tick buffer (§4.8's "reset stops and clears").
func (s *Simulation) Reset() error {
	s.mu.Lock()
	if s.state == StateRunning || s.state == StatePaused {
		cancel := s.cancel
		s.mu.Unlock()
		cancel()
		s.wg.Wait()
		s.mu.Lock()
		s.cancel = nil
	}
	defer s.mu.Unlock()

	s.engine.Reset()
	s.tickBuffer = NewTickBuffer(s.cfg.Simulation.TickBufferCapacity)
	s.state = StateIdle
	return nil
}
