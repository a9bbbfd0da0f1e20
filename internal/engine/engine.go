// Package engine orchestrates one simulation tick: steps the news process,
// updates fundamentals and supply/demand, snapshots market state for the
// agent population, ingests and matches their orders, and applies the
// resulting trades back onto commodities, agents, candles and metrics.
//
// MarketEngine owns every long-lived piece of market state (commodities,
// order books, agents, the candle aggregator, the news generator, the sim
// clock) directly rather than through back-pointers, per §9's inversion of
// the engine/component cyclic reference. Callers (internal/simulation) are
// responsible for holding the write lock for the duration of Tick and every
// other exported method; MarketEngine does no locking of its own beyond
// what its owned collaborators already do internally.
package engine

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/ndrandal/commoditysim/internal/agent"
	"github.com/ndrandal/commoditysim/internal/candle"
	"github.com/ndrandal/commoditysim/internal/commodity"
	"github.com/ndrandal/commoditysim/internal/config"
	"github.com/ndrandal/commoditysim/internal/marketrand"
	"github.com/ndrandal/commoditysim/internal/metrics"
	"github.com/ndrandal/commoditysim/internal/news"
	"github.com/ndrandal/commoditysim/internal/orderbook"
	"github.com/ndrandal/commoditysim/internal/simclock"
	"github.com/shopspring/decimal"
)

// TradeListener is invoked synchronously, once per trade, from inside Tick
// after the trade's effects have already been applied to agents and the
// commodity (§9's "trade callback" design note).
type TradeListener func(orderbook.Trade)

// MarketEngine is the tick-driven core: commodities, order books, agents,
// the candle aggregator, the news generator and the sim clock, plus the
// macro/industry shock state that feeds fundamental updates.
type MarketEngine struct {
	logger *zap.SugaredLogger

	cfg *config.RuntimeConfig
	rng *marketrand.RNG

	clock   *simclock.Clock
	news    *news.Generator
	candles *candle.Aggregator
	metrics *metrics.Metrics

	listings    []commodity.Listing
	symbols     []string
	commodities map[string]*commodity.Commodity
	books       map[string]*orderbook.Book

	agents  []agent.Agent
	byAgent map[uint64]agent.Agent

	macroSentiment float64
	industryShock  map[commodity.Category]float64

	recentTrades    []orderbook.Trade
	recentTradesCap int

	tradeListener TradeListener
}

// New builds a MarketEngine from scratch: a fresh RNG seeded from
// cfg.Simulation.Seed, a fresh SimClock, the full commodity catalog, empty
// order books, a freshly built agent population, and registered candle
// series for every symbol.
func New(cfg *config.RuntimeConfig, logger *zap.SugaredLogger, m *metrics.Metrics) (*MarketEngine, error) {
	clock, err := simclock.New(cfg.Simulation.StartDate, cfg.Simulation.TicksPerDay, cfg.Simulation.ReferenceTicksPerDay)
	if err != nil {
		return nil, fmt.Errorf("engine: build sim clock: %w", err)
	}

	e := &MarketEngine{
		logger:          logger,
		cfg:             cfg,
		rng:             marketrand.New(cfg.Simulation.Seed),
		clock:           clock,
		candles:         candle.New(),
		metrics:         m,
		industryShock:   make(map[commodity.Category]float64),
		recentTradesCap: cfg.Engine.RecentTradesCapacity,
	}
	e.buildNews()
	e.buildMarket()
	return e, nil
}

func (e *MarketEngine) buildNews() {
	industries := make([]string, 0, len(commodity.Categories()))
	for _, c := range commodity.Categories() {
		industries = append(industries, string(c))
	}
	e.news = news.New(e.rng, e.cfg.News.Lambda,
		news.CategoryWeights(e.cfg.News.Weights),
		news.MagnitudeSigma(e.cfg.News.MagnitudeSigma),
		industries, e.symbolsOrCatalog())
}

func (e *MarketEngine) symbolsOrCatalog() []string {
	listings := commodity.AllListings()
	out := make([]string, len(listings))
	for i, l := range listings {
		out[i] = l.Symbol
	}
	return out
}

// buildMarket (re)builds commodities, order books and agents from e.cfg. It
// is shared by New and Reinitialize.
func (e *MarketEngine) buildMarket() {
	e.listings = commodity.AllListings()
	sort.Slice(e.listings, func(i, j int) bool { return e.listings[i].Symbol < e.listings[j].Symbol })

	tuning := commodity.Tuning{
		ImpactDampening:       e.cfg.Commodity.ImpactDampening,
		FundamentalShockClamp: e.cfg.Engine.FundamentalShockClamp,
		MaxDailyMove:          e.cfg.Commodity.MaxDailyMove,
		PriceFloor:            decimal.NewFromFloat(e.cfg.Commodity.PriceFloor),
		DecayRate:             e.cfg.Commodity.DecayRate,
	}

	e.commodities = make(map[string]*commodity.Commodity, len(e.listings))
	e.books = make(map[string]*orderbook.Book, len(e.listings))
	e.symbols = make([]string, 0, len(e.listings))
	for _, l := range e.listings {
		e.commodities[l.Symbol] = commodity.New(l, tuning)
		e.books[l.Symbol] = orderbook.NewBook(l.Symbol, e.cfg.OrderBook.MaxOrderAgeMs)
		e.candles.RegisterSymbol(l.Symbol)
		e.symbols = append(e.symbols, l.Symbol)
	}

	e.agents = agent.BuildPopulation(e.cfg, e.listings, e.rng)
	e.byAgent = make(map[uint64]agent.Agent, len(e.agents))
	for _, a := range e.agents {
		e.byAgent[a.ID()] = a
	}

	e.industryShock = make(map[commodity.Category]float64)
}

// SetTradeListener installs (or clears, with nil) the synchronous
// per-trade callback.
func (e *MarketEngine) SetTradeListener(fn TradeListener) { e.tradeListener = fn }

// Clock returns the engine's sim clock.
func (e *MarketEngine) Clock() *simclock.Clock { return e.clock }

// Config returns the engine's current RuntimeConfig.
func (e *MarketEngine) Config() *config.RuntimeConfig { return e.cfg }

// Commodity returns the named commodity, or nil if unknown.
func (e *MarketEngine) Commodity(symbol string) *commodity.Commodity { return e.commodities[symbol] }

// Commodities returns every commodity, stable symbol order.
func (e *MarketEngine) Commodities() []*commodity.Commodity {
	out := make([]*commodity.Commodity, 0, len(e.symbols))
	for _, s := range e.symbols {
		out = append(out, e.commodities[s])
	}
	return out
}

// Book returns the named order book, or nil if unknown.
func (e *MarketEngine) Book(symbol string) *orderbook.Book { return e.books[symbol] }

// Symbols returns the catalog's symbols in stable order.
func (e *MarketEngine) Symbols() []string { return e.symbols }

// Agents returns the full agent population in stable id order.
func (e *MarketEngine) Agents() []agent.Agent { return e.agents }

// News returns the engine's news generator.
func (e *MarketEngine) News() *news.Generator { return e.news }

// Candles returns the engine's candle aggregator.
func (e *MarketEngine) Candles() *candle.Aggregator { return e.candles }

// RecentTrades returns up to limit of the most recently recorded trades,
// optionally filtered to one symbol. limit <= 0 means unbounded.
func (e *MarketEngine) RecentTrades(symbol string, limit int) []orderbook.Trade {
	var out []orderbook.Trade
	for i := len(e.recentTrades) - 1; i >= 0; i-- {
		t := e.recentTrades[i]
		if symbol != "" && t.Symbol != symbol {
			continue
		}
		out = append(out, t)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// PlaceOrder submits an externally originated order (agent id 0, per §6)
// directly into the named book and runs a match pass, applying any
// resulting trades exactly as Tick's step 6 does. Returns the assigned
// order id and the trades this order participated in.
func (e *MarketEngine) PlaceOrder(o orderbook.Order) (uint64, []orderbook.Trade, error) {
	book, ok := e.books[o.Symbol]
	if !ok {
		return 0, nil, fmt.Errorf("engine: unknown symbol %q", o.Symbol)
	}
	o.AgentID = 0
	if o.AgentType == "" {
		o.AgentType = "user"
	}
	now := e.clock.NowMs()
	id, err := book.AddOrder(o, now)
	if err != nil {
		return 0, nil, fmt.Errorf("engine: place order: %w", err)
	}
	e.metrics.RecordOrder(context.Background(), o.AgentType)
	trades := book.Match(now)
	for _, t := range trades {
		e.applyTrade(t)
	}
	return id, trades, nil
}

// InjectNews enqueues one externally specified event for the next tick.
func (e *MarketEngine) InjectNews(ev news.Event) { e.news.Inject(ev) }

// Reinitialize rebuilds commodities, order books and the agent population
// from the current RuntimeConfig. The sim clock and RNG stream are left
// running; candle history, news history and queue, recent trades and macro
// sentiment are cleared (§4.6/§4.8 — distinguished from Reset, which also
// replaces the clock and RNG).
func (e *MarketEngine) Reinitialize() {
	e.buildMarket()
	e.news.Reset()
	e.candles.Reset()
	for _, s := range e.symbols {
		e.candles.RegisterSymbol(s)
	}
	e.recentTrades = nil
	e.macroSentiment = 0
}

// Reset clears all engine state: a fresh clock, fresh commodities/books/
// agents, and empty news/candle/trade history.
func (e *MarketEngine) Reset() {
	clock, err := simclock.New(e.cfg.Simulation.StartDate, e.cfg.Simulation.TicksPerDay, e.cfg.Simulation.ReferenceTicksPerDay)
	if err == nil {
		e.clock = clock
	}
	e.rng = marketrand.New(e.cfg.Simulation.Seed)
	e.buildNews()
	e.candles.Reset()
	e.buildMarket()
	e.recentTrades = nil
	e.macroSentiment = 0
}

// ApplyConfig hot-propagates RuntimeConfig values that take effect between
// ticks without a reinitialize: tick cadence, news tuning, per-commodity
// tunables, and order-book expiry (§9's "Hot-reconfiguration" design note).
func (e *MarketEngine) ApplyConfig(cfg *config.RuntimeConfig) {
	e.cfg = cfg
	e.clock.SetTicksPerDay(cfg.Simulation.TicksPerDay)
	e.news.SetLambda(cfg.News.Lambda)
	e.news.SetMagnitudeSigma(news.MagnitudeSigma(cfg.News.MagnitudeSigma))
	e.news.SetCategoryWeights(news.CategoryWeights(cfg.News.Weights))
	e.recentTradesCap = cfg.Engine.RecentTradesCapacity

	tuning := commodity.Tuning{
		ImpactDampening:       cfg.Commodity.ImpactDampening,
		FundamentalShockClamp: cfg.Engine.FundamentalShockClamp,
		MaxDailyMove:          cfg.Commodity.MaxDailyMove,
		PriceFloor:            decimal.NewFromFloat(cfg.Commodity.PriceFloor),
		DecayRate:             cfg.Commodity.DecayRate,
	}
	for _, c := range e.commodities {
		c.Tuning = tuning
	}
	for _, b := range e.books {
		b.SetMaxOrderAgeMs(cfg.OrderBook.MaxOrderAgeMs)
	}
}
