package engine

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/ndrandal/commoditysim/internal/agent"
	"github.com/ndrandal/commoditysim/internal/commodity"
	"github.com/ndrandal/commoditysim/internal/news"
	"github.com/ndrandal/commoditysim/internal/orderbook"
)

// Tick runs one full simulation step, in the order fixed by §4.6:
//  1. advance the clock, handling a day boundary if one was just crossed
//  2. step the news process and update the macro/industry sentiment state
//  3. update every commodity's fundamental value
//  4. update every commodity's supply/demand state
//  5. snapshot market state and poll every agent for orders
//  6. ingest and match orders, applying every resulting trade
//  7. notify the candle aggregator of a zero-volume print for any symbol
//     that saw no trade this tick
//
// Tick never returns an error: per §7, agent runtime failures are isolated
// (logged, that agent's orders for the tick are dropped) rather than
// aborting the tick, and a circuit breaker trip is handled inside the
// commodity rather than raised.
func (e *MarketEngine) Tick() {
	ctx := context.Background()
	nowMs := e.clock.Tick()
	isNewDay := e.clock.IsNewDay()
	tickScale := e.clock.TickScale()

	if isNewDay {
		for _, c := range e.commodities {
			c.ResetCircuitBreaker()
			c.MarkDayOpen()
			c.ResetDailyVolume()
		}
	}

	events := e.stepNews(nowMs, tickScale)
	e.updateFundamentals(events, tickScale)
	e.updateSupplyDemand(tickScale)

	snapshot := e.buildSnapshot(nowMs, tickScale, events)
	traded := e.pollAgents(snapshot, ctx)

	for symbol := range e.commodities {
		if !traded[symbol] {
			price := e.commodities[symbol].Price
			e.candles.OnTick(symbol, price, 0, nowMs)
		}
	}

	e.metrics.RecordTick(ctx)
}

// stepNews advances the news generator and folds this tick's events into
// the macro sentiment scalar, the per-category industry shock map, and
// each affected commodity's supply/demand state.
func (e *MarketEngine) stepNews(nowMs int64, tickScale float64) []news.Event {
	events := e.news.Step(nowMs, tickScale)

	decay := e.cfg.Engine.MacroSentimentDecay
	e.macroSentiment = e.cfg.Engine.MacroSentimentMean + (e.macroSentiment-e.cfg.Engine.MacroSentimentMean)*decay
	e.macroSentiment += e.rng.Gaussian() * e.cfg.Engine.MacroNoiseSigma

	industryDecay := e.cfg.Engine.IndustryShockDecay
	for cat := range e.industryShock {
		e.industryShock[cat] *= industryDecay
	}

	for _, ev := range events {
		signed := signedMagnitude(ev)
		switch ev.Category {
		case news.CategoryGlobal, news.CategoryPolitical:
			e.macroSentiment += signed * 0.5
		case news.CategoryIndustry:
			cat := commodity.Category(ev.Target)
			e.industryShock[cat] += signed
		case news.CategorySupply:
			if c := e.commodities[ev.Target]; c != nil {
				c.ApplySupplyShock(signed)
			}
		case news.CategoryDemand:
			if c := e.commodities[ev.Target]; c != nil {
				c.ApplyDemandShock(signed)
			}
		}
	}
	return events
}

func signedMagnitude(e news.Event) float64 {
	switch e.Sentiment {
	case news.SentimentPositive:
		return e.Magnitude
	case news.SentimentNegative:
		return -e.Magnitude
	default:
		return 0
	}
}

// updateFundamentals applies growth drift, a bounded idiosyncratic company
// shock, the decayed industry shock for each commodity's category, and a
// news-driven shift from this tick's company/supply/demand events, clamped
// in total to FundamentalShockClamp (§4.6 step 3).
func (e *MarketEngine) updateFundamentals(events []news.Event, tickScale float64) {
	newsShift := make(map[string]float64, len(e.symbols))
	for _, ev := range events {
		if ev.Target == "" {
			continue
		}
		if _, ok := e.commodities[ev.Target]; !ok {
			continue
		}
		newsShift[ev.Target] += signedMagnitude(ev) * e.cfg.Engine.NewsToFundamentalScale
	}

	growth := e.cfg.Engine.AnnualGrowthRate / float64(e.cfg.Simulation.ReferenceTicksPerDay) * tickScale

	for _, symbol := range e.symbols {
		c := e.commodities[symbol]
		companyShock := e.rng.TruncatedGaussian(0, e.cfg.Engine.CompanyShockSigma, -3*e.cfg.Engine.CompanyShockSigma, 3*e.cfg.Engine.CompanyShockSigma)
		shift := growth + companyShock + e.industryShock[c.Category] + newsShift[symbol]

		clamp := e.cfg.Engine.FundamentalShockClamp
		if shift > clamp {
			shift = clamp
		} else if shift < -clamp {
			shift = -clamp
		}

		factor := decimal.NewFromFloat(1 + shift)
		c.Fundamental = c.Fundamental.Mul(factor)
		if c.Fundamental.LessThan(c.Tuning.PriceFloor) {
			c.Fundamental = c.Tuning.PriceFloor
		}
	}
}

// updateSupplyDemand advances every commodity's production/consumption/
// inventory state (§4.6 step 4).
func (e *MarketEngine) updateSupplyDemand(tickScale float64) {
	for _, symbol := range e.symbols {
		e.commodities[symbol].UpdateSupplyDemand(tickScale, e.rng.Gaussian)
	}
}

// buildSnapshot assembles the immutable per-tick MarketSnapshot every
// agent reads from (§4.6 step 5). Inventory, sentiment and price-history
// fields mirror engine-level state computed earlier this tick; agents are
// free to ignore any field they don't use.
func (e *MarketEngine) buildSnapshot(nowMs int64, tickScale float64, events []news.Event) *agent.MarketSnapshot {
	n := len(e.symbols)
	snap := &agent.MarketSnapshot{
		SimTimeMs:         nowMs,
		TickScale:         tickScale,
		Prices:            make(map[string]decimal.Decimal, n),
		Fundamentals:      make(map[string]decimal.Decimal, n),
		Volatility:        make(map[string]float64, n),
		Mid:               make(map[string]decimal.Decimal, n),
		Imbalance:         make(map[string]float64, n),
		Inventory:         make(map[string]commodity.SupplyDemand, n),
		PriceHistory:      make(map[string][]decimal.Decimal, n),
		Categories:        make(map[string]commodity.Category, n),
		RecentNews:        events,
		GlobalSentiment:   e.macroSentiment,
		IndustrySentiment: make(map[string]float64, len(e.industryShock)),
		SymbolSentiment:   make(map[string]float64, n),
	}

	for cat, v := range e.industryShock {
		snap.IndustrySentiment[string(cat)] = v
	}

	for _, symbol := range e.symbols {
		c := e.commodities[symbol]
		book := e.books[symbol]

		snap.Prices[symbol] = c.Price
		snap.Fundamentals[symbol] = c.Fundamental
		snap.Volatility[symbol] = c.GetVolatilityEstimate(30)
		snap.Imbalance[symbol] = c.SupplyDemand.Imbalance()
		snap.Inventory[symbol] = c.SupplyDemand
		snap.Categories[symbol] = c.Category
		snap.PriceHistory[symbol] = c.History()
		snap.SymbolSentiment[symbol] = e.industryShock[c.Category] + e.macroSentiment

		if mid := book.MidPrice(); mid.Sign() > 0 {
			snap.Mid[symbol] = mid
		} else {
			snap.Mid[symbol] = c.Price
		}
	}
	return snap
}

// pollAgents iterates the population in stable id order, isolating any
// panic from an individual agent's OnTick so one misbehaving agent never
// aborts the tick (§7), then ingests and matches every resulting order.
// Returns the set of symbols that saw at least one trade this tick.
func (e *MarketEngine) pollAgents(snapshot *agent.MarketSnapshot, ctx context.Context) map[string]bool {
	traded := make(map[string]bool, len(e.symbols))

	for _, a := range e.agents {
		orders := e.safeOnTick(a, snapshot)
		for _, o := range orders {
			book, ok := e.books[o.Symbol]
			if !ok {
				e.logger.Warnw("agent order for unknown symbol dropped", "agent_id", a.ID(), "symbol", o.Symbol)
				continue
			}
			o.AgentID = a.ID()
			if _, err := book.AddOrder(o, snapshot.SimTimeMs); err != nil {
				e.logger.Warnw("agent order rejected", "agent_id", a.ID(), "symbol", o.Symbol, "err", err)
				continue
			}
			e.metrics.RecordOrder(ctx, o.AgentType)
		}
	}

	for _, symbol := range e.symbols {
		trades := e.books[symbol].Match(snapshot.SimTimeMs)
		for _, t := range trades {
			e.applyTrade(t)
			traded[symbol] = true
		}
	}
	return traded
}

// safeOnTick calls an agent's OnTick, recovering from any panic and
// logging it at warning level, returning no orders for that agent this
// tick (§7's agent-runtime-error isolation).
func (e *MarketEngine) safeOnTick(a agent.Agent, snapshot *agent.MarketSnapshot) (orders []orderbook.Order) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warnw("agent panicked during OnTick, orders dropped", "agent_id", a.ID(), "type", a.TypeName(), "panic", r)
			orders = nil
		}
	}()
	return a.OnTick(snapshot, e.rng)
}

// applyTrade applies one resolved trade to both participants' bookkeeping,
// the traded commodity's price/volume, the candle aggregator, metrics, the
// recent-trades ring, and the trade listener (§4.6 step 6).
func (e *MarketEngine) applyTrade(t orderbook.Trade) {
	if buyer, ok := e.byAgent[t.BuyerAgentID]; ok {
		buyer.OnFill(orderbook.Buy, t)
	}
	if seller, ok := e.byAgent[t.SellerAgentID]; ok {
		seller.OnFill(orderbook.Sell, t)
	}

	if c, ok := e.commodities[t.Symbol]; ok {
		c.ApplyTradePrice(t.Price, t.Quantity)
		c.AddVolume(t.Quantity)
	}

	e.candles.OnTick(t.Symbol, t.Price, t.Quantity, t.Timestamp)
	e.metrics.RecordTrade(context.Background(), t.Symbol, t.BuyerAgentType, t.SellerAgentType, t.Quantity)

	e.recentTrades = append(e.recentTrades, t)
	if e.recentTradesCap > 0 && len(e.recentTrades) > e.recentTradesCap {
		e.recentTrades = e.recentTrades[len(e.recentTrades)-e.recentTradesCap:]
	}

	if e.tradeListener != nil {
		e.tradeListener(t)
	}
}
