package agent

import (
	"github.com/ndrandal/commoditysim/internal/commodity"
	"github.com/ndrandal/commoditysim/internal/config"
	"github.com/ndrandal/commoditysim/internal/marketrand"
	"github.com/shopspring/decimal"
)

// typeOrder is the fixed iteration order the factory builds agent types
// in, and (within the engine) the order agent snapshots are fed — stable
// across runs for the determinism contract.
var typeOrder = []string{
	"fundamental", "momentum", "meanReversion", "noise", "marketMaker",
	"supplyDemand", "crossEffects", "inventory", "event",
}

// BuildPopulation constructs the full agent roster from RuntimeConfig,
// assigning each instance one symbol round-robin across the catalog and
// sampling its distribution parameters from the configured per-type
// AgentParams. Agent ids start at 1; id 0 is reserved for externally
// submitted user orders (§6).
func BuildPopulation(cfg *config.RuntimeConfig, listings []commodity.Listing, rng *marketrand.RNG) []Agent {
	if len(listings) == 0 {
		return nil
	}
	symbols := make([]string, len(listings))
	categoryBySymbol := make(map[string]commodity.Category, len(listings))
	byCategory := make(map[commodity.Category][]string)
	for i, l := range listings {
		symbols[i] = l.Symbol
		categoryBySymbol[l.Symbol] = l.Category
		byCategory[l.Category] = append(byCategory[l.Category], l.Symbol)
	}

	counts := map[string]int{
		"fundamental":   cfg.Agents.Fundamental,
		"momentum":      cfg.Agents.Momentum,
		"meanReversion": cfg.Agents.MeanReversion,
		"noise":         cfg.Agents.Noise,
		"marketMaker":   cfg.Agents.MarketMaker,
		"supplyDemand":  cfg.Agents.SupplyDemand,
		"crossEffects":  cfg.Agents.CrossEffects,
		"inventory":     cfg.Agents.Inventory,
		"event":         cfg.Agents.Event,
	}

	var nextID uint64 = 1
	var out []Agent

	for _, typeName := range typeOrder {
		n := counts[typeName]
		ap := cfg.AgentParams[typeName]
		for i := 0; i < n; i++ {
			symbol := symbols[i%len(symbols)]
			cash := sampleInitialCash(ap, rng)
			params := sampleParams(ap, cfg.Engine.SentimentDecay, rng)
			id := nextID
			nextID++

			switch typeName {
			case "fundamental":
				threshold := rng.TruncatedGaussian(0.01, 0.01, 0.002, 0.05)
				out = append(out, NewFundamentalAgent(id, symbol, cash, params, threshold))
			case "momentum":
				short := 3 + rng.Intn(5)
				long := short + 5 + rng.Intn(15)
				out = append(out, NewMomentumAgent(id, symbol, cash, params, short, long))
			case "meanReversion":
				lookback := 10 + rng.Intn(40)
				threshold := rng.TruncatedGaussian(1.5, 0.5, 0.5, 3.0)
				out = append(out, NewMeanReversionAgent(id, symbol, cash, params, lookback, threshold))
			case "noise":
				activity := rng.TruncatedGaussian(0.3, 0.15, 0.02, 0.9)
				out = append(out, NewNoiseAgent(id, symbol, cash, params, activity))
			case "marketMaker":
				mm := cfg.MarketMaker
				out = append(out, NewMarketMakerAgent(id, symbol, cash, params,
					mm.FundamentalWeight, mm.BaseSpreadBps, mm.VolatilitySpreadMultiplier,
					mm.InventorySkew, mm.InventoryCap))
			case "supplyDemand":
				threshold := rng.TruncatedGaussian(0.1, 0.05, 0.02, 0.4)
				out = append(out, NewSupplyDemandAgent(id, symbol, cash, params, threshold))
			case "crossEffects":
				peer := pickPeer(symbol, categoryBySymbol[symbol], byCategory, symbols, rng)
				coefficient := rng.TruncatedGaussian(0.4, 0.2, 0.1, 0.9)
				threshold := rng.TruncatedGaussian(0.01, 0.005, 0.002, 0.03)
				out = append(out, NewCrossEffectsAgent(id, symbol, peer, cash, params, coefficient, 10, threshold))
			case "inventory":
				target := rng.TruncatedGaussian(0.1, 0.05, 0.0, 0.3)
				band := rng.TruncatedGaussian(0.03, 0.01, 0.005, 0.08)
				out = append(out, NewInventoryAgent(id, symbol, cash, params, target, band))
			case "event":
				out = append(out, NewEventAgent(id, symbol, cash, params))
			}
		}
	}

	return out
}

// pickPeer returns another symbol in the same category, or any other
// symbol if the category has no other member.
func pickPeer(symbol string, category commodity.Category, byCategory map[commodity.Category][]string, allSymbols []string, rng *marketrand.RNG) string {
	peers := byCategory[category]
	var candidates []string
	for _, p := range peers {
		if p != symbol {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		for _, p := range allSymbols {
			if p != symbol {
				candidates = append(candidates, p)
			}
		}
	}
	if len(candidates) == 0 {
		return symbol
	}
	return candidates[rng.Intn(len(candidates))]
}

// sampleParams draws the per-agent distribution parameters: log-normal
// horizon, exponential reaction speed, Gaussian risk aversion, uniform
// confidence/news weight (§4.7).
func sampleParams(ap config.AgentTypeParams, sentimentDecay float64, rng *marketrand.RNG) Params {
	return Params{
		RiskAversion:    rng.TruncatedGaussian(ap.RiskAversionMean, ap.RiskAversionSigma, 0, 2),
		ReactionSpeed:   rng.Exponential(ap.ReactionSpeedRate),
		NewsWeight:      uniform(rng, ap.NewsWeightMin, ap.NewsWeightMax),
		Confidence:      uniform(rng, ap.ConfidenceMin, ap.ConfidenceMax),
		HorizonTicks:    rng.LogNormal(ap.HorizonMu, ap.HorizonSigma),
		CapitalFraction: ap.CapitalFraction,
		MaxOrderSize:    ap.MaxOrderSize,
		CashReserve:     ap.CashReserve,
		ShortCap:        ap.ShortCap,
		SentimentDecay:  sentimentDecay,
	}
}

// sampleInitialCash draws from a Gaussian truncated at a configured floor,
// capped at 5x the configured mean to keep the distribution's tail finite.
func sampleInitialCash(ap config.AgentTypeParams, rng *marketrand.RNG) decimal.Decimal {
	v := rng.TruncatedGaussian(ap.InitialCashMean, ap.InitialCashSigma, ap.InitialCashFloor, ap.InitialCashMean*5)
	return decimal.NewFromFloat(v)
}

func uniform(rng *marketrand.RNG, min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + rng.Float64()*(max-min)
}
