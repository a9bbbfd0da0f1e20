// Package config loads and hot-patches the simulation's RuntimeConfig: a
// tree of named parameter groups covering the simulation clock, the market
// engine's macro/fundamental dynamics, per-commodity tuning, the order
// book, agent population counts and per-type distribution parameters, the
// market maker, and the news generator.
package config

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// SimulationConfig controls the clock and populate cadence.
type SimulationConfig struct {
	StartDate               string `mapstructure:"startDate"`
	TickRateMs              int    `mapstructure:"tickRateMs"`
	TicksPerDay             int    `mapstructure:"ticksPerDay"`
	ReferenceTicksPerDay    int    `mapstructure:"referenceTicksPerDay"`
	PopulateTicksPerDay     int    `mapstructure:"populateTicksPerDay"`
	PopulateFineTicksPerDay int    `mapstructure:"populateFineTicksPerDay"`
	PopulateFineDays        int    `mapstructure:"populateFineDays"`
	TickBufferCapacity      int    `mapstructure:"tickBufferCapacity"`
	Seed                    int64  `mapstructure:"seed"`
}

// EngineConfig tunes the macro/fundamental/news-feedback layer of tick
// orchestration.
type EngineConfig struct {
	MacroSentimentMean     float64 `mapstructure:"macroSentimentMean"`
	MacroSentimentDecay    float64 `mapstructure:"macroSentimentDecay"`
	MacroNoiseSigma        float64 `mapstructure:"macroNoiseSigma"`
	AnnualGrowthRate       float64 `mapstructure:"annualGrowthRate"`
	CompanyShockSigma      float64 `mapstructure:"companyShockSigma"`
	IndustryShockDecay     float64 `mapstructure:"industryShockDecay"`
	NewsToFundamentalScale float64 `mapstructure:"newsToFundamentalScale"`
	FundamentalShockClamp  float64 `mapstructure:"fundamentalShockClamp"`
	SentimentDecay         float64 `mapstructure:"sentimentDecay"`
	RecentTradesCapacity   int     `mapstructure:"recentTradesCapacity"`
}

// CommodityConfig is the hot-settable tuning applied to every commodity.
type CommodityConfig struct {
	ImpactDampening float64 `mapstructure:"impactDampening"`
	MaxDailyMove    float64 `mapstructure:"maxDailyMove"`
	PriceFloor      float64 `mapstructure:"priceFloor"`
	DecayRate       float64 `mapstructure:"decayRate"`
}

// OrderBookConfig is the hot-settable order-book tuning.
type OrderBookConfig struct {
	MaxOrderAgeMs int64 `mapstructure:"maxOrderAgeMs"`
	SnapshotDepth int   `mapstructure:"snapshotDepth"`
}

// AgentCounts is the population size per agent type.
type AgentCounts struct {
	Fundamental   int `mapstructure:"fundamental"`
	Momentum      int `mapstructure:"momentum"`
	MeanReversion int `mapstructure:"meanReversion"`
	Noise         int `mapstructure:"noise"`
	MarketMaker   int `mapstructure:"marketMaker"`
	SupplyDemand  int `mapstructure:"supplyDemand"`
	CrossEffects  int `mapstructure:"crossEffects"`
	Inventory     int `mapstructure:"inventory"`
	Event         int `mapstructure:"event"`
}

// AgentTypeParams is the distribution parameters shared by every agent
// type for per-agent sampling in the factory.
type AgentTypeParams struct {
	ReactionSpeedRate  float64 `mapstructure:"reactionSpeedRate"`  // exponential rate
	HorizonMu          float64 `mapstructure:"horizonMu"`          // log-normal underlying mean
	HorizonSigma       float64 `mapstructure:"horizonSigma"`       // log-normal underlying sigma
	RiskAversionMean   float64 `mapstructure:"riskAversionMean"`   // Gaussian
	RiskAversionSigma  float64 `mapstructure:"riskAversionSigma"`  // Gaussian
	ConfidenceMin      float64 `mapstructure:"confidenceMin"`      // uniform
	ConfidenceMax      float64 `mapstructure:"confidenceMax"`      // uniform
	NewsWeightMin      float64 `mapstructure:"newsWeightMin"`      // uniform
	NewsWeightMax      float64 `mapstructure:"newsWeightMax"`      // uniform
	InitialCashMean    float64 `mapstructure:"initialCashMean"`    // truncated Gaussian
	InitialCashSigma   float64 `mapstructure:"initialCashSigma"`   // truncated Gaussian
	InitialCashFloor   float64 `mapstructure:"initialCashFloor"`   // truncation floor
	CapitalFraction    float64 `mapstructure:"capitalFraction"`
	MaxOrderSize       int64   `mapstructure:"maxOrderSize"`
	CashReserve        float64 `mapstructure:"cashReserve"`
	ShortCap           int64   `mapstructure:"shortCap"`
}

// MarketMakerConfig tunes the market-maker agent's quoting behavior.
type MarketMakerConfig struct {
	FundamentalWeight          float64 `mapstructure:"fundamentalWeight"`
	BaseSpreadBps              float64 `mapstructure:"baseSpreadBps"`
	VolatilitySpreadMultiplier float64 `mapstructure:"volatilitySpreadMultiplier"`
	InventorySkew              float64 `mapstructure:"inventorySkew"`
	InventoryCap               int64   `mapstructure:"inventoryCap"`
}

// NewsWeights mirrors news.CategoryWeights for config round-tripping.
type NewsWeights struct {
	Global    float64 `mapstructure:"global"`
	Political float64 `mapstructure:"political"`
	Supply    float64 `mapstructure:"supply"`
	Demand    float64 `mapstructure:"demand"`
	Industry  float64 `mapstructure:"industry"`
	Company   float64 `mapstructure:"company"`
}

// NewsSigmas mirrors news.MagnitudeSigma for config round-tripping.
type NewsSigmas struct {
	Global    float64 `mapstructure:"global"`
	Political float64 `mapstructure:"political"`
	Supply    float64 `mapstructure:"supply"`
	Demand    float64 `mapstructure:"demand"`
	Industry  float64 `mapstructure:"industry"`
	Company   float64 `mapstructure:"company"`
}

// NewsConfig is the hot-settable news generator tuning.
type NewsConfig struct {
	Lambda         float64     `mapstructure:"lambda"`
	Weights        NewsWeights `mapstructure:"weights"`
	MagnitudeSigma NewsSigmas  `mapstructure:"magnitudeSigma"`
	HistoryLimit   int         `mapstructure:"historyLimit"`
}

// RuntimeConfig is the full, hot-patchable configuration tree. Every leaf is
// a scalar; unknown keys are ignored on Patch.
type RuntimeConfig struct {
	Simulation  SimulationConfig           `mapstructure:"simulation"`
	Engine      EngineConfig               `mapstructure:"engine"`
	Commodity   CommodityConfig            `mapstructure:"commodity"`
	OrderBook   OrderBookConfig            `mapstructure:"orderBook"`
	Agents      AgentCounts                `mapstructure:"agents"`
	AgentParams map[string]AgentTypeParams `mapstructure:"agentParams"`
	MarketMaker MarketMakerConfig          `mapstructure:"marketMaker"`
	News        NewsConfig                 `mapstructure:"news"`
}

// agentTypeKeys is the fixed set of agent-type keys AgentParams is indexed
// by, used to seed defaults.
var agentTypeKeys = []string{
	"fundamental", "momentum", "meanReversion", "noise", "marketMaker",
	"supplyDemand", "crossEffects", "inventory", "event",
}

func defaultAgentTypeParams() AgentTypeParams {
	return AgentTypeParams{
		ReactionSpeedRate: 0.5,
		HorizonMu:         3.0,
		HorizonSigma:      0.5,
		RiskAversionMean:  0.5,
		RiskAversionSigma: 0.15,
		ConfidenceMin:     0.4,
		ConfidenceMax:     0.9,
		NewsWeightMin:     0.1,
		NewsWeightMax:     0.6,
		InitialCashMean:   100_000,
		InitialCashSigma:  25_000,
		InitialCashFloor:  5_000,
		CapitalFraction:   0.05,
		MaxOrderSize:      1000,
		CashReserve:       0.1,
		ShortCap:          500,
	}
}

// Default returns the reference RuntimeConfig used when no override file
// or patch has been applied.
func Default() *RuntimeConfig {
	agentParams := make(map[string]AgentTypeParams, len(agentTypeKeys))
	for _, k := range agentTypeKeys {
		agentParams[k] = defaultAgentTypeParams()
	}

	return &RuntimeConfig{
		Simulation: SimulationConfig{
			StartDate:               "2024-01-02",
			TickRateMs:              100,
			TicksPerDay:             390,
			ReferenceTicksPerDay:    390,
			PopulateTicksPerDay:     50,
			PopulateFineTicksPerDay: 390,
			PopulateFineDays:        1,
			TickBufferCapacity:      50_000,
			Seed:                    42,
		},
		Engine: EngineConfig{
			MacroSentimentMean:     0.0,
			MacroSentimentDecay:    0.95,
			MacroNoiseSigma:        0.02,
			AnnualGrowthRate:       0.03,
			CompanyShockSigma:      0.01,
			IndustryShockDecay:     0.9,
			NewsToFundamentalScale: 0.02,
			FundamentalShockClamp:  0.01,
			SentimentDecay:         0.9,
			RecentTradesCapacity:   10_000,
		},
		Commodity: CommodityConfig{
			ImpactDampening: 0.1,
			MaxDailyMove:    0.07,
			PriceFloor:      0.01,
			DecayRate:       0.98,
		},
		OrderBook: OrderBookConfig{
			MaxOrderAgeMs: 4 * 60 * 60 * 1000,
			SnapshotDepth: 10,
		},
		Agents: AgentCounts{
			Fundamental: 40, Momentum: 30, MeanReversion: 30, Noise: 50,
			MarketMaker: 5, SupplyDemand: 20, CrossEffects: 10, Inventory: 10, Event: 10,
		},
		AgentParams: agentParams,
		MarketMaker: MarketMakerConfig{
			FundamentalWeight:          0.3,
			BaseSpreadBps:              10,
			VolatilitySpreadMultiplier: 50,
			InventorySkew:              0.0005,
			InventoryCap:               2000,
		},
		News: NewsConfig{
			Lambda:         0.3,
			Weights:        NewsWeights(DefaultWeights()),
			MagnitudeSigma: NewsSigmas(DefaultSigmas()),
			HistoryLimit:   10_000,
		},
	}
}

// DefaultWeights and DefaultSigmas avoid a config -> news import cycle
// while still expressing the news package's own reference values.
func DefaultWeights() NewsWeights {
	return NewsWeights{Global: 0.25, Political: 0.1, Supply: 0.2, Demand: 0.2, Industry: 0.15, Company: 0.1}
}

func DefaultSigmas() NewsSigmas {
	return NewsSigmas{Global: 0.15, Political: 0.25, Supply: 0.3, Demand: 0.3, Industry: 0.2, Company: 0.35}
}

// Load reads a RuntimeConfig from a file (any format viper supports: yaml,
// json, toml), starting from Default() so a partial file only overrides
// what it sets.
func Load(path string) (*RuntimeConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)

	cfg := Default()
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: read %q: %w", path, err)
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal %q: %w", path, err)
	}
	return cfg, nil
}

// Patch merge-patches cfg with a partial, weakly-typed map (as produced by
// decoding JSON/YAML into map[string]any). Unknown keys are ignored.
// Application is atomic: if any leaf fails to coerce, cfg is returned
// unmodified and an error is returned.
func Patch(cfg *RuntimeConfig, patch map[string]any) (*RuntimeConfig, error) {
	candidate := *cfg
	if cfg.AgentParams != nil {
		candidate.AgentParams = make(map[string]AgentTypeParams, len(cfg.AgentParams))
		for k, v := range cfg.AgentParams {
			candidate.AgentParams[k] = v
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Metadata:         nil,
		Result:           &candidate,
		WeaklyTypedInput: true,
		ErrorUnused:      false,
		ZeroFields:       false,
	})
	if err != nil {
		return nil, fmt.Errorf("config: build patch decoder: %w", err)
	}
	if err := decoder.Decode(patch); err != nil {
		return nil, fmt.Errorf("config: patch rejected: %w", err)
	}
	return &candidate, nil
}
