// Package news implements the Poisson/injection news process: a stream of
// sentiment-bearing events each tick, plus a bounded history and an
// externally-fed injection queue.
package news

import (
	"github.com/google/uuid"

	"github.com/ndrandal/commoditysim/internal/marketrand"
)

// Category tags the kind of event, which selects its magnitude sigma and
// (for commodity/industry-specific categories) whether it carries a target.
type Category string

const (
	CategoryGlobal    Category = "global"
	CategoryPolitical Category = "political"
	CategorySupply    Category = "supply"
	CategoryDemand    Category = "demand"
	CategoryIndustry  Category = "industry"
	CategoryCompany   Category = "company"
)

// Sentiment is the event's directional polarity.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// Event is one news item, either spontaneously generated or injected.
type Event struct {
	ID        string // assigned on Step if empty, so callers may Inject without one
	Category  Category
	Sentiment Sentiment
	Magnitude float64 // [0,1]
	Target    string  // symbol or industry/category name; empty for global
	Headline  string
	Timestamp int64
}

// CategoryWeights assigns a relative sampling weight to each category, in
// the fixed order iterated for WeightedPick.
type CategoryWeights struct {
	Global    float64
	Political float64
	Supply    float64
	Demand    float64
	Industry  float64
	Company   float64
}

func (w CategoryWeights) ordered() ([]Category, []float64) {
	cats := []Category{CategoryGlobal, CategoryPolitical, CategorySupply, CategoryDemand, CategoryIndustry, CategoryCompany}
	weights := []float64{w.Global, w.Political, w.Supply, w.Demand, w.Industry, w.Company}
	return cats, weights
}

// MagnitudeSigma gives each category's truncated-Gaussian magnitude sigma.
type MagnitudeSigma struct {
	Global    float64
	Political float64
	Supply    float64
	Demand    float64
	Industry  float64
	Company   float64
}

func (s MagnitudeSigma) forCategory(c Category) float64 {
	switch c {
	case CategoryGlobal:
		return s.Global
	case CategoryPolitical:
		return s.Political
	case CategorySupply:
		return s.Supply
	case CategoryDemand:
		return s.Demand
	case CategoryIndustry:
		return s.Industry
	case CategoryCompany:
		return s.Company
	default:
		return 0.1
	}
}

// DefaultCategoryWeights returns a reference weighting skewed toward the
// less disruptive categories.
func DefaultCategoryWeights() CategoryWeights {
	return CategoryWeights{Global: 0.25, Political: 0.1, Supply: 0.2, Demand: 0.2, Industry: 0.15, Company: 0.1}
}

// DefaultMagnitudeSigma returns reference per-category magnitude sigmas.
func DefaultMagnitudeSigma() MagnitudeSigma {
	return MagnitudeSigma{Global: 0.15, Political: 0.25, Supply: 0.3, Demand: 0.3, Industry: 0.2, Company: 0.35}
}

const maxHistory = 10_000

// headlineTemplates is a small templated pool spontaneous events draw from,
// indexed by category.
var headlineTemplates = map[Category][]string{
	CategoryGlobal:    {"Global demand outlook shifts", "Macro sentiment turns", "Central bank signals rate path"},
	CategoryPolitical: {"Export restrictions proposed", "Trade talks stall", "Sanctions regime updated"},
	CategorySupply:    {"Production disruption reported", "New supply capacity comes online", "Logistics bottleneck eases"},
	CategoryDemand:    {"Demand surge reported", "Consumption forecast revised", "Seasonal demand softens"},
	CategoryIndustry:  {"Sector-wide inventory report released", "Industry group revises outlook", "Cross-commodity substitution noted"},
	CategoryCompany:   {"Major producer reports outage", "Producer announces expansion", "Operator issues guidance update"},
}

// Generator produces spontaneous Poisson-sampled news each tick and drains
// an FIFO injection queue, maintaining a bounded combined history.
type Generator struct {
	rng *marketrand.RNG

	lambda    float64
	weights   CategoryWeights
	sigmas    MagnitudeSigma
	industries []string
	symbols    []string

	injectionQueue []Event
	history        []Event
}

// New constructs a Generator. industries and symbols are the valid targets
// for industry- and commodity-scoped events respectively.
func New(rng *marketrand.RNG, lambda float64, weights CategoryWeights, sigmas MagnitudeSigma, industries, symbols []string) *Generator {
	return &Generator{
		rng:        rng,
		lambda:     lambda,
		weights:    weights,
		sigmas:     sigmas,
		industries: industries,
		symbols:    symbols,
	}
}

// SetLambda hot-reloads the Poisson rate.
func (g *Generator) SetLambda(lambda float64) { g.lambda = lambda }

// SetMagnitudeSigma hot-reloads per-category magnitude sigmas.
func (g *Generator) SetMagnitudeSigma(s MagnitudeSigma) { g.sigmas = s }

// SetCategoryWeights hot-reloads category sampling weights.
func (g *Generator) SetCategoryWeights(w CategoryWeights) { g.weights = w }

// Inject enqueues one externally-specified event, consumed on the next
// Step call.
func (g *Generator) Inject(e Event) {
	g.injectionQueue = append(g.injectionQueue, e)
}

// Step drains the injection queue (FIFO), samples a Poisson count of
// spontaneous events scaled by tickScale, and returns every event produced
// this tick (injected first, then spontaneous), after recording them all
// into the bounded history.
func (g *Generator) Step(simTimeMs int64, tickScale float64) []Event {
	var tick []Event

	for _, e := range g.injectionQueue {
		e.Timestamp = simTimeMs
		if e.ID == "" {
			e.ID = uuid.New().String()
		}
		tick = append(tick, e)
	}
	g.injectionQueue = nil

	n := g.rng.Poisson(g.lambda * tickScale)
	for i := 0; i < n; i++ {
		tick = append(tick, g.sample(simTimeMs))
	}

	for _, e := range tick {
		g.history = append(g.history, e)
	}
	if len(g.history) > maxHistory {
		g.history = g.history[len(g.history)-maxHistory:]
	}
	return tick
}

func (g *Generator) sample(simTimeMs int64) Event {
	cats, weights := g.weights.ordered()
	cat := cats[g.rng.WeightedPick(weights)]

	sentiment := g.sampleSentiment()
	magnitude := g.rng.TruncatedGaussian(0.3, g.sigmas.forCategory(cat), 0, 1)

	return Event{
		ID:        uuid.New().String(),
		Category:  cat,
		Sentiment: sentiment,
		Magnitude: magnitude,
		Target:    g.sampleTarget(cat),
		Headline:  g.sampleHeadline(cat),
		Timestamp: simTimeMs,
	}
}

func (g *Generator) sampleSentiment() Sentiment {
	switch g.rng.WeightedPick([]float64{0.4, 0.4, 0.2}) {
	case 0:
		return SentimentPositive
	case 1:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// sampleTarget returns a symbol for supply/demand/company events, an
// industry for industry events, and an empty target for global/political.
func (g *Generator) sampleTarget(cat Category) string {
	switch cat {
	case CategorySupply, CategoryDemand, CategoryCompany:
		if len(g.symbols) == 0 {
			return ""
		}
		return g.symbols[g.rng.Intn(len(g.symbols))]
	case CategoryIndustry:
		if len(g.industries) == 0 {
			return ""
		}
		return g.industries[g.rng.Intn(len(g.industries))]
	default:
		return ""
	}
}

func (g *Generator) sampleHeadline(cat Category) string {
	pool := headlineTemplates[cat]
	if len(pool) == 0 {
		return ""
	}
	return pool[g.rng.Intn(len(pool))]
}

// History returns a defensive copy of the retained event history, oldest
// first, most-recent limit entries if limit > 0.
func (g *Generator) History(limit int) []Event {
	h := g.history
	if limit > 0 && len(h) > limit {
		h = h[len(h)-limit:]
	}
	out := make([]Event, len(h))
	copy(out, h)
	return out
}

// Reset clears history and the injection queue but keeps tuning parameters.
func (g *Generator) Reset() {
	g.injectionQueue = nil
	g.history = nil
}
