package commodity

import "github.com/shopspring/decimal"

// Category groups commodities that share macro/industry shock exposure.
type Category string

const (
	CategoryEnergy      Category = "Energy"
	CategoryMetals      Category = "Metals"
	CategoryAgriculture Category = "Agriculture"
	CategoryLivestock   Category = "Livestock"
	CategoryIndex       Category = "Index"
)

// Listing is static catalog metadata for one instrument: everything that
// does not change across the life of a simulation run.
type Listing struct {
	Symbol               string
	Name                 string
	Category             Category
	BasePrice            decimal.Decimal
	TickSize             decimal.Decimal
	VolatilityMultiplier float64
	BaseProduction       float64
	BaseConsumption      float64
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// AllListings returns the catalog of simulated commodities: 18 instruments
// across five categories, each with its own tick size and volatility
// multiplier, mirroring the spread a per-sector equity catalog would carry.
func AllListings() []Listing {
	return []Listing{
		// Energy (4) — high volatility, news-sensitive
		{"CL", "WTI Crude Oil", CategoryEnergy, d("72.50"), d("0.01"), 1.6, 1000, 980},
		{"BZ", "Brent Crude Oil", CategoryEnergy, d("76.10"), d("0.01"), 1.5, 1000, 985},
		{"NG", "Henry Hub Natural Gas", CategoryEnergy, d("2.85"), d("0.001"), 2.0, 600, 590},
		{"HO", "Heating Oil", CategoryEnergy, d("2.45"), d("0.001"), 1.4, 400, 395},

		// Metals (4) — mid-low volatility, safe-haven flavor on GC/SI
		{"GC", "Gold", CategoryMetals, d("2020.00"), d("0.10"), 0.7, 300, 295},
		{"SI", "Silver", CategoryMetals, d("24.30"), d("0.005"), 1.1, 350, 345},
		{"HG", "Copper", CategoryMetals, d("3.85"), d("0.0005"), 1.2, 800, 790},
		{"PL", "Platinum", CategoryMetals, d("980.00"), d("0.10"), 1.0, 150, 148},

		// Agriculture (5) — seasonal, supply-shock heavy
		{"ZC", "Corn", CategoryAgriculture, d("4.65"), d("0.0025"), 1.0, 1200, 1180},
		{"ZW", "Wheat", CategoryAgriculture, d("5.90"), d("0.0025"), 1.1, 900, 885},
		{"ZS", "Soybeans", CategoryAgriculture, d("12.40"), d("0.0025"), 1.0, 700, 690},
		{"KC", "Coffee", CategoryAgriculture, d("1.75"), d("0.0005"), 1.3, 250, 248},
		{"SB", "Sugar", CategoryAgriculture, d("0.24"), d("0.0001"), 0.9, 500, 495},

		// Livestock (3) — lower volatility, demand-driven
		{"LE", "Live Cattle", CategoryLivestock, d("1.82"), d("0.00025"), 0.6, 400, 398},
		{"HE", "Lean Hogs", CategoryLivestock, d("0.78"), d("0.00025"), 0.8, 350, 347},
		{"GF", "Feeder Cattle", CategoryLivestock, d("2.35"), d("0.00025"), 0.7, 200, 199},

		// Index (2) — broad aggregate, low idiosyncratic volatility
		{"DBC", "Broad Commodity Index", CategoryIndex, d("22.40"), d("0.01"), 0.4, 0, 0},
		{"GSG", "GSCI Commodity Index", CategoryIndex, d("18.90"), d("0.01"), 0.45, 0, 0},
	}
}

// ByCategory groups the catalog by category, preserving catalog order.
func ByCategory() map[Category][]Listing {
	out := make(map[Category][]Listing)
	for _, l := range AllListings() {
		out[l.Category] = append(out[l.Category], l)
	}
	return out
}

// Categories returns every category in a fixed, deterministic order.
func Categories() []Category {
	return []Category{CategoryEnergy, CategoryMetals, CategoryAgriculture, CategoryLivestock, CategoryIndex}
}

// BySymbol indexes the catalog by ticker symbol.
func BySymbol() map[string]Listing {
	out := make(map[string]Listing)
	for _, l := range AllListings() {
		out[l.Symbol] = l
	}
	return out
}
