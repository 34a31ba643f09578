package flips

// Default thresholds, overridable through the settings store.
const (
	DefaultMinProfit     int64   = 100_000
	DefaultProfitPercent float64 = 20
	defaultMarkup                = 1.3
)

// Opportunity is a listing the finder considers worth flipping.
type Opportunity struct {
	AuctionID       string
	ItemName        string
	CurrentPrice    int64
	EstimatedValue  int64
	PotentialProfit int64
	ProfitPercent   float64
}

// Thresholds tune the finder heuristic.
type Thresholds struct {
	MinProfit     int64
	ProfitPercent float64
}

// Finder applies the profit heuristic to auction listings.
type Finder struct {
	thresholds Thresholds
}

// NewFinder creates a finder; zero threshold fields fall back to defaults.
func NewFinder(t Thresholds) *Finder {
	if t.MinProfit <= 0 {
		t.MinProfit = DefaultMinProfit
	}
	if t.ProfitPercent <= 0 {
		t.ProfitPercent = DefaultProfitPercent
	}
	return &Finder{thresholds: t}
}

// Analyze reports whether the auction clears both the absolute profit and
// the margin thresholds. Listings with no usable price are skipped.
func (f *Finder) Analyze(a Auction) (Opportunity, bool) {
	if a.StartingBid <= 0 {
		return Opportunity{}, false
	}

	market := f.estimateMarketPrice(a)
	if market <= 0 {
		return Opportunity{}, false
	}

	profit := market - a.StartingBid
	percent := float64(profit) / float64(a.StartingBid) * 100
	if profit < f.thresholds.MinProfit || percent < f.thresholds.ProfitPercent {
		return Opportunity{}, false
	}

	name := a.ItemName
	if name == "" {
		name = "Unknown Item"
	}
	return Opportunity{
		AuctionID:       a.UUID,
		ItemName:        name,
		CurrentPrice:    a.StartingBid,
		EstimatedValue:  market,
		PotentialProfit: profit,
		ProfitPercent:   percent,
	}, true
}

// estimateMarketPrice is a flat-markup placeholder. A real estimator would
// use historical BIN data.
// TODO: replace with a moving average over past sales once price history
// collection lands.
func (f *Finder) estimateMarketPrice(a Auction) int64 {
	return int64(float64(a.StartingBid) * defaultMarkup)
}
