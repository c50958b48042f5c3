// Package cost estimates spend on paid contact lookups. Figures are flat
// per-lookup estimates, not provider invoices.
package cost

import (
	"sync"

	"github.com/sells-group/outreach-cli/internal/model"
)

// Rates holds per-provider pricing configuration.
type Rates struct {
	Enrichment EnrichmentRate `yaml:"enrichment" mapstructure:"enrichment"`
}

// EnrichmentRate holds flat per-candidate lookup pricing (USD).
type EnrichmentRate struct {
	PerMatch   float64 `yaml:"per_match" mapstructure:"per_match"`
	PerNoMatch float64 `yaml:"per_no_match" mapstructure:"per_no_match"`
}

// Calculator computes costs for API usage.
type Calculator struct {
	rates Rates
}

// NewCalculator creates a Calculator with the given rates.
func NewCalculator(rates Rates) *Calculator {
	return &Calculator{rates: rates}
}

// Lookup returns the estimated cost of one enrichment outcome. Failed calls
// and cache hits cost nothing.
func (c *Calculator) Lookup(status model.EnrichmentStatus) float64 {
	switch status {
	case model.EnrichmentSuccess:
		return c.rates.Enrichment.PerMatch
	case model.EnrichmentNoMatch:
		return c.rates.Enrichment.PerNoMatch
	default:
		return 0
	}
}

// DefaultRates returns the default pricing rates.
func DefaultRates() Rates {
	return Rates{
		Enrichment: EnrichmentRate{PerMatch: 0.10, PerNoMatch: 0.02},
	}
}

// Ledger accumulates advisory spend for one run. Safe for concurrent use.
type Ledger struct {
	mu      sync.Mutex
	total   float64
	byState map[model.EnrichmentStatus]float64
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{byState: make(map[model.EnrichmentStatus]float64)}
}

// Add records amount against status.
func (l *Ledger) Add(status model.EnrichmentStatus, amount float64) {
	if amount == 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.total += amount
	l.byState[status] += amount
}

// Total returns the accumulated spend.
func (l *Ledger) Total() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}

// ByStatus returns a copy of spend grouped by outcome.
func (l *Ledger) ByStatus() map[model.EnrichmentStatus]float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[model.EnrichmentStatus]float64, len(l.byState))
	for k, v := range l.byState {
		out[k] = v
	}
	return out
}
