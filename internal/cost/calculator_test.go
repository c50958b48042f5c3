package cost

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/outreach-cli/internal/model"
)

func testRates() Rates {
	return Rates{
		Enrichment: EnrichmentRate{PerMatch: 0.25, PerNoMatch: 0.05},
	}
}

func TestLookup(t *testing.T) {
	t.Parallel()
	calc := NewCalculator(testRates())

	tests := []struct {
		name   string
		status model.EnrichmentStatus
		want   float64
	}{
		{name: "success pays match rate", status: model.EnrichmentSuccess, want: 0.25},
		{name: "no match pays flat fee", status: model.EnrichmentNoMatch, want: 0.05},
		{name: "failed is free", status: model.EnrichmentFailed, want: 0},
		{name: "pending is free", status: model.EnrichmentPending, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, calc.Lookup(tt.status), 1e-9)
		})
	}
}

func TestDefaultRates_MatchCostsMore(t *testing.T) {
	t.Parallel()
	r := DefaultRates()
	assert.Greater(t, r.Enrichment.PerMatch, r.Enrichment.PerNoMatch)
}

func TestLedger_ConcurrentAdd(t *testing.T) {
	t.Parallel()

	l := NewLedger()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				l.Add(model.EnrichmentSuccess, 0.10)
			} else {
				l.Add(model.EnrichmentNoMatch, 0.02)
			}
		}(i)
	}
	wg.Wait()

	assert.InDelta(t, 50*0.10+50*0.02, l.Total(), 1e-9)
	by := l.ByStatus()
	assert.InDelta(t, 5.0, by[model.EnrichmentSuccess], 1e-9)
	assert.InDelta(t, 1.0, by[model.EnrichmentNoMatch], 1e-9)
}

func TestLedger_IgnoresZero(t *testing.T) {
	t.Parallel()
	l := NewLedger()
	l.Add(model.EnrichmentFailed, 0)
	assert.Empty(t, l.ByStatus())
	assert.Zero(t, l.Total())
}
