package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(EnrichmentOutcomes.WithLabelValues("success"))
	EnrichmentOutcomes.WithLabelValues("success").Inc()
	assert.InDelta(t, before+1, testutil.ToFloat64(EnrichmentOutcomes.WithLabelValues("success")), 1e-9)

	cost := testutil.ToFloat64(EnrichmentCostUSD)
	EnrichmentCostUSD.Add(0.10)
	assert.InDelta(t, cost+0.10, testutil.ToFloat64(EnrichmentCostUSD), 1e-9)

	LaunchAttempts.WithLabelValues("fallback", "ok").Inc()
	assert.GreaterOrEqual(t, testutil.ToFloat64(LaunchAttempts.WithLabelValues("fallback", "ok")), 1.0)
}
