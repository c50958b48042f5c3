package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/outreach-cli/internal/enrichment"
	"github.com/sells-group/outreach-cli/internal/importer"
	"github.com/sells-group/outreach-cli/internal/integration"
	"github.com/sells-group/outreach-cli/internal/launch"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/preflight"
)

func TestFormatImportResult(t *testing.T) {
	var buf bytes.Buffer
	formatImportResult(&buf, &importer.Result{
		Updated: 1,
		Skipped: 2,
		Failed:  1,
		Rows: []importer.RowResult{
			{CandidateID: "c1", Name: "Ada Lovelace", Email: "ada@home.com", Status: model.ImportMatched},
			{CandidateID: "c2", Status: model.ImportMatched, WriteError: "db down"},
			{CandidateID: "zzz", Status: model.ImportNotFound},
		},
	})
	out := buf.String()
	assert.Contains(t, out, "CANDIDATE")
	assert.Contains(t, out, "ada@home.com")
	assert.Contains(t, out, "matched (write failed)")
	assert.Contains(t, out, "not_found")
	assert.Contains(t, out, "Updated: 1  Skipped: 2  Failed writes: 1")
}

func TestFormatEnrichResult(t *testing.T) {
	var buf bytes.Buffer
	formatEnrichResult(&buf, &enrichment.RunResult{
		Results: []enrichment.Outcome{
			{CandidateID: "c1", Status: model.EnrichmentSuccess, Email: "a@b.com", Cost: 0.10},
			{CandidateID: "c2", Status: model.EnrichmentFailed, Retryable: true},
			{CandidateID: "c3", Status: model.EnrichmentNoMatch, Cost: 0.02},
		},
		TotalCost:     0.12,
		CacheHits:     4,
		ProviderCalls: 3,
		WriteFailures: 1,
	})
	out := buf.String()
	assert.Contains(t, out, "failed (retryable)")
	assert.Contains(t, out, "$0.10")
	assert.Contains(t, out, "Success: 1  No match: 1  Failed: 1  Cache hits: 4  Lookups: 3  Est. cost: $0.12")
	assert.Contains(t, out, "1 paid results could not be saved")
}

func TestFormatCheckReport(t *testing.T) {
	report := &checkReport{
		Integrations: &integration.Report{Channels: []integration.ChannelStatus{
			{Channel: "email", Status: integration.StatusConnected, Details: "ok"},
			{Channel: "sms", Status: integration.StatusDisconnected, Details: "probe failed", Error: "timeout"},
		}},
		Quality: model.QualityCheckResult{
			Issues:  []model.QualityIssue{{Severity: model.SeverityCritical, Category: "Integrations", Description: "down"}},
			Summary: model.QualitySummary{Critical: 1},
		},
		Preflight: &preflight.Report{Checks: []model.PreflightCheck{
			{Name: preflight.CheckCampaignConfig, Status: model.CheckPassed},
		}},
	}

	var buf bytes.Buffer
	formatCheckReport(&buf, report)
	out := buf.String()
	assert.Contains(t, out, "probe failed (timeout)")
	assert.Contains(t, out, "[CRITICAL] Integrations: down")
	assert.Contains(t, out, preflight.CheckCampaignConfig)
	assert.Contains(t, out, "Not ready to launch.")
}

func TestFormatLaunchOutcome(t *testing.T) {
	var buf bytes.Buffer
	formatLaunchOutcome(&buf, &launch.Outcome{CampaignID: "remote-1", Path: launch.PathPrimary, Message: "launched"})
	assert.Contains(t, buf.String(), "Campaign remote-1 launched via primary path")
	assert.NotContains(t, buf.String(), "Leads:")

	buf.Reset()
	formatLaunchOutcome(&buf, &launch.Outcome{
		CampaignID: "camp-1", Path: launch.PathFallback,
		LeadsInserted: 2, LeadsFailed: 1, CallTasksQueued: 1,
	})
	out := buf.String()
	assert.Contains(t, out, "Leads: 2 inserted, 1 failed")
	assert.Contains(t, out, "Voice calls: 1 queued, 0 failed")
	assert.Contains(t, out, "some follow-up writes failed")
}
