package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/sells-group/outreach-cli/internal/enrichment"
	"github.com/sells-group/outreach-cli/internal/importer"
	"github.com/sells-group/outreach-cli/internal/launch"
	"github.com/sells-group/outreach-cli/internal/model"
)

var jsonOutput bool

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatImportResult(w io.Writer, res *importer.Result) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CANDIDATE\tNAME\tEMAIL\tPHONE\tSTATUS")
	for _, r := range res.Rows {
		status := string(r.Status)
		if r.WriteError != "" {
			status += " (write failed)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.CandidateID, r.Name, r.Email, r.Phone, status)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "\nUpdated: %d  Skipped: %d  Failed writes: %d\n", res.Updated, res.Skipped, res.Failed)
}

func formatEnrichResult(w io.Writer, res *enrichment.RunResult) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CANDIDATE\tNAME\tSTATUS\tSOURCE\tEMAIL\tMOBILE\tCOST")
	for _, o := range res.Results {
		status := string(o.Status)
		if o.Status == model.EnrichmentFailed && o.Retryable {
			status += " (retryable)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t$%.2f\n",
			o.CandidateID, o.Name, status, o.Source, o.Email, o.Mobile, o.Cost)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "\nSuccess: %d  No match: %d  Failed: %d  Cache hits: %d  Lookups: %d  Est. cost: $%.2f\n",
		res.Count(model.EnrichmentSuccess),
		res.Count(model.EnrichmentNoMatch),
		res.Count(model.EnrichmentFailed),
		res.CacheHits,
		res.ProviderCalls,
		res.TotalCost,
	)
	if res.WriteFailures > 0 {
		fmt.Fprintf(w, "Warning: %d paid results could not be saved\n", res.WriteFailures)
	}
}

func formatCheckReport(w io.Writer, r *checkReport) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CHANNEL\tSTATUS\tDETAILS")
	for _, c := range r.Integrations.Channels {
		details := c.Details
		if c.Error != "" {
			details += " (" + c.Error + ")"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Channel, c.Status, details)
	}
	_ = tw.Flush()

	fmt.Fprintf(w, "\nQuality: can_launch=%t critical=%d warnings=%d info=%d\n",
		r.Quality.CanLaunch, r.Quality.Summary.Critical, r.Quality.Summary.Warnings, r.Quality.Summary.Info)
	for _, is := range r.Quality.Issues {
		fmt.Fprintf(w, "  [%s] %s: %s\n", strings.ToUpper(string(is.Severity)), is.Category, is.Description)
	}

	fmt.Fprintln(w)
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CHECK\tSTATUS\tDETAILS")
	for _, c := range r.Preflight.Checks {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Name, c.Status, c.Details)
	}
	_ = tw.Flush()

	if r.Ready() {
		fmt.Fprintln(w, "\nReady to launch.")
	} else {
		fmt.Fprintln(w, "\nNot ready to launch.")
	}
}

func formatLaunchOutcome(w io.Writer, o *launch.Outcome) {
	fmt.Fprintf(w, "Campaign %s launched via %s path\n", o.CampaignID, o.Path)
	if o.Message != "" {
		fmt.Fprintln(w, o.Message)
	}
	if o.Path == launch.PathFallback {
		fmt.Fprintf(w, "Leads: %d inserted, %d failed\n", o.LeadsInserted, o.LeadsFailed)
		if o.CallTasksQueued > 0 || o.CallTasksFailed > 0 {
			fmt.Fprintf(w, "Voice calls: %d queued, %d failed\n", o.CallTasksQueued, o.CallTasksFailed)
		}
		if o.Partial() {
			fmt.Fprintln(w, "Warning: campaign is active but some follow-up writes failed")
		}
	}
}
