package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/candidate"
	"github.com/sells-group/outreach-cli/internal/enrichment"
	"github.com/sells-group/outreach-cli/internal/importer"
	"github.com/sells-group/outreach-cli/internal/integration"
	"github.com/sells-group/outreach-cli/internal/launch"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/preflight"
	"github.com/sells-group/outreach-cli/internal/session"
)

// errEnrichmentDisabled is returned when a paid lookup is requested without
// a provider key.
var errEnrichmentDisabled = eris.New("enrichment is not configured (OUTREACH_ENRICHMENT_KEY)")

// build is one campaign-build run over a job's candidate roster.
type build struct {
	Job          model.Job
	CampaignName string
	Channels     model.ChannelConfig
	Set          *candidate.Set
}

// checkReport is the combined output of the launch gates.
type checkReport struct {
	Integrations *integration.Report     `json:"integrations"`
	Quality      model.QualityCheckResult `json:"quality"`
	Preflight    *preflight.Report        `json:"preflight"`
}

// Ready reports whether every gate allows a launch.
func (r *checkReport) Ready() bool {
	return r.Integrations.AllConnected() && r.Quality.CanLaunch && r.Preflight.Passed()
}

// loadBuild reads the job and its roster from the store.
func (e *outreachEnv) loadBuild(ctx context.Context, jobID, campaignName string, channels model.ChannelConfig) (*build, error) {
	if jobID == "" {
		return nil, eris.New("job id is required")
	}
	job, err := e.Store.GetJob(ctx, jobID)
	if err != nil {
		return nil, eris.Wrapf(err, "load job %s", jobID)
	}
	cands, err := e.Store.ListCandidates(ctx, jobID)
	if err != nil {
		return nil, eris.Wrapf(err, "load candidates for job %s", jobID)
	}
	return &build{
		Job:          *job,
		CampaignName: campaignName,
		Channels:     channels,
		Set:          candidate.NewSet(cands),
	}, nil
}

// track saves the build draft. Failures are logged; a draft is a
// convenience for resuming and never blocks the pipeline.
func (e *outreachEnv) track(ctx context.Context, b *build, step session.Step, enriching bool) {
	st := session.State{
		ID:                b.Job.ID,
		JobID:             b.Job.ID,
		CampaignName:      b.CampaignName,
		Channels:          b.Channels,
		CandidateIDs:      b.Set.IDs(),
		ActiveStep:        step,
		EnrichmentRunning: enriching,
		UpdatedAt:         time.Now().UTC(),
	}
	if err := e.Sessions.Save(ctx, st); err != nil {
		zap.L().Warn("save session draft", zap.String("job_id", b.Job.ID), zap.Error(err))
	}
}

func (e *outreachEnv) importContacts(ctx context.Context, b *build, content string) (*importer.Result, error) {
	res, err := e.Importer.Import(ctx, content, b.Set)
	if err != nil {
		return nil, err
	}
	e.track(ctx, b, session.StepImport, false)
	return res, nil
}

func (e *outreachEnv) enrich(ctx context.Context, b *build) (*enrichment.RunResult, error) {
	if e.Enrichment == nil {
		return nil, errEnrichmentDisabled
	}
	e.track(ctx, b, session.StepEnrich, true)
	res, err := e.Enrichment.Run(ctx, b.Set)
	e.track(ctx, b, session.StepEnrich, false)
	return res, err
}

func (e *outreachEnv) manualEntry(ctx context.Context, b *build, id, email, mobile string) (model.Candidate, error) {
	if e.Enrichment == nil {
		// Manual entry never reaches the provider.
		return enrichment.New(nil, e.Store, nil).ManualEntry(ctx, b.Set, id, email, mobile)
	}
	return e.Enrichment.ManualEntry(ctx, b.Set, id, email, mobile)
}

// check runs connectivity, quality and pre-flight from scratch.
func (e *outreachEnv) check(ctx context.Context, b *build, obs preflight.Observer) *checkReport {
	e.track(ctx, b, session.StepCheck, false)

	cands := b.Set.List()
	conn := e.Prober.Probe(ctx, b.Channels)
	connected := conn.AllConnected()
	q := e.Quality.Evaluate(ctx, b.Job, b.CampaignName, cands, b.Channels, connected)
	pf := e.sequencer(obs).Run(ctx, preflight.Input{
		CampaignName: b.CampaignName,
		JobID:        b.Job.ID,
		Candidates:   cands,
		Connected:    connected,
		Storage:      e.Store,
	})
	return &checkReport{Integrations: conn, Quality: q, Preflight: pf}
}

// launch re-runs every gate, then launches.
func (e *outreachEnv) launch(ctx context.Context, b *build, obs preflight.Observer) (*launch.Outcome, *checkReport, error) {
	report := e.check(ctx, b, obs)
	e.track(ctx, b, session.StepLaunch, false)

	out, err := e.Launcher.Launch(ctx, launch.Request{
		Job:          b.Job,
		CampaignName: b.CampaignName,
		Candidates:   b.Set.List(),
		Channels:     b.Channels,
		Preflight:    report.Preflight,
		Quality:      &report.Quality,
		Connected:    report.Integrations.AllConnected(),
		SessionID:    b.Job.ID,
	})
	return out, report, err
}
