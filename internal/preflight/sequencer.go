// Package preflight runs the fixed readiness checks performed right before
// a campaign launch.
package preflight

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/metrics"
	"github.com/sells-group/outreach-cli/internal/model"
)

// Check names, in the order they run.
const (
	CheckCampaignConfig = "Campaign Configuration"
	CheckCandidateData  = "Candidate Data"
	CheckIntegrations   = "Integration APIs"
	CheckStorage        = "Storage Health"
)

// Pinger is a reachability check against the persistence layer.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Input is everything the checks look at.
type Input struct {
	CampaignName string
	JobID        string
	Candidates   []model.Candidate
	Connected    bool
	Storage      Pinger
}

// Report is the outcome of one full run.
type Report struct {
	Checks []model.PreflightCheck `json:"checks"`
}

// Passed is true when every check passed.
func (r *Report) Passed() bool {
	if r == nil || len(r.Checks) == 0 {
		return false
	}
	for _, c := range r.Checks {
		if c.Status != model.CheckPassed {
			return false
		}
	}
	return true
}

// Failed returns the names of checks that did not pass.
func (r *Report) Failed() []string {
	var out []string
	for _, c := range r.Checks {
		if c.Status != model.CheckPassed {
			out = append(out, c.Name)
		}
	}
	return out
}

// Observer is notified of every status transition.
type Observer func(index int, check model.PreflightCheck)

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithSettleDelay pauses before each check resolves.
func WithSettleDelay(d time.Duration) Option {
	return func(s *Sequencer) {
		if d >= 0 {
			s.settle = d
		}
	}
}

// WithObserver registers fn for status transitions.
func WithObserver(fn Observer) Option {
	return func(s *Sequencer) {
		s.observer = fn
	}
}

// Sequencer runs checks one at a time.
type Sequencer struct {
	settle   time.Duration
	observer Observer
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewSequencer creates a Sequencer with no settle delay.
func NewSequencer(opts ...Option) *Sequencer {
	s := &Sequencer{sleep: sleepCtx}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type check struct {
	name string
	run  func(ctx context.Context, in Input) (bool, string)
}

var checks = []check{
	{CheckCampaignConfig, checkCampaignConfig},
	{CheckCandidateData, checkCandidateData},
	{CheckIntegrations, checkIntegrations},
	{CheckStorage, checkStorage},
}

// Run executes every check from scratch. A cancelled context fails the
// remaining checks rather than skipping them.
func (s *Sequencer) Run(ctx context.Context, in Input) *Report {
	start := time.Now()
	defer func() {
		metrics.PreflightDuration.Observe(time.Since(start).Seconds())
	}()

	report := &Report{Checks: make([]model.PreflightCheck, len(checks))}
	for i, c := range checks {
		report.Checks[i] = model.PreflightCheck{Name: c.name, Status: model.CheckPending}
		s.notify(i, report.Checks[i])
	}

	for i, c := range checks {
		report.Checks[i].Status = model.CheckChecking
		s.notify(i, report.Checks[i])

		var ok bool
		var details string
		if err := s.sleep(ctx, s.settle); err != nil {
			details = "interrupted: " + err.Error()
		} else {
			ok, details = c.run(ctx, in)
		}

		report.Checks[i].Details = details
		if ok {
			report.Checks[i].Status = model.CheckPassed
		} else {
			report.Checks[i].Status = model.CheckFailed
		}
		s.notify(i, report.Checks[i])
	}

	zap.L().Info("preflight: complete",
		zap.String("campaign", in.CampaignName),
		zap.Bool("passed", report.Passed()),
		zap.Strings("failed", report.Failed()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return report
}

func (s *Sequencer) notify(i int, c model.PreflightCheck) {
	if s.observer != nil {
		s.observer(i, c)
	}
}

func checkCampaignConfig(_ context.Context, in Input) (bool, string) {
	switch {
	case in.CampaignName == "" && in.JobID == "":
		return false, "Campaign name and job are missing"
	case in.CampaignName == "":
		return false, "Campaign name is missing"
	case in.JobID == "":
		return false, "Job is missing"
	}
	return true, fmt.Sprintf("%q for job %s", in.CampaignName, in.JobID)
}

func checkCandidateData(_ context.Context, in Input) (bool, string) {
	ready := 0
	for _, c := range in.Candidates {
		if c.ContactReady() {
			ready++
		}
	}
	return ready > 0, fmt.Sprintf("%d/%d candidates have contact info", ready, len(in.Candidates))
}

func checkIntegrations(_ context.Context, in Input) (bool, string) {
	if !in.Connected {
		return false, "One or more channels are disconnected"
	}
	return true, "All channels connected"
}

func checkStorage(ctx context.Context, in Input) (bool, string) {
	if in.Storage == nil {
		return false, "No storage configured"
	}
	if err := in.Storage.Ping(ctx); err != nil {
		zap.L().Warn("preflight: storage unreachable", zap.Error(err))
		return false, "Storage unreachable: " + err.Error()
	}
	return true, "Storage reachable"
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
