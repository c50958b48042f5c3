// Package quality combines the remote campaign rules engine with local
// connectivity into the launch gate.
package quality

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/pkg/outreach"
)

// Issue categories synthesized locally.
const (
	CategoryIntegrations = "Integrations"
	CategorySystem       = "System"
)

// Checker is the remote rules engine. outreach.Client satisfies it.
type Checker interface {
	CheckQuality(ctx context.Context, req outreach.QualityRequest) (*model.QualityCheckResult, error)
}

// Evaluator produces the quality verdict for a campaign.
type Evaluator struct {
	checker Checker
}

// NewEvaluator creates an Evaluator backed by checker.
func NewEvaluator(checker Checker) *Evaluator {
	return &Evaluator{checker: checker}
}

// Evaluate asks the rules engine for a verdict and folds in connectivity.
// A failed remote call yields a blocking "System" issue, never a pass.
func (e *Evaluator) Evaluate(ctx context.Context, job model.Job, campaignName string, candidates []model.Candidate, channels model.ChannelConfig, integrationsConnected bool) model.QualityCheckResult {
	log := zap.L().With(zap.String("component", "quality"), zap.String("campaign", campaignName))

	req := outreach.QualityRequest{
		Job:               job,
		CampaignName:      campaignName,
		Candidates:        Summarize(candidates),
		Channels:          channels.EnabledChannels(),
		EmailSequenceLen:  channels.EmailSequenceLength(),
		SMSSequenceLen:    channels.SMSSequenceLength(),
		SenderEmail:       channels.SenderEmail(),
		VoiceCallsEnabled: channels.VoiceEnabled(),
	}

	remote, err := e.checker.CheckQuality(ctx, req)
	if err != nil {
		log.Warn("quality: rules engine unavailable, blocking launch", zap.Error(err))
		return systemFailure(err).Normalize()
	}

	res := model.QualityCheckResult{
		CanLaunch: remote.CanLaunch && integrationsConnected,
		Summary:   remote.Summary,
	}
	if !integrationsConnected {
		res.Issues = append(res.Issues, model.QualityIssue{
			Severity:    model.SeverityCritical,
			Category:    CategoryIntegrations,
			Description: "One or more channel integrations are not connected",
			Suggestion:  "Reconnect the failing channels or disable them before launching",
		})
		res.Summary.Critical++
	}
	res.Issues = append(res.Issues, remote.Issues...)
	res = res.Normalize()

	log.Info("quality: evaluated",
		zap.Bool("can_launch", res.CanLaunch),
		zap.Int("critical", res.Summary.Critical),
		zap.Int("warnings", res.Summary.Warnings),
		zap.Int("info", res.Summary.Info),
	)
	return res
}

// Summarize reduces candidates to the view the rules engine consumes.
func Summarize(candidates []model.Candidate) []outreach.CandidateSummary {
	out := make([]outreach.CandidateSummary, len(candidates))
	for i, c := range candidates {
		out[i] = outreach.CandidateSummary{
			ID:                 c.ID,
			Name:               c.FullName(),
			Tier:               c.Tier,
			HasEmail:           c.ResolvedEmail() != "",
			HasPhone:           c.ResolvedPhone() != "",
			HasPersonalization: c.HasPersonalization(),
		}
	}
	return out
}

func systemFailure(err error) model.QualityCheckResult {
	return model.QualityCheckResult{
		CanLaunch: false,
		Issues: []model.QualityIssue{{
			Severity:    model.SeverityCritical,
			Category:    CategorySystem,
			Description: "Quality check could not be completed: " + err.Error(),
			Suggestion:  "Run the check again once the rules engine is reachable",
		}},
		Summary: model.QualitySummary{Critical: 1},
	}
}
