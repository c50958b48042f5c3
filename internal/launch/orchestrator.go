// Package launch starts a campaign through the campaign backend, falling
// back to writing the campaign directly to storage when the backend fails.
package launch

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/metrics"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/preflight"
	"github.com/sells-group/outreach-cli/internal/session"
	"github.com/sells-group/outreach-cli/pkg/outreach"
)

// Launch paths reported in Outcome.Path.
const (
	PathPrimary  = "primary"
	PathFallback = "fallback"
)

// ErrLaunchFailed is matched by errors.Is when both launch paths failed and
// nothing was marked active.
var ErrLaunchFailed = eris.New("launch: campaign was not launched")

// PreconditionError lists every unmet launch precondition.
type PreconditionError struct {
	Unmet []string
}

func (e *PreconditionError) Error() string {
	return "launch: preconditions not met: " + strings.Join(e.Unmet, "; ")
}

// FailedError carries the primary and fallback failures of a launch that
// did not happen.
type FailedError struct {
	Primary  error
	Fallback error
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("%s: primary: %v; fallback: %v", ErrLaunchFailed.Error(), e.Primary, e.Fallback)
}

func (e *FailedError) Unwrap() []error {
	return []error{ErrLaunchFailed, e.Primary, e.Fallback}
}

// Launcher is the primary launch call. outreach.Client satisfies it.
type Launcher interface {
	Launch(ctx context.Context, req outreach.LaunchRequest) (*outreach.LaunchResponse, error)
}

// Writer is the storage used by the fallback path.
type Writer interface {
	InsertCampaign(ctx context.Context, c *model.Campaign) error
	InsertLead(ctx context.Context, l *model.Lead) error
	InsertCallTask(ctx context.Context, t *model.CallTask) error
}

// Request is one launch attempt.
type Request struct {
	Job          model.Job
	CampaignName string
	Candidates   []model.Candidate
	Channels     model.ChannelConfig
	Preflight    *preflight.Report
	Quality      *model.QualityCheckResult
	Connected    bool
	SessionID    string
}

// Outcome is returned by both launch paths. The fallback counters tell a
// full launch apart from one whose follow-up writes partly failed.
type Outcome struct {
	CampaignID      string `json:"campaign_id"`
	Message         string `json:"message"`
	Path            string `json:"path"`
	LeadsInserted   int    `json:"leads_inserted,omitempty"`
	LeadsFailed     int    `json:"leads_failed,omitempty"`
	CallTasksQueued int    `json:"call_tasks_queued,omitempty"`
	CallTasksFailed int    `json:"call_tasks_failed,omitempty"`
	PrimaryError    string `json:"primary_error,omitempty"`
}

// Partial reports whether any fallback follow-up write failed.
func (o *Outcome) Partial() bool {
	return o.LeadsFailed > 0 || o.CallTasksFailed > 0
}

// Orchestrator launches campaigns.
type Orchestrator struct {
	launcher Launcher
	writer   Writer
	sessions session.Store
}

// New creates an Orchestrator. sessions may be nil.
func New(launcher Launcher, writer Writer, sessions session.Store) *Orchestrator {
	return &Orchestrator{launcher: launcher, writer: writer, sessions: sessions}
}

// Check returns a PreconditionError naming every unmet precondition, or nil.
func Check(req Request) error {
	var unmet []string
	if !req.Preflight.Passed() {
		unmet = append(unmet, "pre-flight checks have not passed")
	}
	if req.Quality == nil || !req.Quality.CanLaunch {
		unmet = append(unmet, "quality gate does not allow launch")
	}
	if !req.Connected {
		unmet = append(unmet, "channel integrations are not connected")
	}
	if strings.TrimSpace(req.CampaignName) == "" {
		unmet = append(unmet, "campaign name is empty")
	}
	if len(req.Candidates) == 0 {
		unmet = append(unmet, "no candidates selected")
	}
	if len(unmet) == 0 {
		return nil
	}
	return &PreconditionError{Unmet: unmet}
}

// Launch checks preconditions, then tries the campaign backend. When the
// backend fails the campaign is written directly: the campaign row first,
// then leads and call tasks best effort. A failed campaign row write fails
// the launch with nothing written.
func (o *Orchestrator) Launch(ctx context.Context, req Request) (*Outcome, error) {
	if err := Check(req); err != nil {
		return nil, err
	}

	log := zap.L().With(
		zap.String("component", "launch"),
		zap.String("campaign", req.CampaignName),
		zap.String("job_id", req.Job.ID),
		zap.Int("candidates", len(req.Candidates)),
	)

	resp, primaryErr := o.launcher.Launch(ctx, buildRequest(req))
	if primaryErr == nil {
		metrics.LaunchAttempts.WithLabelValues(PathPrimary, "success").Inc()
		log.Info("launch: campaign launched", zap.String("campaign_id", resp.CampaignID))
		o.clearSession(ctx, req.SessionID)
		return &Outcome{CampaignID: resp.CampaignID, Message: resp.Message, Path: PathPrimary}, nil
	}
	metrics.LaunchAttempts.WithLabelValues(PathPrimary, "failure").Inc()
	log.Warn("launch: primary launch failed, writing campaign directly", zap.Error(primaryErr))

	out, err := o.fallback(ctx, req)
	if err != nil {
		metrics.LaunchAttempts.WithLabelValues(PathFallback, "failure").Inc()
		log.Error("launch: fallback failed, campaign not launched", zap.Error(err))
		return nil, &FailedError{Primary: primaryErr, Fallback: err}
	}
	out.PrimaryError = primaryErr.Error()
	metrics.LaunchAttempts.WithLabelValues(PathFallback, "success").Inc()

	if out.Partial() {
		log.Warn("launch: campaign active with incomplete follow-up writes",
			zap.String("campaign_id", out.CampaignID),
			zap.Int("leads_failed", out.LeadsFailed),
			zap.Int("call_tasks_failed", out.CallTasksFailed),
		)
	}
	o.clearSession(ctx, req.SessionID)
	return out, nil
}

func (o *Orchestrator) fallback(ctx context.Context, req Request) (*Outcome, error) {
	campaign := &model.Campaign{
		Name:        req.CampaignName,
		JobID:       req.Job.ID,
		Channels:    req.Channels,
		Candidates:  req.Candidates,
		Status:      model.CampaignActive,
		SenderEmail: req.Channels.SenderEmail(),
		// Counts candidates, not confirmed lead rows.
		LeadsCount: len(req.Candidates),
	}
	if err := o.writer.InsertCampaign(ctx, campaign); err != nil {
		return nil, eris.Wrap(err, "launch: insert campaign")
	}

	out := &Outcome{CampaignID: campaign.ID, Path: PathFallback}
	for _, c := range req.Candidates {
		lead := &model.Lead{
			CampaignID:  campaign.ID,
			CandidateID: c.ID,
			Name:        c.FullName(),
			Email:       c.ResolvedEmail(),
			Phone:       c.ResolvedPhone(),
			Status:      model.LeadStatusPending,
		}
		if err := o.writer.InsertLead(ctx, lead); err != nil {
			out.LeadsFailed++
			zap.L().Warn("launch: insert lead failed",
				zap.String("campaign_id", campaign.ID),
				zap.String("candidate_id", c.ID),
				zap.Error(err),
			)
			continue
		}
		out.LeadsInserted++
	}

	if req.Channels.VoiceEnabled() {
		voice := req.Channels.Voice
		for _, c := range req.Candidates {
			phone := c.ResolvedPhone()
			if phone == "" {
				continue
			}
			task := &model.CallTask{
				CampaignID:  campaign.ID,
				CandidateID: c.ID,
				Phone:       phone,
				CallDay:     voice.CallDay,
				Transfer:    voice.TransferNumber,
				Status:      model.CallTaskStatusQueued,
			}
			if err := o.writer.InsertCallTask(ctx, task); err != nil {
				out.CallTasksFailed++
				zap.L().Warn("launch: queue call task failed",
					zap.String("campaign_id", campaign.ID),
					zap.String("candidate_id", c.ID),
					zap.Error(err),
				)
				continue
			}
			out.CallTasksQueued++
		}
	}

	out.Message = fmt.Sprintf("Campaign %q launched with %d/%d leads", req.CampaignName, out.LeadsInserted, len(req.Candidates))
	if req.Channels.VoiceEnabled() {
		out.Message += fmt.Sprintf(" and %d voice calls queued", out.CallTasksQueued)
	}
	return out, nil
}

func (o *Orchestrator) clearSession(ctx context.Context, id string) {
	if o.sessions == nil || id == "" {
		return
	}
	if err := o.sessions.Clear(ctx, id); err != nil {
		zap.L().Warn("launch: clear session draft", zap.String("session_id", id), zap.Error(err))
	}
}

func buildRequest(req Request) outreach.LaunchRequest {
	cands := make([]outreach.LaunchCandidate, len(req.Candidates))
	for i, c := range req.Candidates {
		cands[i] = outreach.LaunchCandidate{
			ID:              c.ID,
			FirstName:       c.FirstName,
			LastName:        c.LastName,
			Email:           c.ResolvedEmail(),
			Phone:           c.ResolvedPhone(),
			Tier:            c.Tier,
			Personalization: c.Personalization,
		}
	}
	return outreach.LaunchRequest{
		JobID:        req.Job.ID,
		CampaignName: req.CampaignName,
		SenderEmail:  req.Channels.SenderEmail(),
		Candidates:   cands,
		Channels:     req.Channels,
	}
}
