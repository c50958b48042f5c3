// Package store persists candidates, jobs and launched campaigns.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/model"
)

// ErrNotFound is returned when a keyed lookup or update matches no row.
var ErrNotFound = eris.New("store: not found")

// ContactUpdate is the set of contact and enrichment columns written for one
// candidate by the import and enrichment stages.
type ContactUpdate struct {
	PersonalEmail    string
	PersonalMobile   string
	EnrichmentSource string
	EnrichmentTier   string
	EnrichmentNeeded bool
	EnrichedAt       time.Time
}

// ContactUpdateFrom extracts the persisted contact columns from c.
func ContactUpdateFrom(c model.Candidate) ContactUpdate {
	u := ContactUpdate{
		PersonalEmail:    c.PersonalEmail,
		PersonalMobile:   c.PersonalMobile,
		EnrichmentSource: c.EnrichmentSource,
		EnrichmentTier:   c.EnrichmentTier,
		EnrichmentNeeded: c.EnrichmentNeeded,
	}
	if c.EnrichedAt != nil {
		u.EnrichedAt = *c.EnrichedAt
	}
	return u
}

// Store defines the persistence interface for campaign preparation.
type Store interface {
	// Candidates
	GetCandidates(ctx context.Context, ids []string) ([]model.Candidate, error)
	ListCandidates(ctx context.Context, jobID string) ([]model.Candidate, error)
	UpsertCandidate(ctx context.Context, c model.Candidate) error
	UpsertCandidates(ctx context.Context, cands []model.Candidate) (int64, error)
	UpdateCandidateContact(ctx context.Context, id string, u ContactUpdate) error

	// Jobs
	GetJob(ctx context.Context, id string) (*model.Job, error)
	UpsertJob(ctx context.Context, job model.Job) error

	// Launch fallback
	InsertCampaign(ctx context.Context, c *model.Campaign) error
	InsertLead(ctx context.Context, l *model.Lead) error
	InsertCallTask(ctx context.Context, t *model.CallTask) error

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}

// campaignChannels is the channel summary stored on a campaign row.
type campaignChannels struct {
	Enabled []string            `json:"enabled"`
	Config  model.ChannelConfig `json:"config"`
}

func channelSummary(c model.ChannelConfig) campaignChannels {
	return campaignChannels{Enabled: c.EnabledChannels(), Config: c}
}

func candidateIDs(cands []model.Candidate) []string {
	ids := make([]string, 0, len(cands))
	for _, c := range cands {
		ids = append(ids, c.ID)
	}
	return ids
}
