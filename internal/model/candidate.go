package model

import (
	"strings"
	"time"
)

// Enrichment sources written to EnrichmentSource.
const (
	SourceBulkImport = "Bulk Import"
	SourceManual     = "Manual"
)

// TierPlatinum is the enrichment tier assigned to operator-supplied contacts.
const TierPlatinum = "Platinum"

// EnrichmentStatus tracks a candidate through one enrichment run.
type EnrichmentStatus string

const (
	EnrichmentPending   EnrichmentStatus = "pending"
	EnrichmentEnriching EnrichmentStatus = "enriching"
	EnrichmentSuccess   EnrichmentStatus = "success"
	EnrichmentNoMatch   EnrichmentStatus = "no_match"
	EnrichmentFailed    EnrichmentStatus = "failed"
)

// ImportMatchStatus classifies a row of a bulk contact import.
type ImportMatchStatus string

const (
	ImportMatched  ImportMatchStatus = "matched"
	ImportNoData   ImportMatchStatus = "no_data"
	ImportNotFound ImportMatchStatus = "not_found"
)

// Personalization holds generated outreach content for one candidate.
// It is produced elsewhere and treated as opaque input here.
type Personalization struct {
	Subject       string   `json:"subject,omitempty"`
	Body          string   `json:"body,omitempty"`
	SMS           string   `json:"sms,omitempty"`
	TalkingPoints []string `json:"talking_points,omitempty"`
}

// IsEmpty reports whether no content has been generated.
func (p *Personalization) IsEmpty() bool {
	if p == nil {
		return true
	}
	return p.Subject == "" && p.Body == "" && p.SMS == "" && len(p.TalkingPoints) == 0
}

// Candidate is a prospective recipient of a campaign.
//
// Work contact is low-trust data captured at ingestion. Personal contact is
// high-trust data obtained through enrichment, bulk import or manual entry.
type Candidate struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Specialty string `json:"specialty,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
	Tier      string `json:"tier,omitempty"`
	JobID     string `json:"job_id,omitempty"`

	WorkEmail string `json:"work_email,omitempty"`
	WorkPhone string `json:"work_phone,omitempty"`

	PersonalEmail  string `json:"personal_email,omitempty"`
	PersonalMobile string `json:"personal_mobile,omitempty"`

	EnrichmentSource string     `json:"enrichment_source,omitempty"`
	EnrichmentTier   string     `json:"enrichment_tier,omitempty"`
	EnrichedAt       *time.Time `json:"enriched_at,omitempty"`
	EnrichmentNeeded bool       `json:"enrichment_needed"`

	Personalization *Personalization `json:"personalization,omitempty"`
}

// FullName joins first and last name.
func (c Candidate) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// HasPersonalContact reports whether a personal email or mobile is present.
func (c Candidate) HasPersonalContact() bool {
	return c.PersonalEmail != "" || c.PersonalMobile != ""
}

// HasWorkContact reports whether a work email or phone is present.
func (c Candidate) HasWorkContact() bool {
	return c.WorkEmail != "" || c.WorkPhone != ""
}

// ContactReady reports whether the candidate can be reached on any channel.
func (c Candidate) ContactReady() bool {
	return c.HasPersonalContact() || c.HasWorkContact()
}

// NeedsEnrichment is true when neither personal nor work contact exists.
func (c Candidate) NeedsEnrichment() bool {
	return !c.ContactReady()
}

// ResolvedEmail prefers the personal email over the work email.
func (c Candidate) ResolvedEmail() string {
	if c.PersonalEmail != "" {
		return c.PersonalEmail
	}
	return c.WorkEmail
}

// ResolvedPhone prefers the personal mobile over the work phone.
func (c Candidate) ResolvedPhone() string {
	if c.PersonalMobile != "" {
		return c.PersonalMobile
	}
	return c.WorkPhone
}

// HasPersonalization reports whether generated content is attached.
func (c Candidate) HasPersonalization() bool {
	return !c.Personalization.IsEmpty()
}

// MergeContact returns c updated with every non-empty contact and enrichment
// field from other. Empty values in other never clear populated values in c.
func (c Candidate) MergeContact(other Candidate) Candidate {
	out := c
	if other.WorkEmail != "" {
		out.WorkEmail = other.WorkEmail
	}
	if other.WorkPhone != "" {
		out.WorkPhone = other.WorkPhone
	}
	if other.PersonalEmail != "" {
		out.PersonalEmail = other.PersonalEmail
	}
	if other.PersonalMobile != "" {
		out.PersonalMobile = other.PersonalMobile
	}
	if other.EnrichmentSource != "" {
		out.EnrichmentSource = other.EnrichmentSource
	}
	if other.EnrichmentTier != "" {
		out.EnrichmentTier = other.EnrichmentTier
	}
	if other.EnrichedAt != nil {
		t := *other.EnrichedAt
		out.EnrichedAt = &t
	}
	if !other.Personalization.IsEmpty() {
		out.Personalization = other.Personalization
	}
	out.EnrichmentNeeded = out.NeedsEnrichment()
	return out
}

// Clone returns a deep copy safe to mutate independently.
func (c Candidate) Clone() Candidate {
	out := c
	if c.EnrichedAt != nil {
		t := *c.EnrichedAt
		out.EnrichedAt = &t
	}
	if c.Personalization != nil {
		p := *c.Personalization
		p.TalkingPoints = append([]string(nil), c.Personalization.TalkingPoints...)
		out.Personalization = &p
	}
	return out
}

// Job is the position a campaign recruits for.
type Job struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Specialty string `json:"specialty,omitempty"`
	City      string `json:"city,omitempty"`
	State     string `json:"state,omitempty"`
}
