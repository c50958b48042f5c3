package model

import "time"

// CampaignStatus is the lifecycle state of a campaign.
type CampaignStatus string

const (
	CampaignDraft  CampaignStatus = "draft"
	CampaignActive CampaignStatus = "active"
)

// LeadStatusPending is the initial status of every lead row.
const LeadStatusPending = "pending"

// CallTaskStatusQueued is the initial status of every voice call task.
const CallTaskStatusQueued = "queued"

// Campaign is a launched (or drafted) outreach campaign.
type Campaign struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	JobID       string         `json:"job_id"`
	Channels    ChannelConfig  `json:"channels"`
	Candidates  []Candidate    `json:"candidates,omitempty"`
	Status      CampaignStatus `json:"status"`
	SenderEmail string         `json:"sender_email,omitempty"`
	LeadsCount  int            `json:"leads_count"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Lead is one recipient row of a campaign.
type Lead struct {
	ID          string    `json:"id"`
	CampaignID  string    `json:"campaign_id"`
	CandidateID string    `json:"candidate_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// CallTask queues an AI voice call for a lead.
type CallTask struct {
	ID          string    `json:"id"`
	CampaignID  string    `json:"campaign_id"`
	CandidateID string    `json:"candidate_id"`
	Phone       string    `json:"phone"`
	CallDay     int       `json:"call_day"`
	Transfer    string    `json:"transfer_number,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}
