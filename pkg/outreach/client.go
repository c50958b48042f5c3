// Package outreach is a client for the campaign backend functions: the
// quality rules engine, the integration probe, and the primary launch call.
package outreach

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/resilience"
)

const defaultBaseURL = "http://localhost:54321/functions/v1"

// Client calls the campaign backend.
type Client interface {
	CheckQuality(ctx context.Context, req QualityRequest) (*model.QualityCheckResult, error)
	ProbeIntegrations(ctx context.Context, req ProbeRequest) (*ProbeResponse, error)
	Launch(ctx context.Context, req LaunchRequest) (*LaunchResponse, error)
}

// CandidateSummary is the per-candidate view sent to the rules engine.
type CandidateSummary struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Tier               string `json:"tier,omitempty"`
	HasEmail           bool   `json:"has_email"`
	HasPhone           bool   `json:"has_phone"`
	HasPersonalization bool   `json:"has_personalization"`
}

// QualityRequest is the body of POST /quality-check.
type QualityRequest struct {
	Job               model.Job          `json:"job"`
	CampaignName      string             `json:"campaign_name"`
	Candidates        []CandidateSummary `json:"candidates"`
	Channels          []string           `json:"channels"`
	EmailSequenceLen  int                `json:"email_sequence_length"`
	SMSSequenceLen    int                `json:"sms_sequence_length"`
	SenderEmail       string             `json:"sender_email,omitempty"`
	VoiceCallsEnabled bool               `json:"voice_enabled"`
}

// ProbeRequest is the body of POST /integrations/probe.
type ProbeRequest struct {
	Channels    []string `json:"channels"`
	SenderEmail string   `json:"sender_email,omitempty"`
}

// ChannelProbe is the probe verdict for one channel.
type ChannelProbe struct {
	Connected bool   `json:"connected"`
	Details   string `json:"details"`
	Error     string `json:"error,omitempty"`
}

// ProbeResponse maps channel name to its verdict.
type ProbeResponse struct {
	Channels map[string]ChannelProbe `json:"channels"`
}

// LaunchCandidate is one recipient in the launch payload.
type LaunchCandidate struct {
	ID              string                 `json:"id"`
	FirstName       string                 `json:"first_name"`
	LastName        string                 `json:"last_name"`
	Email           string                 `json:"email,omitempty"`
	Phone           string                 `json:"phone,omitempty"`
	Tier            string                 `json:"tier,omitempty"`
	Personalization *model.Personalization `json:"personalization,omitempty"`
}

// LaunchRequest is the body of POST /campaigns/launch.
type LaunchRequest struct {
	JobID        string              `json:"job_id"`
	CampaignName string              `json:"campaign_name"`
	SenderEmail  string              `json:"sender_email,omitempty"`
	Candidates   []LaunchCandidate   `json:"candidates"`
	Channels     model.ChannelConfig `json:"channels"`
}

// LaunchResponse is the primary launch result.
type LaunchResponse struct {
	CampaignID string `json:"campaign_id"`
	Message    string `json:"message"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default functions base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a campaign backend client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 60 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) CheckQuality(ctx context.Context, req QualityRequest) (*model.QualityCheckResult, error) {
	var out model.QualityCheckResult
	if err := c.post(ctx, "/quality-check", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) ProbeIntegrations(ctx context.Context, req ProbeRequest) (*ProbeResponse, error) {
	var out ProbeResponse
	if err := c.post(ctx, "/integrations/probe", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) Launch(ctx context.Context, req LaunchRequest) (*LaunchResponse, error) {
	var out LaunchResponse
	if err := c.post(ctx, "/campaigns/launch", req, &out); err != nil {
		return nil, err
	}
	if out.CampaignID == "" {
		return nil, eris.New("outreach: launch response missing campaign_id")
	}
	return &out, nil
}

func (c *httpClient) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return eris.Wrapf(err, "outreach: marshal %s", path)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return eris.Wrapf(err, "outreach: create request %s", path)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return resilience.NewTransientError(eris.Wrapf(err, "outreach: send %s", path), 0)
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrapf(err, "outreach: read %s", path)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := eris.Errorf("outreach: %s: unexpected status %d: %s", path, resp.StatusCode, string(respBody))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return resilience.NewTransientError(err, resp.StatusCode)
		}
		return err
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return eris.Wrapf(err, "outreach: unmarshal %s", path)
	}
	return nil
}
