package outreach

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/resilience"
)

func newTestServer(t *testing.T, path string, status int, body string, check func(r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, path, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		if check != nil {
			check(r)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckQuality(t *testing.T) {
	srv := newTestServer(t, "/quality-check", http.StatusOK,
		`{"can_launch": false, "issues": [{"severity": "critical", "category": "Contacts", "description": "2 candidates lack contact"}], "summary": {"critical": 1, "warnings": 0, "info": 0}}`,
		func(r *http.Request) {
			var req QualityRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "Spring push", req.CampaignName)
			require.Len(t, req.Candidates, 1)
			assert.True(t, req.Candidates[0].HasEmail)
			assert.Equal(t, 3, req.EmailSequenceLen)
		})

	client := NewClient("k", WithBaseURL(srv.URL))
	res, err := client.CheckQuality(context.Background(), QualityRequest{
		CampaignName:     "Spring push",
		Candidates:       []CandidateSummary{{ID: "c1", HasEmail: true}},
		EmailSequenceLen: 3,
	})
	require.NoError(t, err)
	assert.False(t, res.CanLaunch)
	assert.Equal(t, 1, res.Summary.Critical)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, model.SeverityCritical, res.Issues[0].Severity)
}

func TestProbeIntegrations(t *testing.T) {
	srv := newTestServer(t, "/integrations/probe", http.StatusOK,
		`{"channels": {"email": {"connected": true, "details": "mailbox ok"}, "sms": {"connected": false, "details": "no number", "error": "401"}}}`,
		func(r *http.Request) {
			assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		})

	client := NewClient("k", WithBaseURL(srv.URL))
	res, err := client.ProbeIntegrations(context.Background(), ProbeRequest{Channels: []string{"email", "sms"}})
	require.NoError(t, err)
	assert.True(t, res.Channels["email"].Connected)
	assert.False(t, res.Channels["sms"].Connected)
	assert.Equal(t, "401", res.Channels["sms"].Error)
}

func TestLaunch(t *testing.T) {
	srv := newTestServer(t, "/campaigns/launch", http.StatusOK,
		`{"campaign_id": "camp-1", "message": "Campaign launched"}`,
		func(r *http.Request) {
			var req LaunchRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Len(t, req.Candidates, 1)
			assert.Equal(t, "ada@home.com", req.Candidates[0].Email)
			assert.NotNil(t, req.Channels.Email)
		})

	client := NewClient("", WithBaseURL(srv.URL))
	res, err := client.Launch(context.Background(), LaunchRequest{
		CampaignName: "Spring push",
		Candidates:   []LaunchCandidate{{ID: "c1", Email: "ada@home.com"}},
		Channels:     model.ChannelConfig{Email: &model.EmailChannel{Sender: "r@example.com"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "camp-1", res.CampaignID)
}

func TestLaunch_MissingCampaignID(t *testing.T) {
	srv := newTestServer(t, "/campaigns/launch", http.StatusOK, `{"message": "queued"}`, nil)

	_, err := NewClient("k", WithBaseURL(srv.URL)).Launch(context.Background(), LaunchRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing campaign_id")
}

func TestPost_Errors(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantErr       string
		wantTransient bool
	}{
		{name: "service unavailable", status: http.StatusServiceUnavailable, body: "down", wantErr: "unexpected status 503", wantTransient: true},
		{name: "bad request", status: http.StatusBadRequest, body: `{"error":"bad"}`, wantErr: "unexpected status 400"},
		{name: "malformed", status: http.StatusOK, body: `{nope`, wantErr: "unmarshal /quality-check"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, "/quality-check", tt.status, tt.body, nil)
			_, err := NewClient("k", WithBaseURL(srv.URL)).CheckQuality(context.Background(), QualityRequest{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, tt.wantTransient, resilience.IsTransient(err))
		})
	}
}

func TestWithTimeout(t *testing.T) {
	c := NewClient("k", WithTimeout(5*time.Second)).(*httpClient)
	assert.Equal(t, 5*time.Second, c.http.Timeout)

	c = NewClient("k", WithTimeout(0)).(*httpClient)
	assert.Equal(t, 60*time.Second, c.http.Timeout)
}
