package enrich

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/resilience"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		wantErr       string
		wantTransient bool
		wantNoMatch   bool
		wantEmail     string
	}{
		{
			name:      "success",
			status:    http.StatusOK,
			body:      `{"success": true, "personal_email": "ada@home.com", "personal_mobile": "+15551234567", "source": "contactlookup", "cost": 0.1}`,
			wantEmail: "ada@home.com",
		},
		{
			name:        "explicit no match",
			status:      http.StatusOK,
			body:        `{"success": false, "no_match": true, "source": "contactlookup"}`,
			wantNoMatch: true,
		},
		{
			name:        "not found status is no match",
			status:      http.StatusNotFound,
			body:        `{"error": "no record"}`,
			wantNoMatch: true,
		},
		{
			name:          "rate limit is transient",
			status:        http.StatusTooManyRequests,
			body:          `{"error": "slow down"}`,
			wantErr:       "unexpected status 429",
			wantTransient: true,
		},
		{
			name:          "server error is transient",
			status:        http.StatusBadGateway,
			body:          `bad gateway`,
			wantErr:       "unexpected status 502",
			wantTransient: true,
		},
		{
			name:    "auth error is permanent",
			status:  http.StatusUnauthorized,
			body:    `{"error": "bad key"}`,
			wantErr: "unexpected status 401",
		},
		{
			name:    "provider failure flag",
			status:  http.StatusOK,
			body:    `{"success": false, "message": "quota exhausted"}`,
			wantErr: "quota exhausted",
		},
		{
			name:    "malformed response",
			status:  http.StatusOK,
			body:    `{invalid json`,
			wantErr: "unmarshal response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/enrich", r.URL.Path)
				assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

				var req LookupRequest
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "c1", req.CandidateID)
				assert.Equal(t, "Austin", req.City)

				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient("test-key", WithBaseURL(srv.URL))
			resp, err := client.Lookup(context.Background(), LookupRequest{
				CandidateID: "c1", FirstName: "Ada", LastName: "Lovelace", City: "Austin", State: "TX",
			})

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Equal(t, tt.wantTransient, resilience.IsTransient(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantNoMatch, resp.NoMatch)
			assert.Equal(t, tt.wantEmail, resp.PersonalEmail)
			assert.Equal(t, tt.wantEmail != "", resp.Matched())
		})
	}
}

func TestLookup_TransportErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClient("k", WithBaseURL(url))
	_, err := client.Lookup(context.Background(), LookupRequest{CandidateID: "c1"})
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
}

func TestLookup_RateLimited(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"success": true, "personal_email": "x@y.z", "source": "s"}`))
	}))
	defer srv.Close()

	client := NewClient("k", WithBaseURL(srv.URL), WithRateLimit(1))

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := client.Lookup(ctx, LookupRequest{CandidateID: "a"})
	require.NoError(t, err)
	_, err = client.Lookup(ctx, LookupRequest{CandidateID: "b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit wait")
	assert.Equal(t, int32(1), calls.Load())
}

func TestWithHTTPClient(t *testing.T) {
	hc := &http.Client{Timeout: time.Second}
	c := NewClient("k", WithHTTPClient(hc), WithRateLimit(0)).(*httpClient)
	assert.Same(t, hc, c.http)
	assert.Nil(t, c.limiter)
}

func TestWithTimeout(t *testing.T) {
	c := NewClient("k", WithTimeout(5*time.Second)).(*httpClient)
	assert.Equal(t, 5*time.Second, c.http.Timeout)

	c = NewClient("k", WithTimeout(0)).(*httpClient)
	assert.Equal(t, 30*time.Second, c.http.Timeout)
}

func TestMatched_Nil(t *testing.T) {
	var r *LookupResponse
	assert.False(t, r.Matched())
}
