// Package session keeps the draft state of one campaign-build run so an
// interrupted build can resume. A draft is discarded on launch.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/model"
)

// ErrNotFound is returned by Load when no draft exists for the id.
var ErrNotFound = eris.New("session: not found")

// Step names the stage a build run last reached.
type Step string

const (
	StepImport   Step = "import"
	StepEnrich   Step = "enrich"
	StepChannels Step = "channels"
	StepCheck    Step = "check"
	StepLaunch   Step = "launch"
)

// State is the draft of one campaign-build run.
type State struct {
	ID                string              `json:"id"`
	JobID             string              `json:"job_id"`
	CampaignName      string              `json:"campaign_name"`
	Channels          model.ChannelConfig `json:"channels"`
	CandidateIDs      []string            `json:"candidate_ids"`
	ActiveStep        Step                `json:"active_step"`
	EnrichmentRunning bool                `json:"enrichment_running"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

// Store persists drafts.
type Store interface {
	Save(ctx context.Context, s State) error
	Load(ctx context.Context, id string) (*State, error)
	Clear(ctx context.Context, id string) error
}

// MemoryStore is an in-process Store for single-shot CLI runs and tests.
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]State
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]State)}
}

func (m *MemoryStore) Save(_ context.Context, s State) error {
	if s.ID == "" {
		return eris.New("session: save: empty id")
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = time.Now().UTC()
	}
	s.CandidateIDs = append([]string(nil), s.CandidateIDs...)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[s.ID] = s
	return nil
}

func (m *MemoryStore) Load(_ context.Context, id string) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.states[id]
	if !ok {
		return nil, eris.Wrapf(ErrNotFound, "session: load %s", id)
	}
	s.CandidateIDs = append([]string(nil), s.CandidateIDs...)
	return &s, nil
}

func (m *MemoryStore) Clear(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, id)
	return nil
}
