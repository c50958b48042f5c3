// Package candidate holds the in-memory candidate collection shared by the
// import, enrichment and manual-entry paths of a campaign build.
package candidate

import (
	"sync"

	"github.com/sells-group/outreach-cli/internal/model"
)

// Set is a concurrency-safe candidate collection keyed by id. Mutations are
// whole-record replacements; the last applied write wins.
type Set struct {
	mu    sync.RWMutex
	byID  map[string]model.Candidate
	order []string
}

// NewSet builds a Set from cands, keeping their order. Later duplicates
// replace earlier ones.
func NewSet(cands []model.Candidate) *Set {
	s := &Set{byID: make(map[string]model.Candidate, len(cands))}
	for _, c := range cands {
		s.Replace(c)
	}
	return s
}

// Len returns the number of candidates.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Get returns a copy of the candidate with id.
func (s *Set) Get(id string) (model.Candidate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byID[id]
	if !ok {
		return model.Candidate{}, false
	}
	return c.Clone(), true
}

// Replace stores c, overwriting any record with the same id.
func (s *Set) Replace(c model.Candidate) {
	if c.ID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[c.ID]; !ok {
		s.order = append(s.order, c.ID)
	}
	s.byID[c.ID] = c.Clone()
}

// Merge applies update onto the stored record with the same id using
// model.Candidate.MergeContact, so empty fields never erase data. It reports
// whether the id was present.
func (s *Set) Merge(update model.Candidate) (model.Candidate, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.byID[update.ID]
	if !ok {
		return model.Candidate{}, false
	}
	merged := cur.MergeContact(update)
	s.byID[update.ID] = merged
	return merged.Clone(), true
}

// IDs returns ids in insertion order.
func (s *Set) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

// List returns copies of all candidates in insertion order.
func (s *Set) List() []model.Candidate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Candidate, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id].Clone())
	}
	return out
}

// Filter returns copies of candidates matching keep.
func (s *Set) Filter(keep func(model.Candidate) bool) []model.Candidate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Candidate
	for _, id := range s.order {
		if c := s.byID[id]; keep(c) {
			out = append(out, c.Clone())
		}
	}
	return out
}

// NeedingEnrichment returns candidates with no contact channel at all.
func (s *Set) NeedingEnrichment() []model.Candidate {
	return s.Filter(model.Candidate.NeedsEnrichment)
}

// ContactReadyCount returns how many candidates have any contact channel.
func (s *Set) ContactReadyCount() int {
	return len(s.Filter(model.Candidate.ContactReady))
}
