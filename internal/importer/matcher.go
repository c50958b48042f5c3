// Package importer matches a bulk contact file against the candidate set
// and persists the personal contact details it supplies.
package importer

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/outreach-cli/internal/candidate"
	"github.com/sells-group/outreach-cli/internal/contact"
	"github.com/sells-group/outreach-cli/internal/metrics"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/store"
)

// ErrNoData is returned when the content has a valid header but no data rows.
var ErrNoData = eris.New("importer: no data rows")

// RequiredColumns are the header columns every import file must carry.
var RequiredColumns = []string{"candidate_id"}

// ContactWriter persists imported contact details.
type ContactWriter interface {
	UpdateCandidateContact(ctx context.Context, id string, u store.ContactUpdate) error
}

// RowResult is the classification of one import row.
type RowResult struct {
	CandidateID string                  `json:"candidate_id"`
	Name        string                  `json:"name,omitempty"`
	Email       string                  `json:"email,omitempty"`
	Phone       string                  `json:"phone,omitempty"`
	Location    string                  `json:"location,omitempty"`
	Status      model.ImportMatchStatus `json:"status"`
	WriteError  string                  `json:"write_error,omitempty"`
}

// Result summarizes an import.
type Result struct {
	Updated int         `json:"updated"`
	Skipped int         `json:"skipped"`
	Failed  int         `json:"failed"`
	Rows    []RowResult `json:"rows"`
}

// Counts returns the number of rows per classification.
func (r *Result) Counts() map[model.ImportMatchStatus]int {
	out := make(map[model.ImportMatchStatus]int, 3)
	for _, row := range r.Rows {
		out[row.Status]++
	}
	return out
}

// Matcher runs bulk imports.
type Matcher struct {
	writer ContactWriter
	now    func() time.Time
}

// NewMatcher creates a Matcher that persists through w.
func NewMatcher(w ContactWriter) *Matcher {
	return &Matcher{writer: w, now: time.Now}
}

type pending struct {
	idx   int
	patch model.Candidate
}

// Import classifies every row of content against set, then writes the
// matched rows. A failed write is counted and logged; remaining writes
// continue. The set is only updated for writes that succeeded. Each write
// merges its row into the latest set state, so repeated ids accumulate.
func (m *Matcher) Import(ctx context.Context, content string, set *candidate.Set) (*Result, error) {
	log := zap.L().With(zap.String("component", "importer"))

	rows, err := contact.ParseRecords(content, RequiredColumns)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoData
	}

	res := &Result{Rows: make([]RowResult, 0, len(rows))}
	var toWrite []pending

	for _, row := range rows {
		rr, patch, ok := m.classify(row, set)
		res.Rows = append(res.Rows, rr)
		if ok {
			toWrite = append(toWrite, pending{idx: len(res.Rows) - 1, patch: patch})
		}
	}

	for _, p := range toWrite {
		cur, ok := set.Get(p.patch.ID)
		if !ok {
			cur = model.Candidate{ID: p.patch.ID}
		}
		proposed := cur.Clone().MergeContact(p.patch)
		err := m.writer.UpdateCandidateContact(ctx, proposed.ID, store.ContactUpdateFrom(proposed))
		if err != nil {
			res.Failed++
			res.Rows[p.idx].WriteError = err.Error()
			log.Warn("importer: contact write failed",
				zap.String("candidate_id", proposed.ID),
				zap.Error(err),
			)
			continue
		}
		set.Replace(proposed)
		res.Updated++
	}

	counts := res.Counts()
	res.Skipped = counts[model.ImportNoData] + counts[model.ImportNotFound] + res.Failed
	for status, n := range counts {
		metrics.ImportRows.WithLabelValues(string(status)).Add(float64(n))
	}

	log.Info("importer: import complete",
		zap.Int("rows", len(res.Rows)),
		zap.Int("matched", counts[model.ImportMatched]),
		zap.Int("no_data", counts[model.ImportNoData]),
		zap.Int("not_found", counts[model.ImportNotFound]),
		zap.Int("updated", res.Updated),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}

func (m *Matcher) classify(row contact.Row, set *candidate.Set) (RowResult, model.Candidate, bool) {
	id := row.Get("candidate_id")
	rawEmail := strings.ToLower(strings.TrimSpace(row.Get("personal_email", "email")))
	phone := contact.NormalizePhone(row.Get("personal_phone", "phone"))

	rr := RowResult{
		CandidateID: id,
		Name:        rowName(row),
		Email:       rawEmail,
		Location:    rowLocation(row),
	}
	if phone != nil {
		rr.Phone = *phone
	}

	cand, ok := set.Get(id)
	if id == "" || !ok {
		rr.Status = model.ImportNotFound
		return rr, model.Candidate{}, false
	}
	if rr.Name == "" {
		rr.Name = cand.FullName()
	}

	validEmail := contact.ValidateEmail(rawEmail)
	if !validEmail && phone == nil {
		rr.Status = model.ImportNoData
		return rr, model.Candidate{}, false
	}

	rr.Status = model.ImportMatched
	now := m.now().UTC()
	patch := model.Candidate{
		ID:               cand.ID,
		EnrichmentSource: model.SourceBulkImport,
		EnrichmentTier:   model.TierPlatinum,
		EnrichedAt:       &now,
	}
	if validEmail {
		patch.PersonalEmail = rawEmail
	}
	if phone != nil {
		patch.PersonalMobile = *phone
	}
	return rr, patch, true
}

func rowName(row contact.Row) string {
	if n := row.Get("name", "full_name"); n != "" {
		return n
	}
	return strings.TrimSpace(row.Get("first_name") + " " + row.Get("last_name"))
}

func rowLocation(row contact.Row) string {
	if loc := row.Get("location"); loc != "" {
		return loc
	}
	city, state := row.Get("city"), row.Get("state")
	switch {
	case city != "" && state != "":
		return city + ", " + state
	default:
		return city + state
	}
}
