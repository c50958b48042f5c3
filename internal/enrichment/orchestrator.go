// Package enrichment fills in missing personal contact details through a
// paid lookup provider, checking stored data first so nobody is paid for twice.
package enrichment

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/outreach-cli/internal/candidate"
	"github.com/sells-group/outreach-cli/internal/contact"
	"github.com/sells-group/outreach-cli/internal/cost"
	"github.com/sells-group/outreach-cli/internal/metrics"
	"github.com/sells-group/outreach-cli/internal/model"
	"github.com/sells-group/outreach-cli/internal/resilience"
	"github.com/sells-group/outreach-cli/internal/store"
	"github.com/sells-group/outreach-cli/pkg/enrich"
)

const (
	// DefaultBatchSize is the number of concurrent lookups per batch.
	DefaultBatchSize = 5
	// DefaultBatchDelay is the pause between batches.
	DefaultBatchDelay = 500 * time.Millisecond
	// DefaultSource labels provider results that carry no source of their own.
	DefaultSource = "Enrichment API"
)

var (
	// ErrUnknownCandidate is returned by ManualEntry for an id not in the set.
	ErrUnknownCandidate = eris.New("enrichment: candidate not in set")
	// ErrInvalidEmail is returned by ManualEntry for a malformed email.
	ErrInvalidEmail = eris.New("enrichment: invalid email")
	// ErrNoContact is returned by ManualEntry when neither value is supplied.
	ErrNoContact = eris.New("enrichment: no contact value supplied")
	errInFlight  = eris.New("enrichment: lookup already in progress")
)

// Provider performs one paid lookup. enrich.Client satisfies it.
type Provider interface {
	Lookup(ctx context.Context, req enrich.LookupRequest) (*enrich.LookupResponse, error)
}

// Store is the persistence the orchestrator reads from and writes back to.
type Store interface {
	GetCandidates(ctx context.Context, ids []string) ([]model.Candidate, error)
	UpdateCandidateContact(ctx context.Context, id string, u store.ContactUpdate) error
}

// Outcome is the classification of one candidate in a run.
type Outcome struct {
	CandidateID string                 `json:"candidate_id"`
	Name        string                 `json:"name"`
	Status      model.EnrichmentStatus `json:"status"`
	Source      string                 `json:"source,omitempty"`
	Email       string                 `json:"email,omitempty"`
	Mobile      string                 `json:"mobile,omitempty"`
	Cost        float64                `json:"cost"`
	Paid        bool                   `json:"paid"`
	Retryable   bool                   `json:"retryable,omitempty"`
	Error       string                 `json:"error,omitempty"`
}

// RunResult is what a caller gets back from Run.
type RunResult struct {
	Results       []Outcome         `json:"results"`
	TotalCost     float64           `json:"total_cost"`
	CacheHits     int               `json:"cache_hits"`
	ProviderCalls int               `json:"provider_calls"`
	Batches       int               `json:"batches"`
	WriteFailures int               `json:"write_failures"`
	Candidates    []model.Candidate `json:"candidates"`
}

// Count returns the number of outcomes with status.
func (r *RunResult) Count(status model.EnrichmentStatus) int {
	n := 0
	for _, o := range r.Results {
		if o.Status == status {
			n++
		}
	}
	return n
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithBatchSize sets the number of lookups issued together.
func WithBatchSize(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

// WithBatchDelay sets the pause between batches.
func WithBatchDelay(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d >= 0 {
			o.batchDelay = d
		}
	}
}

// WithBreaker routes provider calls through b.
func WithBreaker(b *resilience.Breaker) Option {
	return func(o *Orchestrator) {
		o.breaker = b
	}
}

// Orchestrator runs enrichment over a candidate set.
type Orchestrator struct {
	provider   Provider
	store      Store
	calc       *cost.Calculator
	breaker    *resilience.Breaker
	batchSize  int
	batchDelay time.Duration

	mu       sync.Mutex
	inFlight map[string]struct{}

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// New creates an Orchestrator.
func New(p Provider, s Store, calc *cost.Calculator, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		provider:   p,
		store:      s,
		calc:       calc,
		batchSize:  DefaultBatchSize,
		batchDelay: DefaultBatchDelay,
		inFlight:   make(map[string]struct{}),
		sleep:      sleepCtx,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Run enriches every candidate in set that has no contact channel. Stored
// records are consulted first; only candidates the store cannot resolve go
// to the provider. A provider failure is recorded per candidate and never
// retried. Run returns an error only when the cache check fails or ctx is
// cancelled between batches.
func (o *Orchestrator) Run(ctx context.Context, set *candidate.Set) (*RunResult, error) {
	log := zap.L().With(zap.String("component", "enrichment"))
	res := &RunResult{}
	ledger := cost.NewLedger()

	need := set.NeedingEnrichment()
	if len(need) == 0 {
		res.Candidates = set.List()
		return res, nil
	}

	ids := make([]string, len(need))
	for i, c := range need {
		ids[i] = c.ID
	}

	stored, err := o.store.GetCandidates(ctx, ids)
	if err != nil {
		return nil, eris.Wrap(err, "enrichment: cache check")
	}
	cached := make(map[string]bool, len(stored))
	for _, sc := range stored {
		if !sc.HasPersonalContact() && sc.EnrichmentSource == "" {
			continue
		}
		cached[sc.ID] = true
		set.Replace(sc)
		res.CacheHits++
		res.Results = append(res.Results, Outcome{
			CandidateID: sc.ID,
			Name:        sc.FullName(),
			Status:      model.EnrichmentSuccess,
			Source:      sc.EnrichmentSource,
			Email:       sc.PersonalEmail,
			Mobile:      sc.PersonalMobile,
		})
	}
	metrics.EnrichmentCacheHits.Add(float64(res.CacheHits))

	var remaining []string
	for _, id := range ids {
		if !cached[id] {
			remaining = append(remaining, id)
		}
	}

	log.Info("enrichment: starting",
		zap.Int("needing", len(ids)),
		zap.Int("cache_hits", res.CacheHits),
		zap.Int("to_lookup", len(remaining)),
		zap.Int("batch_size", o.batchSize),
	)

	for start := 0; start < len(remaining); start += o.batchSize {
		if start > 0 {
			if err := o.sleep(ctx, o.batchDelay); err != nil {
				res.Candidates = set.List()
				res.TotalCost = ledger.Total()
				return res, eris.Wrap(err, "enrichment: interrupted between batches")
			}
		}
		end := min(start+o.batchSize, len(remaining))
		outcomes, calls, writeFailures := o.runBatch(ctx, set, remaining[start:end], ledger)
		res.Results = append(res.Results, outcomes...)
		res.ProviderCalls += calls
		res.WriteFailures += writeFailures
		res.Batches++
	}

	res.TotalCost = ledger.Total()
	res.Candidates = set.List()

	log.Info("enrichment: complete",
		zap.Int("success", res.Count(model.EnrichmentSuccess)),
		zap.Int("no_match", res.Count(model.EnrichmentNoMatch)),
		zap.Int("failed", res.Count(model.EnrichmentFailed)),
		zap.Int("provider_calls", res.ProviderCalls),
		zap.Int("batches", res.Batches),
		zap.Float64("estimated_cost", res.TotalCost),
	)
	return res, nil
}

type lookup struct {
	outcome  Outcome
	proposed *model.Candidate
	called   bool
}

// runBatch issues the batch's lookups concurrently, joins them, then folds
// the results into set before returning so the next batch sees them.
func (o *Orchestrator) runBatch(ctx context.Context, set *candidate.Set, ids []string, ledger *cost.Ledger) ([]Outcome, int, int) {
	results := make([]lookup, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	for i, id := range ids {
		cur, ok := set.Get(id)
		if !ok || !cur.NeedsEnrichment() {
			results[i] = lookup{outcome: Outcome{
				CandidateID: id,
				Name:        cur.FullName(),
				Status:      model.EnrichmentSuccess,
				Source:      cur.EnrichmentSource,
				Email:       cur.PersonalEmail,
				Mobile:      cur.PersonalMobile,
			}}
			continue
		}
		g.Go(func() error {
			results[i] = o.lookupOne(gctx, cur)
			return nil
		})
	}
	_ = g.Wait()

	var outcomes []Outcome
	calls, writeFailures := 0, 0
	for _, r := range results {
		if r.called {
			calls++
		}
		out := r.outcome
		out.Paid = r.called
		if r.proposed != nil {
			if err := o.store.UpdateCandidateContact(ctx, r.proposed.ID, store.ContactUpdateFrom(*r.proposed)); err != nil {
				writeFailures++
				metrics.EnrichmentWriteFailures.Inc()
				zap.L().Warn("enrichment: write-back failed, keeping paid result in memory",
					zap.String("candidate_id", r.proposed.ID),
					zap.Error(err),
				)
			}
			set.Merge(*r.proposed)
		}
		if r.called {
			out.Cost = o.calc.Lookup(out.Status)
			ledger.Add(out.Status, out.Cost)
			metrics.EnrichmentCostUSD.Add(out.Cost)
		}
		metrics.EnrichmentOutcomes.WithLabelValues(string(out.Status)).Inc()
		outcomes = append(outcomes, out)
	}
	return outcomes, calls, writeFailures
}

func (o *Orchestrator) acquire(id string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, busy := o.inFlight[id]; busy {
		return false
	}
	o.inFlight[id] = struct{}{}
	return true
}

func (o *Orchestrator) release(id string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inFlight, id)
}

func (o *Orchestrator) lookupOne(ctx context.Context, c model.Candidate) lookup {
	out := Outcome{CandidateID: c.ID, Name: c.FullName(), Status: model.EnrichmentEnriching}

	if !o.acquire(c.ID) {
		out.Status = model.EnrichmentFailed
		out.Retryable = true
		out.Error = errInFlight.Error()
		return lookup{outcome: out}
	}
	defer o.release(c.ID)

	req := enrich.LookupRequest{
		CandidateID: c.ID,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		City:        c.City,
		State:       c.State,
		Specialty:   c.Specialty,
		WorkEmail:   c.WorkEmail,
	}

	called := false
	call := func(ctx context.Context) (*enrich.LookupResponse, error) {
		called = true
		return o.provider.Lookup(ctx, req)
	}

	var resp *enrich.LookupResponse
	var err error
	if o.breaker != nil {
		resp, err = resilience.Do(ctx, o.breaker, call)
	} else {
		resp, err = call(ctx)
	}

	if err != nil {
		out.Status = model.EnrichmentFailed
		out.Retryable = resilience.Retryable(err)
		out.Error = err.Error()
		zap.L().Debug("enrichment: lookup failed",
			zap.String("candidate_id", c.ID),
			zap.Bool("retryable", out.Retryable),
			zap.Error(err),
		)
		return lookup{outcome: out, called: called}
	}

	email := cleanEmail(resp.PersonalEmail)
	mobile := contact.NormalizePhoneString(resp.PersonalMobile)
	source := resp.Source
	if source == "" {
		source = DefaultSource
	}
	out.Source = source

	if resp.NoMatch || !resp.Success || (email == "" && mobile == "") {
		out.Status = model.EnrichmentNoMatch
		return lookup{outcome: out, called: called}
	}

	now := o.now().UTC()
	proposed := c.Clone()
	if email != "" {
		proposed.PersonalEmail = email
	}
	if mobile != "" {
		proposed.PersonalMobile = mobile
	}
	proposed.EnrichmentSource = source
	proposed.EnrichedAt = &now
	proposed.EnrichmentNeeded = proposed.NeedsEnrichment()

	out.Status = model.EnrichmentSuccess
	out.Email = proposed.PersonalEmail
	out.Mobile = proposed.PersonalMobile
	return lookup{outcome: out, proposed: &proposed, called: called}
}

func cleanEmail(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || !contact.ValidateEmail(s) {
		return ""
	}
	return s
}

// ManualEntry records contact details typed in by an operator. It skips the
// provider, labels the record "Manual" and replaces whatever an automated
// run produced. The set is only updated once the write is confirmed.
func (o *Orchestrator) ManualEntry(ctx context.Context, set *candidate.Set, id, email, mobile string) (model.Candidate, error) {
	cur, ok := set.Get(id)
	if !ok {
		return model.Candidate{}, eris.Wrapf(ErrUnknownCandidate, "manual entry %s", id)
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email != "" && !contact.ValidateEmail(email) {
		return model.Candidate{}, eris.Wrapf(ErrInvalidEmail, "manual entry %s: %q", id, email)
	}
	mobile = contact.NormalizePhoneString(mobile)
	if email == "" && mobile == "" {
		return model.Candidate{}, eris.Wrapf(ErrNoContact, "manual entry %s", id)
	}

	now := o.now().UTC()
	proposed := cur.Clone()
	if email != "" {
		proposed.PersonalEmail = email
	}
	if mobile != "" {
		proposed.PersonalMobile = mobile
	}
	proposed.EnrichmentSource = model.SourceManual
	proposed.EnrichedAt = &now
	proposed.EnrichmentNeeded = proposed.NeedsEnrichment()

	if err := o.store.UpdateCandidateContact(ctx, id, store.ContactUpdateFrom(proposed)); err != nil {
		return model.Candidate{}, eris.Wrapf(err, "enrichment: manual entry %s", id)
	}
	set.Replace(proposed)

	zap.L().Info("enrichment: manual entry recorded",
		zap.String("candidate_id", id),
		zap.Bool("email", email != ""),
		zap.Bool("mobile", mobile != ""),
	)
	return proposed.Clone(), nil
}
