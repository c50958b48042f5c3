package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/outreach-cli/internal/db"
	"github.com/sells-group/outreach-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns, minConns := int32(10), int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS jobs (
	id        TEXT PRIMARY KEY,
	title     TEXT NOT NULL DEFAULT '',
	specialty TEXT NOT NULL DEFAULT '',
	city      TEXT NOT NULL DEFAULT '',
	state     TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS candidates (
	id                TEXT PRIMARY KEY,
	job_id            TEXT NOT NULL DEFAULT '',
	first_name        TEXT NOT NULL DEFAULT '',
	last_name         TEXT NOT NULL DEFAULT '',
	specialty         TEXT NOT NULL DEFAULT '',
	city              TEXT NOT NULL DEFAULT '',
	state             TEXT NOT NULL DEFAULT '',
	tier              TEXT NOT NULL DEFAULT '',
	work_email        TEXT NOT NULL DEFAULT '',
	work_phone        TEXT NOT NULL DEFAULT '',
	personal_email    TEXT NOT NULL DEFAULT '',
	personal_mobile   TEXT NOT NULL DEFAULT '',
	enrichment_source TEXT NOT NULL DEFAULT '',
	enrichment_tier   TEXT NOT NULL DEFAULT '',
	enriched_at       TIMESTAMPTZ,
	enrichment_needed BOOLEAN NOT NULL DEFAULT true,
	personalization   JSONB,
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_candidates_job_id ON candidates(job_id);

CREATE TABLE IF NOT EXISTS campaigns (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	job_id        TEXT NOT NULL,
	channels      JSONB NOT NULL,
	candidate_ids JSONB NOT NULL,
	status        TEXT NOT NULL DEFAULT 'draft',
	sender_email  TEXT NOT NULL DEFAULT '',
	leads_count   INTEGER NOT NULL DEFAULT 0,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS leads (
	id           TEXT PRIMARY KEY,
	campaign_id  TEXT NOT NULL REFERENCES campaigns(id),
	candidate_id TEXT NOT NULL,
	name         TEXT NOT NULL DEFAULT '',
	email        TEXT NOT NULL DEFAULT '',
	phone        TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL DEFAULT 'pending',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_leads_campaign_id ON leads(campaign_id);

CREATE TABLE IF NOT EXISTS call_tasks (
	id              TEXT PRIMARY KEY,
	campaign_id     TEXT NOT NULL REFERENCES campaigns(id),
	candidate_id    TEXT NOT NULL,
	phone           TEXT NOT NULL,
	call_day        INTEGER NOT NULL DEFAULT 1,
	transfer_number TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL DEFAULT 'queued',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_call_tasks_campaign_id ON call_tasks(campaign_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

const candidateColumns = `id, job_id, first_name, last_name, specialty, city, state, tier,
	work_email, work_phone, personal_email, personal_mobile,
	enrichment_source, enrichment_tier, enriched_at, enrichment_needed, personalization`

func scanPostgresCandidate(row pgx.Row) (model.Candidate, error) {
	var c model.Candidate
	var pers []byte
	err := row.Scan(
		&c.ID, &c.JobID, &c.FirstName, &c.LastName, &c.Specialty, &c.City, &c.State, &c.Tier,
		&c.WorkEmail, &c.WorkPhone, &c.PersonalEmail, &c.PersonalMobile,
		&c.EnrichmentSource, &c.EnrichmentTier, &c.EnrichedAt, &c.EnrichmentNeeded, &pers,
	)
	if err != nil {
		return c, err
	}
	if len(pers) > 0 {
		c.Personalization = &model.Personalization{}
		if err := json.Unmarshal(pers, c.Personalization); err != nil {
			return c, eris.Wrapf(err, "unmarshal personalization for %s", c.ID)
		}
	}
	return c, nil
}

func (s *PostgresStore) queryCandidates(ctx context.Context, op, sql string, args ...any) ([]model.Candidate, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: %s", op)
	}
	defer rows.Close()

	var out []model.Candidate
	for rows.Next() {
		c, err := scanPostgresCandidate(rows)
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: %s: scan", op)
		}
		out = append(out, c)
	}
	return out, eris.Wrapf(rows.Err(), "postgres: %s: rows", op)
}

func (s *PostgresStore) GetCandidates(ctx context.Context, ids []string) ([]model.Candidate, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.queryCandidates(ctx, "get candidates",
		`SELECT `+candidateColumns+` FROM candidates WHERE id = ANY($1)`, ids)
}

func (s *PostgresStore) ListCandidates(ctx context.Context, jobID string) ([]model.Candidate, error) {
	return s.queryCandidates(ctx, "list candidates",
		`SELECT `+candidateColumns+` FROM candidates WHERE job_id = $1 ORDER BY last_name, first_name, id`, jobID)
}

func marshalPersonalization(p *model.Personalization) ([]byte, error) {
	if p.IsEmpty() {
		return nil, nil
	}
	return json.Marshal(p)
}

func candidateRow(c model.Candidate) ([]any, error) {
	pers, err := marshalPersonalization(c.Personalization)
	if err != nil {
		return nil, eris.Wrapf(err, "marshal personalization for %s", c.ID)
	}
	return []any{
		c.ID, c.JobID, c.FirstName, c.LastName, c.Specialty, c.City, c.State, c.Tier,
		c.WorkEmail, c.WorkPhone, c.PersonalEmail, c.PersonalMobile,
		c.EnrichmentSource, c.EnrichmentTier, c.EnrichedAt, c.EnrichmentNeeded, pers,
	}, nil
}

var candidateUpsertColumns = []string{
	"id", "job_id", "first_name", "last_name", "specialty", "city", "state", "tier",
	"work_email", "work_phone", "personal_email", "personal_mobile",
	"enrichment_source", "enrichment_tier", "enriched_at", "enrichment_needed", "personalization",
}

func (s *PostgresStore) UpsertCandidate(ctx context.Context, c model.Candidate) error {
	args, err := candidateRow(c)
	if err != nil {
		return eris.Wrap(err, "postgres: upsert candidate")
	}
	_, err = s.pool.Exec(ctx, `INSERT INTO candidates (`+candidateColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (id) DO UPDATE SET
			job_id = EXCLUDED.job_id, first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name,
			specialty = EXCLUDED.specialty, city = EXCLUDED.city, state = EXCLUDED.state, tier = EXCLUDED.tier,
			work_email = EXCLUDED.work_email, work_phone = EXCLUDED.work_phone,
			personal_email = EXCLUDED.personal_email, personal_mobile = EXCLUDED.personal_mobile,
			enrichment_source = EXCLUDED.enrichment_source, enrichment_tier = EXCLUDED.enrichment_tier,
			enriched_at = EXCLUDED.enriched_at, enrichment_needed = EXCLUDED.enrichment_needed,
			personalization = EXCLUDED.personalization, updated_at = now()`,
		args...,
	)
	return eris.Wrapf(err, "postgres: upsert candidate %s", c.ID)
}

// UpsertCandidates bulk-loads a roster via COPY and a single merge.
func (s *PostgresStore) UpsertCandidates(ctx context.Context, cands []model.Candidate) (int64, error) {
	rows := make([][]any, 0, len(cands))
	for _, c := range cands {
		r, err := candidateRow(c)
		if err != nil {
			return 0, eris.Wrap(err, "postgres: upsert candidates")
		}
		rows = append(rows, r)
	}
	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "candidates",
		Columns:      candidateUpsertColumns,
		ConflictKeys: []string{"id"},
	}, rows)
	return n, eris.Wrap(err, "postgres: upsert candidates")
}

func (s *PostgresStore) UpdateCandidateContact(ctx context.Context, id string, u ContactUpdate) error {
	var enrichedAt *time.Time
	if !u.EnrichedAt.IsZero() {
		enrichedAt = &u.EnrichedAt
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE candidates SET personal_email = $1, personal_mobile = $2, enrichment_source = $3,
			enrichment_tier = $4, enrichment_needed = $5, enriched_at = COALESCE($6, enriched_at), updated_at = now()
		WHERE id = $7`,
		u.PersonalEmail, u.PersonalMobile, u.EnrichmentSource, u.EnrichmentTier, u.EnrichmentNeeded, enrichedAt, id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update candidate contact %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "postgres: update candidate contact %s", id)
	}
	return nil
}

func (s *PostgresStore) GetJob(ctx context.Context, id string) (*model.Job, error) {
	var j model.Job
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, specialty, city, state FROM jobs WHERE id = $1`, id,
	).Scan(&j.ID, &j.Title, &j.Specialty, &j.City, &j.State)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get job %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get job %s", id)
	}
	return &j, nil
}

func (s *PostgresStore) UpsertJob(ctx context.Context, job model.Job) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO jobs (id, title, specialty, city, state) VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET title = EXCLUDED.title, specialty = EXCLUDED.specialty,
			city = EXCLUDED.city, state = EXCLUDED.state`,
		job.ID, job.Title, job.Specialty, job.City, job.State,
	)
	return eris.Wrapf(err, "postgres: upsert job %s", job.ID)
}

func (s *PostgresStore) InsertCampaign(ctx context.Context, c *model.Campaign) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	channels, err := json.Marshal(channelSummary(c.Channels))
	if err != nil {
		return eris.Wrap(err, "postgres: marshal channels")
	}
	ids, err := json.Marshal(candidateIDs(c.Candidates))
	if err != nil {
		return eris.Wrap(err, "postgres: marshal candidate ids")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO campaigns (id, name, job_id, channels, candidate_ids, status, sender_email, leads_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.Name, c.JobID, channels, ids, string(c.Status), c.SenderEmail, c.LeadsCount, c.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert campaign %s", c.ID)
}

func (s *PostgresStore) InsertLead(ctx context.Context, l *model.Lead) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO leads (id, campaign_id, candidate_id, name, email, phone, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		l.ID, l.CampaignID, l.CandidateID, l.Name, l.Email, l.Phone, l.Status, l.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert lead for %s", l.CandidateID)
}

func (s *PostgresStore) InsertCallTask(ctx context.Context, t *model.CallTask) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO call_tasks (id, campaign_id, candidate_id, phone, call_day, transfer_number, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		t.ID, t.CampaignID, t.CandidateID, t.Phone, t.CallDay, t.Transfer, t.Status, t.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert call task for %s", t.CandidateID)
}
