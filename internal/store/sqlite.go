package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/outreach-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. Used for local
// runs and tests.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
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
	enriched_at       DATETIME,
	enrichment_needed INTEGER NOT NULL DEFAULT 1,
	personalization   TEXT,
	updated_at        DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_candidates_job_id ON candidates(job_id);

CREATE TABLE IF NOT EXISTS campaigns (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	job_id        TEXT NOT NULL,
	channels      TEXT NOT NULL,
	candidate_ids TEXT NOT NULL,
	status        TEXT NOT NULL DEFAULT 'draft',
	sender_email  TEXT NOT NULL DEFAULT '',
	leads_count   INTEGER NOT NULL DEFAULT 0,
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS leads (
	id           TEXT PRIMARY KEY,
	campaign_id  TEXT NOT NULL REFERENCES campaigns(id),
	candidate_id TEXT NOT NULL,
	name         TEXT NOT NULL DEFAULT '',
	email        TEXT NOT NULL DEFAULT '',
	phone        TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL DEFAULT 'pending',
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
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
	created_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_call_tasks_campaign_id ON call_tasks(campaign_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteCandidate(row rowScanner) (model.Candidate, error) {
	var c model.Candidate
	var enrichedAt sql.NullTime
	var pers sql.NullString
	err := row.Scan(
		&c.ID, &c.JobID, &c.FirstName, &c.LastName, &c.Specialty, &c.City, &c.State, &c.Tier,
		&c.WorkEmail, &c.WorkPhone, &c.PersonalEmail, &c.PersonalMobile,
		&c.EnrichmentSource, &c.EnrichmentTier, &enrichedAt, &c.EnrichmentNeeded, &pers,
	)
	if err != nil {
		return c, err
	}
	if enrichedAt.Valid {
		t := enrichedAt.Time.UTC()
		c.EnrichedAt = &t
	}
	if pers.Valid && pers.String != "" {
		c.Personalization = &model.Personalization{}
		if err := json.Unmarshal([]byte(pers.String), c.Personalization); err != nil {
			return c, eris.Wrapf(err, "unmarshal personalization for %s", c.ID)
		}
	}
	return c, nil
}

func (s *SQLiteStore) queryCandidates(ctx context.Context, op, query string, args ...any) ([]model.Candidate, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: %s", op)
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Candidate
	for rows.Next() {
		c, err := scanSQLiteCandidate(rows)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: %s: scan", op)
		}
		out = append(out, c)
	}
	return out, eris.Wrapf(rows.Err(), "sqlite: %s: rows", op)
}

func (s *SQLiteStore) GetCandidates(ctx context.Context, ids []string) ([]model.Candidate, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return s.queryCandidates(ctx, "get candidates",
		`SELECT `+candidateColumns+` FROM candidates WHERE id IN (`+placeholders+`)`, args...)
}

func (s *SQLiteStore) ListCandidates(ctx context.Context, jobID string) ([]model.Candidate, error) {
	return s.queryCandidates(ctx, "list candidates",
		`SELECT `+candidateColumns+` FROM candidates WHERE job_id = ? ORDER BY last_name, first_name, id`, jobID)
}

func sqliteCandidateArgs(c model.Candidate) ([]any, error) {
	pers, err := marshalPersonalization(c.Personalization)
	if err != nil {
		return nil, eris.Wrapf(err, "marshal personalization for %s", c.ID)
	}
	var persArg any
	if pers != nil {
		persArg = string(pers)
	}
	var enrichedAt any
	if c.EnrichedAt != nil {
		enrichedAt = c.EnrichedAt.UTC()
	}
	return []any{
		c.ID, c.JobID, c.FirstName, c.LastName, c.Specialty, c.City, c.State, c.Tier,
		c.WorkEmail, c.WorkPhone, c.PersonalEmail, c.PersonalMobile,
		c.EnrichmentSource, c.EnrichmentTier, enrichedAt, c.EnrichmentNeeded, persArg,
	}, nil
}

const sqliteUpsertCandidate = `INSERT INTO candidates (` + candidateColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		job_id = excluded.job_id, first_name = excluded.first_name, last_name = excluded.last_name,
		specialty = excluded.specialty, city = excluded.city, state = excluded.state, tier = excluded.tier,
		work_email = excluded.work_email, work_phone = excluded.work_phone,
		personal_email = excluded.personal_email, personal_mobile = excluded.personal_mobile,
		enrichment_source = excluded.enrichment_source, enrichment_tier = excluded.enrichment_tier,
		enriched_at = excluded.enriched_at, enrichment_needed = excluded.enrichment_needed,
		personalization = excluded.personalization, updated_at = datetime('now')`

func (s *SQLiteStore) UpsertCandidate(ctx context.Context, c model.Candidate) error {
	args, err := sqliteCandidateArgs(c)
	if err != nil {
		return eris.Wrap(err, "sqlite: upsert candidate")
	}
	_, err = s.db.ExecContext(ctx, sqliteUpsertCandidate, args...)
	return eris.Wrapf(err, "sqlite: upsert candidate %s", c.ID)
}

// UpsertCandidates writes the roster in one transaction.
func (s *SQLiteStore) UpsertCandidates(ctx context.Context, cands []model.Candidate) (int64, error) {
	if len(cands) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: upsert candidates: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, sqliteUpsertCandidate)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: upsert candidates: prepare")
	}
	defer stmt.Close() //nolint:errcheck

	var n int64
	for _, c := range cands {
		args, err := sqliteCandidateArgs(c)
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: upsert candidates")
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert candidates: %s", c.ID)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: upsert candidates: commit")
	}
	return n, nil
}

func (s *SQLiteStore) UpdateCandidateContact(ctx context.Context, id string, u ContactUpdate) error {
	var enrichedAt any
	if !u.EnrichedAt.IsZero() {
		enrichedAt = u.EnrichedAt.UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE candidates SET personal_email = ?, personal_mobile = ?, enrichment_source = ?,
			enrichment_tier = ?, enrichment_needed = ?, enriched_at = COALESCE(?, enriched_at),
			updated_at = datetime('now')
		WHERE id = ?`,
		u.PersonalEmail, u.PersonalMobile, u.EnrichmentSource, u.EnrichmentTier, u.EnrichmentNeeded, enrichedAt, id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update candidate contact %s", id)
	}
	return checkRowsAffected(res, "candidate", id)
}

func (s *SQLiteStore) GetJob(ctx context.Context, id string) (*model.Job, error) {
	var j model.Job
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, specialty, city, state FROM jobs WHERE id = ?`, id,
	).Scan(&j.ID, &j.Title, &j.Specialty, &j.City, &j.State)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: get job %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get job %s", id)
	}
	return &j, nil
}

func (s *SQLiteStore) UpsertJob(ctx context.Context, job model.Job) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, title, specialty, city, state) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET title = excluded.title, specialty = excluded.specialty,
			city = excluded.city, state = excluded.state`,
		job.ID, job.Title, job.Specialty, job.City, job.State,
	)
	return eris.Wrapf(err, "sqlite: upsert job %s", job.ID)
}

func (s *SQLiteStore) InsertCampaign(ctx context.Context, c *model.Campaign) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	channels, err := json.Marshal(channelSummary(c.Channels))
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal channels")
	}
	ids, err := json.Marshal(candidateIDs(c.Candidates))
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal candidate ids")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO campaigns (id, name, job_id, channels, candidate_ids, status, sender_email, leads_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.JobID, string(channels), string(ids), string(c.Status), c.SenderEmail, c.LeadsCount, c.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert campaign %s", c.ID)
}

func (s *SQLiteStore) InsertLead(ctx context.Context, l *model.Lead) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO leads (id, campaign_id, candidate_id, name, email, phone, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.CampaignID, l.CandidateID, l.Name, l.Email, l.Phone, l.Status, l.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert lead for %s", l.CandidateID)
}

func (s *SQLiteStore) InsertCallTask(ctx context.Context, t *model.CallTask) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO call_tasks (id, campaign_id, candidate_id, phone, call_day, transfer_number, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.CampaignID, t.CandidateID, t.Phone, t.CallDay, t.Transfer, t.Status, t.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert call task for %s", t.CandidateID)
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrapf(err, "sqlite: rows affected for %s %s", entity, id)
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "sqlite: %s %s", entity, id)
	}
	return nil
}
