package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return &PostgresStore{pool: mock}, mock
}

var candidateCols = []string{
	"id", "job_id", "first_name", "last_name", "specialty", "city", "state", "tier",
	"work_email", "work_phone", "personal_email", "personal_mobile",
	"enrichment_source", "enrichment_tier", "enriched_at", "enrichment_needed", "personalization",
}

func TestPostgresStore_GetCandidates(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	enriched := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	rows := pgxmock.NewRows(candidateCols).
		AddRow("c1", "j1", "Ada", "Lovelace", "Cardiology", "Austin", "TX", "A",
			"", "", "ada@home.com", "+15551234567",
			model.SourceBulkImport, model.TierPlatinum, &enriched, false, []byte(`{"subject":"Hi Ada"}`)).
		AddRow("c2", "j1", "Grace", "Hopper", "", "", "", "B",
			"grace@work.org", "", "", "",
			"", "", nil, true, nil)

	mock.ExpectQuery(`SELECT .+ FROM candidates WHERE id = ANY\(\$1\)`).
		WithArgs([]string{"c1", "c2"}).
		WillReturnRows(rows)

	got, err := s.GetCandidates(context.Background(), []string{"c1", "c2"})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "ada@home.com", got[0].PersonalEmail)
	assert.Equal(t, model.SourceBulkImport, got[0].EnrichmentSource)
	require.NotNil(t, got[0].EnrichedAt)
	assert.True(t, enriched.Equal(*got[0].EnrichedAt))
	require.NotNil(t, got[0].Personalization)
	assert.Equal(t, "Hi Ada", got[0].Personalization.Subject)

	assert.Nil(t, got[1].EnrichedAt)
	assert.Nil(t, got[1].Personalization)
	assert.True(t, got[1].EnrichmentNeeded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetCandidates_Empty(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	got, err := s.GetCandidates(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListCandidates_QueryError(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM candidates WHERE job_id = \$1`).
		WithArgs("j1").
		WillReturnError(errors.New("connection refused"))

	_, err := s.ListCandidates(context.Background(), "j1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list candidates")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateCandidateContact(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE candidates SET personal_email = \$1`).
		WithArgs("ada@home.com", "+15551234567", model.SourceBulkImport, model.TierPlatinum, false, &at, "c1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.UpdateCandidateContact(context.Background(), "c1", ContactUpdate{
		PersonalEmail:    "ada@home.com",
		PersonalMobile:   "+15551234567",
		EnrichmentSource: model.SourceBulkImport,
		EnrichmentTier:   model.TierPlatinum,
		EnrichedAt:       at,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateCandidateContact_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE candidates`).
		WithArgs("x", "", "Manual", "", false, pgxmock.AnyArg(), "ghost").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateCandidateContact(context.Background(), "ghost", ContactUpdate{PersonalEmail: "x", EnrichmentSource: "Manual"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetJob_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, title, specialty, city, state FROM jobs WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetJob(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetJob(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM jobs WHERE id = \$1`).
		WithArgs("j1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "title", "specialty", "city", "state"}).
			AddRow("j1", "Cardiologist", "Cardiology", "Austin", "TX"))

	job, err := s.GetJob(context.Background(), "j1")
	require.NoError(t, err)
	assert.Equal(t, "Cardiologist", job.Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_InsertCampaign_AssignsID(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO campaigns`).
		WithArgs(pgxmock.AnyArg(), "Spring push", "j1", pgxmock.AnyArg(), pgxmock.AnyArg(),
			"active", "recruiter@example.com", 2, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	c := &model.Campaign{
		Name:        "Spring push",
		JobID:       "j1",
		Status:      model.CampaignActive,
		SenderEmail: "recruiter@example.com",
		LeadsCount:  2,
		Candidates:  []model.Candidate{{ID: "c1"}, {ID: "c2"}},
	}
	require.NoError(t, s.InsertCampaign(context.Background(), c))
	assert.NotEmpty(t, c.ID)
	assert.False(t, c.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_InsertLead_Error(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO leads`).
		WillReturnError(errors.New("fk violation"))

	err := s.InsertLead(context.Background(), &model.Lead{CampaignID: "camp", CandidateID: "c1", Status: model.LeadStatusPending})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert lead for c1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_InsertCallTask(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO call_tasks`).
		WithArgs(pgxmock.AnyArg(), "camp", "c1", "+15551234567", 3, "+15550000000", model.CallTaskStatusQueued, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.InsertCallTask(context.Background(), &model.CallTask{
		CampaignID: "camp", CandidateID: "c1", Phone: "+15551234567",
		CallDay: 3, Transfer: "+15550000000", Status: model.CallTaskStatusQueued,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS jobs`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Ping(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectPing().WillReturnError(errors.New("down"))

	err := s.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: ping")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertCandidates_Bulk(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_candidates"}, candidateUpsertColumns).WillReturnResult(2)
	mock.ExpectExec(`INSERT INTO "candidates"`).WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	n, err := s.UpsertCandidates(context.Background(), []model.Candidate{
		{ID: "c1", FirstName: "Ada", EnrichmentNeeded: true},
		{ID: "c2", FirstName: "Grace", Personalization: &model.Personalization{Subject: "Hello"}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Close_NilFn(t *testing.T) {
	s := &PostgresStore{}
	assert.NoError(t, s.Close())
}
