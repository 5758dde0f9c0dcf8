package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"auction-analyzer/backend/pkg/models"
)

// Schema creates the analyses table. It is safe to apply repeatedly.
const Schema = `CREATE TABLE IF NOT EXISTS analyses (
	id               UUID PRIMARY KEY,
	owner            TEXT NOT NULL,
	case_number      TEXT NOT NULL DEFAULT '',
	status           TEXT NOT NULL,
	file_paths       TEXT[] NOT NULL DEFAULT '{}',
	parsed_documents JSONB,
	rights_analysis  JSONB,
	market_data      JSONB,
	news_analysis    JSONB,
	valuation        JSONB,
	report           JSONB,
	errors           TEXT[] NOT NULL DEFAULT '{}',
	recommendation   TEXT NOT NULL DEFAULT '',
	risk_level       TEXT NOT NULL DEFAULT '',
	expected_roi     DOUBLE PRECISION,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	started_at       TIMESTAMPTZ,
	completed_at     TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS analyses_owner_created_idx ON analyses (owner, created_at DESC);`

const analysisColumns = `id, owner, case_number, status, file_paths, parsed_documents, rights_analysis,
	market_data, news_analysis, valuation, report, errors, recommendation, risk_level,
	expected_roi, created_at, started_at, completed_at`

// PostgresAnalysisStore is a PostgreSQL implementation of the AnalysisStore interface.
type PostgresAnalysisStore struct {
	db *pgxpool.Pool
}

// NewPostgresAnalysisStore creates a new PostgresAnalysisStore.
func NewPostgresAnalysisStore(db *pgxpool.Pool) *PostgresAnalysisStore {
	return &PostgresAnalysisStore{db: db}
}

// Migrate applies Schema.
func (s *PostgresAnalysisStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Create saves a new analysis record.
func (s *PostgresAnalysisStore) Create(ctx context.Context, a *models.Analysis) error {
	_, err := s.db.Exec(ctx,
		"INSERT INTO analyses (id, owner, case_number, status, file_paths, created_at) VALUES ($1, $2, $3, $4, $5, $6)",
		a.ID, a.Owner, a.CaseNumber, string(a.Status), nonNil(a.FilePaths), a.CreatedAt)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row rowScanner) (*models.Analysis, error) {
	var a models.Analysis
	var status string
	err := row.Scan(&a.ID, &a.Owner, &a.CaseNumber, &status, &a.FilePaths,
		&a.Documents, &a.Rights, &a.Market, &a.News, &a.Valuation, &a.Report,
		&a.Errors, &a.Recommendation, &a.RiskLevel, &a.ExpectedROI,
		&a.CreatedAt, &a.StartedAt, &a.CompletedAt)
	if err != nil {
		return nil, err
	}
	a.Status = models.AnalysisStatus(status)
	return &a, nil
}

// Get retrieves an analysis by its ID, scoped to owner.
func (s *PostgresAnalysisStore) Get(ctx context.Context, owner, id string) (*models.Analysis, error) {
	row := s.db.QueryRow(ctx, "SELECT "+analysisColumns+" FROM analyses WHERE id = $1 AND owner = $2", id, owner)
	a, err := scanAnalysis(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

// List returns the owner's analyses, newest first.
func (s *PostgresAnalysisStore) List(ctx context.Context, owner string, limit int) ([]*models.Analysis, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx, "SELECT "+analysisColumns+" FROM analyses WHERE owner = $1 ORDER BY created_at DESC LIMIT $2", owner, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var analyses []*models.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, a)
	}

	return analyses, rows.Err()
}

// MarkRunning sets the status to running and stamps the start time.
func (s *PostgresAnalysisStore) MarkRunning(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, "UPDATE analyses SET status = $1, started_at = now() WHERE id = $2", string(models.AnalysisRunning), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SaveResult stores the stage results and final status of a run.
func (s *PostgresAnalysisStore) SaveResult(ctx context.Context, a *models.Analysis) error {
	tag, err := s.db.Exec(ctx, `UPDATE analyses SET
		status = $1, case_number = $2, parsed_documents = $3, rights_analysis = $4, market_data = $5,
		news_analysis = $6, valuation = $7, report = $8, errors = $9, recommendation = $10,
		risk_level = $11, expected_roi = $12, completed_at = $13
		WHERE id = $14`,
		string(a.Status), a.CaseNumber, jsonb(a.Documents), jsonb(a.Rights), jsonb(a.Market),
		jsonb(a.News), jsonb(a.Valuation), jsonb(a.Report), nonNil(a.Errors), a.Recommendation,
		a.RiskLevel, a.ExpectedROI, a.CompletedAt, a.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes an analysis owned by owner.
func (s *PostgresAnalysisStore) Delete(ctx context.Context, owner, id string) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM analyses WHERE id = $1 AND owner = $2", id, owner)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// jsonb maps an empty document to SQL NULL.
func jsonb(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
