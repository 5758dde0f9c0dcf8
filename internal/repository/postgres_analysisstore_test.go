package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"auction-analyzer/backend/pkg/models"
)

func TestPostgresAnalysisStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test-db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2)),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	}()

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatal(err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()

	store := NewPostgresAnalysisStore(pool)
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Migrate(ctx), "schema must be re-appliable")

	newAnalysis := func(owner string, created time.Time) *models.Analysis {
		return &models.Analysis{
			ID:        uuid.New().String(),
			Owner:     owner,
			Status:    models.AnalysisPending,
			FilePaths: []string{"/uploads/registry.pdf"},
			CreatedAt: created,
		}
	}

	t.Run("Create and Get", func(t *testing.T) {
		a := newAnalysis("kim@example.com", time.Now().UTC().Truncate(time.Microsecond))
		require.NoError(t, store.Create(ctx, a))

		got, err := store.Get(ctx, "kim@example.com", a.ID)
		require.NoError(t, err)
		assert.Equal(t, a.ID, got.ID)
		assert.Equal(t, models.AnalysisPending, got.Status)
		assert.Equal(t, a.FilePaths, got.FilePaths)
		assert.Empty(t, got.Report)
		assert.Nil(t, got.StartedAt)
		assert.True(t, a.CreatedAt.Equal(got.CreatedAt))

		_, err = store.Get(ctx, "lee@example.com", a.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Run lifecycle", func(t *testing.T) {
		a := newAnalysis("park@example.com", time.Now().UTC())
		require.NoError(t, store.Create(ctx, a))
		require.NoError(t, store.MarkRunning(ctx, a.ID))

		running, err := store.Get(ctx, a.Owner, a.ID)
		require.NoError(t, err)
		assert.Equal(t, models.AnalysisRunning, running.Status)
		assert.NotNil(t, running.StartedAt)

		roi := 18.8
		done := time.Now().UTC()
		a.Status = models.AnalysisDone
		a.CaseNumber = "2024타경12345"
		a.Report = json.RawMessage(`{"recommendation":"추천"}`)
		a.Rights = json.RawMessage(`{"risk_level":"low"}`)
		a.Errors = []string{"news_analyzer failed: no news"}
		a.Recommendation = "추천"
		a.RiskLevel = "low"
		a.ExpectedROI = &roi
		a.CompletedAt = &done
		require.NoError(t, store.SaveResult(ctx, a))

		got, err := store.Get(ctx, a.Owner, a.ID)
		require.NoError(t, err)
		assert.Equal(t, models.AnalysisDone, got.Status)
		assert.Equal(t, "2024타경12345", got.CaseNumber)
		assert.JSONEq(t, `{"recommendation":"추천"}`, string(got.Report))
		assert.JSONEq(t, `{"risk_level":"low"}`, string(got.Rights))
		assert.Empty(t, got.Market)
		assert.Equal(t, []string{"news_analyzer failed: no news"}, got.Errors)
		require.NotNil(t, got.ExpectedROI)
		assert.InDelta(t, 18.8, *got.ExpectedROI, 1e-9)
		assert.NotNil(t, got.CompletedAt)
	})

	t.Run("List is owner scoped and newest first", func(t *testing.T) {
		base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
		older := newAnalysis("choi@example.com", base)
		newer := newAnalysis("choi@example.com", base.Add(time.Hour))
		other := newAnalysis("jung@example.com", base)
		for _, a := range []*models.Analysis{older, newer, other} {
			require.NoError(t, store.Create(ctx, a))
		}

		list, err := store.List(ctx, "choi@example.com", 10)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, newer.ID, list[0].ID)
		assert.Equal(t, older.ID, list[1].ID)
	})

	t.Run("Delete", func(t *testing.T) {
		a := newAnalysis("han@example.com", time.Now().UTC())
		require.NoError(t, store.Create(ctx, a))

		assert.ErrorIs(t, store.Delete(ctx, "someone@example.com", a.ID), ErrNotFound)
		require.NoError(t, store.Delete(ctx, a.Owner, a.ID))
		_, err := store.Get(ctx, a.Owner, a.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, store.MarkRunning(ctx, a.ID), ErrNotFound)
	})
}
