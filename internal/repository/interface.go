package repository

import (
	"context"
	"errors"

	"auction-analyzer/backend/pkg/models"
)

// ErrNotFound is returned when no analysis matches the id and owner.
var ErrNotFound = errors.New("analysis not found")

// AnalysisStore is an interface for storing and retrieving analyses.
type AnalysisStore interface {
	// Create saves a new analysis record.
	Create(ctx context.Context, a *models.Analysis) error
	// Get retrieves an analysis by its ID, scoped to owner.
	Get(ctx context.Context, owner, id string) (*models.Analysis, error)
	// List returns the owner's analyses, newest first.
	List(ctx context.Context, owner string, limit int) ([]*models.Analysis, error)
	// MarkRunning sets the status to running and stamps the start time.
	MarkRunning(ctx context.Context, id string) error
	// SaveResult stores the stage results and final status of a run.
	SaveResult(ctx context.Context, a *models.Analysis) error
	// Delete removes an analysis owned by owner.
	Delete(ctx context.Context, owner, id string) error
}
