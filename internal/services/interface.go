package services

import (
	"context"

	"auction-analyzer/backend/internal/market"
	"auction-analyzer/backend/pkg/models"
)

// Completer is an interface for communicating with the inference service.
type Completer interface {
	// Complete returns the model's text answer to a single user prompt.
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Extractor pulls text and tables out of a case document.
type Extractor interface {
	Extract(ctx context.Context, path string) (text string, tables [][][]string, err error)
}

// MarketSource fetches recorded transactions for a district and month.
type MarketSource interface {
	market.Source
}

// NewsSource searches recent news articles.
type NewsSource interface {
	Search(ctx context.Context, query string, display int) ([]models.RawNews, error)
}
