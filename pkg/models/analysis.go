package models

import (
	"encoding/json"
	"time"
)

// AnalysisStatus is the lifecycle state of a persisted analysis
type AnalysisStatus string

const (
	AnalysisPending AnalysisStatus = "pending"
	AnalysisRunning AnalysisStatus = "running"
	AnalysisDone    AnalysisStatus = "done"
	AnalysisError   AnalysisStatus = "error"
)

// Analysis is one analysis run of an auction case.
type Analysis struct {
	ID             string          `json:"id"`
	Owner          string          `json:"owner"`
	CaseNumber     string          `json:"case_number"`
	Status         AnalysisStatus  `json:"status"`
	FilePaths      []string        `json:"file_paths"`
	Documents      json.RawMessage `json:"parsed_documents,omitempty"`
	Rights         json.RawMessage `json:"rights_analysis,omitempty"`
	Market         json.RawMessage `json:"market_data,omitempty"`
	News           json.RawMessage `json:"news_analysis,omitempty"`
	Valuation      json.RawMessage `json:"valuation,omitempty"`
	Report         json.RawMessage `json:"report,omitempty"`
	Errors         []string        `json:"errors,omitempty"`
	Recommendation string          `json:"recommendation,omitempty"`
	RiskLevel      string          `json:"risk_level,omitempty"`
	ExpectedROI    *float64        `json:"expected_roi,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	StartedAt      *time.Time      `json:"started_at,omitempty"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
}
