package models

import "time"

// ReportSummary is the narrative portion of a report
type ReportSummary struct {
	PropertyOverview string `json:"property_overview"`
	RightsSummary    string `json:"rights_summary"`
	MarketSummary    string `json:"market_summary"`
	NewsSummary      string `json:"news_summary"`
	OverallOpinion   string `json:"overall_opinion"`
}

// Report is the final, user-facing analysis output
type Report struct {
	Summary         *ReportSummary `json:"analysis_summary,omitempty"`
	Recommendation  Recommendation `json:"recommendation,omitempty"`
	Reasoning       string         `json:"reasoning,omitempty"`
	RiskSummary     string         `json:"risk_summary,omitempty"`
	BidPrice        *PriceRange    `json:"bid_price,omitempty"`
	SalePrice       *PriceRange    `json:"sale_price,omitempty"`
	ExpectedROI     float64        `json:"expected_roi"`
	CostBreakdown   *CostBreakdown `json:"cost_breakdown,omitempty"`
	ConfidenceScore float64        `json:"confidence_score"`
	ChartData       []MonthlyPrice `json:"chart_data,omitempty"`
	Errors          []string       `json:"errors,omitempty"`
	Partial         bool           `json:"partial"`
	Disclaimer      string         `json:"disclaimer"`
	GeneratedAt     time.Time      `json:"generated_at"`
}
