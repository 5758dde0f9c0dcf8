// Package report assembles the user-facing result of an analysis run.
package report

import (
	"encoding/json"
	"time"

	"auction-analyzer/backend/pkg/models"
)

// Disclaimer is attached to every report.
const Disclaimer = "본 분석은 AI가 생성한 참고 자료이며, 실제 투자 결정 시 법률·세무 전문가의 자문을 별도로 받으시기 바랍니다."

// excerptLimit bounds how much of each stage result is quoted in a prompt.
const excerptLimit = 3000

// Assemble builds the deterministic part of a report: the flattened
// valuation, the monthly price chart, the disclaimer and a copy of errors.
// Any argument may be nil.
func Assemble(valuation *models.Valuation, market *models.MarketData, errors []string, now time.Time) *models.Report {
	r := &models.Report{
		Recommendation: models.Hold,
		Disclaimer:     Disclaimer,
		GeneratedAt:    now.UTC(),
	}
	if len(errors) > 0 {
		r.Errors = append([]string(nil), errors...)
	}

	if valuation != nil {
		bid, sale, costs := valuation.BidPrice, valuation.SalePrice, valuation.CostBreakdown
		r.Recommendation = valuation.Recommendation
		r.Reasoning = valuation.Reasoning
		r.RiskSummary = valuation.RiskSummary
		r.BidPrice = &bid
		r.SalePrice = &sale
		r.ExpectedROI = valuation.ExpectedROI
		r.CostBreakdown = &costs
		r.ConfidenceScore = valuation.ConfidenceScore
	}

	if market != nil && len(market.MonthlyAverages) > 0 {
		r.ChartData = append([]models.MonthlyPrice(nil), market.MonthlyAverages...)
	}
	return r
}

// Excerpt renders a stage result for a prompt, truncated to a bounded number
// of characters. A nil result renders as "없음".
func Excerpt[T any](v *T) string {
	if v == nil {
		return "없음"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "없음"
	}
	s := []rune(string(b))
	if len(s) > excerptLimit {
		s = s[:excerptLimit]
	}
	return string(s)
}
