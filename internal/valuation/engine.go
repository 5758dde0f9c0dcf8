// Package valuation prices a foreclosure bid: costs, bid and sale bands,
// return on investment and the final recommendation.
package valuation

import (
	"fmt"
	"math"
	"strings"

	"auction-analyzer/backend/internal/market"
	"auction-analyzer/backend/internal/workflow"
	"auction-analyzer/backend/pkg/models"
)

const (
	// LegalFee is the flat fee for the court and title paperwork.
	LegalFee int64 = 800_000

	evictionWithOpposition int64 = 5_000_000
	evictionOther          int64 = 2_000_000

	registrationFeePct = 20

	defaultHoldingMonths = 12
	estimateConfidence   = 0.8
)

// EvictionCost estimates the cost of clearing the occupants.
func EvictionCost(tenants []models.TenantAnalysis) int64 {
	var total int64
	for _, t := range tenants {
		if t.HasOppositionRight {
			total += evictionWithOpposition
		} else {
			total += evictionOther
		}
	}
	return total
}

// Costs itemises acquisition costs for a purchase at price.
func Costs(price int64, category Category, houses int, tenants []models.TenantAnalysis) models.CostBreakdown {
	tax := AcquisitionTax(price, category, houses)
	return models.CostBreakdown{
		AcquisitionTax:  tax,
		RegistrationFee: tax * registrationFeePct / 100,
		LegalFee:        LegalFee,
		EvictionCost:    EvictionCost(tenants),
	}
}

// BidPriceRange returns the 65/75/85% bid bands of marketValue less
// deduction, each floored at minimumBid.
func BidPriceRange(marketValue, deduction, minimumBid int64) models.PriceRange {
	band := func(pct int64) int64 {
		return max(marketValue*pct/100-deduction, minimumBid)
	}
	return models.PriceRange{
		Conservative: band(65),
		Moderate:     band(75),
		Aggressive:   band(85),
	}
}

// SalePriceRange returns the expected resale bands around marketValue,
// shifted three points by the price trend and two points each for positive
// and negative news.
func SalePriceRange(marketValue int64, trend models.PriceTrend, positiveNews, negativeNews bool) models.PriceRange {
	var adj int64
	switch trend {
	case models.TrendRising:
		adj += 3
	case models.TrendFalling:
		adj -= 3
	}
	if positiveNews {
		adj += 2
	}
	if negativeNews {
		adj -= 2
	}
	band := func(pct int64) int64 {
		return marketValue * (pct + adj) / 100
	}
	return models.PriceRange{
		Conservative: band(95),
		Moderate:     band(100),
		Aggressive:   band(107),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// ROI computes the return of each sale band for a purchase at bid plus
// cost. The annual figure scales the moderate return by the holding period.
func ROI(bid int64, sale models.PriceRange, cost int64, holdingMonths int) models.ROI {
	investment := bid + cost
	if investment <= 0 {
		return models.ROI{}
	}
	ret := func(s int64) float64 {
		return float64(s-investment) / float64(investment) * 100
	}
	moderate := ret(sale.Moderate)
	var annual float64
	if holdingMonths > 0 {
		annual = moderate / (float64(holdingMonths) / 12)
	}
	return models.ROI{
		Conservative: round1(ret(sale.Conservative)),
		Moderate:     round1(moderate),
		Optimistic:   round1(ret(sale.Aggressive)),
		Annual:       round1(annual),
	}
}

// Recommend decides whether to bid.
func Recommend(risk models.RiskLevel, moderateROI float64, assumedCost int64) (models.Recommendation, string) {
	switch {
	case risk == models.RiskHigh || moderateROI < 5 || assumedCost > 0:
		return models.NotRecommend, "Risk is high, assumed rights remain or the expected return is too low."
	case risk == models.RiskLow && moderateROI >= 15:
		return models.Recommend, fmt.Sprintf("Low risk with an expected return of %.1f%%.", moderateROI)
	default:
		return models.Hold, "Further review is needed before bidding."
	}
}

// Input gathers the upstream results valuation depends on. Any field may be
// nil.
type Input struct {
	Registry  *models.Registry
	Appraisal *models.Appraisal
	SaleItem  *models.SaleItem
	Rights    *models.RightsAnalysis
	Market    *models.MarketData
	News      *models.NewsAnalysis
	Houses    int
}

// EstimateValue derives the market value of the property, preferring the
// market price per pyeong over the appraisal.
func EstimateValue(reg *models.Registry, appraisal *models.Appraisal, md *models.MarketData) (int64, error) {
	if md != nil && md.AvgPricePerPyeong > 0 && reg != nil && reg.Area > 0 {
		return int64(float64(md.AvgPricePerPyeong) * (reg.Area / market.SqmPerPyeong)), nil
	}
	if appraisal != nil && appraisal.AppraisedValue > 0 {
		return appraisal.AppraisedValue, nil
	}
	return 0, fmt.Errorf("no market price or appraisal: %w", workflow.ErrComputationImpossible)
}

// Engine runs the valuation.
type Engine struct {
	holdingMonths int
}

// NewEngine creates an Engine for the given holding period.
func NewEngine(holdingMonths int) *Engine {
	if holdingMonths <= 0 {
		holdingMonths = defaultHoldingMonths
	}
	return &Engine{holdingMonths: holdingMonths}
}

// Evaluate produces the valuation. Missing rights data is treated as medium
// risk with no tenants and nothing assumed.
func (e *Engine) Evaluate(in Input) (*models.Valuation, error) {
	value, err := EstimateValue(in.Registry, in.Appraisal, in.Market)
	if err != nil {
		return nil, err
	}

	category := CategoryResidential
	if in.Registry != nil {
		category = CategoryOf(in.Registry.PropertyType)
	}
	houses := max(in.Houses, 1)

	risk := models.RiskMedium
	var assumed int64
	var tenants []models.TenantAnalysis
	if in.Rights != nil {
		risk = in.Rights.RiskLevel
		assumed = in.Rights.TotalAssumedAmount
		tenants = in.Rights.Tenants
	}

	var minimumBid int64
	if in.SaleItem != nil && in.SaleItem.MinimumBid != nil {
		minimumBid = *in.SaleItem.MinimumBid
	}

	costs := Costs(value, category, houses, tenants)
	total := costs.Total()
	bid := BidPriceRange(value, assumed+total, minimumBid)

	trend := models.TrendFlat
	if in.Market != nil {
		trend = in.Market.Trend
	}
	var positive, negative bool
	if in.News != nil {
		positive = len(in.News.PositiveFactors) > 0
		negative = len(in.News.NegativeFactors) > 0
	}
	sale := SalePriceRange(value, trend, positive, negative)

	roi := ROI(bid.Moderate, sale, total, e.holdingMonths)
	rec, reasoning := Recommend(risk, roi.Moderate, assumed)

	return &models.Valuation{
		EstimatedValue:  value,
		Recommendation:  rec,
		BidPrice:        bid,
		SalePrice:       sale,
		ROI:             roi,
		ExpectedROI:     roi.Moderate,
		CostBreakdown:   costs,
		RiskSummary:     riskSummary(in.Rights),
		Reasoning:       reasoning,
		ConfidenceScore: estimateConfidence,
	}, nil
}

func riskSummary(r *models.RightsAnalysis) string {
	if r == nil {
		return ""
	}
	s := "risk: " + string(r.RiskLevel)
	if len(r.RiskFactors) > 0 {
		s += " (" + strings.Join(r.RiskFactors[:min(3, len(r.RiskFactors))], ", ") + ")"
	}
	return s
}
