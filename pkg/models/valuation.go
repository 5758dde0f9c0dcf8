package models

// Recommendation is the final bid decision
type Recommendation string

const (
	Recommend    Recommendation = "recommend"
	Hold         Recommendation = "hold"
	NotRecommend Recommendation = "not_recommend"
)

// PriceRange is a three-tier price band
type PriceRange struct {
	Conservative int64 `json:"conservative"`
	Moderate     int64 `json:"moderate"`
	Aggressive   int64 `json:"aggressive"`
}

// CostBreakdown itemises the acquisition costs on top of the bid
type CostBreakdown struct {
	AcquisitionTax  int64 `json:"acquisition_tax"`
	RegistrationFee int64 `json:"registration_fee"`
	LegalFee        int64 `json:"legal_fee"`
	EvictionCost    int64 `json:"eviction_cost"`
	RepairCost      int64 `json:"repair_cost"`
	CapitalGainsTax int64 `json:"capital_gains_tax"`
}

// Total sums every cost item.
func (c CostBreakdown) Total() int64 {
	return c.AcquisitionTax + c.RegistrationFee + c.LegalFee + c.EvictionCost + c.RepairCost + c.CapitalGainsTax
}

// ROI holds return figures in percent
type ROI struct {
	Conservative float64 `json:"conservative"`
	Moderate     float64 `json:"moderate"`
	Optimistic   float64 `json:"optimistic"`
	Annual       float64 `json:"annual"`
}

// Valuation is the bid/sale recommendation for a case
type Valuation struct {
	EstimatedValue  int64          `json:"estimated_value"`
	Recommendation  Recommendation `json:"recommendation"`
	BidPrice        PriceRange     `json:"bid_price"`
	SalePrice       PriceRange     `json:"sale_price"`
	ROI             ROI            `json:"roi"`
	ExpectedROI     float64        `json:"expected_roi"`
	CostBreakdown   CostBreakdown  `json:"cost_breakdown"`
	RiskSummary     string         `json:"risk_summary"`
	Reasoning       string         `json:"reasoning"`
	ConfidenceScore float64        `json:"confidence_score"`
}
