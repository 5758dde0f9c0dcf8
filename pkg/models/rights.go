package models

import "strings"

// RiskLevel grades the legal risk of acquiring the property
type RiskLevel string

const (
	RiskHigh   RiskLevel = "high"
	RiskMedium RiskLevel = "medium"
	RiskLow    RiskLevel = "low"
)

// ParseRiskLevel converts free text into a RiskLevel. The boolean is false
// when the value does not name a known level.
func ParseRiskLevel(raw string) (RiskLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "high", "높음":
		return RiskHigh, true
	case "medium", "중간", "보통":
		return RiskMedium, true
	case "low", "낮음":
		return RiskLow, true
	}
	return RiskMedium, false
}

// TenantAnalysis is the derived legal position of one tenant
type TenantAnalysis struct {
	Name                 string `json:"name"`
	Deposit              int64  `json:"deposit"`
	MoveInDate           string `json:"move_in_date,omitempty"`
	ConfirmedDate        string `json:"confirmed_date,omitempty"`
	DividendApplied      bool   `json:"dividend_applied"`
	HasOppositionRight   bool   `json:"has_opposition_right"`
	HasPriorityRepayment bool   `json:"has_priority_repayment"`
	DividendRank         *int   `json:"dividend_ranking,omitempty"`
}

// RightsAnalysis is the extinguishment assessment for a case
type RightsAnalysis struct {
	ExtinguishmentBasis string           `json:"extinguishment_basis"`
	BasisDate           string           `json:"basis_date,omitempty"`
	AssumedRights       []RightEntry     `json:"assumed_rights"`
	ExtinguishedRights  []RightEntry     `json:"extinguished_rights"`
	Tenants             []TenantAnalysis `json:"tenants"`
	RiskLevel           RiskLevel        `json:"risk_level"`
	RiskFactors         []string         `json:"risk_factors"`
	TotalAssumedAmount  int64            `json:"total_assumed_amount"`
	TotalAssumedDeposit int64            `json:"total_assumed_deposit"`
	ConfidenceScore     float64          `json:"confidence_score"`
}
