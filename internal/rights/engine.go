// Package rights decides which registry rights survive a foreclosure sale
// and the legal position of each tenant.
package rights

import (
	"context"
	"fmt"
	"sort"

	"auction-analyzer/backend/pkg/models"
)

// DefaultSmallDepositThreshold is the Seoul ceiling for priority repayment.
const DefaultSmallDepositThreshold int64 = 165_000_000

// NoBasisFactor is the single risk factor reported when no basis right exists.
const NoBasisFactor = "extinguishment basis right could not be determined"

const noBasisDescription = "none found"

var basisEligible = map[models.RightType]bool{
	models.RightMortgage:                 true,
	models.RightLeaseDeposit:             true,
	models.RightProvisionalSeizure:       true,
	models.RightCollateralProvisionalReg: true,
	models.RightSeizure:                  true,
	models.RightAuctionRegistration:      true,
}

// Brief is the classified case handed to a RiskAdvisor.
type Brief struct {
	BasisDescription    string
	SectionA            []models.RightEntry
	SectionB            []models.RightEntry
	Occupants           []models.Occupant
	Assumed             []models.RightEntry
	Tenants             []models.TenantAnalysis
	TotalAssumedAmount  int64
	TotalAssumedDeposit int64
}

// Opinion is a RiskAdvisor's qualitative judgement.
type Opinion struct {
	RiskLevel   string   `json:"risk_level"`
	RiskFactors []string `json:"risk_factors"`
	Warnings    []string `json:"warnings"`
	Confidence  float64  `json:"confidence"`
}

// RiskAdvisor grades the risk of a case whose basis right is known.
type RiskAdvisor interface {
	AssessRisk(ctx context.Context, brief Brief) (Opinion, error)
}

// Engine runs the rights analysis.
type Engine struct {
	threshold int64
	advisor   RiskAdvisor
}

// NewEngine creates an Engine. A non-positive threshold uses the default.
func NewEngine(threshold int64, advisor RiskAdvisor) *Engine {
	if threshold <= 0 {
		threshold = DefaultSmallDepositThreshold
	}
	return &Engine{threshold: threshold, advisor: advisor}
}

// SelectBasis returns the earliest dated entry whose type can extinguish
// later rights. Ties keep input order. ok is false when nothing qualifies.
func SelectBasis(entries []models.RightEntry) (basis models.RightEntry, ok bool) {
	for _, e := range entries {
		if !basisEligible[e.Type] || e.RegistrationDate == "" {
			continue
		}
		if !ok || e.RegistrationDate < basis.RegistrationDate {
			basis, ok = e, true
		}
	}
	return basis, ok
}

// Classify splits entries into assumed and extinguished relative to
// basisDate. Ownership entries dated before the basis appear in neither list.
func Classify(entries []models.RightEntry, basisDate string) (assumed, extinguished []models.RightEntry, total int64) {
	assumed = []models.RightEntry{}
	extinguished = []models.RightEntry{}
	for _, e := range entries {
		switch {
		case e.RegistrationDate == "":
			extinguished = append(extinguished, e)
		case e.RegistrationDate < basisDate:
			if e.Type.IsOwnership() {
				continue
			}
			assumed = append(assumed, e)
			total += e.AmountOrZero()
		default:
			extinguished = append(extinguished, e)
		}
	}
	return assumed, extinguished, total
}

// AnalyzeTenants derives opposition and priority-repayment rights for every
// non-owner occupant. totalDeposit sums deposits of tenants with opposition.
func AnalyzeTenants(occupants []models.Occupant, basisDate string, threshold int64) (tenants []models.TenantAnalysis, totalDeposit int64) {
	tenants = []models.TenantAnalysis{}
	for _, occ := range occupants {
		if occ.Role == models.OccupantOwner {
			continue
		}
		var deposit int64
		if occ.Deposit != nil {
			deposit = *occ.Deposit
		}
		opposition := occ.MoveInDate != "" && occ.MoveInDate < basisDate
		tenants = append(tenants, models.TenantAnalysis{
			Name:                 occ.Name,
			Deposit:              deposit,
			MoveInDate:           occ.MoveInDate,
			ConfirmedDate:        occ.ConfirmedDate,
			DividendApplied:      occ.DividendApplied,
			HasOppositionRight:   opposition,
			HasPriorityRepayment: opposition && deposit <= threshold,
		})
		if opposition {
			totalDeposit += deposit
		}
	}
	return tenants, totalDeposit
}

type timelineItem struct {
	date   string
	tenant string
}

// RankDividends orders creditors and claiming tenants by date and returns
// the tenant ranks keyed by name. Only tenants with a confirmed date that
// applied for a dividend are ranked; priority-repayment tenants rank 0.
func RankDividends(entries []models.RightEntry, tenants []models.TenantAnalysis) map[string]int {
	ranking := map[string]int{}

	var timeline []timelineItem
	for _, e := range entries {
		if e.Type.IsOwnership() || e.RegistrationDate == "" {
			continue
		}
		timeline = append(timeline, timelineItem{date: e.RegistrationDate})
	}
	eligible := 0
	for _, t := range tenants {
		if t.ConfirmedDate == "" || !t.DividendApplied {
			continue
		}
		timeline = append(timeline, timelineItem{date: t.ConfirmedDate, tenant: t.Name})
		eligible++
	}
	if eligible == 0 {
		return ranking
	}

	sort.SliceStable(timeline, func(i, j int) bool { return timeline[i].date < timeline[j].date })
	for i, item := range timeline {
		if item.tenant != "" {
			ranking[item.tenant] = i + 1
		}
	}
	for _, t := range tenants {
		if _, ok := ranking[t.Name]; ok && t.HasPriorityRepayment {
			ranking[t.Name] = 0
		}
	}
	return ranking
}

func describeBasis(e models.RightEntry) string {
	return fmt.Sprintf("%s (rank %d, %s, %s)", e.Type, e.Rank, e.RegistrationDate, e.Holder)
}

// Analyze runs the full assessment for a registry and optional sale item.
func (e *Engine) Analyze(ctx context.Context, reg *models.Registry, sale *models.SaleItem) (*models.RightsAnalysis, error) {
	all := reg.AllEntries()

	basis, ok := SelectBasis(all)
	if !ok {
		return &models.RightsAnalysis{
			ExtinguishmentBasis: noBasisDescription,
			AssumedRights:       []models.RightEntry{},
			ExtinguishedRights:  []models.RightEntry{},
			Tenants:             []models.TenantAnalysis{},
			RiskLevel:           models.RiskHigh,
			RiskFactors:         []string{NoBasisFactor},
			ConfidenceScore:     0.3,
		}, nil
	}

	assumed, extinguished, total := Classify(all, basis.RegistrationDate)

	var occupants []models.Occupant
	if sale != nil {
		occupants = sale.Occupants
	}
	tenants, totalDeposit := AnalyzeTenants(occupants, basis.RegistrationDate, e.threshold)
	ranks := RankDividends(all, tenants)
	for i := range tenants {
		if r, ok := ranks[tenants[i].Name]; ok {
			tenants[i].DividendRank = &r
		}
	}

	result := &models.RightsAnalysis{
		ExtinguishmentBasis: describeBasis(basis),
		BasisDate:           basis.RegistrationDate,
		AssumedRights:       assumed,
		ExtinguishedRights:  extinguished,
		Tenants:             tenants,
		RiskLevel:           models.RiskMedium,
		RiskFactors:         []string{},
		TotalAssumedAmount:  total,
		TotalAssumedDeposit: totalDeposit,
		ConfidenceScore:     0.5,
	}
	if e.advisor == nil {
		return result, nil
	}

	opinion, err := e.advisor.AssessRisk(ctx, Brief{
		BasisDescription:    result.ExtinguishmentBasis,
		SectionA:            reg.SectionA,
		SectionB:            reg.SectionB,
		Occupants:           occupants,
		Assumed:             assumed,
		Tenants:             tenants,
		TotalAssumedAmount:  total,
		TotalAssumedDeposit: totalDeposit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to assess risk: %w", err)
	}
	applyOpinion(result, opinion)
	return result, nil
}

func applyOpinion(result *models.RightsAnalysis, op Opinion) {
	level, _ := models.ParseRiskLevel(op.RiskLevel)
	result.RiskLevel = level
	factors := make([]string, 0, len(op.RiskFactors)+len(op.Warnings))
	factors = append(factors, op.RiskFactors...)
	result.RiskFactors = append(factors, op.Warnings...)
	if op.Confidence > 0 {
		result.ConfidenceScore = min(op.Confidence, 1)
	}
}
