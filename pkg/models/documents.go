// Package models defines the domain models for the auction analyzer
package models

import (
	"fmt"
	"strings"
)

// DocumentType identifies which court or registry document a file contains
type DocumentType string

const (
	DocumentRegistry       DocumentType = "registry"
	DocumentAppraisal      DocumentType = "appraisal"
	DocumentSaleItem       DocumentType = "sale_item"
	DocumentStatusReport   DocumentType = "status_report"
	DocumentCaseNotice     DocumentType = "case_notice"
	DocumentAuctionSummary DocumentType = "auction_summary"
)

// RightType is the kind of right recorded in a registry section
type RightType string

const (
	RightMortgage                 RightType = "mortgage"
	RightLeaseDeposit             RightType = "lease_deposit"
	RightProvisionalSeizure       RightType = "provisional_seizure"
	RightCollateralProvisionalReg RightType = "collateral_provisional_registration"
	RightSeizure                  RightType = "seizure"
	RightAuctionRegistration      RightType = "auction_registration"
	RightOwnershipTransfer        RightType = "ownership_transfer"
	RightOwnershipPreservation    RightType = "ownership_preservation"
	RightProvisionalDisposition   RightType = "provisional_disposition"
	RightProvisionalRegistration  RightType = "provisional_registration"
)

// registryVocabulary maps the registry's Korean terms to canonical right types.
var registryVocabulary = map[string]RightType{
	"근저당권":     RightMortgage,
	"근저당권설정":   RightMortgage,
	"저당권":      RightMortgage,
	"전세권":      RightLeaseDeposit,
	"전세권설정":    RightLeaseDeposit,
	"가압류":      RightProvisionalSeizure,
	"담보가등기":    RightCollateralProvisionalReg,
	"압류":       RightSeizure,
	"경매기입등기":   RightAuctionRegistration,
	"임의경매개시결정": RightAuctionRegistration,
	"강제경매개시결정": RightAuctionRegistration,
	"소유권이전":    RightOwnershipTransfer,
	"소유권보존":    RightOwnershipPreservation,
	"가처분":      RightProvisionalDisposition,
	"가등기":      RightProvisionalRegistration,
}

// NormalizeRightType maps a raw right type (Korean registry term or canonical
// name) to a RightType. Unknown values are kept verbatim.
func NormalizeRightType(raw string) RightType {
	trimmed := strings.TrimSpace(raw)
	if rt, ok := registryVocabulary[strings.ReplaceAll(trimmed, " ", "")]; ok {
		return rt
	}
	return RightType(strings.ToLower(trimmed))
}

// IsOwnership reports whether the right records ownership rather than a lien.
func (t RightType) IsOwnership() bool {
	return t == RightOwnershipTransfer || t == RightOwnershipPreservation
}

// RightEntry is a single registry line item
type RightEntry struct {
	Rank             int       `json:"order"`
	Type             RightType `json:"right_type"`
	Holder           string    `json:"holder"`
	Amount           *int64    `json:"amount,omitempty"`
	RegistrationDate string    `json:"registration_date,omitempty"`
}

// AmountOrZero returns the secured amount, or zero when none was recorded.
func (e RightEntry) AmountOrZero() int64 {
	if e.Amount == nil {
		return 0
	}
	return *e.Amount
}

// Describe renders the entry for prompts and reports.
func (e RightEntry) Describe() string {
	date := e.RegistrationDate
	if date == "" {
		date = "date unknown"
	}
	s := fmt.Sprintf("[rank %d] %s | %s | %s", e.Rank, e.Type, e.Holder, date)
	if e.Amount != nil && *e.Amount > 0 {
		s += fmt.Sprintf(" %d KRW", *e.Amount)
	}
	return s
}

// Registry is the structured content of a land/building registry extract
type Registry struct {
	PropertyAddress string       `json:"property_address"`
	PropertyType    string       `json:"property_type"`
	Area            float64      `json:"area,omitempty"`
	BuildingName    string       `json:"building_name,omitempty"`
	Owner           string       `json:"owner,omitempty"`
	SectionA        []RightEntry `json:"section_a_entries"`
	SectionB        []RightEntry `json:"section_b_entries"`
}

// AllEntries returns section A followed by section B.
func (r *Registry) AllEntries() []RightEntry {
	all := make([]RightEntry, 0, len(r.SectionA)+len(r.SectionB))
	all = append(all, r.SectionA...)
	return append(all, r.SectionB...)
}

// Normalize canonicalises right types in both sections.
func (r *Registry) Normalize() {
	for i := range r.SectionA {
		r.SectionA[i].Type = NormalizeRightType(string(r.SectionA[i].Type))
	}
	for i := range r.SectionB {
		r.SectionB[i].Type = NormalizeRightType(string(r.SectionB[i].Type))
	}
}

// OccupantRole describes how an occupant holds the property
type OccupantRole string

const (
	OccupantTenant OccupantRole = "tenant"
	OccupantOwner  OccupantRole = "owner"
	OccupantOther  OccupantRole = "other"
)

// NormalizeOccupantRole maps Korean or English role labels to an OccupantRole.
func NormalizeOccupantRole(raw string) OccupantRole {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "임차인", "tenant":
		return OccupantTenant
	case "소유자", "owner":
		return OccupantOwner
	default:
		return OccupantOther
	}
}

// Occupant is an occupancy line from the sale item statement
type Occupant struct {
	Name            string       `json:"occupant_name"`
	Role            OccupantRole `json:"occupant_type"`
	Deposit         *int64       `json:"deposit,omitempty"`
	MonthlyRent     *int64       `json:"monthly_rent,omitempty"`
	MoveInDate      string       `json:"move_in_date,omitempty"`
	ConfirmedDate   string       `json:"confirmed_date,omitempty"`
	DividendApplied bool         `json:"dividend_applied"`
}

// Appraisal is the structured content of an appraisal report
type Appraisal struct {
	AppraisedValue int64    `json:"appraised_value"`
	LandValue      *int64   `json:"land_value,omitempty"`
	BuildingValue  *int64   `json:"building_value,omitempty"`
	LandArea       *float64 `json:"land_area,omitempty"`
	BuildingArea   *float64 `json:"building_area,omitempty"`
}

// SaleItem is the structured content of the sale item statement
type SaleItem struct {
	CaseNumber        string     `json:"case_number"`
	PropertyAddress   string     `json:"property_address"`
	MinimumBid        *int64     `json:"minimum_bid,omitempty"`
	Occupants         []Occupant `json:"occupancy_info"`
	AssumedRights     []string   `json:"assumed_rights,omitempty"`
	SpecialConditions []string   `json:"special_conditions,omitempty"`
}

// Normalize canonicalises occupant roles.
func (s *SaleItem) Normalize() {
	for i := range s.Occupants {
		s.Occupants[i].Role = NormalizeOccupantRole(string(s.Occupants[i].Role))
	}
}

// StatusReport is the structured content of the court's site survey
type StatusReport struct {
	InvestigationDate string   `json:"investigation_date,omitempty"`
	PropertyAddress   string   `json:"property_address"`
	CurrentOccupant   string   `json:"current_occupant,omitempty"`
	OccupancyStatus   string   `json:"occupancy_status,omitempty"`
	BuildingCondition string   `json:"building_condition,omitempty"`
	AccessRoad        string   `json:"access_road,omitempty"`
	Surroundings      string   `json:"surroundings,omitempty"`
	SpecialNotes      []string `json:"special_notes,omitempty"`
}
