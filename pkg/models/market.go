package models

import "fmt"

// Transaction is a single recorded sale
type Transaction struct {
	Amount       int64   `json:"amount"`
	Area         float64 `json:"area"`
	Year         int     `json:"year"`
	Month        int     `json:"month"`
	Day          int     `json:"day"`
	BuildingName string  `json:"building_name,omitempty"`
	District     string  `json:"district,omitempty"`
}

// YearMonth returns the YYYY-MM bucket of the transaction.
func (t Transaction) YearMonth() string {
	return fmt.Sprintf("%04d-%02d", t.Year, t.Month)
}

// Base returns the sale fields of a record. RentTransaction inherits it.
func (t Transaction) Base() Transaction {
	return t
}

// Date returns the transaction date as YYYY-MM-DD.
func (t Transaction) Date() string {
	return fmt.Sprintf("%04d-%02d-%02d", t.Year, t.Month, t.Day)
}

// RentTransaction is a single recorded lease (jeonse or monthly rent)
type RentTransaction struct {
	Transaction
	Deposit      int64  `json:"deposit"`
	MonthlyRent  int64  `json:"monthly_rent"`
	ContractType string `json:"contract_type,omitempty"`
}

// PriceTrend classifies the recent direction of prices
type PriceTrend string

const (
	TrendRising  PriceTrend = "rising"
	TrendFlat    PriceTrend = "flat"
	TrendFalling PriceTrend = "falling"
)

// MonthlyPrice is the average transaction amount for one month
type MonthlyPrice struct {
	Month string `json:"date"`
	Price int64  `json:"price"`
}

// RecentTransaction is a transaction as presented in results
type RecentTransaction struct {
	District       string  `json:"address"`
	Area           float64 `json:"area"`
	Price          int64   `json:"price"`
	PricePerPyeong int64   `json:"price_per_pyeong"`
	Date           string  `json:"transaction_date"`
}

// RecentRent is a lease as presented in results
type RecentRent struct {
	District     string  `json:"address"`
	Area         float64 `json:"area"`
	Deposit      int64   `json:"deposit"`
	MonthlyRent  int64   `json:"monthly_rent"`
	Date         string  `json:"transaction_date"`
	ContractType string  `json:"contract_type,omitempty"`
}

// MarketData is the aggregate market assessment for a property
type MarketData struct {
	SampleCount        int                 `json:"sample_count"`
	RecentTransactions []RecentTransaction `json:"recent_transactions"`
	RecentRents        []RecentRent        `json:"recent_rent_transactions"`
	MonthlyAverages    []MonthlyPrice      `json:"monthly_averages"`
	AvgPrice           int64               `json:"avg_price"`
	AvgPricePerSqm     int64               `json:"avg_price_per_sqm"`
	AvgPricePerPyeong  int64               `json:"avg_price_per_pyeong"`
	PriceRangeLow      int64               `json:"price_range_low"`
	PriceRangeHigh     int64               `json:"price_range_high"`
	Trend              PriceTrend          `json:"price_trend"`
	JeonseRatio        float64             `json:"jeonse_ratio"`
	AvgJeonseDeposit   int64               `json:"avg_jeonse_deposit"`
	AvgMonthlyRent     int64               `json:"avg_monthly_rent"`
	AppraisalMarketGap float64             `json:"appraisal_vs_market_gap"`
	ConfidenceScore    float64             `json:"confidence_score"`
}
