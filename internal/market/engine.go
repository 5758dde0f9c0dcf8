// Package market turns raw transaction records into a market assessment.
package market

import (
	"math"
	"sort"
	"strings"

	"auction-analyzer/backend/pkg/models"
)

// SqmPerPyeong converts a price per m² into a price per pyeong.
const SqmPerPyeong = 3.305785

const (
	narrowTolerance    = 0.1
	wideTolerance      = 0.3
	minBuildingMatches = 3
	recentLimit        = 20
	trendThresholdPct  = 3.0
)

type record interface {
	Base() models.Transaction
}

// Subject describes the property being valued.
type Subject struct {
	Area           float64
	Kind           Kind
	BuildingName   string
	AppraisedValue int64
}

// FilterByArea keeps records whose exclusive area is within tolerance of
// target. A non-positive target keeps everything.
func FilterByArea[T record](items []T, target, tolerance float64) []T {
	if target <= 0 {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		area := it.Base().Area
		if area > 0 && math.Abs(area-target)/target <= tolerance {
			out = append(out, it)
		}
	}
	return out
}

// SelectComparables applies the ±10% area filter, relaxing to ±30% and then
// to the unfiltered set when nothing matches.
func SelectComparables[T record](items []T, target float64) []T {
	filtered := FilterByArea(items, target, narrowTolerance)
	if len(filtered) == 0 && target > 0 {
		filtered = FilterByArea(items, target, wideTolerance)
	}
	if len(filtered) == 0 {
		return items
	}
	return filtered
}

// FilterByBuilding keeps records whose building name contains name or is
// contained in it. Names shorter than two runes disable the filter.
func FilterByBuilding[T record](items []T, name string) []T {
	if len([]rune(name)) < 2 {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		b := it.Base().BuildingName
		if strings.Contains(b, name) || strings.Contains(name, b) {
			out = append(out, it)
		}
	}
	return out
}

// RestrictByBuilding applies FilterByBuilding only when at least three
// records survive it.
func RestrictByBuilding[T record](items []T, name string) []T {
	restricted := FilterByBuilding(items, name)
	if len(restricted) >= minBuildingMatches {
		return restricted
	}
	return items
}

// MonthlyAverages groups records by YYYY-MM in ascending order and
// truncates each mean to an integer.
func MonthlyAverages[T record](items []T) []models.MonthlyPrice {
	type acc struct {
		sum   int64
		count int64
	}
	buckets := map[string]*acc{}
	for _, it := range items {
		t := it.Base()
		key := t.YearMonth()
		a, ok := buckets[key]
		if !ok {
			a = &acc{}
			buckets[key] = a
		}
		a.sum += t.Amount
		a.count++
	}
	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]models.MonthlyPrice, 0, len(keys))
	for _, k := range keys {
		out = append(out, models.MonthlyPrice{Month: k, Price: buckets[k].sum / buckets[k].count})
	}
	return out
}

// ClassifyTrend compares the last six monthly averages with the six before
// them, or the later half with the earlier half when under a year of data
// exists.
func ClassifyTrend(monthly []models.MonthlyPrice) models.PriceTrend {
	n := len(monthly)
	if n < 2 {
		return models.TrendFlat
	}
	var recent, previous float64
	if n >= 12 {
		recent = meanPrice(monthly[n-6:])
		previous = meanPrice(monthly[n-12 : n-6])
	} else {
		mid := n / 2
		recent = meanPrice(monthly[mid:])
		previous = meanPrice(monthly[:mid])
	}
	if previous == 0 {
		return models.TrendFlat
	}
	change := (recent - previous) / previous * 100
	switch {
	case change > trendThresholdPct:
		return models.TrendRising
	case change < -trendThresholdPct:
		return models.TrendFalling
	default:
		return models.TrendFlat
	}
}

func meanPrice(ps []models.MonthlyPrice) float64 {
	var sum float64
	for _, p := range ps {
		sum += float64(p.Price)
	}
	return sum / float64(len(ps))
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func newestFirst[T record](items []T) []T {
	out := append([]T(nil), items...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Base().Date() > out[j].Base().Date() })
	return out
}

// Analyze computes the market assessment for subject from trade and rent
// records. With no records at all the result has zero confidence.
func Analyze(trades []models.Transaction, rents []models.RentTransaction, subject Subject) *models.MarketData {
	if subject.Kind == KindApartment {
		trades = RestrictByBuilding(trades, subject.BuildingName)
		rents = RestrictByBuilding(rents, subject.BuildingName)
	}

	result := &models.MarketData{
		RecentTransactions: []models.RecentTransaction{},
		RecentRents:        []models.RecentRent{},
		MonthlyAverages:    []models.MonthlyPrice{},
		Trend:              models.TrendFlat,
	}

	comparables := SelectComparables(trades, subject.Area)
	if n := len(comparables); n > 0 {
		var sum, low, high int64
		var perSqmSum float64
		var perSqmCount int
		for i, t := range comparables {
			sum += t.Amount
			if i == 0 || t.Amount < low {
				low = t.Amount
			}
			if t.Amount > high {
				high = t.Amount
			}
			if t.Area > 0 {
				perSqmSum += float64(t.Amount) / t.Area
				perSqmCount++
			}
		}
		result.SampleCount = n
		result.AvgPrice = sum / int64(n)
		if perSqmCount > 0 {
			result.AvgPricePerSqm = int64(perSqmSum / float64(perSqmCount))
		}
		result.AvgPricePerPyeong = int64(float64(result.AvgPricePerSqm) * SqmPerPyeong)
		result.PriceRangeLow = low
		result.PriceRangeHigh = high
		if subject.AppraisedValue > 0 {
			result.AppraisalMarketGap = round4(float64(result.AvgPrice-subject.AppraisedValue) / float64(subject.AppraisedValue))
		}
		result.MonthlyAverages = MonthlyAverages(comparables)
		result.Trend = ClassifyTrend(result.MonthlyAverages)
		result.ConfidenceScore = math.Min(float64(n)/10, 1)

		for _, t := range newestFirst(comparables) {
			if len(result.RecentTransactions) == recentLimit {
				break
			}
			var perPyeong int64
			if t.Area > 0 {
				perPyeong = int64(float64(t.Amount) / t.Area * SqmPerPyeong)
			}
			result.RecentTransactions = append(result.RecentTransactions, models.RecentTransaction{
				District:       t.District,
				Area:           t.Area,
				Price:          t.Amount,
				PricePerPyeong: perPyeong,
				Date:           t.Date(),
			})
		}
	}

	analyzeRents(result, rents, subject.Area)
	return result
}

// analyzeRents fills the lease figures. A jeonse is a lease with a deposit
// and no monthly rent.
func analyzeRents(result *models.MarketData, rents []models.RentTransaction, area float64) {
	if area > 0 {
		if filtered := FilterByArea(rents, area, wideTolerance); len(filtered) > 0 {
			rents = filtered
		}
	}

	var jeonseSum, jeonseCount, rentSum, rentCount int64
	for _, r := range rents {
		switch {
		case r.MonthlyRent == 0 && r.Deposit > 0:
			jeonseSum += r.Deposit
			jeonseCount++
		case r.MonthlyRent > 0:
			rentSum += r.MonthlyRent
			rentCount++
		}
	}
	if jeonseCount > 0 {
		result.AvgJeonseDeposit = jeonseSum / jeonseCount
	}
	if rentCount > 0 {
		result.AvgMonthlyRent = rentSum / rentCount
	}
	if result.AvgPrice > 0 && result.AvgJeonseDeposit > 0 {
		result.JeonseRatio = round4(float64(result.AvgJeonseDeposit) / float64(result.AvgPrice))
	}

	for _, r := range newestFirst(rents) {
		if len(result.RecentRents) == recentLimit {
			break
		}
		result.RecentRents = append(result.RecentRents, models.RecentRent{
			District:     r.District,
			Area:         r.Area,
			Deposit:      r.Deposit,
			MonthlyRent:  r.MonthlyRent,
			Date:         r.Date(),
			ContractType: r.ContractType,
		})
	}
}
