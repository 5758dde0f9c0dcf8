package valuation

import "strings"

// Category is the tax category of a property.
type Category string

const (
	CategoryResidential Category = "residential"
	CategoryCommercial  Category = "commercial"
	CategoryOfficetel   Category = "officetel"
	CategoryLand        Category = "land"
)

// CategoryOf maps a registry property type to a tax category.
func CategoryOf(propertyType string) Category {
	pt := strings.ToLower(propertyType)
	switch {
	case strings.Contains(pt, "오피스텔"), strings.Contains(pt, "officetel"):
		return CategoryOfficetel
	case strings.Contains(pt, "상가"), strings.Contains(pt, "근린"), strings.Contains(pt, "commercial"):
		return CategoryCommercial
	case strings.Contains(pt, "토지"), strings.Contains(pt, "대지"), pt == "land":
		return CategoryLand
	default:
		return CategoryResidential
	}
}

const (
	lowerBracket = 600_000_000
	upperBracket = 900_000_000
)

// AcquisitionTax returns the acquisition tax due on price. houses is the
// number of homes the buyer will own, including this one.
func AcquisitionTax(price int64, category Category, houses int) int64 {
	switch {
	case category == CategoryCommercial || category == CategoryOfficetel:
		return price * 460 / 10_000
	case category == CategoryLand:
		return price * 400 / 10_000
	case houses >= 2:
		return price * 800 / 10_000
	case price <= lowerBracket:
		return price * 100 / 10_000
	case price <= upperBracket:
		rate := 0.01 + float64(price-lowerBracket)/float64(upperBracket-lowerBracket)*0.02
		return int64(float64(price) * rate)
	default:
		return price * 300 / 10_000
	}
}
