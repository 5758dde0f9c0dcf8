// Package news turns raw search hits around a property into the inputs and
// outputs of the news analysis.
package news

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"auction-analyzer/backend/pkg/models"
)

// MaxItems caps how many deduplicated articles are sent for analysis.
const MaxItems = 15

// SearchDisplay is the number of hits requested per query.
const SearchDisplay = 10

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// GenerateQueries derives search keywords from a property address. District
// (구) and neighbourhood (동) tokens each yield a few queries; a city (시)
// is only used when no district is present. A building name adds one more.
func GenerateQueries(address, buildingName string) []string {
	var gu, dong, si string
	for _, p := range strings.Fields(address) {
		switch {
		case gu == "" && strings.HasSuffix(p, "구"):
			gu = p
		case dong == "" && strings.HasSuffix(p, "동"):
			dong = p
		case si == "" && strings.HasSuffix(p, "시"):
			si = p
		}
	}

	var queries []string
	if gu != "" {
		queries = append(queries,
			gu+" 부동산 시장",
			gu+" 재개발 재건축",
			gu+" 개발 호재",
			gu+" 부동산 전망",
		)
	}
	if dong != "" {
		queries = append(queries, dong+" 부동산", dong+" 개발")
	}
	if gu == "" && si != "" {
		queries = append(queries, si+" 부동산 시장", si+" 재개발", si+" 부동산 전망")
	}
	if name := strings.TrimSpace(buildingName); name != "" {
		queries = append(queries, name+" 시세")
	}
	return queries
}

// StripHTML removes markup and decodes entities.
func StripHTML(s string) string {
	return strings.TrimSpace(html.UnescapeString(tagPattern.ReplaceAllString(s, "")))
}

// Dedupe keeps the first article for every distinct plain-text title and
// drops untitled ones.
func Dedupe(items []models.RawNews) []models.RawNews {
	seen := make(map[string]struct{}, len(items))
	out := make([]models.RawNews, 0, len(items))
	for _, it := range items {
		title := StripHTML(it.Title)
		if title == "" {
			continue
		}
		if _, ok := seen[title]; ok {
			continue
		}
		seen[title] = struct{}{}
		out = append(out, it)
	}
	return out
}

// Limit truncates items to MaxItems.
func Limit(items []models.RawNews) []models.RawNews {
	if len(items) > MaxItems {
		return items[:MaxItems]
	}
	return items
}

// ParseSentiment maps English and Korean labels to a Sentiment. Anything
// else is neutral.
func ParseSentiment(s string) models.Sentiment {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "positive", "호재":
		return models.SentimentPositive
	case "negative", "악재":
		return models.SentimentNegative
	default:
		return models.SentimentNeutral
	}
}

// Format renders articles as a numbered list for a prompt.
func Format(items []models.RawNews) string {
	var b strings.Builder
	for i, it := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. 제목: %s\n   내용: %s\n   날짜: %s", i+1, StripHTML(it.Title), StripHTML(it.Description), it.PubDate)
	}
	return b.String()
}

// Judged is one article as classified by the model.
type Judged struct {
	Title       string  `json:"title"`
	Sentiment   string  `json:"sentiment"`
	ImpactScore float64 `json:"impact_score"`
	Summary     string  `json:"summary"`
}

// Verdict is the shape of the model's news analysis answer.
type Verdict struct {
	Analyzed                []Judged `json:"analyzed_news"`
	PositiveFactors         []string `json:"positive_factors"`
	NegativeFactors         []string `json:"negative_factors"`
	AreaAttractivenessScore float64  `json:"area_attractiveness_score"`
	InvestmentOpinion       string   `json:"investment_opinion"`
	Outlook                 string   `json:"outlook"`
	MarketTrendSummary      string   `json:"market_trend_summary"`
}

// Analysis converts the verdict into the stored result. A missing outlook
// defaults to neutral.
func (v Verdict) Analysis() *models.NewsAnalysis {
	out := &models.NewsAnalysis{
		Items:                   make([]models.NewsItem, 0, len(v.Analyzed)),
		PositiveFactors:         nonNil(v.PositiveFactors),
		NegativeFactors:         nonNil(v.NegativeFactors),
		MarketTrendSummary:      v.MarketTrendSummary,
		AreaAttractivenessScore: v.AreaAttractivenessScore,
		InvestmentOpinion:       v.InvestmentOpinion,
		Outlook:                 v.Outlook,
	}
	if out.Outlook == "" {
		out.Outlook = "중립"
	}
	for _, a := range v.Analyzed {
		out.Items = append(out.Items, models.NewsItem{
			Title:       a.Title,
			Sentiment:   ParseSentiment(a.Sentiment),
			Summary:     a.Summary,
			ImpactScore: a.ImpactScore,
		})
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
