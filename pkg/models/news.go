package models

// Sentiment is the investment polarity of a news item
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// RawNews is a search hit as returned by the news source
type RawNews struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Link        string `json:"link"`
	PubDate     string `json:"pubDate"`
}

// NewsItem is a classified news article
type NewsItem struct {
	Title       string    `json:"title"`
	Sentiment   Sentiment `json:"sentiment"`
	Summary     string    `json:"summary"`
	ImpactScore float64   `json:"impact_score"`
}

// NewsAnalysis summarises the news picture around the property
type NewsAnalysis struct {
	Items                   []NewsItem `json:"collected_news"`
	PositiveFactors         []string   `json:"positive_factors"`
	NegativeFactors         []string   `json:"negative_factors"`
	MarketTrendSummary      string     `json:"market_trend_summary"`
	AreaAttractivenessScore float64    `json:"area_attractiveness_score"`
	InvestmentOpinion       string     `json:"investment_opinion"`
	Outlook                 string     `json:"outlook_6month"`
}
