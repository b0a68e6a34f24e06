// Package domain defines the core value objects of the news aggregation
// engine: news items, queries, responses, and the closed enumerations they
// carry. It also hosts the market classifier and the error taxonomy shared by
// providers, the retry executor, and the aggregator.
package domain

import "time"

// Urgency is the coarse severity tag assigned to a news item from keyword
// matches at fetch time.
type Urgency string

const (
	UrgencyHigh   Urgency = "high"
	UrgencyMedium Urgency = "medium"
	UrgencyLow    Urgency = "low"
)

// ValidUrgencies is the set of recognised urgency tags.
var ValidUrgencies = map[Urgency]bool{
	UrgencyHigh: true, UrgencyMedium: true, UrgencyLow: true,
}

// MarketType classifies a ticker into a trading-domain category. It selects
// the provider priority order for a query.
type MarketType string

const (
	MarketAShare  MarketType = "a_share"
	MarketHKShare MarketType = "hk_share"
	MarketUSShare MarketType = "us_share"
	MarketUnknown MarketType = "unknown"
)

// Sentiment is an optional coarse sentiment tag heuristically assigned to a
// news item.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// SourceTag identifies one news provider.
type SourceTag string

const (
	SourceEastmoney SourceTag = "eastmoney"
	SourceTushare   SourceTag = "tushare"
	SourceFinnhub   SourceTag = "finnhub"
	SourceRSSWire   SourceTag = "rsswire"
)

// NewsItem is one fetched news entry. Providers create it at fetch time;
// after that the aggregator rewrites PublishTime exactly once (normalizing to
// UTC) and nothing else is ever mutated.
type NewsItem struct {
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	Source         SourceTag `json:"source"`
	PublishTime    time.Time `json:"publish_time"`
	URL            string    `json:"url,omitempty"`
	Urgency        Urgency   `json:"urgency"`
	RelevanceScore float64   `json:"relevance_score"`
	Ticker         string    `json:"ticker,omitempty"`
	Keywords       []string  `json:"keywords,omitempty"`
	Sentiment      Sentiment `json:"sentiment,omitempty"`
}

// NewsQuery describes one aggregation request. Zero values mean "use the
// configured default". Market starts empty and is filled in by the aggregator
// after classification; no other field is ever written after construction.
type NewsQuery struct {
	Ticker       string      `json:"ticker"`
	Start        time.Time   `json:"start,omitempty"`
	End          time.Time   `json:"end,omitempty"`
	HoursBack    int         `json:"hours_back,omitempty"`
	MaxNews      int         `json:"max_news,omitempty"`
	Sources      []SourceTag `json:"sources,omitempty"`
	MinRelevance float64     `json:"min_relevance,omitempty"`
	Market       MarketType  `json:"market,omitempty"`
}

// NewsResponse is the result of one aggregation call. Assembled exactly once
// and never mutated afterwards. Success is false only when zero providers
// were available to try; providers that were tried and failed leave
// Success true with their tags absent from SourcesUsed.
type NewsResponse struct {
	ID          string      `json:"id"`
	Items       []NewsItem  `json:"items"`
	Total       int         `json:"total"`
	Query       NewsQuery   `json:"query"`
	SourcesUsed []SourceTag `json:"sources_used"`
	FetchedAt   time.Time   `json:"fetched_at"`
	Success     bool        `json:"success"`
	Error       string      `json:"error,omitempty"`
}
