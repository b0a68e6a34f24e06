// Package finnhub fetches company news from the Finnhub API.
// Credentialed source: no API key, not available. A circuit breaker
// keeps a dead or throttled key from being hammered across queries.
package finnhub

// Config controls the adapter.
type Config struct {
	// APIKey is the Finnhub token. Empty disables the source.
	APIKey string
	// BaseURL overrides the production endpoint, mainly for tests.
	BaseURL string
	// BreakerThreshold is the consecutive-failure count that trips the
	// breaker. Zero selects the package default.
	BreakerThreshold int
	// RequestsPerSecond paces calls under the free-tier quota of 60 per
	// minute. Zero selects 1 rps.
	RequestsPerSecond float64
}

// newsRow is one entry of the company-news response array.
type newsRow struct {
	Category string `json:"category"`
	Datetime int64  `json:"datetime"` // unix seconds
	Headline string `json:"headline"`
	ID       int64  `json:"id"`
	Related  string `json:"related"`
	Source   string `json:"source"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}
