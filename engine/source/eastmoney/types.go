// Package eastmoney fetches ticker news from the East Money search API.
// Free source, no credentials; the only gate is the enabled flag.
package eastmoney

// Config controls the adapter.
type Config struct {
	Enabled bool
	// BaseURL overrides the production endpoint, mainly for tests.
	BaseURL string
	// PageSize caps how many rows one request asks for. Zero means the
	// fetch limit (bounded by maxPageSize).
	PageSize int
	// RequestsPerSecond throttles outbound calls. Zero selects the
	// default of 5/s.
	RequestsPerSecond float64
}

// searchResponse is the East Money news search payload.
type searchResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		Total int       `json:"total"`
		News  []newsRow `json:"news"`
	} `json:"data"`
}

type newsRow struct {
	Title    string `json:"title"`
	Digest   string `json:"digest"`
	URL      string `json:"url"`
	ShowTime string `json:"showTime"`
	Media    string `json:"mediaName"`
}
