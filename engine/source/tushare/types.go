// Package tushare fetches ticker news from the TuShare Pro API.
// Credentialed source: no token, not available. Quotas on the news
// endpoint are strict, so calls go through a token-bucket limiter.
package tushare

// Config controls the adapter.
type Config struct {
	// Token is the TuShare Pro API token. Empty disables the source.
	Token string
	// BaseURL overrides the production endpoint, mainly for tests.
	BaseURL string
	// CallsPerMinute throttles requests. Zero selects the default of 2.
	CallsPerMinute float64
}

// apiRequest is the TuShare Pro RPC envelope. Every call POSTs one of
// these regardless of endpoint.
type apiRequest struct {
	APIName string            `json:"api_name"`
	Token   string            `json:"token"`
	Params  map[string]string `json:"params"`
	Fields  string            `json:"fields"`
}

// apiResponse carries columnar data: Fields names the columns, each
// entry of Items is one row in the same order.
type apiResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		Fields []string `json:"fields"`
		Items  [][]any  `json:"items"`
	} `json:"data"`
}
