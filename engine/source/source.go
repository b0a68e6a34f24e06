// Package source defines the capability contract every news source
// adapter satisfies. Concrete adapters live in subpackages (eastmoney,
// tushare, finnhub, rsswire); the feed layer drives them through this
// interface only.
package source

import (
	"context"
	"time"

	"github.com/tickerwire/tickerwire/engine/domain"
)

// Provider is one external news source.
//
// Fetch translates the ticker into the source's native identifier,
// pulls news for [start, end], and maps rows into domain.NewsItem with
// urgency and relevance assigned. Timestamps keep the source's native
// zone; the aggregator normalizes later. Absence of data is an empty
// slice, not an error; transport failures come back as a
// *domain.FetchError carrying the HTTP-style status so the caller can
// decide whether to retry. Adapters never retry internally.
type Provider interface {
	Name() domain.SourceTag
	// Available reports whether the adapter can serve fetches at all
	// (credentials present, source enabled). Computed at construction.
	Available() bool
	Fetch(ctx context.Context, ticker string, start, end time.Time, limit int) ([]domain.NewsItem, error)
}
