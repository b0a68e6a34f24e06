// Package feed orchestrates news aggregation: provider selection, the
// retry policy around each provider call, the merge/dedupe/filter
// pipeline, and response assembly.
package feed

import (
	"github.com/tickerwire/tickerwire/engine/domain"
	"github.com/tickerwire/tickerwire/engine/source"
)

// marketPriority orders the preferred providers per market. Tags listed
// here are tried first; every other available provider follows in
// registration order. Priority only orders, it never excludes.
var marketPriority = map[domain.MarketType][]domain.SourceTag{
	domain.MarketAShare:  {domain.SourceEastmoney, domain.SourceTushare},
	domain.MarketHKShare: {domain.SourceEastmoney, domain.SourceTushare},
	domain.MarketUSShare: {domain.SourceFinnhub, domain.SourceRSSWire},
}

// Registry holds the providers that reported Available at construction.
// Immutable once built; aggregations share one instance.
type Registry struct {
	providers []source.Provider
	byTag     map[domain.SourceTag]source.Provider
}

// NewRegistry keeps the available providers in the order given.
// Unavailable ones (missing credential, disabled) are dropped here so
// selection never has to re-check.
func NewRegistry(providers ...source.Provider) *Registry {
	r := &Registry{byTag: make(map[domain.SourceTag]source.Provider)}
	for _, p := range providers {
		if p == nil || !p.Available() {
			continue
		}
		tag := p.Name()
		if _, dup := r.byTag[tag]; dup {
			continue
		}
		r.providers = append(r.providers, p)
		r.byTag[tag] = p
	}
	return r
}

// Len reports how many providers are registered.
func (r *Registry) Len() int { return len(r.providers) }

// Tags returns the registered tags in registration order.
func (r *Registry) Tags() []domain.SourceTag {
	tags := make([]domain.SourceTag, len(r.providers))
	for i, p := range r.providers {
		tags[i] = p.Name()
	}
	return tags
}

// Select resolves which providers serve a query and in what order.
// An explicit source list wins outright: it filters the registry by tag
// and ignores the market entirely. Otherwise the market's priority tags
// come first, then all remaining providers in registration order.
func (r *Registry) Select(market domain.MarketType, explicit []domain.SourceTag) []source.Provider {
	if len(explicit) > 0 {
		want := make(map[domain.SourceTag]bool, len(explicit))
		for _, tag := range explicit {
			want[tag] = true
		}
		var out []source.Provider
		for _, p := range r.providers {
			if want[p.Name()] {
				out = append(out, p)
			}
		}
		return out
	}

	var out []source.Provider
	seen := make(map[domain.SourceTag]bool)
	for _, tag := range marketPriority[market] {
		if p, ok := r.byTag[tag]; ok && !seen[tag] {
			out = append(out, p)
			seen[tag] = true
		}
	}
	for _, p := range r.providers {
		if !seen[p.Name()] {
			out = append(out, p)
			seen[p.Name()] = true
		}
	}
	return out
}
