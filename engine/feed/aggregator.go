package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/tickerwire/tickerwire/engine/domain"
	"github.com/tickerwire/tickerwire/engine/source"
	"github.com/tickerwire/tickerwire/pkg/fn"
	"github.com/tickerwire/tickerwire/pkg/metrics"
)

const (
	// DefaultMaxNews caps a response when the query does not.
	DefaultMaxNews = 10
	// DefaultMinRelevance drops weakly related items when the query does
	// not set its own floor.
	DefaultMinRelevance = 0.3
	// defaultFanoutWorkers bounds concurrent provider calls per query.
	defaultFanoutWorkers = 4
	// shortTitleRunes is the dedup floor: titles at or under this many
	// runes carry too little signal to key on and are dropped outright.
	shortTitleRunes = 10
)

// Config carries the aggregation defaults applied when a query omits the
// corresponding field.
type Config struct {
	HoursBack     int
	MaxNews       int
	MinRelevance  float64
	FanoutWorkers int
	Retry         RetryPolicy
}

func DefaultConfig() Config {
	return Config{
		HoursBack:     domain.DefaultHoursBack,
		MaxNews:       DefaultMaxNews,
		MinRelevance:  DefaultMinRelevance,
		FanoutWorkers: defaultFanoutWorkers,
		Retry:         DefaultRetryPolicy(),
	}
}

// Deps holds the external dependencies for the aggregator.
type Deps struct {
	Registry *Registry
	Config   Config
	Logger   *slog.Logger
	Metrics  *metrics.Registry
}

// Aggregator answers news queries by fanning out to the registered
// providers and running the results through the processing pipeline.
// Safe for concurrent use; all per-query state is local to GetNews.
type Aggregator struct {
	reg  *Registry
	cfg  Config
	exec *Executor
	log  *slog.Logger
	met  *metrics.Registry
	now  func() time.Time
}

func NewAggregator(deps Deps) *Aggregator {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	cfg := deps.Config
	if cfg.HoursBack <= 0 {
		cfg.HoursBack = domain.DefaultHoursBack
	}
	if cfg.MaxNews <= 0 {
		cfg.MaxNews = DefaultMaxNews
	}
	if cfg.MinRelevance <= 0 {
		cfg.MinRelevance = DefaultMinRelevance
	}
	if cfg.FanoutWorkers <= 0 {
		cfg.FanoutWorkers = defaultFanoutWorkers
	}
	if cfg.Retry.RetryableStatuses == nil {
		cfg.Retry = DefaultRetryPolicy()
	}
	return &Aggregator{
		reg:  deps.Registry,
		cfg:  cfg,
		exec: NewExecutor(cfg.Retry, log, deps.Metrics),
		log:  log,
		met:  deps.Metrics,
		now:  time.Now,
	}
}

// GetNews runs one aggregation call. It always returns a well-formed
// response: provider failures are contained by the executor, and Success
// is false only when no provider was available to try at all.
func (a *Aggregator) GetNews(ctx context.Context, query domain.NewsQuery) domain.NewsResponse {
	started := a.now()

	if query.MaxNews <= 0 {
		query.MaxNews = a.cfg.MaxNews
	}
	if query.MinRelevance <= 0 {
		query.MinRelevance = a.cfg.MinRelevance
	}
	if query.HoursBack <= 0 {
		query.HoursBack = a.cfg.HoursBack
	}
	query.Start, query.End = domain.ResolveWindow(started, query.Start, query.End, query.HoursBack)
	query.Market = domain.Classify(query.Ticker)

	providers := a.reg.Select(query.Market, query.Sources)
	if len(providers) == 0 {
		msg := fmt.Sprintf("no providers available for market %s", query.Market)
		if len(query.Sources) > 0 {
			msg = fmt.Sprintf("no available provider matches requested sources %v", query.Sources)
		}
		a.log.Warn("news query has nothing to fetch from",
			"ticker", query.Ticker,
			"market", query.Market,
			"sources", query.Sources,
		)
		a.countQuery(query.Market, "no_providers")
		return a.assemble(query, nil, false, msg)
	}

	fetched := fn.ParMap(ctx, providers, a.cfg.FanoutWorkers, func(ctx context.Context, p source.Provider) []domain.NewsItem {
		return a.exec.Call(ctx, p, query.Ticker, query.Start, query.End, query.MaxNews)
	})

	process := fn.Then(
		fn.TracedStage("feed.merge", fn.MapStage(mergeItems)),
		fn.Pipeline(
			fn.TracedStage("feed.dedupe", fn.MapStage(dedupeItems)),
			fn.TracedStage("feed.filter", filterStage(query.MinRelevance)),
			fn.TracedStage("feed.normalize", fn.MapStage(normalizeItems)),
			fn.TracedStage("feed.sort", fn.MapStage(sortItems)),
			fn.TracedStage("feed.truncate", truncateStage(query.MaxNews)),
		),
	)
	// A cancelled context is the only way the pipeline can fail; the
	// response is still assembled, just with nothing in it.
	items := process(ctx, fetched).UnwrapOr(nil)

	resp := a.assemble(query, items, true, "")
	a.log.Info("news aggregated",
		"ticker", query.Ticker,
		"market", query.Market,
		"providers", len(providers),
		"items", resp.Total,
		"sources_used", resp.SourcesUsed,
		"duration", time.Since(started),
	)
	a.countQuery(query.Market, "ok")
	if a.met != nil {
		a.met.Histogram("feed_query_duration_seconds", "Aggregation call latency.", nil).Since(started)
	}
	return resp
}

// assemble builds the final response. Items are never nil so the JSON
// form always carries an array.
func (a *Aggregator) assemble(query domain.NewsQuery, items []domain.NewsItem, success bool, errMsg string) domain.NewsResponse {
	if items == nil {
		items = []domain.NewsItem{}
	}
	return domain.NewsResponse{
		ID:          uuid.NewString(),
		Items:       items,
		Total:       len(items),
		Query:       query,
		SourcesUsed: sourcesOf(items),
		FetchedAt:   a.now().UTC(),
		Success:     success,
		Error:       errMsg,
	}
}

func (a *Aggregator) countQuery(market domain.MarketType, outcome string) {
	if a.met == nil {
		return
	}
	name := metrics.WithLabels("feed_queries_total", "market", string(market), "outcome", outcome)
	a.met.Counter(name, "Aggregation calls by market and outcome.").Inc()
}

// --- Pipeline stages ---

func mergeItems(batches [][]domain.NewsItem) []domain.NewsItem {
	return fn.FlatMap(batches, func(items []domain.NewsItem) []domain.NewsItem { return items })
}

// dedupeItems collapses cross-source duplicates on the case-folded,
// trimmed title. The first occurrence wins, so provider order decides
// which copy survives. Short titles are dropped rather than deduped.
func dedupeItems(items []domain.NewsItem) []domain.NewsItem {
	keyed := fn.Filter(items, func(it domain.NewsItem) bool {
		return utf8.RuneCountInString(strings.TrimSpace(it.Title)) > shortTitleRunes
	})
	return fn.UniqueBy(keyed, dedupKey)
}

func dedupKey(it domain.NewsItem) string {
	return strings.ToLower(strings.TrimSpace(it.Title))
}

func filterStage(minRelevance float64) fn.Stage[[]domain.NewsItem, []domain.NewsItem] {
	return fn.MapStage(func(items []domain.NewsItem) []domain.NewsItem {
		return fn.Filter(items, func(it domain.NewsItem) bool {
			return it.RelevanceScore >= minRelevance
		})
	})
}

// normalizeItems is the single place timestamps become canonical UTC.
// Adapters keep whatever zone the source reports.
func normalizeItems(items []domain.NewsItem) []domain.NewsItem {
	return fn.Map(items, func(it domain.NewsItem) domain.NewsItem {
		it.PublishTime = it.PublishTime.UTC()
		return it
	})
}

func sortItems(items []domain.NewsItem) []domain.NewsItem {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PublishTime.After(items[j].PublishTime)
	})
	return items
}

func truncateStage(max int) fn.Stage[[]domain.NewsItem, []domain.NewsItem] {
	return fn.MapStage(func(items []domain.NewsItem) []domain.NewsItem {
		if len(items) > max {
			items = items[:max]
		}
		return items
	})
}

func sourcesOf(items []domain.NewsItem) []domain.SourceTag {
	tags := fn.UniqueBy(
		fn.Map(items, func(it domain.NewsItem) domain.SourceTag { return it.Source }),
		func(tag domain.SourceTag) domain.SourceTag { return tag },
	)
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	if tags == nil {
		tags = []domain.SourceTag{}
	}
	return tags
}
