// Command newsfetch aggregates recent financial news for a ticker from the
// configured source adapters. It runs one-shot or on an interval, prints a
// JSON response or a plain-text briefing to stdout, and can publish every
// response to NATS or answer NATS query requests directly.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"github.com/tickerwire/tickerwire/engine/domain"
	"github.com/tickerwire/tickerwire/engine/feed"
	"github.com/tickerwire/tickerwire/engine/source"
	"github.com/tickerwire/tickerwire/engine/source/eastmoney"
	"github.com/tickerwire/tickerwire/engine/source/finnhub"
	"github.com/tickerwire/tickerwire/engine/source/rsswire"
	"github.com/tickerwire/tickerwire/engine/source/tushare"
	"github.com/tickerwire/tickerwire/pkg/metrics"
	"github.com/tickerwire/tickerwire/pkg/natsutil"
)

const (
	defaultResponseSubject = "tickerwire.news.responses"
	defaultQuerySubject    = "tickerwire.news.queries"
)

// Config holds all environment-based configuration.
type Config struct {
	EastmoneyEnabled bool
	EastmoneyRPS     float64
	TushareToken     string
	TushareCallsPM   float64
	FinnhubKey       string
	FinnhubRPS       float64
	RSSWireEnabled   bool

	HoursBack    int
	MaxNews      int
	MinRelevance float64
	Retry        feed.RetryPolicy
}

func loadConfig() Config {
	return Config{
		EastmoneyEnabled: envBool("EASTMONEY_ENABLED", true),
		EastmoneyRPS:     envFloat("EASTMONEY_RPS", 0),
		TushareToken:     envOr("TUSHARE_TOKEN", ""),
		TushareCallsPM:   envFloat("TUSHARE_CALLS_PER_MINUTE", 0),
		FinnhubKey:       envOr("FINNHUB_API_KEY", ""),
		FinnhubRPS:       envFloat("FINNHUB_RPS", 0),
		RSSWireEnabled:   envBool("RSSWIRE_ENABLED", true),

		HoursBack:    envInt("DEFAULT_HOURS_BACK", 0),
		MaxNews:      envInt("DEFAULT_MAX_NEWS", 0),
		MinRelevance: envFloat("RELEVANCE_THRESHOLD", 0),
		Retry:        retryFromEnv(),
	}
}

func retryFromEnv() feed.RetryPolicy {
	p := feed.DefaultRetryPolicy()
	if v := envInt("MAX_RETRIES", -1); v >= 0 {
		p.MaxRetries = v
	}
	if d, err := time.ParseDuration(os.Getenv("RETRY_DELAY")); err == nil && d > 0 {
		p.BaseDelay = d
	}
	if d, err := time.ParseDuration(os.Getenv("CALL_TIMEOUT")); err == nil && d > 0 {
		p.CallTimeout = d
	}
	if v := os.Getenv("RETRYABLE_STATUSES"); v != "" {
		p.RetryableStatuses = parseStatusSet(v)
	}
	return p
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return fallback
}

// parseStatusSet reads a comma-separated status list like "429,502,503".
func parseStatusSet(s string) map[int]bool {
	set := make(map[int]bool)
	for _, part := range strings.Split(s, ",") {
		if code, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
			set[code] = true
		}
	}
	return set
}

func parseSources(s string) []domain.SourceTag {
	if s == "" {
		return nil
	}
	var tags []domain.SourceTag
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			tags = append(tags, domain.SourceTag(part))
		}
	}
	return tags
}

func buildProviders(cfg Config) []source.Provider {
	// Registration order is the fallback selection order after the
	// per-market priority tags.
	return []source.Provider{
		eastmoney.NewScraper(eastmoney.Config{
			Enabled:           cfg.EastmoneyEnabled,
			RequestsPerSecond: cfg.EastmoneyRPS,
		}),
		tushare.NewScraper(tushare.Config{
			Token:          cfg.TushareToken,
			CallsPerMinute: cfg.TushareCallsPM,
		}),
		finnhub.NewScraper(finnhub.Config{
			APIKey:            cfg.FinnhubKey,
			RequestsPerSecond: cfg.FinnhubRPS,
		}),
		rsswire.NewScraper(rsswire.Config{
			Enabled: cfg.RSSWireEnabled,
		}),
	}
}

type options struct {
	ticker       string
	startDate    string
	endDate      string
	hoursBack    int
	maxNews      int
	minRelevance float64
	sources      string
	format       string
	interval     time.Duration
	natsURL      string
	subject      string
	querySubject string
	listen       bool
	metricsPort  int
}

func main() {
	godotenv.Load()

	var opts options
	flag.StringVar(&opts.ticker, "ticker", "", "stock ticker to fetch news for (e.g. 000002, 0700.HK, AAPL)")
	flag.StringVar(&opts.startDate, "start", "", "window start (RFC3339 or 2006-01-02 [15:04[:05]])")
	flag.StringVar(&opts.endDate, "end", "", "window end (same formats as -start)")
	flag.IntVar(&opts.hoursBack, "hours-back", 0, "window span in hours when no dates are given (0 = default)")
	flag.IntVar(&opts.maxNews, "max-news", 0, "max items in the response (0 = default)")
	flag.Float64Var(&opts.minRelevance, "min-relevance", 0, "relevance floor 0..1 (0 = default)")
	flag.StringVar(&opts.sources, "sources", "", "comma-separated source tags; overrides market-based selection")
	flag.StringVar(&opts.format, "format", "json", "stdout format: json or report")
	flag.DurationVar(&opts.interval, "interval", 0, "polling interval (0 = one-shot)")
	flag.StringVar(&opts.natsURL, "nats", "", "NATS URL; publishes every response when set")
	flag.StringVar(&opts.subject, "subject", defaultResponseSubject, "NATS subject for published responses")
	flag.StringVar(&opts.querySubject, "query-subject", defaultQuerySubject, "NATS subject to answer query requests on")
	flag.BoolVar(&opts.listen, "listen", false, "serve NATS query requests instead of fetching once")
	flag.IntVar(&opts.metricsPort, "metrics-port", 0, "serve Prometheus metrics on this port (0 = off)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(loadConfig(), opts, logger); err != nil {
		logger.Error("newsfetch exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, opts options, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	met := metrics.New()
	if opts.metricsPort > 0 {
		met.ServeAsync(opts.metricsPort)
	}
	mLastFetch := met.Gauge("tickerwire_last_fetch_timestamp", "Epoch of the last completed aggregation.")

	reg := feed.NewRegistry(buildProviders(cfg)...)
	logger.Info("providers registered", "tags", reg.Tags())

	agg := feed.NewAggregator(feed.Deps{
		Registry: reg,
		Config: feed.Config{
			HoursBack:    cfg.HoursBack,
			MaxNews:      cfg.MaxNews,
			MinRelevance: cfg.MinRelevance,
			Retry:        cfg.Retry,
		},
		Logger:  logger,
		Metrics: met,
	})

	var nc *nats.Conn
	if opts.natsURL != "" {
		var err error
		nc, err = nats.Connect(opts.natsURL)
		if err != nil {
			return fmt.Errorf("nats connect: %w", err)
		}
		defer nc.Close()
	}

	// Responder mode: answer query requests until interrupted.
	if opts.listen {
		if nc == nil {
			return errors.New("-listen requires -nats")
		}
		sub, err := natsutil.HandleRequest(nc, opts.querySubject, func(ctx context.Context, q domain.NewsQuery) domain.NewsResponse {
			resp := agg.GetNews(ctx, q)
			mLastFetch.Set(time.Now().Unix())
			return resp
		})
		if err != nil {
			return fmt.Errorf("subscribe %s: %w", opts.querySubject, err)
		}
		defer sub.Unsubscribe()
		logger.Info("answering news queries", "subject", opts.querySubject)
		<-ctx.Done()
		logger.Info("shutting down")
		return nil
	}

	if opts.ticker == "" {
		return errors.New("-ticker is required (or use -listen)")
	}

	query := domain.NewsQuery{
		Ticker:       opts.ticker,
		Start:        domain.ParseDate(opts.startDate),
		End:          domain.ParseDate(opts.endDate),
		HoursBack:    opts.hoursBack,
		MaxNews:      opts.maxNews,
		MinRelevance: opts.minRelevance,
		Sources:      parseSources(opts.sources),
	}

	emit := func(ctx context.Context) {
		resp := agg.GetNews(ctx, query)
		mLastFetch.Set(time.Now().Unix())
		if nc != nil {
			if err := natsutil.Publish(ctx, nc, opts.subject, resp); err != nil {
				logger.Error("nats publish", "subject", opts.subject, "err", err)
			}
		}
		switch opts.format {
		case "report":
			fmt.Println(feed.BuildReport(resp))
		default:
			var buf bytes.Buffer
			if err := json.Indent(&buf, feed.Encode(resp), "", "  "); err != nil {
				logger.Error("render response", "err", err)
				return
			}
			buf.WriteByte('\n')
			os.Stdout.Write(buf.Bytes())
		}
	}

	emit(ctx)
	if opts.interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(opts.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return nil
		case <-ticker.C:
			emit(ctx)
		}
	}
}
