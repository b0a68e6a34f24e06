package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/tickerwire/tickerwire/engine/domain"
	"github.com/tickerwire/tickerwire/pkg/fintext"
	"github.com/tickerwire/tickerwire/pkg/resilience"
)

const (
	defaultBaseURL = "https://finnhub.io/api/v1"
	newsPath       = "/company-news"
	dateLayout     = "2006-01-02"
	userAgent      = "tickerwire/1.0 (financial news aggregation)"
)

// Scraper pulls company news rows from Finnhub.
type Scraper struct {
	cfg     Config
	client  *http.Client
	breaker *resilience.Breaker
	limiter *rate.Limiter
}

func NewScraper(cfg Config) *Scraper {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	return &Scraper{
		cfg: cfg,
		client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		breaker: resilience.NewBreaker(resilience.BreakerOpts{
			FailThreshold: cfg.BreakerThreshold,
		}),
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

func (s *Scraper) Name() domain.SourceTag { return domain.SourceFinnhub }

func (s *Scraper) Available() bool { return s.cfg.APIKey != "" }

// Fetch queries company-news for the symbol over [start, end]. The call
// runs through the circuit breaker; while the breaker is open the fetch
// fails fast with resilience.ErrCircuitOpen, which the retry layer
// treats as non-retryable.
func (s *Scraper) Fetch(ctx context.Context, ticker string, start, end time.Time, limit int) ([]domain.NewsItem, error) {
	if s.cfg.APIKey == "" {
		return nil, domain.ErrNoCredential
	}

	var rows []newsRow
	err := s.breaker.Call(ctx, func(ctx context.Context) error {
		var callErr error
		rows, callErr = s.companyNews(ctx, symbol(ticker), start, end)
		return callErr
	})
	if err != nil {
		return nil, err
	}

	items := make([]domain.NewsItem, 0, len(rows))
	for _, row := range rows {
		if row.Datetime <= 0 || strings.TrimSpace(row.Headline) == "" {
			continue
		}
		pub := time.Unix(row.Datetime, 0)
		if pub.Before(start) || pub.After(end) {
			continue
		}
		items = append(items, s.toItem(row, ticker, pub))
		if limit > 0 && len(items) >= limit {
			break
		}
	}
	return items, nil
}

func (s *Scraper) companyNews(ctx context.Context, sym string, start, end time.Time) ([]newsRow, error) {
	// Pace inside the breaker so an open circuit fails fast without
	// burning a limiter token.
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	params := url.Values{
		"symbol": {sym},
		"from":   {start.UTC().Format(dateLayout)},
		"to":     {end.UTC().Format(dateLayout)},
		"token":  {s.cfg.APIKey},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		s.cfg.BaseURL+newsPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, domain.NewFetchError(s.Name(), 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewFetchError(s.Name(), resp.StatusCode,
			fmt.Errorf("http %d from finnhub", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewFetchError(s.Name(), 0, fmt.Errorf("read body: %w", err))
	}
	var rows []newsRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, domain.NewFetchError(s.Name(), 0, fmt.Errorf("decode: %w", err))
	}
	return rows, nil
}

func (s *Scraper) toItem(row newsRow, ticker string, pub time.Time) domain.NewsItem {
	title := strings.TrimSpace(row.Headline)
	content := strings.TrimSpace(row.Summary)
	return domain.NewsItem{
		Title:          title,
		Content:        content,
		Source:         s.Name(),
		PublishTime:    pub,
		URL:            row.URL,
		Urgency:        domain.Urgency(fintext.Urgency(title, content)),
		RelevanceScore: fintext.Relevance(title, content, ticker),
		Ticker:         ticker,
		Keywords:       fintext.Keywords(title, content, 8),
		Sentiment:      domain.Sentiment(fintext.Sentiment(title, content)),
	}
}

// symbol normalizes a ticker to Finnhub's symbol convention.
func symbol(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}
