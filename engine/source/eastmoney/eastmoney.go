package eastmoney

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/tickerwire/tickerwire/engine/domain"
	"github.com/tickerwire/tickerwire/pkg/fintext"
)

const (
	defaultBaseURL = "https://search-api-web.eastmoney.com"
	searchPath     = "/api/search/news"
	maxPageSize    = 100
	userAgent      = "tickerwire/1.0 (financial news aggregation)"
)

// East Money reports wall-clock times in mainland China time.
var cnZone = time.FixedZone("CST", 8*60*60)

const showTimeLayout = "2006-01-02 15:04:05"

// Scraper pulls news rows from the East Money search API.
type Scraper struct {
	cfg     Config
	client  *http.Client
	limiter *rate.Limiter
}

func NewScraper(cfg Config) *Scraper {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	return &Scraper{
		cfg: cfg,
		client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter: rate.NewLimiter(rate.Limit(rps), 2),
	}
}

func (s *Scraper) Name() domain.SourceTag { return domain.SourceEastmoney }

func (s *Scraper) Available() bool { return s.cfg.Enabled }

// Fetch queries news for the ticker's numeric code and keeps rows whose
// publish time falls inside [start, end]. Returned timestamps stay in
// China time; normalization happens downstream.
func (s *Scraper) Fetch(ctx context.Context, ticker string, start, end time.Time, limit int) ([]domain.NewsItem, error) {
	if !s.cfg.Enabled {
		return nil, domain.ErrSourceDisabled
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	pageSize := s.cfg.PageSize
	if pageSize <= 0 {
		pageSize = limit
	}
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	code := nativeCode(ticker)
	params := url.Values{
		"keyword":   {code},
		"pageindex": {"1"},
		"pagesize":  {strconv.Itoa(pageSize)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		s.cfg.BaseURL+searchPath+"?"+params.Encode(), nil)
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
			fmt.Errorf("http %d from east money search", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewFetchError(s.Name(), 0, fmt.Errorf("read body: %w", err))
	}

	var sr searchResponse
	if err := json.Unmarshal(body, &sr); err != nil {
		return nil, domain.NewFetchError(s.Name(), 0, fmt.Errorf("decode: %w", err))
	}
	if sr.Code != 0 {
		return nil, domain.NewFetchError(s.Name(), 0,
			fmt.Errorf("east money error code %d: %s", sr.Code, sr.Msg))
	}

	items := make([]domain.NewsItem, 0, len(sr.Data.News))
	for _, row := range sr.Data.News {
		pub, err := time.ParseInLocation(showTimeLayout, row.ShowTime, cnZone)
		if err != nil {
			continue
		}
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

func (s *Scraper) toItem(row newsRow, ticker string, pub time.Time) domain.NewsItem {
	title := strings.TrimSpace(row.Title)
	content := fintext.StripHTML(row.Digest)
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

// nativeCode reduces a ticker to the numeric code East Money indexes
// by: "0700.HK" becomes "0700", A-share codes pass through.
func nativeCode(ticker string) string {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if rest, ok := strings.CutSuffix(t, ".HK"); ok {
		return rest
	}
	return t
}
