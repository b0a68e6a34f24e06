package tushare

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tickerwire/tickerwire/engine/domain"
	"github.com/tickerwire/tickerwire/pkg/fintext"
	"github.com/tickerwire/tickerwire/pkg/resilience"
)

const (
	defaultBaseURL = "https://api.tushare.pro"
	userAgent      = "tickerwire/1.0 (financial news aggregation)"
	timeLayout     = "2006-01-02 15:04:05"
)

// TuShare reports times in mainland China time.
var cnZone = time.FixedZone("CST", 8*60*60)

// Scraper drives the TuShare Pro news RPC.
type Scraper struct {
	cfg     Config
	client  *http.Client
	limiter *resilience.Limiter
}

func NewScraper(cfg Config) *Scraper {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	perMinute := cfg.CallsPerMinute
	if perMinute <= 0 {
		perMinute = 2
	}
	return &Scraper{
		cfg: cfg,
		client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		limiter: resilience.NewLimiter(resilience.LimiterOpts{
			Rate:  perMinute / 60,
			Burst: 1,
		}),
	}
}

func (s *Scraper) Name() domain.SourceTag { return domain.SourceTushare }

func (s *Scraper) Available() bool { return s.cfg.Token != "" }

// Fetch posts one news RPC for the ticker's ts_code and maps the
// columnar rows. The call waits for limiter credit first, so a tight
// quota surfaces as latency rather than failures.
func (s *Scraper) Fetch(ctx context.Context, ticker string, start, end time.Time, limit int) ([]domain.NewsItem, error) {
	if s.cfg.Token == "" {
		return nil, domain.ErrNoCredential
	}

	reqBody := apiRequest{
		APIName: "news",
		Token:   s.cfg.Token,
		Params: map[string]string{
			"ts_code":    tsCode(ticker),
			"start_date": start.In(cnZone).Format(timeLayout),
			"end_date":   end.In(cnZone).Format(timeLayout),
		},
		Fields: "datetime,title,content,src",
	}

	var resp apiResponse
	err := s.limiter.CallWait(ctx, func(ctx context.Context) error {
		return s.post(ctx, reqBody, &resp)
	})
	if err != nil {
		return nil, err
	}
	if resp.Code != 0 {
		return nil, domain.NewFetchError(s.Name(), 0,
			fmt.Errorf("tushare error code %d: %s", resp.Code, resp.Msg))
	}

	cols := columnIndex(resp.Data.Fields)
	items := make([]domain.NewsItem, 0, len(resp.Data.Items))
	for _, row := range resp.Data.Items {
		item, ok := s.toItem(row, cols, ticker)
		if !ok {
			continue
		}
		if item.PublishTime.Before(start) || item.PublishTime.After(end) {
			continue
		}
		items = append(items, item)
		if limit > 0 && len(items) >= limit {
			break
		}
	}
	return items, nil
}

func (s *Scraper) post(ctx context.Context, body apiRequest, out *apiResponse) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return domain.NewFetchError(s.Name(), 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.NewFetchError(s.Name(), resp.StatusCode,
			fmt.Errorf("http %d from tushare", resp.StatusCode))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.NewFetchError(s.Name(), 0, fmt.Errorf("read body: %w", err))
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return domain.NewFetchError(s.Name(), 0, fmt.Errorf("decode: %w", err))
	}
	return nil
}

func (s *Scraper) toItem(row []any, cols map[string]int, ticker string) (domain.NewsItem, bool) {
	title := strings.TrimSpace(cell(row, cols, "title"))
	datetime := cell(row, cols, "datetime")
	if title == "" || datetime == "" {
		return domain.NewsItem{}, false
	}
	pub, err := time.ParseInLocation(timeLayout, datetime, cnZone)
	if err != nil {
		return domain.NewsItem{}, false
	}
	content := strings.TrimSpace(cell(row, cols, "content"))
	return domain.NewsItem{
		Title:          title,
		Content:        content,
		Source:         s.Name(),
		PublishTime:    pub,
		Urgency:        domain.Urgency(fintext.Urgency(title, content)),
		RelevanceScore: fintext.Relevance(title, content, ticker),
		Ticker:         ticker,
		Keywords:       fintext.Keywords(title, content, 8),
		Sentiment:      domain.Sentiment(fintext.Sentiment(title, content)),
	}, true
}

// columnIndex maps field names to their row position.
func columnIndex(fields []string) map[string]int {
	idx := make(map[string]int, len(fields))
	for i, f := range fields {
		idx[f] = i
	}
	return idx
}

// cell reads a string column from a columnar row, tolerating short rows
// and non-string values.
func cell(row []any, cols map[string]int, field string) string {
	i, ok := cols[field]
	if !ok || i >= len(row) {
		return ""
	}
	s, _ := row[i].(string)
	return s
}

// tsCode translates a ticker into TuShare's exchange-suffixed form:
// 600xxx to .SH, 0xxxxx/3xxxxx to .SZ, 8xxxxx to .BJ. Codes that
// already carry a suffix pass through uppercased.
func tsCode(ticker string) string {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if strings.Contains(t, ".") || len(t) != 6 {
		return t
	}
	for _, r := range t {
		if r < '0' || r > '9' {
			return t
		}
	}
	switch t[0] {
	case '6', '9':
		return t + ".SH"
	case '0', '3':
		return t + ".SZ"
	case '8':
		return t + ".BJ"
	default:
		return t
	}
}
