// Package rsswire fetches ticker news from per-symbol RSS feeds,
// Yahoo Finance headlines by default. Free source, no credentials.
package rsswire

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/tickerwire/tickerwire/engine/domain"
	"github.com/tickerwire/tickerwire/pkg/fintext"
)

const (
	defaultFeedURL = "https://feeds.finance.yahoo.com/rss/2.0/headline?s=%s&region=US&lang=en-US"
	userAgent      = "tickerwire/1.0 (financial news aggregation)"
)

// Config controls the adapter.
type Config struct {
	Enabled bool
	// FeedURL is a template with one %s verb for the escaped symbol.
	// Overridden in tests; defaults to the Yahoo Finance headline feed.
	FeedURL string
}

// Scraper reads one RSS feed per ticker. gofeed owns the HTTP round
// trip, so unlike the API adapters there is no instrumented transport
// here.
type Scraper struct {
	cfg    Config
	parser *gofeed.Parser
}

func NewScraper(cfg Config) *Scraper {
	if cfg.FeedURL == "" {
		cfg.FeedURL = defaultFeedURL
	}
	parser := gofeed.NewParser()
	parser.UserAgent = userAgent
	parser.Client = &http.Client{Timeout: 30 * time.Second}
	return &Scraper{cfg: cfg, parser: parser}
}

func (s *Scraper) Name() domain.SourceTag { return domain.SourceRSSWire }

func (s *Scraper) Available() bool { return s.cfg.Enabled }

// Fetch parses the symbol's feed and keeps entries inside [start, end].
// Feed entries without a parsable publish time are skipped; item
// descriptions are HTML-stripped.
func (s *Scraper) Fetch(ctx context.Context, ticker string, start, end time.Time, limit int) ([]domain.NewsItem, error) {
	if !s.cfg.Enabled {
		return nil, domain.ErrSourceDisabled
	}

	sym := strings.ToUpper(strings.TrimSpace(ticker))
	feedURL := fmt.Sprintf(s.cfg.FeedURL, url.QueryEscape(sym))

	feed, err := s.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) {
			return nil, domain.NewFetchError(s.Name(), httpErr.StatusCode,
				fmt.Errorf("http %d from feed: %w", httpErr.StatusCode, err))
		}
		return nil, domain.NewFetchError(s.Name(), 0, err)
	}

	items := make([]domain.NewsItem, 0, len(feed.Items))
	for _, entry := range feed.Items {
		if entry == nil || entry.PublishedParsed == nil {
			continue
		}
		title := strings.TrimSpace(entry.Title)
		if title == "" {
			continue
		}
		pub := *entry.PublishedParsed
		if pub.Before(start) || pub.After(end) {
			continue
		}
		content := fintext.StripHTML(entry.Description)
		items = append(items, domain.NewsItem{
			Title:          title,
			Content:        content,
			Source:         s.Name(),
			PublishTime:    pub,
			URL:            entry.Link,
			Urgency:        domain.Urgency(fintext.Urgency(title, content)),
			RelevanceScore: fintext.Relevance(title, content, ticker),
			Ticker:         ticker,
			Keywords:       fintext.Keywords(title, content, 8),
			Sentiment:      domain.Sentiment(fintext.Sentiment(title, content)),
		})
		if limit > 0 && len(items) >= limit {
			break
		}
	}
	return items, nil
}
