package feed

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/tickerwire/tickerwire/engine/domain"
	"github.com/tickerwire/tickerwire/pkg/fintext"
	"github.com/tickerwire/tickerwire/pkg/fn"
)

const (
	reportHighCap      = 3
	reportMediumCap    = 5
	reportLowCap       = 10
	reportTimeLayout   = "2006-01-02 15:04"
	reportExcerptRunes = 80

	// wireTimeLayout is the fixed timestamp spelling in the encoded form.
	// Always UTC, second precision.
	wireTimeLayout = "2006-01-02 15:04:05"
)

// BuildReport renders a response as a plain-text briefing, grouped by
// urgency. High-urgency items come first with the tightest cap so the top
// of the report stays scannable; the per-group counts show the full total
// even when the listing is capped.
func BuildReport(resp domain.NewsResponse) string {
	var b strings.Builder

	fmt.Fprintf(&b, "News briefing for %s", resp.Query.Ticker)
	if resp.Query.Market != "" && resp.Query.Market != domain.MarketUnknown {
		fmt.Fprintf(&b, " [%s]", resp.Query.Market)
	}
	b.WriteByte('\n')

	if !resp.Success {
		fmt.Fprintf(&b, "fetch failed: %s\n", resp.Error)
		return b.String()
	}
	if resp.Total == 0 {
		fmt.Fprintf(&b, "no news between %s and %s\n",
			resp.Query.Start.Format(reportTimeLayout),
			resp.Query.End.Format(reportTimeLayout),
		)
		return b.String()
	}

	fmt.Fprintf(&b, "%d items from %s, fetched %s\n",
		resp.Total,
		strings.Join(fn.Map(resp.SourcesUsed, func(t domain.SourceTag) string { return string(t) }), ", "),
		resp.FetchedAt.Format(reportTimeLayout),
	)

	groups := fn.GroupBy(resp.Items, func(it domain.NewsItem) domain.Urgency { return it.Urgency })
	sections := []struct {
		urgency domain.Urgency
		label   string
		cap     int
	}{
		{domain.UrgencyHigh, "HIGH", reportHighCap},
		{domain.UrgencyMedium, "MEDIUM", reportMediumCap},
		{domain.UrgencyLow, "LOW", reportLowCap},
	}
	for _, sec := range sections {
		items := groups[sec.urgency]
		if len(items) == 0 {
			continue
		}
		shown := items
		if len(shown) > sec.cap {
			shown = shown[:sec.cap]
		}
		fmt.Fprintf(&b, "\n%s (%d)\n", sec.label, len(items))
		for _, it := range shown {
			fmt.Fprintf(&b, "- [%s] %s  %s\n", it.Source, it.PublishTime.Format(reportTimeLayout), it.Title)
			if excerpt := fintext.Excerpt(it.Content, reportExcerptRunes); excerpt != "" {
				fmt.Fprintf(&b, "  %s\n", excerpt)
			}
		}
	}
	return b.String()
}

// Wire form of a response. Timestamps are fixed-format UTC strings so the
// encoding is stable across zones and round-trips losslessly to the second.

type wireItem struct {
	Title          string   `json:"title"`
	Content        string   `json:"content"`
	Source         string   `json:"source"`
	PublishTime    string   `json:"publish_time"`
	URL            string   `json:"url,omitempty"`
	Urgency        string   `json:"urgency"`
	RelevanceScore float64  `json:"relevance_score"`
	Ticker         string   `json:"ticker,omitempty"`
	Keywords       []string `json:"keywords,omitempty"`
	Sentiment      string   `json:"sentiment,omitempty"`
}

type wireQuery struct {
	Ticker       string   `json:"ticker"`
	Start        string   `json:"start,omitempty"`
	End          string   `json:"end,omitempty"`
	HoursBack    int      `json:"hours_back,omitempty"`
	MaxNews      int      `json:"max_news,omitempty"`
	Sources      []string `json:"sources,omitempty"`
	MinRelevance float64  `json:"min_relevance,omitempty"`
	Market       string   `json:"market,omitempty"`
}

type wireResponse struct {
	ID          string     `json:"id"`
	Items       []wireItem `json:"items"`
	Total       int        `json:"total"`
	Query       wireQuery  `json:"query"`
	SourcesUsed []string   `json:"sources_used"`
	FetchedAt   string     `json:"fetched_at"`
	Success     bool       `json:"success"`
	Error       string     `json:"error,omitempty"`
}

// Encode serializes a response to its wire form. The wire structs hold
// nothing json.Marshal can choke on, so there is no error to return.
func Encode(resp domain.NewsResponse) []byte {
	w := wireResponse{
		ID:          resp.ID,
		Items:       fn.Map(resp.Items, encodeItem),
		Total:       resp.Total,
		Query:       encodeQuery(resp.Query),
		SourcesUsed: fn.Map(resp.SourcesUsed, func(t domain.SourceTag) string { return string(t) }),
		FetchedAt:   wireTime(resp.FetchedAt),
		Success:     resp.Success,
		Error:       resp.Error,
	}
	if w.Items == nil {
		w.Items = []wireItem{}
	}
	if w.SourcesUsed == nil {
		w.SourcesUsed = []string{}
	}
	data, _ := json.Marshal(w)
	return data
}

// Decode rebuilds a response from its wire form. The only failure mode is
// a *domain.ParseError naming the field that would not parse.
func Decode(data []byte) (domain.NewsResponse, error) {
	var w wireResponse
	if err := json.Unmarshal(data, &w); err != nil {
		return domain.NewsResponse{}, domain.NewParseError("response", err)
	}

	fetchedAt, err := parseWireTime(w.FetchedAt, "fetched_at")
	if err != nil {
		return domain.NewsResponse{}, err
	}
	query, err := decodeQuery(w.Query)
	if err != nil {
		return domain.NewsResponse{}, err
	}

	items := make([]domain.NewsItem, len(w.Items))
	for i, wi := range w.Items {
		publishTime, err := parseWireTime(wi.PublishTime, fmt.Sprintf("items[%d].publish_time", i))
		if err != nil {
			return domain.NewsResponse{}, err
		}
		items[i] = domain.NewsItem{
			Title:          wi.Title,
			Content:        wi.Content,
			Source:         domain.SourceTag(wi.Source),
			PublishTime:    publishTime,
			URL:            wi.URL,
			Urgency:        domain.Urgency(wi.Urgency),
			RelevanceScore: wi.RelevanceScore,
			Ticker:         wi.Ticker,
			Keywords:       wi.Keywords,
			Sentiment:      domain.Sentiment(wi.Sentiment),
		}
	}

	return domain.NewsResponse{
		ID:          w.ID,
		Items:       items,
		Total:       w.Total,
		Query:       query,
		SourcesUsed: fn.Map(w.SourcesUsed, func(s string) domain.SourceTag { return domain.SourceTag(s) }),
		FetchedAt:   fetchedAt,
		Success:     w.Success,
		Error:       w.Error,
	}, nil
}

func encodeItem(it domain.NewsItem) wireItem {
	return wireItem{
		Title:          it.Title,
		Content:        it.Content,
		Source:         string(it.Source),
		PublishTime:    wireTime(it.PublishTime),
		URL:            it.URL,
		Urgency:        string(it.Urgency),
		RelevanceScore: it.RelevanceScore,
		Ticker:         it.Ticker,
		Keywords:       it.Keywords,
		Sentiment:      string(it.Sentiment),
	}
}

func encodeQuery(q domain.NewsQuery) wireQuery {
	w := wireQuery{
		Ticker:       q.Ticker,
		HoursBack:    q.HoursBack,
		MaxNews:      q.MaxNews,
		Sources:      fn.Map(q.Sources, func(t domain.SourceTag) string { return string(t) }),
		MinRelevance: q.MinRelevance,
		Market:       string(q.Market),
	}
	if !q.Start.IsZero() {
		w.Start = wireTime(q.Start)
	}
	if !q.End.IsZero() {
		w.End = wireTime(q.End)
	}
	return w
}

func decodeQuery(w wireQuery) (domain.NewsQuery, error) {
	q := domain.NewsQuery{
		Ticker:       w.Ticker,
		HoursBack:    w.HoursBack,
		MaxNews:      w.MaxNews,
		Sources:      fn.Map(w.Sources, func(s string) domain.SourceTag { return domain.SourceTag(s) }),
		MinRelevance: w.MinRelevance,
		Market:       domain.MarketType(w.Market),
	}
	if w.Start != "" {
		start, err := parseWireTime(w.Start, "query.start")
		if err != nil {
			return domain.NewsQuery{}, err
		}
		q.Start = start
	}
	if w.End != "" {
		end, err := parseWireTime(w.End, "query.end")
		if err != nil {
			return domain.NewsQuery{}, err
		}
		q.End = end
	}
	return q, nil
}

func wireTime(t time.Time) string {
	return t.UTC().Format(wireTimeLayout)
}

func parseWireTime(s, field string) (time.Time, error) {
	t, err := time.Parse(wireTimeLayout, s)
	if err != nil {
		return time.Time{}, domain.NewParseError(field, err)
	}
	return t, nil
}
