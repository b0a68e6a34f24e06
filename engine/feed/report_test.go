package feed

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tickerwire/tickerwire/engine/domain"
)

func sampleResponse() domain.NewsResponse {
	at := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	return domain.NewsResponse{
		ID: "f3b9c6de-0000-4000-8000-000000000001",
		Items: []domain.NewsItem{
			{
				Title:          "Regulator clears the pending merger",
				Content:        "The deal cleared its final antitrust review and is expected to close this quarter after months of uncertainty.",
				Source:         domain.SourceFinnhub,
				PublishTime:    at.Add(-15 * time.Minute),
				URL:            "https://example.com/a",
				Urgency:        domain.UrgencyHigh,
				RelevanceScore: 0.9,
				Ticker:         "AAPL",
				Keywords:       []string{"merger", "acquisition"},
				Sentiment:      domain.SentimentPositive,
			},
			{
				Title:          "Quarterly revenue edges past estimates",
				Content:        "Revenue grew modestly year over year.",
				Source:         domain.SourceRSSWire,
				PublishTime:    at.Add(-2 * time.Hour),
				Urgency:        domain.UrgencyMedium,
				RelevanceScore: 0.6,
				Sentiment:      domain.SentimentNeutral,
			},
		},
		Total: 2,
		Query: domain.NewsQuery{
			Ticker:       "AAPL",
			Start:        at.Add(-24 * time.Hour),
			End:          at,
			HoursBack:    24,
			MaxNews:      10,
			Sources:      []domain.SourceTag{domain.SourceFinnhub, domain.SourceRSSWire},
			MinRelevance: 0.3,
			Market:       domain.MarketUSShare,
		},
		SourcesUsed: []domain.SourceTag{domain.SourceFinnhub, domain.SourceRSSWire},
		FetchedAt:   at,
		Success:     true,
	}
}

func TestBuildReportGroupsByUrgency(t *testing.T) {
	report := BuildReport(sampleResponse())

	if !strings.Contains(report, "News briefing for AAPL [us_share]") {
		t.Errorf("missing header, got:\n%s", report)
	}
	if !strings.Contains(report, "HIGH (1)") || !strings.Contains(report, "MEDIUM (1)") {
		t.Errorf("missing urgency sections, got:\n%s", report)
	}
	if !strings.Contains(report, "[finnhub] 2026-03-10 11:45") {
		t.Errorf("missing source and formatted time, got:\n%s", report)
	}
	highIdx := strings.Index(report, "HIGH")
	medIdx := strings.Index(report, "MEDIUM")
	if highIdx < 0 || medIdx < 0 || highIdx > medIdx {
		t.Error("expected high urgency section before medium")
	}
}

func TestBuildReportCapsGroups(t *testing.T) {
	resp := sampleResponse()
	resp.Items = nil
	at := resp.FetchedAt
	for i := 0; i < reportHighCap+2; i++ {
		resp.Items = append(resp.Items, domain.NewsItem{
			Title:          strings.Repeat("x", 12) + string(rune('a'+i)),
			Content:        "body",
			Source:         domain.SourceFinnhub,
			PublishTime:    at.Add(-time.Duration(i) * time.Minute),
			Urgency:        domain.UrgencyHigh,
			RelevanceScore: 0.9,
		})
	}
	resp.Total = len(resp.Items)

	report := BuildReport(resp)

	if !strings.Contains(report, "HIGH (5)") {
		t.Errorf("expected full count in header, got:\n%s", report)
	}
	if got := strings.Count(report, "- ["); got != reportHighCap {
		t.Errorf("expected %d listed entries, got %d:\n%s", reportHighCap, got, report)
	}
}

func TestBuildReportExcerptTruncates(t *testing.T) {
	resp := sampleResponse()
	resp.Items = resp.Items[:1]
	resp.Items[0].Content = strings.Repeat("long content ", 40)
	resp.Total = 1

	report := BuildReport(resp)
	if !strings.Contains(report, "...") {
		t.Errorf("expected a truncated excerpt, got:\n%s", report)
	}
}

func TestBuildReportFailure(t *testing.T) {
	resp := domain.NewsResponse{
		Query: domain.NewsQuery{Ticker: "000001", Market: domain.MarketAShare},
		Error: "no providers available for market a_share",
	}
	report := BuildReport(resp)
	if !strings.Contains(report, "fetch failed: no providers available") {
		t.Errorf("expected failure line, got:\n%s", report)
	}
}

func TestBuildReportEmpty(t *testing.T) {
	resp := sampleResponse()
	resp.Items = []domain.NewsItem{}
	resp.Total = 0
	report := BuildReport(resp)
	if !strings.Contains(report, "no news between") {
		t.Errorf("expected empty-window line, got:\n%s", report)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	orig := sampleResponse()
	decoded, err := Decode(Encode(orig))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if decoded.ID != orig.ID || decoded.Total != orig.Total || decoded.Success != orig.Success {
		t.Errorf("scalar fields did not round trip: %+v", decoded)
	}
	if !decoded.FetchedAt.Equal(orig.FetchedAt) {
		t.Errorf("fetched_at mismatch: %v vs %v", decoded.FetchedAt, orig.FetchedAt)
	}
	if len(decoded.Items) != len(orig.Items) {
		t.Fatalf("expected %d items, got %d", len(orig.Items), len(decoded.Items))
	}
	for i := range orig.Items {
		want, got := orig.Items[i], decoded.Items[i]
		if got.Title != want.Title || got.Source != want.Source || got.Urgency != want.Urgency ||
			got.Sentiment != want.Sentiment || got.RelevanceScore != want.RelevanceScore ||
			got.URL != want.URL || got.Ticker != want.Ticker {
			t.Errorf("item %d mismatch: %+v vs %+v", i, got, want)
		}
		if !got.PublishTime.Equal(want.PublishTime) {
			t.Errorf("item %d publish_time mismatch: %v vs %v", i, got.PublishTime, want.PublishTime)
		}
		if len(got.Keywords) != len(want.Keywords) {
			t.Errorf("item %d keywords mismatch: %v vs %v", i, got.Keywords, want.Keywords)
		}
	}
	if decoded.Query.Ticker != orig.Query.Ticker || decoded.Query.Market != orig.Query.Market ||
		decoded.Query.MaxNews != orig.Query.MaxNews || decoded.Query.MinRelevance != orig.Query.MinRelevance {
		t.Errorf("query did not round trip: %+v", decoded.Query)
	}
	if !decoded.Query.Start.Equal(orig.Query.Start) || !decoded.Query.End.Equal(orig.Query.End) {
		t.Errorf("query window did not round trip: [%v, %v]", decoded.Query.Start, decoded.Query.End)
	}
	if !sameTags(decoded.SourcesUsed, orig.SourcesUsed) {
		t.Errorf("sources_used mismatch: %v vs %v", decoded.SourcesUsed, orig.SourcesUsed)
	}
}

func TestEncodeNormalizesZone(t *testing.T) {
	cn := time.FixedZone("CST", 8*60*60)
	resp := sampleResponse()
	resp.FetchedAt = time.Date(2026, 3, 10, 20, 0, 0, 0, cn) // 12:00 UTC

	decoded, err := Decode(Encode(resp))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	want := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	if !decoded.FetchedAt.Equal(want) {
		t.Errorf("expected %v, got %v", want, decoded.FetchedAt)
	}
}

func TestDecodeMalformedJSON(t *testing.T) {
	_, err := Decode([]byte("{not json"))
	if err == nil {
		t.Fatal("expected an error")
	}
	var pe *domain.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *domain.ParseError, got %T", err)
	}
	if pe.Field != "response" {
		t.Errorf("expected field \"response\", got %q", pe.Field)
	}
}

func TestDecodeBadTimestamp(t *testing.T) {
	data := Encode(sampleResponse())
	mangled := strings.Replace(string(data), "2026-03-10 12:00:00", "yesterday sometime", 1)

	_, err := Decode([]byte(mangled))
	if err == nil {
		t.Fatal("expected an error")
	}
	var pe *domain.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *domain.ParseError, got %T", err)
	}
}

func TestDecodeBadItemTimestamp(t *testing.T) {
	resp := sampleResponse()
	data := Encode(resp)
	mangled := strings.Replace(string(data), "2026-03-10 11:45:00", "not-a-time", 1)

	_, err := Decode([]byte(mangled))
	var pe *domain.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *domain.ParseError, got %T (%v)", err, err)
	}
	if pe.Field != "items[0].publish_time" {
		t.Errorf("expected items[0].publish_time, got %q", pe.Field)
	}
}
