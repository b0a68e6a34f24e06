// Package fintext scores and tags financial news text using keyword
// heuristics and small bilingual wordlists. Pure functions over strings;
// no model calls, no external services.
package fintext

import (
	"strings"
	"unicode"
)

// Urgency levels, ordered most to least severe. Values line up with the
// feed's urgency tags so callers can convert by string value.
const (
	UrgencyHigh   = "high"
	UrgencyMedium = "medium"
	UrgencyLow    = "low"
)

// Sentiment labels.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// DefaultRelevance is assigned when a text mentions neither the ticker
// nor its numeric code.
const DefaultRelevance = 0.3

// highUrgencyTerms signal events that move a stock immediately:
// suspensions, delistings, regulatory action, solvency.
var highUrgencyTerms = []string{
	"停牌", "退市", "立案调查", "强制退市", "破产", "爆雷", "暴雷",
	"违规", "处罚", "警示函", "业绩预亏", "跌停", "崩盘", "债务违约",
	"halt", "halted", "delisting", "delisted", "bankruptcy", "bankrupt",
	"fraud", "investigation", "default", "profit warning", "sec charges",
	"chapter 11", "insolvency", "crash",
}

// mediumUrgencyTerms cover ordinary corporate actions and analyst moves.
var mediumUrgencyTerms = []string{
	"重组", "并购", "收购", "回购", "增持", "减持", "定增", "中标",
	"业绩预告", "分红", "派息", "评级", "限售解禁", "股权激励",
	"merger", "acquisition", "buyback", "dividend", "earnings",
	"guidance", "upgrade", "downgrade", "lawsuit", "restructuring",
	"spin-off", "stake",
}

var positiveTerms = []string{
	"增长", "上涨", "涨停", "利好", "盈利", "创新高", "超预期", "回暖",
	"中标", "突破", "大涨",
	"surge", "beat", "beats", "record high", "rally", "gains", "growth",
	"profit", "upgrade", "outperform", "soar", "jumps",
}

var negativeTerms = []string{
	"下跌", "亏损", "利空", "跌停", "低于预期", "下滑", "大跌", "缩水",
	"违规", "处罚", "退市", "破产",
	"drop", "drops", "miss", "misses", "loss", "decline", "plunge",
	"downgrade", "underperform", "lawsuit", "fraud", "warning", "slump",
}

// Urgency tags a news item from its title and content. Title matches
// alone decide high urgency; content matches only ever raise an item to
// medium, so a passing mention of "bankruptcy" deep in an article does
// not page anyone.
func Urgency(title, content string) string {
	t := strings.ToLower(title)
	if containsAny(t, highUrgencyTerms) {
		return UrgencyHigh
	}
	if containsAny(t, mediumUrgencyTerms) {
		return UrgencyMedium
	}
	c := strings.ToLower(content)
	if containsAny(c, highUrgencyTerms) || containsAny(c, mediumUrgencyTerms) {
		return UrgencyMedium
	}
	return UrgencyLow
}

// Relevance estimates how strongly a piece of text concerns a ticker.
// An exact ticker match in the title scores 1.0, a match on the
// ticker's numeric code anywhere scores 0.9, anything else gets
// DefaultRelevance.
func Relevance(title, content, ticker string) float64 {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return DefaultRelevance
	}
	lowerTicker := strings.ToLower(ticker)
	lowerTitle := strings.ToLower(title)
	if strings.Contains(lowerTitle, lowerTicker) {
		return 1.0
	}
	if code := digitRun(ticker); len(code) >= 4 {
		if strings.Contains(lowerTitle, code) || strings.Contains(strings.ToLower(content), code) {
			return 0.9
		}
	}
	return DefaultRelevance
}

// Sentiment labels a text by counting positive versus negative term
// hits. Ties and zero hits are neutral.
func Sentiment(title, content string) string {
	text := strings.ToLower(title + " " + content)
	pos := countMatches(text, positiveTerms)
	neg := countMatches(text, negativeTerms)
	switch {
	case pos > neg:
		return SentimentPositive
	case neg > pos:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// digitRun returns the longest run of consecutive digits in s. For
// "0700.HK" that is "0700"; for "AAPL" it is "".
func digitRun(s string) string {
	best, cur := "", strings.Builder{}
	for _, r := range s {
		if r >= '0' && r <= '9' {
			cur.WriteRune(r)
			continue
		}
		if cur.Len() > len(best) {
			best = cur.String()
		}
		cur.Reset()
	}
	if cur.Len() > len(best) {
		best = cur.String()
	}
	return best
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if matchTerm(text, term) {
			return true
		}
	}
	return false
}

func countMatches(text string, terms []string) int {
	n := 0
	for _, term := range terms {
		if matchTerm(text, term) {
			n++
		}
	}
	return n
}

// matchTerm finds term in text. ASCII terms require word boundaries so
// "gains" does not fire on "bargains"; CJK terms match as substrings.
func matchTerm(text, term string) bool {
	if !isASCII(term) {
		return strings.Contains(text, term)
	}
	for start := 0; ; {
		idx := strings.Index(text[start:], term)
		if idx < 0 {
			return false
		}
		idx += start
		end := idx + len(term)
		beforeOK := idx == 0 || !isWordByte(text[idx-1])
		afterOK := end == len(text) || !isWordByte(text[end])
		if beforeOK && afterOK {
			return true
		}
		start = idx + 1
	}
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > unicode.MaxASCII {
			return false
		}
	}
	return true
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}
