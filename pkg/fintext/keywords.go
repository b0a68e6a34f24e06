package fintext

import "strings"

// keywordTerms maps a lowercase match term to its display form. Kept
// deliberately small: these tag the topic of an article, they do not
// try to summarize it.
var keywordTerms = map[string]string{
	"停牌":           "停牌",
	"退市":           "退市",
	"重组":           "重组",
	"并购":           "并购",
	"收购":           "收购",
	"回购":           "回购",
	"增持":           "增持",
	"减持":           "减持",
	"分红":           "分红",
	"财报":           "财报",
	"业绩":           "业绩",
	"立案调查":         "立案调查",
	"监管":           "监管",
	"加息":           "加息",
	"降息":           "降息",
	"ipo":          "IPO",
	"earnings":     "earnings",
	"merger":       "merger",
	"acquisition":  "acquisition",
	"buyback":      "buyback",
	"dividend":     "dividend",
	"guidance":     "guidance",
	"lawsuit":      "lawsuit",
	"bankruptcy":   "bankruptcy",
	"delisting":    "delisting",
	"downgrade":    "downgrade",
	"upgrade":      "upgrade",
	"fed":          "Fed",
	"rate hike":    "rate hike",
	"rate cut":     "rate cut",
	"tariff":       "tariff",
	"antitrust":    "antitrust",
	"share split":  "share split",
	"stock split":  "stock split",
	"investigation": "investigation",
}

// keywordOrder fixes iteration order so repeated runs over the same
// text produce the same tag list.
var keywordOrder []string

func init() {
	keywordOrder = make([]string, 0, len(keywordTerms))
	for term := range keywordTerms {
		keywordOrder = append(keywordOrder, term)
	}
	// Insertion-sort by match position preference: longer terms first so
	// "rate hike" wins over a hypothetical "rate", then lexicographic
	// for determinism.
	for i := 0; i < len(keywordOrder); i++ {
		for j := i + 1; j < len(keywordOrder); j++ {
			a, b := keywordOrder[i], keywordOrder[j]
			if len(b) > len(a) || (len(b) == len(a) && b < a) {
				keywordOrder[i], keywordOrder[j] = keywordOrder[j], keywordOrder[i]
			}
		}
	}
}

// Keywords extracts up to max known financial topic tags from the text.
// Zero or negative max means no cap.
func Keywords(title, content string, max int) []string {
	text := strings.ToLower(title + " " + content)
	var out []string
	for _, term := range keywordOrder {
		if !matchTerm(text, term) {
			continue
		}
		out = append(out, keywordTerms[term])
		if max > 0 && len(out) >= max {
			break
		}
	}
	return out
}
