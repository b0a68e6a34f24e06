package domain

import "strings"

// aShareLeading holds the leading digits of 6-digit codes listed on the
// mainland exchanges (Shenzhen main board / ChiNext, Shanghai, Beijing).
const aShareLeading = "0368"

// Classify maps a ticker to its market type. Pure and total: unmatched input
// yields MarketUnknown, never an error. Rules apply in priority order; the
// first match wins.
func Classify(ticker string) MarketType {
	t := strings.TrimSpace(ticker)
	if t == "" {
		return MarketUnknown
	}

	if isDigits(t) {
		switch {
		case len(t) == 6 && strings.ContainsRune(aShareLeading, rune(t[0])):
			return MarketAShare
		case len(t) >= 4 && len(t) <= 5:
			return MarketHKShare
		default:
			return MarketUnknown
		}
	}

	if hasHKSuffix(t) {
		return MarketHKShare
	}

	if isUpperAlpha(t) && len(t) <= 5 {
		return MarketUSShare
	}

	// Codes like BRK.B or BRK-A: a separator that is not the HK suffix form.
	if strings.ContainsAny(t, ".-") {
		return MarketUSShare
	}

	return MarketUnknown
}

// hasHKSuffix reports whether the ticker carries a Hong-Kong exchange suffix
// on a numeric code, e.g. "0700.HK" or "9988.hk".
func hasHKSuffix(t string) bool {
	dot := strings.LastIndexByte(t, '.')
	if dot <= 0 {
		return false
	}
	return strings.EqualFold(t[dot+1:], "HK") && isDigits(t[:dot])
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}

func isUpperAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return len(s) > 0
}
