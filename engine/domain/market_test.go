package domain

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		ticker string
		want   MarketType
	}{
		{"000001", MarketAShare},
		{"000002", MarketAShare},
		{"300750", MarketAShare},
		{"600519", MarketAShare},
		{"688981", MarketAShare},
		{"830799", MarketAShare},
		{"0700.HK", MarketHKShare},
		{"9988.hk", MarketHKShare},
		{"0700", MarketHKShare},
		{"00700", MarketHKShare},
		{"AAPL", MarketUSShare},
		{"V", MarketUSShare},
		{"GOOGL", MarketUSShare},
		{"BRK.B", MarketUSShare},
		{"BRK-A", MarketUSShare},
		{"", MarketUnknown},
		{"   ", MarketUnknown},
		{"999999", MarketUnknown},
		{"123", MarketUnknown},
		{"aapl", MarketUnknown},
		{"TOOLONG", MarketUnknown},
	}
	for _, c := range cases {
		if got := Classify(c.ticker); got != c.want {
			t.Errorf("Classify(%q) = %s, want %s", c.ticker, got, c.want)
		}
	}
}

func TestClassifyTrimsWhitespace(t *testing.T) {
	if got := Classify("  600519  "); got != MarketAShare {
		t.Fatalf("expected a_share, got %s", got)
	}
}
