package fintext

import "testing"

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text", "already plain", "already plain"},
		{"simple tags", "<p>Hello <b>world</b></p>", "Hello world"},
		{"script skipped", "<p>keep</p><script>var x = 1;</script><p>this</p>", "keep this"},
		{"style skipped", "<style>.a{color:red}</style>text", "text"},
		{"whitespace collapsed", "a\n\n  b\t c", "a b c"},
		{"cjk content", "<div>万科A发布<b>公告</b></div>", "万科A发布 公告"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripHTML(tt.in); got != tt.want {
				t.Errorf("StripHTML(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExcerpt(t *testing.T) {
	if got := Excerpt("short", 10); got != "short" {
		t.Errorf("Excerpt = %q, want unchanged", got)
	}
	if got := Excerpt("abcdefghij", 4); got != "abcd..." {
		t.Errorf("Excerpt = %q, want abcd...", got)
	}
	// CJK runes must not be split mid-character.
	if got := Excerpt("万科企业股份有限公司", 4); got != "万科企业..." {
		t.Errorf("Excerpt = %q, want 万科企业...", got)
	}
	if got := Excerpt("anything", 0); got != "" {
		t.Errorf("Excerpt with zero max = %q, want empty", got)
	}
}
