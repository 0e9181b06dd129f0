package transcript

import "testing"

func TestNormalizeWhitespace(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"a  b\tc\nd", "a b c d"},
		{" already clean ", "already clean"},
	}
	for _, c := range cases {
		if got := NormalizeWhitespace(c.in); got != c.want {
			t.Errorf("NormalizeWhitespace(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestExtractFromCues_SRT(t *testing.T) {
	const srt = "1\n00:00:00,000 --> 00:00:02,000\nhello\n\n2\n00:00:02,000 --> 00:00:04,000\nworld\n"
	if got := ExtractFromCues(srt); got != "hello world" {
		t.Errorf("expected cue text, got %q", got)
	}
}

func TestExtractFromHTML_Empty(t *testing.T) {
	if _, err := ExtractFromHTML("   "); err == nil {
		t.Error("expected error for empty HTML")
	}
}

func TestExtractFromPDF_Empty(t *testing.T) {
	if _, err := ExtractFromPDF(nil); err == nil {
		t.Error("expected error for empty pdf bytes")
	}
}
