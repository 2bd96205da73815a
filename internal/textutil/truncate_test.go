package textutil

import "testing"

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		maxLen int
		suffix string
		want   string
	}{
		{"short string untouched", "hello", 10, "...", "hello"},
		{"exact length untouched", "hello", 5, "...", "hello"},
		{"cut with suffix", "hello world", 5, "...", "hello..."},
		{"empty input", "", 5, "...", ""},
		{"no suffix", "hello world", 5, "", "hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.in, tt.maxLen, tt.suffix)
			if got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestTruncateDoesNotSplitUTF8(t *testing.T) {
	// "héllo" has a two-byte é starting at index 1.
	got := Truncate("héllo", 2, "")
	if got != "h" {
		t.Errorf("Truncate split a multi-byte rune: got %q", got)
	}
}
