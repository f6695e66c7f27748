package util

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name  string
		value string
		limit int
		want  string
	}{
		{name: "short value untouched", value: "abc", limit: 10, want: "abc"},
		{name: "exact length untouched", value: "abcde", limit: 5, want: "abcde"},
		{name: "ascii cut at limit", value: "abcdef", limit: 3, want: "abc"},
		{name: "zero limit", value: "abc", limit: 0, want: ""},
		{name: "negative limit", value: "abc", limit: -1, want: ""},
		{name: "two byte rune straddling limit", value: "abé", limit: 3, want: "ab"},
		{name: "two byte rune inside limit", value: "aéb", limit: 3, want: "aé"},
		{name: "three byte rune straddling limit", value: "ab€cd", limit: 4, want: "ab"},
		{name: "four byte rune straddling limit", value: "a𝒳b", limit: 3, want: "a"},
		{name: "empty value", value: "", limit: 5, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateString(tt.value, tt.limit)
			if got != tt.want {
				t.Fatalf("TruncateString(%q, %d) = %q, want %q", tt.value, tt.limit, got, tt.want)
			}
		})
	}
}

func TestTruncateStringAlwaysValidUTF8(t *testing.T) {
	value := strings.Repeat("é", 50) + strings.Repeat("€", 50) + strings.Repeat("a", 50)
	for limit := 0; limit <= len(value); limit++ {
		got := TruncateString(value, limit)
		if !utf8.ValidString(got) {
			t.Fatalf("TruncateString(..., %d) = %q is not valid UTF-8", limit, got)
		}
		if len(got) > limit {
			t.Fatalf("TruncateString(..., %d) returned %d bytes", limit, len(got))
		}
		if !strings.HasPrefix(value, got) {
			t.Fatalf("TruncateString(..., %d) is not a prefix of the input", limit)
		}
	}
}
