package util

import "unicode/utf8"

// TruncateString cuts value to at most limit bytes without splitting a
// multi-byte rune: when the limit lands inside a UTF-8 sequence the cut
// backs up to the previous rune boundary, so the result is always valid
// UTF-8 and a prefix of the input.
func TruncateString(value string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if len(value) <= limit {
		return value
	}

	cut := limit
	for cut > 0 && !utf8.RuneStart(value[cut]) {
		cut--
	}
	return value[:cut]
}
