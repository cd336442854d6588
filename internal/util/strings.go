package util

import "unicode/utf8"

// Truncate bounds s to at most limit bytes, appending "..." when anything
// was cut. The cut lands on a rune boundary so multi-byte characters are
// never split.
func Truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
