// Package logutil holds helpers for keeping log lines readable.
package logutil

import "unicode/utf8"

// Truncate shortens s to at most maxBytes bytes, cutting on a rune boundary,
// and marks the cut with "...".
func Truncate(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
