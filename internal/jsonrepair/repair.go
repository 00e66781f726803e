// Package jsonrepair normalizes near-JSON text produced by language models
// into decoded values.
//
// Text that is already valid JSON, optionally inside a markdown fence, is
// decoded as is. Only text that fails to decode goes through the cleanup,
// which is a fixed sequence of string rewrites rather than an escape-aware
// parser: removing backslashes corrupts escaped content inside string values
// (for example `\"` or `\u00e9`).
package jsonrepair

import (
	"encoding/json"
	"log"
	"regexp"
	"strings"

	"docquery/internal/logutil"
)

var trailingComma = regexp.MustCompile(`,\s*([}\]])`)

// Repair cleans raw model output and decodes it. The second return value is
// false when the text cannot be decoded even after cleanup. Repair never panics.
func Repair(raw string) (any, bool) {
	var value any
	if json.Unmarshal([]byte(stripFence(strings.TrimSpace(raw))), &value) == nil {
		return value, true
	}

	cleaned := Clean(raw)
	err := json.Unmarshal([]byte(cleaned), &value)
	if err == nil {
		return value, true
	}

	// Chatty models wrap the object in prose; fall back to the outermost braces.
	if span, ok := objectSpan(cleaned); ok {
		var rescued any
		if json.Unmarshal([]byte(span), &rescued) == nil {
			return rescued, true
		}
	}

	log.Printf("jsonrepair.Repair: error decoding JSON: %v (input=%q)", err, logutil.Truncate(cleaned, 200))
	return nil, false
}

// Clean applies the lossy textual cleanup steps without decoding.
func Clean(raw string) string {
	s := stripFence(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, `\n`, "")
	s = strings.ReplaceAll(s, `\`, "")
	s = trailingComma.ReplaceAllString(s, "$1")
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") && !strings.HasPrefix(s, "[") {
		s = "[" + s + "]"
	}
	return s
}

// stripFence removes a leading ```lang line and a trailing ``` marker.
func stripFence(s string) string {
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func objectSpan(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}
