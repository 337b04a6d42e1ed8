// Package sanitize provides text sanitization for values copied into
// outbound messages.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	// htmlTagRegex matches HTML tags
	htmlTagRegex = regexp.MustCompile(`<[^>]*>`)
	// controlRegex matches CR, LF and other control characters.
	controlRegex = regexp.MustCompile(`[\x00-\x1f\x7f]+`)
)

// stripHTML removes all HTML tags from a string, making it safe for text-only display.
func stripHTML(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")
	result = strings.ReplaceAll(result, "&lt;", "<")
	result = strings.ReplaceAll(result, "&gt;", ">")
	result = strings.ReplaceAll(result, "&amp;", "&")
	result = strings.ReplaceAll(result, "&quot;", "\"")
	result = strings.ReplaceAll(result, "&#39;", "'")
	// Re-strip after entity decode to catch encoded tags
	result = htmlTagRegex.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// Text sanitizes free text such as project names and notes.
func Text(s string) string {
	return stripHTML(s)
}

// Line sanitizes a value for a single-line context such as a mail subject.
// Control characters collapse into one space.
func Line(s string) string {
	return strings.Join(strings.Fields(controlRegex.ReplaceAllString(stripHTML(s), " ")), " ")
}
