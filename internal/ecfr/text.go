package ecfr

import (
	"regexp"
	"strings"
)

// maxContentLength bounds stored plain text per title; longer extracts
// are truncated with a marker.
const maxContentLength = 10000

var (
	tagPattern        = regexp.MustCompile(`<[^>]+>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// ExtractText strips markup from an XML payload, collapses whitespace,
// and truncates the result to the storage bound.
func ExtractText(markup string) string {
	text := tagPattern.ReplaceAllString(markup, " ")
	text = strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
	if runes := []rune(text); len(runes) > maxContentLength {
		return string(runes[:maxContentLength]) + "..."
	}
	return text
}

// CountWords tokenizes text on whitespace and returns the token count.
func CountWords(text string) int {
	return len(strings.Fields(text))
}
