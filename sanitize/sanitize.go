// Package sanitize scrubs text pulled from the hosted page before it is
// used or displayed. Everything coming out of the DOM is untrusted.
package sanitize

import (
	"regexp"
	"strings"
)

// MaxLength caps any sanitized string.
const MaxLength = 500

var (
	tagPattern    = regexp.MustCompile(`<[^>]*>`)
	schemePattern = regexp.MustCompile(`(?i)(javascript|data):`)
)

// Sanitize strips HTML-tag-like substrings, javascript:/data: scheme
// prefixes and control characters, trims whitespace and truncates the
// result to MaxLength. Empty input yields an empty string.
func Sanitize(text string) string {
	if text == "" {
		return ""
	}

	text = tagPattern.ReplaceAllString(text, "")
	text = schemePattern.ReplaceAllString(text, "")
	text = stripControl(text)
	text = strings.TrimSpace(text)

	if runes := []rune(text); len(runes) > MaxLength {
		text = string(runes[:MaxLength])
	}

	return text
}

// stripControl removes C0 control characters and DEL.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}
