package profile

import (
	"regexp"
	"strings"
)

// MaxTextLength bounds normalized slot text before any AI call.
const MaxTextLength = 2048

var (
	disallowedRe = regexp.MustCompile(`[^\w\s.,!?-]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Normalize cleans raw user-entered slot text: lowercase, strip characters
// outside word/whitespace/basic punctuation, collapse whitespace runs and
// truncate to MaxTextLength. Always returns a string, empty input included.
func Normalize(text string) string {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return ""
	}

	t = disallowedRe.ReplaceAllString(t, "")
	t = whitespaceRe.ReplaceAllString(t, " ")
	t = strings.TrimSpace(t)

	if r := []rune(t); len(r) > MaxTextLength {
		t = strings.TrimSpace(string(r[:MaxTextLength]))
	}
	return t
}
