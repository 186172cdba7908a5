package agent

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	// ErrUnsafeInput is returned for text that tries to override instructions.
	ErrUnsafeInput = errors.New("input contains disallowed content")
	// ErrEmptyMessage is returned when there is nothing to send.
	ErrEmptyMessage = errors.New("message is empty")
)

var unsafePatterns = []*regexp.Regexp{
	regexp.MustCompile(`ignore\s+previous\s+instructions`),
	regexp.MustCompile(`system\s*:`),
	regexp.MustCompile(`<\s*script`),
}

// IsSafePrompt reports whether text is free of instruction-override and
// markup injection patterns. Matching is case-insensitive.
func IsSafePrompt(text string) bool {
	lower := strings.ToLower(text)
	for _, re := range unsafePatterns {
		if re.MatchString(lower) {
			return false
		}
	}
	return true
}

// SanitizeInput trims text and cuts it to at most maxRunes characters.
func SanitizeInput(text string, maxRunes int) string {
	if maxRunes > 0 && utf8.RuneCountInString(text) > maxRunes {
		text = string([]rune(text)[:maxRunes])
	}
	return strings.TrimSpace(text)
}
