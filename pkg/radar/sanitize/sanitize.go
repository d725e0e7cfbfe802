package sanitize

import (
	"regexp"
	"strings"
)

// Length caps per input class.
const (
	MaxMessageLength  = 10000
	MaxFieldLength    = 5000
	MaxExternalLength = 500
	MaxListItems      = 20
	MaxListItemLength = 500
)

var (
	controlChars = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]`)
	longSpaces   = regexp.MustCompile(`[ \t]{10,}`)
	manyNewlines = regexp.MustCompile(`\n{5,}`)
	xmlTags      = regexp.MustCompile(`<([^>]+)>`)

	// Patterns flagged for review — never blocked, only logged by callers.
	injectionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(new|ignore|override|forget|disregard)\s+(all\s+)?(instructions?|rules?|prompts?|everything)\b`),
		regexp.MustCompile(`(?i)\b(you\s+are\s+now|act\s+as|pretend\s+to\s+be)\b`),
		regexp.MustCompile(`(?i)^(assistant|system|user)\s*:`),
		regexp.MustCompile(`(?i)<\s*/?\s*(system|instruction|prompt|user)\s*>`),
	}
)

// Text truncates, strips control characters, and normalises runaway
// whitespace while preserving intentional formatting.
func Text(s string, maxLength int) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	if len(runes) > maxLength {
		s = string(runes[:maxLength])
	}
	s = controlChars.ReplaceAllString(s, "")
	s = longSpaces.ReplaceAllString(s, "    ")
	s = manyNewlines.ReplaceAllString(s, "\n\n\n")
	return strings.TrimSpace(s)
}

// Message sanitizes a user chat message.
func Message(s string) string { return Text(s, MaxMessageLength) }

// Field sanitizes a single extracted field value.
func Field(s string) string { return Text(s, MaxFieldLength) }

// List caps and sanitizes a sequence field, dropping blank items.
func List(items []string) []string {
	if len(items) > MaxListItems {
		items = items[:MaxListItems]
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if cleaned := Text(item, MaxListItemLength); cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}

// External applies the aggressive variant for data we do not control
// (historical CSV volumes): XML-like tags are defanged so reference names
// cannot smuggle markup into the system prompt.
func External(s string) string {
	s = Text(s, MaxExternalLength)
	return xmlTags.ReplaceAllString(s, "[$1]")
}

// LooksLikeInjection reports whether the text matches a known prompt
// injection shape. Callers log the hit; input is never rejected for it.
func LooksLikeInjection(s string) bool {
	if s == "" {
		return false
	}
	for _, p := range injectionPatterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}
