// Package guard validates and sanitizes untrusted input before it reaches
// persistence or token logic. Defense in depth: the query layer is
// parameterized anyway, this catches what slips past shape checks.
package guard

import (
	"strings"
	"unicode"
)

// escaper backslash-escapes the structurally dangerous characters: quotes,
// backslash and percent. Escaping is idempotent for input that contains none
// of them.
var escaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	`%`, `\%`,
)

// SanitizeString escapes dangerous characters and strips control characters
// from a single string. Tabs and newlines go too; nothing this layer accepts
// has a legitimate use for them.
func SanitizeString(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)

	return escaper.Replace(s)
}

// Sanitize walks a decoded payload and sanitizes every string in it,
// recursing through slices and string-keyed maps. Map keys are sanitized
// along with values. Unknown leaf types pass through untouched.
func Sanitize(v any) any {
	switch val := v.(type) {
	case string:
		return SanitizeString(val)
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = Sanitize(elem)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[SanitizeString(k)] = Sanitize(elem)
		}
		return out
	default:
		return v
	}
}
