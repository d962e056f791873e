package guard

import "regexp"

// injectionPatterns flag query text carrying the classic SQL injection
// shapes: boolean tautologies, stacked statements, UNION SELECT and trailing
// comment markers. This is an assertion over literal query text, not a
// substitute for parameterization.
var injectionPatterns = []*regexp.Regexp{
	// ' OR '1'='1 and friends
	regexp.MustCompile(`(?i)['"]\s*(or|and)\s+['"]?\w+['"]?\s*=\s*['"]?\w+`),
	// tautologies without quotes: OR 1=1
	regexp.MustCompile(`(?i)\b(or|and)\s+\d+\s*=\s*\d+`),
	// stacked statements: '; DROP TABLE ...
	regexp.MustCompile(`(?i);\s*(select|insert|update|delete|drop|alter|create|truncate|exec)\b`),
	// UNION SELECT probing
	regexp.MustCompile(`(?i)\bunion\s+(all\s+)?select\b`),
	// trailing comment markers cutting off the rest of the statement
	regexp.MustCompile(`(--|#|/\*)\s*$`),
}

// DetectInjectionPattern reports whether query text contains a known
// injection fragment. A true result means the text must not reach the
// database, whatever produced it.
func DetectInjectionPattern(query string) bool {
	for _, p := range injectionPatterns {
		if p.MatchString(query) {
			return true
		}
	}
	return false
}
