package antipatterns

import (
	"fmt"

	libinjection "github.com/corazawaf/libinjection-go"
)

// suspiciousLiterals runs libinjection over the string-literal contents of a
// query and flags literals that fingerprint as SQL injection. Slow logs
// occasionally capture injection attempts verbatim; the findings are
// informational and carry zero weight in the optimization score.
func suspiciousLiterals(query string) []matchDetail {
	var details []matchDetail

	for _, literal := range extractLiterals(query) {
		if len(literal) < 3 {
			continue
		}
		isSQLi, fingerprint := libinjection.IsSQLi(literal)
		if !isSQLi {
			continue
		}
		details = append(details, matchDetail{
			rule: rule{
				patternType: PatternSuspiciousLiteral,
				title:       "Suspicious string literal",
				problem: fmt.Sprintf("String literal fingerprints as SQL injection (%s); the application may be concatenating untrusted input.",
					string(fingerprint)),
				suggestion: "Parameterize the query on the application side instead of interpolating values.",
			},
			matched:    "'" + literal + "'",
			confidence: 0.5,
		})
	}

	return details
}

// extractLiterals returns the contents of every single-quoted literal in the
// query, with SQL doubled quotes ('') and backslash escapes kept inside
// their literal.
func extractLiterals(query string) []string {
	var literals []string

	runes := []rune(query)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '\'' {
			continue
		}

		var content []rune
		j := i + 1
		closed := false
		for j < len(runes) {
			if runes[j] == '\\' && j+1 < len(runes) {
				content = append(content, runes[j], runes[j+1])
				j += 2
				continue
			}
			if runes[j] == '\'' {
				if j+1 < len(runes) && runes[j+1] == '\'' {
					content = append(content, '\'')
					j += 2
					continue
				}
				closed = true
				break
			}
			content = append(content, runes[j])
			j++
		}

		literals = append(literals, string(content))
		if !closed {
			break
		}
		i = j
	}

	return literals
}
