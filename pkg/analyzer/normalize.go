// Package analyzer groups slow-query executions into patterns and computes
// corpus statistics.
package analyzer

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

var (
	integerPattern    = regexp.MustCompile(`\b\d+\b`)
	inClausePattern   = regexp.MustCompile(`(?i)\bIN\s*\([^)]*\)`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Normalize maps a raw query to its canonical pattern string: string and
// integer literals become placeholders, IN lists collapse to a single
// placeholder, whitespace is folded, and the result is lowercased. The rules
// run in that order; integer replacement relies on string literals already
// being gone.
//
// Normalize never fails: if anything goes wrong internally it returns the
// lowercased original text, degrading grouping to per-literal granularity
// instead of aborting the run.
func Normalize(query string) (normalized string) {
	defer func() {
		if r := recover(); r != nil {
			normalized = strings.ToLower(query)
		}
	}()

	normalized = replaceStringLiterals(query)
	normalized = integerPattern.ReplaceAllString(normalized, "?")
	normalized = inClausePattern.ReplaceAllString(normalized, "IN (?)")
	normalized = strings.TrimSpace(whitespacePattern.ReplaceAllString(normalized, " "))
	normalized = strings.ToLower(normalized)
	return normalized
}

// PatternKey returns the grouping key for a normalized query: the first 128
// bits of its SHA-256 digest, hex encoded. A collision here would silently
// merge unrelated patterns, so the key must stay cryptographically wide.
func PatternKey(normalized string) string {
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:16])
}

// replaceStringLiterals substitutes every single-quoted literal with '?'.
// A character scan rather than a regex so that backslash escapes and SQL
// doubled quotes ('') stay inside the literal they belong to. An
// unterminated literal swallows the rest of the statement.
func replaceStringLiterals(query string) string {
	var b strings.Builder
	b.Grow(len(query))

	runes := []rune(query)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '\'' {
			b.WriteRune(runes[i])
			continue
		}

		j := i + 1
		closed := false
		for j < len(runes) {
			if runes[j] == '\\' && j+1 < len(runes) {
				j += 2
				continue
			}
			if runes[j] == '\'' {
				if j+1 < len(runes) && runes[j+1] == '\'' {
					j += 2
					continue
				}
				closed = true
				break
			}
			j++
		}

		b.WriteString("'?'")
		if !closed {
			break
		}
		i = j
	}

	return b.String()
}
