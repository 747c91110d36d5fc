// Package antipatterns implements the static anti-pattern detector: regex
// rules plus a string-literal injection scan over query text, a weighted
// optimization score, and a human-readable findings report. No database
// schema knowledge is required.
package antipatterns

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/querydoctor/querydoctor/pkg/models"
)

// PatternType labels a detectable anti-pattern category.
type PatternType string

const (
	PatternLeadingWildcardLike PatternType = "leading_wildcard_like"
	PatternFunctionOnColumn    PatternType = "function_on_column"
	PatternLargeInClause       PatternType = "large_in_clause"
	PatternNotInWithSubquery   PatternType = "not_in_with_subquery"
	PatternCartesianJoin       PatternType = "no_where_clause_on_join"
	PatternSuspiciousLiteral   PatternType = "suspicious_literal"
)

// String returns the string representation of a PatternType.
func (t PatternType) String() string {
	return string(t)
}

// rule is one detection rule: a regex plus the advice attached to a match.
type rule struct {
	patternType PatternType
	title       string
	regex       *regexp.Regexp
	problem     string
	suggestion  string
	example     string
}

var defaultRules = []rule{
	{
		patternType: PatternLeadingWildcardLike,
		title:       "Leading-wildcard LIKE",
		regex:       regexp.MustCompile(`(?i)\bWHERE\s+\w+\s+LIKE\s+['"]%[^%'"]`),
		problem:     "A leading wildcard forces a full table scan; B-tree indexes cannot be used.",
		suggestion:  "Anchor the pattern on the left, or switch to full-text search (tsvector).",
		example: "-- Instead of: WHERE email LIKE '%@example.com'\n" +
			"-- Consider:   WHERE email LIKE 'user@%' (if the pattern allows)\n" +
			"-- Or use:     WHERE email @@ to_tsquery('example.com')",
	},
	{
		patternType: PatternFunctionOnColumn,
		title:       "Function wrapped around a column",
		regex:       regexp.MustCompile(`(?i)\bWHERE\s+\w+\s*\(\s*\w+\s*\)\s*[=<>!]`),
		problem:     "Wrapping the column in a function prevents index usage on that column.",
		suggestion:  "Create a function-based index, or store the derived value in its own column.",
		example: "-- Instead of: WHERE LOWER(email) = 'test@example.com'\n" +
			"-- Create:     CREATE INDEX ON users (LOWER(email))",
	},
	{
		patternType: PatternLargeInClause,
		title:       "Large IN list",
		regex:       regexp.MustCompile(`(?is)\bIN\s*\(\s*[^)]*,.*?,.*?,.*?,.*?[^)]*\)`),
		problem:     "Long IN lists are slow to plan and execute.",
		suggestion:  "Join against a temporary table or a VALUES list instead.",
		example: "-- Instead of: WHERE id IN (1, 2, 3, ..., 5000)\n" +
			"-- Use:        JOIN (VALUES (1), (2), (3)) AS t(id) ON table.id = t.id",
	},
	{
		patternType: PatternNotInWithSubquery,
		title:       "NOT IN with subquery",
		regex:       regexp.MustCompile(`(?i)\bNOT\s+IN\s*\(\s*SELECT\b`),
		problem:     "NOT IN returns no rows at all when the subquery yields a NULL.",
		suggestion:  "Use NOT EXISTS, or LEFT JOIN ... IS NULL.",
		example: "-- Instead of: WHERE user_id NOT IN (SELECT id FROM deleted_users)\n" +
			"-- Use:        WHERE NOT EXISTS (SELECT 1 FROM deleted_users d WHERE d.id = user_id)",
	},
	{
		patternType: PatternCartesianJoin,
		title:       "Comma join without condition",
		regex:       regexp.MustCompile(`(?is)\bFROM\s+\w+\s*,\s*\w+(\s+WHERE)?`),
		problem:     "Implicit comma joins risk a cartesian product and are hard to optimize.",
		suggestion:  "Use an explicit INNER JOIN with an ON condition.",
		example: "-- Instead of: SELECT * FROM orders o, customers c WHERE o.amount > 1000\n" +
			"-- Use:        SELECT * FROM orders o INNER JOIN customers c ON o.customer_id = c.id",
	},
}

// severityWeights scale a match's confidence into the score penalty. Types
// missing from the map use defaultWeight; informational findings carry an
// explicit zero.
var severityWeights = map[PatternType]float64{
	PatternCartesianJoin:       0.4,
	PatternLeadingWildcardLike: 0.3,
	PatternNotInWithSubquery:   0.3,
	PatternFunctionOnColumn:    0.2,
	PatternLargeInClause:       0.1,
	PatternSuspiciousLiteral:   0.0,
}

const defaultWeight = 0.1

var (
	likeContentPattern = regexp.MustCompile(`(?i)LIKE\s+['"]([^'"]+)['"]`)

	// trailingWherePattern marks comma joins immediately guarded by a WHERE
	// clause; RE2 has no lookahead, so the rule captures the keyword and
	// filters here instead.
	trailingWherePattern = regexp.MustCompile(`(?i)\s+WHERE$`)
)

// Detector detects anti-patterns in query text and scores the result.
type Detector struct {
	rules []rule
}

// NewDetector builds a Detector with the standard rule set.
func NewDetector() *Detector {
	return &Detector{rules: defaultRules}
}

// Analyze runs every rule against the query, scans its string literals for
// injection fingerprints, and returns the matches plus the formatted findings
// report. Normalized text carries placeholder literals, so the literal scan
// only yields findings on raw query text. The error return exists for the
// collaborator contract; the rule engine itself cannot fail.
func (d *Detector) Analyze(query string) ([]models.AntipatternMatch, string, error) {
	var matches []models.AntipatternMatch
	var details []matchDetail

	for _, r := range d.rules {
		for _, matched := range r.regex.FindAllString(query, -1) {
			if r.patternType == PatternCartesianJoin && hasJoinGuard(matched) {
				continue
			}
			confidence := d.confidence(r.patternType, matched)
			matches = append(matches, models.AntipatternMatch{
				Type:       r.patternType.String(),
				Message:    r.problem,
				Suggestion: r.suggestion,
				Confidence: confidence,
			})
			details = append(details, matchDetail{rule: r, matched: matched, confidence: confidence})
		}
	}

	for _, detail := range suspiciousLiterals(query) {
		matches = append(matches, models.AntipatternMatch{
			Type:       detail.rule.patternType.String(),
			Message:    detail.rule.problem,
			Suggestion: detail.rule.suggestion,
			Confidence: detail.confidence,
		})
		details = append(details, detail)
	}

	return matches, buildReport(details), nil
}

// Score folds matches into an optimization score: 1.0 for a clean query,
// down to 0.0 as weighted penalties accumulate.
func (d *Detector) Score(matches []models.AntipatternMatch) float64 {
	if len(matches) == 0 {
		return 1.0
	}

	var penalty float64
	for _, m := range matches {
		weight, ok := severityWeights[PatternType(m.Type)]
		if !ok {
			weight = defaultWeight
		}
		penalty += weight * m.Confidence
	}

	return math.Max(0.0, 1.0-math.Min(1.0, penalty))
}

// confidence adjusts the base confidence using the matched text.
func (d *Detector) confidence(patternType PatternType, matched string) float64 {
	const base = 0.8

	switch patternType {
	case PatternLargeInClause:
		commas := strings.Count(matched, ",")
		if commas > 10 {
			return math.Min(1.0, base+float64(commas)/100)
		}
		if commas < 5 {
			return math.Max(0.5, base-0.2)
		}
	case PatternLeadingWildcardLike:
		if m := likeContentPattern.FindStringSubmatch(matched); m != nil && strings.HasPrefix(m[1], "%") {
			return base + 0.1
		}
	}

	return base
}

// hasJoinGuard reports whether a comma-join match is immediately followed by
// a WHERE clause, which usually carries the join condition.
func hasJoinGuard(matched string) bool {
	return trailingWherePattern.MatchString(matched)
}

type matchDetail struct {
	rule       rule
	matched    string
	confidence float64
}

// buildReport renders the findings as the human-readable block attached to
// each pattern.
func buildReport(details []matchDetail) string {
	if len(details) == 0 {
		return "No anti-patterns detected in this query."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Anti-pattern analysis: %d finding(s)\n\n", len(details))

	for i, d := range details {
		fmt.Fprintf(&b, "%d. %s (confidence %.0f%%)\n", i+1, d.rule.title, d.confidence*100)
		fmt.Fprintf(&b, "   Problem: %s\n", d.rule.problem)
		fmt.Fprintf(&b, "   Matched: %s\n", strings.TrimSpace(d.matched))
		fmt.Fprintf(&b, "   Suggestion: %s\n", d.rule.suggestion)
		if d.rule.example != "" {
			fmt.Fprintf(&b, "   Example:\n")
			for _, line := range strings.Split(d.rule.example, "\n") {
				fmt.Fprintf(&b, "     %s\n", line)
			}
		}
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}
