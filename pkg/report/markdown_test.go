package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querydoctor/querydoctor/pkg/models"
)

func renderMarkdown(t *testing.T, result *models.AnalysisResult, opts Options) string {
	t.Helper()
	data, err := NewMarkdownRenderer(opts).Render(result)
	require.NoError(t, err)
	return string(data)
}

func TestMarkdownRenderer_Header(t *testing.T) {
	out := renderMarkdown(t, sampleResult(), Options{})

	assert.True(t, strings.HasPrefix(out, "# PostgreSQL Performance Analysis Report\n"))
	assert.Contains(t, out, "**Generated:** 2024-03-01 10:00:00\n")
	assert.Contains(t, out, "**Source:** /var/log/postgresql/slow.log (plain format)\n")
	assert.Contains(t, out, "**Tool Version:** 1.2.3\n")
}

func TestMarkdownRenderer_Summary(t *testing.T) {
	out := renderMarkdown(t, sampleResult(), Options{})

	assert.Contains(t, out, "## Summary Statistics\n")
	assert.Contains(t, out, "- **Total Queries Analyzed:** 5\n")
	assert.Contains(t, out, "- **Unique Query Patterns:** 2\n")
	assert.Contains(t, out, "- **Average Duration:** 2000.00 ms\n")
	assert.Contains(t, out, "- **Max Duration:** 5200.00 ms\n")
	assert.Contains(t, out, "- **P95 Duration:** 4640.00 ms\n")
	assert.Contains(t, out, "- **P99 Duration:** 5088.00 ms\n")
	assert.Contains(t, out, "- **Total Time Spent:** 10.00 seconds\n")
	assert.Contains(t, out, "- **Mean Optimization Score:** 0.90\n")
}

func TestMarkdownRenderer_Breakdowns(t *testing.T) {
	out := renderMarkdown(t, sampleResult(), Options{})

	assert.Contains(t, out, "### Severity Breakdown\n")
	assert.Contains(t, out, "- **Critical:** 1 pattern\n")
	assert.Contains(t, out, "- **Warning:** 1 pattern\n")

	assert.Contains(t, out, "### Detected Anti-Patterns\n")
	assert.Contains(t, out, "- **leading_wildcard:** 1 match\n")

	// Critical outranks warning in the breakdown regardless of map order.
	assert.Less(t, strings.Index(out, "**Critical:**"), strings.Index(out, "**Warning:**"))
}

func TestMarkdownRenderer_RankingTable(t *testing.T) {
	out := renderMarkdown(t, sampleResult(), Options{})

	assert.Contains(t, out, "## Top Slow Queries (by Impact)\n")
	assert.Contains(t, out, "| # | Severity | Avg (ms) | Max (ms) | Frequency | Impact |\n")
	assert.Contains(t, out, "| 1 | critical | 5200.00 | 5200.00 | 1 | 5200.00 |\n")
	assert.Contains(t, out, "| 2 | warning | 1200.00 | 2400.00 | 4 | 4800.00 |\n")
}

func TestMarkdownRenderer_PatternSections(t *testing.T) {
	out := renderMarkdown(t, sampleResult(), Options{})

	assert.Contains(t, out, "### Query #1\n\n```sql\nSELECT * FROM orders WHERE status < 3\n```\n")
	assert.Contains(t, out, "### Query #2\n\n```sql\nSELECT * FROM users WHERE name LIKE '%smith%'\n```\n")

	assert.Contains(t, out, "- **Severity:** warning\n")
	assert.Contains(t, out, "- **Frequency:** 1 execution\n")
	assert.Contains(t, out, "- **Frequency:** 4 executions\n")
	assert.Contains(t, out, "- **Impact Score:** 4800.00\n")
	assert.Contains(t, out, "- **Optimization Score:** 0.80\n")

	assert.Contains(t, out, "**Static Analysis:**\n\n```text\nAnti-pattern analysis: 1 finding(s)\n```\n")
	assert.Contains(t, out, "**AI Recommendation:**\n\nConsider a trigram index on users.name.\n")

	// Query #1 has no recommendation, so exactly one recommendation block.
	assert.Equal(t, 1, strings.Count(out, "**AI Recommendation:**"))
	assert.Equal(t, 2, strings.Count(out, "---\n"))
}

func TestMarkdownRenderer_TruncatesExampleQuery(t *testing.T) {
	result := sampleResult()
	result.Top[0].ExampleQuery = "SELECT " + strings.Repeat("x", 600)

	out := renderMarkdown(t, result, Options{})
	assert.NotContains(t, out, strings.Repeat("x", 494))
	assert.Contains(t, out, "SELECT "+strings.Repeat("x", 493)+"\n```")

	out = renderMarkdown(t, result, Options{MaxQueryChars: 10})
	assert.Contains(t, out, "```sql\nSELECT xxx\n```")
}

func TestMarkdownRenderer_EmptyResult(t *testing.T) {
	result := &models.AnalysisResult{}
	out := renderMarkdown(t, result, Options{})

	assert.Contains(t, out, "# PostgreSQL Performance Analysis Report\n")
	assert.Contains(t, out, "- **Total Queries Analyzed:** 0\n")
	assert.Contains(t, out, "No query patterns matched the analysis thresholds.\n")
	assert.NotContains(t, out, "### Severity Breakdown")
	assert.NotContains(t, out, "### Detected Anti-Patterns")
	assert.NotContains(t, out, "### Query #")
}
