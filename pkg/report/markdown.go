package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jinzhu/inflection"

	"github.com/querydoctor/querydoctor/pkg/models"
)

const timestampLayout = "2006-01-02 15:04:05"

// MarkdownRenderer produces the Markdown report: summary statistics,
// severity and anti-pattern breakdowns, a top-N ranking table, and a
// detail section per pattern.
type MarkdownRenderer struct {
	maxQueryChars int
}

var _ Renderer = (*MarkdownRenderer)(nil)

// NewMarkdownRenderer creates a Markdown renderer.
func NewMarkdownRenderer(opts Options) *MarkdownRenderer {
	return &MarkdownRenderer{maxQueryChars: opts.maxQueryChars()}
}

// Render implements Renderer.
func (r *MarkdownRenderer) Render(result *models.AnalysisResult) ([]byte, error) {
	var b strings.Builder

	b.WriteString("# PostgreSQL Performance Analysis Report\n\n")
	fmt.Fprintf(&b, "**Generated:** %s\n", result.Run.GeneratedAt.Format(timestampLayout))
	if result.Run.SourcePath != "" {
		fmt.Fprintf(&b, "**Source:** %s (%s format)\n", result.Run.SourcePath, result.Run.Format)
	}
	if result.Run.ToolVersion != "" {
		fmt.Fprintf(&b, "**Tool Version:** %s\n", result.Run.ToolVersion)
	}
	b.WriteString("\n")

	writeSummary(&b, result)
	writeSeverityBreakdown(&b, result)
	writeAntipatternBreakdown(&b, result)

	b.WriteString("## Top Slow Queries (by Impact)\n\n")
	if len(result.Top) == 0 {
		b.WriteString("No query patterns matched the analysis thresholds.\n")
		return []byte(b.String()), nil
	}

	writeRankingTable(&b, result.Top)
	for i := range result.Top {
		r.writePatternSection(&b, i+1, &result.Top[i])
	}

	return []byte(b.String()), nil
}

func writeSummary(b *strings.Builder, result *models.AnalysisResult) {
	s := result.Summary
	b.WriteString("## Summary Statistics\n\n")
	fmt.Fprintf(b, "- **Total Queries Analyzed:** %d\n", s.TotalQueries)
	fmt.Fprintf(b, "- **Unique Query Patterns:** %d\n", s.UniqueQueries)
	fmt.Fprintf(b, "- **Average Duration:** %.2f ms\n", s.AvgDurationMS)
	fmt.Fprintf(b, "- **Max Duration:** %.2f ms\n", s.MaxDurationMS)
	fmt.Fprintf(b, "- **P95 Duration:** %.2f ms\n", s.P95DurationMS)
	fmt.Fprintf(b, "- **P99 Duration:** %.2f ms\n", s.P99DurationMS)
	fmt.Fprintf(b, "- **Total Time Spent:** %.2f seconds\n", s.TotalTimeMS/1000)
	fmt.Fprintf(b, "- **Mean Optimization Score:** %.2f\n", result.MeanOptimizationScore())
	b.WriteString("\n")
}

// severityDisplayOrder lists the problem classes worth surfacing, worst
// first. Patterns below the notice threshold are omitted here.
var severityDisplayOrder = []models.Severity{
	models.SeverityCritical,
	models.SeverityWarning,
	models.SeverityNotice,
}

func writeSeverityBreakdown(b *strings.Builder, result *models.AnalysisResult) {
	counts := result.SeverityCounts()
	total := 0
	for _, sev := range severityDisplayOrder {
		total += counts[sev]
	}
	if total == 0 {
		return
	}

	b.WriteString("### Severity Breakdown\n\n")
	for _, sev := range severityDisplayOrder {
		n := counts[sev]
		if n == 0 {
			continue
		}
		fmt.Fprintf(b, "- **%s:** %d %s\n", titleCase(sev.String()), n, countNoun(n, "pattern"))
	}
	b.WriteString("\n")
}

func writeAntipatternBreakdown(b *strings.Builder, result *models.AnalysisResult) {
	counts := result.AntipatternCounts()
	if len(counts) == 0 {
		return
	}

	type row struct {
		label string
		count int
	}
	rows := make([]row, 0, len(counts))
	for label, n := range counts {
		rows = append(rows, row{label: label, count: n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count != rows[j].count {
			return rows[i].count > rows[j].count
		}
		return rows[i].label < rows[j].label
	})

	b.WriteString("### Detected Anti-Patterns\n\n")
	for _, row := range rows {
		fmt.Fprintf(b, "- **%s:** %d %s\n", row.label, row.count, countNoun(row.count, "match"))
	}
	b.WriteString("\n")
}

func writeRankingTable(b *strings.Builder, patterns []models.QueryPattern) {
	b.WriteString("| # | Severity | Avg (ms) | Max (ms) | Frequency | Impact |\n")
	b.WriteString("|---:|---|---:|---:|---:|---:|\n")
	for i := range patterns {
		p := &patterns[i]
		fmt.Fprintf(b, "| %d | %s | %.2f | %.2f | %d | %.2f |\n",
			i+1, p.Severity, p.AvgDurationMS, p.MaxDurationMS, p.Frequency, p.ImpactScore)
	}
	b.WriteString("\n")
}

func (r *MarkdownRenderer) writePatternSection(b *strings.Builder, rank int, p *models.QueryPattern) {
	fmt.Fprintf(b, "### Query #%d\n\n", rank)
	fmt.Fprintf(b, "```sql\n%s\n```\n\n", truncateQuery(p.ExampleQuery, r.maxQueryChars))

	fmt.Fprintf(b, "- **Severity:** %s\n", p.Severity)
	fmt.Fprintf(b, "- **Average Duration:** %.2f ms\n", p.AvgDurationMS)
	fmt.Fprintf(b, "- **Max Duration:** %.2f ms\n", p.MaxDurationMS)
	fmt.Fprintf(b, "- **Frequency:** %d %s\n", p.Frequency, countNoun(p.Frequency, "execution"))
	fmt.Fprintf(b, "- **Impact Score:** %.2f\n", p.ImpactScore)
	fmt.Fprintf(b, "- **Optimization Score:** %.2f\n", p.OptimizationScore)
	b.WriteString("\n")

	if p.StaticAnalysisReport != "" {
		b.WriteString("**Static Analysis:**\n\n")
		fmt.Fprintf(b, "```text\n%s\n```\n\n", p.StaticAnalysisReport)
	}

	if p.Recommendation != "" {
		b.WriteString("**AI Recommendation:**\n\n")
		fmt.Fprintf(b, "%s\n\n", strings.TrimSpace(p.Recommendation))
	}

	b.WriteString("---\n\n")
}

// countNoun pluralizes a unit noun to match its count.
func countNoun(n int, noun string) string {
	if n == 1 {
		return noun
	}
	return inflection.Plural(noun)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
