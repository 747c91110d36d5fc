package report

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"

	"github.com/querydoctor/querydoctor/pkg/models"
)

// HTMLRenderer produces a self-contained HTML document carrying the same
// content as the Markdown report.
type HTMLRenderer struct {
	maxQueryChars int
}

var _ Renderer = (*HTMLRenderer)(nil)

// NewHTMLRenderer creates an HTML renderer.
func NewHTMLRenderer(opts Options) *HTMLRenderer {
	return &HTMLRenderer{maxQueryChars: opts.maxQueryChars()}
}

// Render implements Renderer.
func (r *HTMLRenderer) Render(result *models.AnalysisResult) ([]byte, error) {
	var buf bytes.Buffer
	if err := htmlReportTemplate.Execute(&buf, r.buildView(result)); err != nil {
		return nil, fmt.Errorf("execute report template: %w", err)
	}
	return buf.Bytes(), nil
}

type htmlCountRow struct {
	Label string
	Count int
	Noun  string
}

type htmlQueryView struct {
	Rank              int
	ExampleQuery      string
	Severity          string
	AvgDurationMS     float64
	MaxDurationMS     float64
	Frequency         int
	FrequencyNoun     string
	ImpactScore       float64
	OptimizationScore float64
	StaticAnalysis    string
	Recommendation    string
}

type htmlReportView struct {
	GeneratedAt           string
	SourcePath            string
	SourceFormat          string
	ToolVersion           string
	Summary               models.CorpusSummary
	TotalTimeSeconds      float64
	MeanOptimizationScore float64
	SeverityRows          []htmlCountRow
	AntipatternRows       []htmlCountRow
	Queries               []htmlQueryView
}

func (r *HTMLRenderer) buildView(result *models.AnalysisResult) htmlReportView {
	view := htmlReportView{
		GeneratedAt:           result.Run.GeneratedAt.Format(timestampLayout),
		SourcePath:            result.Run.SourcePath,
		SourceFormat:          result.Run.Format,
		ToolVersion:           result.Run.ToolVersion,
		Summary:               result.Summary,
		TotalTimeSeconds:      result.Summary.TotalTimeMS / 1000,
		MeanOptimizationScore: result.MeanOptimizationScore(),
	}

	severityCounts := result.SeverityCounts()
	for _, sev := range severityDisplayOrder {
		if n := severityCounts[sev]; n > 0 {
			view.SeverityRows = append(view.SeverityRows, htmlCountRow{
				Label: titleCase(sev.String()),
				Count: n,
				Noun:  countNoun(n, "pattern"),
			})
		}
	}

	antipatternCounts := result.AntipatternCounts()
	for label, n := range antipatternCounts {
		view.AntipatternRows = append(view.AntipatternRows, htmlCountRow{
			Label: label,
			Count: n,
			Noun:  countNoun(n, "match"),
		})
	}
	sort.Slice(view.AntipatternRows, func(i, j int) bool {
		if view.AntipatternRows[i].Count != view.AntipatternRows[j].Count {
			return view.AntipatternRows[i].Count > view.AntipatternRows[j].Count
		}
		return view.AntipatternRows[i].Label < view.AntipatternRows[j].Label
	})

	for i := range result.Top {
		p := &result.Top[i]
		view.Queries = append(view.Queries, htmlQueryView{
			Rank:              i + 1,
			ExampleQuery:      truncateQuery(p.ExampleQuery, r.maxQueryChars),
			Severity:          p.Severity.String(),
			AvgDurationMS:     p.AvgDurationMS,
			MaxDurationMS:     p.MaxDurationMS,
			Frequency:         p.Frequency,
			FrequencyNoun:     countNoun(p.Frequency, "execution"),
			ImpactScore:       p.ImpactScore,
			OptimizationScore: p.OptimizationScore,
			StaticAnalysis:    p.StaticAnalysisReport,
			Recommendation:    p.Recommendation,
		})
	}

	return view
}

var htmlReportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>PostgreSQL Performance Analysis Report</title>
<style>
body { font-family: -apple-system, "Segoe UI", Helvetica, Arial, sans-serif; margin: 2rem auto; max-width: 60rem; padding: 0 1rem; color: #1f2933; }
h1 { border-bottom: 2px solid #d1d9e0; padding-bottom: 0.3rem; }
h3 { margin-top: 2rem; }
pre { background: #f6f8fa; border: 1px solid #d1d9e0; border-radius: 4px; padding: 0.8rem; overflow-x: auto; }
table { border-collapse: collapse; margin: 1rem 0; }
th, td { border: 1px solid #d1d9e0; padding: 0.35rem 0.7rem; text-align: right; }
th:first-child, td:first-child, th:nth-child(2), td:nth-child(2) { text-align: left; }
.meta { color: #52606d; }
.severity-critical { color: #b91c1c; font-weight: 600; }
.severity-warning { color: #b45309; font-weight: 600; }
.severity-notice { color: #0369a1; }
.severity-none { color: #52606d; }
hr { border: none; border-top: 1px solid #d1d9e0; margin: 2rem 0; }
</style>
</head>
<body>
<h1>PostgreSQL Performance Analysis Report</h1>
<p class="meta">
<strong>Generated:</strong> {{.GeneratedAt}}<br>
{{if .SourcePath}}<strong>Source:</strong> {{.SourcePath}} ({{.SourceFormat}} format)<br>{{end}}
{{if .ToolVersion}}<strong>Tool Version:</strong> {{.ToolVersion}}{{end}}
</p>

<h2>Summary Statistics</h2>
<ul>
<li><strong>Total Queries Analyzed:</strong> {{.Summary.TotalQueries}}</li>
<li><strong>Unique Query Patterns:</strong> {{.Summary.UniqueQueries}}</li>
<li><strong>Average Duration:</strong> {{printf "%.2f" .Summary.AvgDurationMS}} ms</li>
<li><strong>Max Duration:</strong> {{printf "%.2f" .Summary.MaxDurationMS}} ms</li>
<li><strong>P95 Duration:</strong> {{printf "%.2f" .Summary.P95DurationMS}} ms</li>
<li><strong>P99 Duration:</strong> {{printf "%.2f" .Summary.P99DurationMS}} ms</li>
<li><strong>Total Time Spent:</strong> {{printf "%.2f" .TotalTimeSeconds}} seconds</li>
<li><strong>Mean Optimization Score:</strong> {{printf "%.2f" .MeanOptimizationScore}}</li>
</ul>

{{if .SeverityRows}}<h3>Severity Breakdown</h3>
<ul>
{{range .SeverityRows}}<li><strong>{{.Label}}:</strong> {{.Count}} {{.Noun}}</li>
{{end}}</ul>
{{end}}
{{if .AntipatternRows}}<h3>Detected Anti-Patterns</h3>
<ul>
{{range .AntipatternRows}}<li><strong>{{.Label}}:</strong> {{.Count}} {{.Noun}}</li>
{{end}}</ul>
{{end}}
<h2>Top Slow Queries (by Impact)</h2>
{{if not .Queries}}<p>No query patterns matched the analysis thresholds.</p>
{{else}}<table>
<tr><th>#</th><th>Severity</th><th>Avg (ms)</th><th>Max (ms)</th><th>Frequency</th><th>Impact</th></tr>
{{range .Queries}}<tr><td>{{.Rank}}</td><td class="severity-{{.Severity}}">{{.Severity}}</td><td>{{printf "%.2f" .AvgDurationMS}}</td><td>{{printf "%.2f" .MaxDurationMS}}</td><td>{{.Frequency}}</td><td>{{printf "%.2f" .ImpactScore}}</td></tr>
{{end}}</table>

{{range .Queries}}<h3>Query #{{.Rank}}</h3>
<pre><code>{{.ExampleQuery}}</code></pre>
<ul>
<li><strong>Severity:</strong> <span class="severity-{{.Severity}}">{{.Severity}}</span></li>
<li><strong>Average Duration:</strong> {{printf "%.2f" .AvgDurationMS}} ms</li>
<li><strong>Max Duration:</strong> {{printf "%.2f" .MaxDurationMS}} ms</li>
<li><strong>Frequency:</strong> {{.Frequency}} {{.FrequencyNoun}}</li>
<li><strong>Impact Score:</strong> {{printf "%.2f" .ImpactScore}}</li>
<li><strong>Optimization Score:</strong> {{printf "%.2f" .OptimizationScore}}</li>
</ul>
{{if .StaticAnalysis}}<p><strong>Static Analysis:</strong></p>
<pre>{{.StaticAnalysis}}</pre>
{{end}}{{if .Recommendation}}<p><strong>AI Recommendation:</strong></p>
<p>{{.Recommendation}}</p>
{{end}}<hr>
{{end}}{{end}}
</body>
</html>
`))
