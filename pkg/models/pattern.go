package models

import "time"

// Severity classifies a pattern's average duration against configured
// thresholds.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityNotice   Severity = "notice"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// String returns the string representation of a Severity.
func (s Severity) String() string {
	return string(s)
}

// SeverityThresholds holds the average-duration cutoffs (milliseconds) for
// each severity class.
type SeverityThresholds struct {
	NoticeMS   float64 `json:"notice_ms"`
	WarningMS  float64 `json:"warning_ms"`
	CriticalMS float64 `json:"critical_ms"`
}

// DefaultSeverityThresholds returns the standard cutoffs: 100ms notice,
// 1s warning, 5s critical.
func DefaultSeverityThresholds() SeverityThresholds {
	return SeverityThresholds{NoticeMS: 100, WarningMS: 1000, CriticalMS: 5000}
}

// Classify maps an average duration to its severity class.
func (t SeverityThresholds) Classify(avgDurationMS float64) Severity {
	switch {
	case t.CriticalMS > 0 && avgDurationMS >= t.CriticalMS:
		return SeverityCritical
	case t.WarningMS > 0 && avgDurationMS >= t.WarningMS:
		return SeverityWarning
	case t.NoticeMS > 0 && avgDurationMS >= t.NoticeMS:
		return SeverityNotice
	default:
		return SeverityNone
	}
}

// AntipatternMatch is one static-analysis finding for a query pattern. The
// aggregation core treats it as opaque beyond the categorical Type label.
type AntipatternMatch struct {
	Type       string  `json:"type"`
	Message    string  `json:"message"`
	Suggestion string  `json:"suggestion,omitempty"`
	Confidence float64 `json:"confidence"`
}

// QueryPattern is one output row per distinct normalized query shape,
// aggregated over every execution that normalized to the same key.
type QueryPattern struct {
	PatternKey      string    `json:"pattern_key"`
	ExampleQuery    string    `json:"example_query"`
	NormalizedQuery string    `json:"normalized_query"`
	Frequency       int       `json:"frequency"`
	AvgDurationMS   float64   `json:"avg_duration_ms"`
	MaxDurationMS   float64   `json:"max_duration_ms"`
	MinDurationMS   float64   `json:"min_duration_ms"`
	TotalDurationMS float64   `json:"total_duration_ms"`
	FirstSeen       time.Time `json:"first_seen"`
	LastSeen        time.Time `json:"last_seen"`

	// ImpactScore is avg duration times frequency, the single ranking
	// metric. Ties keep group discovery order.
	ImpactScore float64  `json:"impact_score"`
	Severity    Severity `json:"severity"`

	// Static-analysis results, attached once per pattern.
	AntipatternMatches   []AntipatternMatch `json:"antipattern_matches,omitempty"`
	OptimizationScore    float64            `json:"optimization_score"`
	StaticAnalysisReport string             `json:"static_analysis_report,omitempty"`

	// Recommendation is attached after aggregation; placeholder text when
	// the recommendation collaborator is disabled or failed.
	Recommendation string `json:"recommendation,omitempty"`
}
