package models

import (
	"time"

	"github.com/google/uuid"
)

// CorpusSummary holds whole-run statistics computed over the full filtered
// duration list, independent of pattern grouping.
type CorpusSummary struct {
	TotalQueries  int     `json:"total_queries"`
	UniqueQueries int     `json:"unique_queries"`
	AvgDurationMS float64 `json:"avg_duration_ms"`
	MaxDurationMS float64 `json:"max_duration_ms"`
	P95DurationMS float64 `json:"p95_duration_ms"`
	P99DurationMS float64 `json:"p99_duration_ms"`
	TotalTimeMS   float64 `json:"total_time_ms"`
}

// RunInfo identifies a single analysis run.
type RunInfo struct {
	ID            uuid.UUID `json:"id"`
	SourcePath    string    `json:"source_path"`
	Format        string    `json:"format"`
	MinDurationMS float64   `json:"min_duration_ms"`
	GeneratedAt   time.Time `json:"generated_at"`
	ToolVersion   string    `json:"tool_version"`
}

// AnalysisResult is what the pipeline hands to report renderers: the ranked
// top-N patterns plus the summary. All keeps the untruncated analyzed list
// so corpus-wide statistics are not limited to the displayed subset.
type AnalysisResult struct {
	Run     RunInfo        `json:"run"`
	Summary CorpusSummary  `json:"summary"`
	Top     []QueryPattern `json:"top_patterns"`
	All     []QueryPattern `json:"-"`
}

// MeanOptimizationScore averages the static-analysis optimization score over
// every analyzed pattern, not just the displayed top-N.
func (r *AnalysisResult) MeanOptimizationScore() float64 {
	if len(r.All) == 0 {
		return 0
	}
	var sum float64
	for i := range r.All {
		sum += r.All[i].OptimizationScore
	}
	return sum / float64(len(r.All))
}

// SeverityCounts tallies analyzed patterns per severity class.
func (r *AnalysisResult) SeverityCounts() map[Severity]int {
	counts := make(map[Severity]int)
	for i := range r.All {
		counts[r.All[i].Severity]++
	}
	return counts
}

// AntipatternCounts tallies static-analysis findings per pattern-type label
// across every analyzed pattern.
func (r *AnalysisResult) AntipatternCounts() map[string]int {
	counts := make(map[string]int)
	for i := range r.All {
		for _, m := range r.All[i].AntipatternMatches {
			counts[m.Type]++
		}
	}
	return counts
}
