package analyzer

import (
	"math"
	"sort"

	"github.com/querydoctor/querydoctor/pkg/models"
)

// Summarize computes whole-corpus statistics over the full filtered duration
// list, independent of pattern grouping. An empty input yields an all-zero
// summary, never an error. UniqueQueries is stamped by the caller once the
// distinct pattern count is known.
func Summarize(durations []float64) models.CorpusSummary {
	if len(durations) == 0 {
		return models.CorpusSummary{}
	}

	var total, max float64
	for _, d := range durations {
		total += d
		if d > max {
			max = d
		}
	}

	return models.CorpusSummary{
		TotalQueries:  len(durations),
		AvgDurationMS: total / float64(len(durations)),
		MaxDurationMS: max,
		P95DurationMS: Percentile(durations, 0.95),
		P99DurationMS: Percentile(durations, 0.99),
		TotalTimeMS:   total,
	}
}

// Percentile returns percentile p (in [0,1]) of values using linear
// interpolation between order statistics: position (n-1)*p over the sorted
// values, interpolated by the fractional part when it falls between two
// ranks. Empty input returns 0; a single value is returned for any p.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	if p < 0 {
		p = 0
	}
	if p > 1 {
		p = 1
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	if len(sorted) == 1 {
		return sorted[0]
	}

	pos := float64(len(sorted)-1) * p
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return sorted[lower]
	}

	frac := pos - float64(lower)
	return sorted[lower] + (sorted[upper]-sorted[lower])*frac
}
