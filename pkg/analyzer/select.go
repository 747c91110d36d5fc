package analyzer

import (
	"sort"

	"github.com/querydoctor/querydoctor/pkg/models"
)

// Select ranks patterns by impact score descending and truncates to topN.
// The sort is stable: patterns with equal impact keep their discovery order.
// A non-positive topN returns the full ranked list. The input slice is not
// modified.
func Select(patterns []models.QueryPattern, topN int) []models.QueryPattern {
	ranked := append([]models.QueryPattern(nil), patterns...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ImpactScore > ranked[j].ImpactScore
	})

	if topN > 0 && topN < len(ranked) {
		ranked = ranked[:topN]
	}
	return ranked
}
