package analyzer

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/querydoctor/querydoctor/pkg/apperrors"
	"github.com/querydoctor/querydoctor/pkg/logging"
	"github.com/querydoctor/querydoctor/pkg/models"
)

// Detector is the static anti-pattern collaborator consumed during
// aggregation. Analyze receives a normalized query and returns the findings
// plus a human-readable report; Score folds findings into an optimization
// score in [0,1].
type Detector interface {
	Analyze(normalizedQuery string) ([]models.AntipatternMatch, string, error)
	Score(matches []models.AntipatternMatch) float64
}

// Analyzer aggregates raw executions into query patterns.
type Analyzer struct {
	detector   Detector
	thresholds models.SeverityThresholds
	logger     *zap.Logger
}

// NewAnalyzer builds an Analyzer. A nil detector skips static analysis and
// leaves every pattern with a neutral optimization score.
func NewAnalyzer(detector Detector, thresholds models.SeverityThresholds, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{
		detector:   detector,
		thresholds: thresholds,
		logger:     logger.Named("analyzer"),
	}
}

// group collects the executions behind one pattern key. Statistics are
// computed once from the complete group, not mutated incrementally.
type group struct {
	normalized string
	execs      []models.RawExecution
}

// Aggregate filters out executions under minDurationMS, groups the remainder
// by normalized-pattern key, and computes per-pattern statistics. The static
// detector runs exactly once per group, on the group's normalized text. An
// empty result is returned as an empty slice, never an error; the caller
// decides whether that is exceptional.
//
// Output preserves group discovery order. Ranking is imposed later by
// Select, which relies on discovery order for tie stability.
func (a *Analyzer) Aggregate(execs []models.RawExecution, minDurationMS float64) []models.QueryPattern {
	groups := make(map[string]*group)
	var order []string

	for i := range execs {
		if execs[i].DurationMS < minDurationMS {
			continue
		}
		normalized := Normalize(execs[i].Query)
		key := PatternKey(normalized)
		g, ok := groups[key]
		if !ok {
			g = &group{normalized: normalized}
			groups[key] = g
			order = append(order, key)
		}
		g.execs = append(g.execs, execs[i])
	}

	patterns := make([]models.QueryPattern, 0, len(order))
	for _, key := range order {
		patterns = append(patterns, a.buildPattern(key, groups[key]))
	}
	return patterns
}

func (a *Analyzer) buildPattern(key string, g *group) models.QueryPattern {
	first := g.execs[0]
	p := models.QueryPattern{
		PatternKey:      key,
		ExampleQuery:    first.Query,
		NormalizedQuery: g.normalized,
		Frequency:       len(g.execs),
		MinDurationMS:   first.DurationMS,
		MaxDurationMS:   first.DurationMS,
		FirstSeen:       first.Timestamp,
		LastSeen:        first.Timestamp,
	}

	for _, e := range g.execs {
		p.TotalDurationMS += e.DurationMS
		if e.DurationMS < p.MinDurationMS {
			p.MinDurationMS = e.DurationMS
		}
		if e.DurationMS > p.MaxDurationMS {
			p.MaxDurationMS = e.DurationMS
		}
		if e.Timestamp.Before(p.FirstSeen) {
			p.FirstSeen = e.Timestamp
		}
		if e.Timestamp.After(p.LastSeen) {
			p.LastSeen = e.Timestamp
		}
	}

	p.AvgDurationMS = p.TotalDurationMS / float64(p.Frequency)
	p.ImpactScore = p.AvgDurationMS * float64(p.Frequency)
	p.Severity = a.thresholds.Classify(p.AvgDurationMS)

	a.attachStaticAnalysis(&p)
	return p
}

// attachStaticAnalysis runs the detector for one pattern. A detector failure
// degrades that pattern to a neutral score and placeholder report; it never
// aborts the batch or touches other patterns.
func (a *Analyzer) attachStaticAnalysis(p *models.QueryPattern) {
	p.OptimizationScore = 1.0
	if a.detector == nil {
		return
	}

	matches, report, err := a.detector.Analyze(p.NormalizedQuery)
	if err != nil {
		a.logger.Warn("static analysis failed for pattern",
			zap.String("pattern_key", p.PatternKey),
			zap.String("query", logging.SanitizeQuery(p.NormalizedQuery)),
			zap.Error(fmt.Errorf("%w: %v", apperrors.ErrCollaborator, err)))
		p.StaticAnalysisReport = "Static analysis unavailable for this pattern."
		return
	}

	p.AntipatternMatches = matches
	p.StaticAnalysisReport = report
	p.OptimizationScore = a.detector.Score(matches)
}
