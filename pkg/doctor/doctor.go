// Package doctor wires the analysis pipeline: read the log, aggregate
// executions into patterns, summarize the corpus, rank, and attach
// recommendations. Collaborators are injected; the package holds no ambient
// state.
package doctor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/querydoctor/querydoctor/pkg/analyzer"
	"github.com/querydoctor/querydoctor/pkg/llm"
	"github.com/querydoctor/querydoctor/pkg/models"
	"github.com/querydoctor/querydoctor/pkg/slowlog"
)

// Options configures a Doctor.
type Options struct {
	// Detector runs static anti-pattern analysis per pattern; nil skips it.
	Detector analyzer.Detector
	// Recommender generates optimization advice; nil disables the stage and
	// every ranked pattern gets the disabled placeholder.
	Recommender llm.BatchRecommender
	// Thresholds classify pattern severity; the zero value means defaults.
	Thresholds models.SeverityThresholds
	// ProgressEvery logs parsing progress after every N records; zero
	// disables it.
	ProgressEvery int
	// ToolVersion is stamped into the result's run metadata.
	ToolVersion string
}

// RunRequest describes one analysis invocation.
type RunRequest struct {
	Path                string
	Format              slowlog.Format
	MinDurationMS       float64
	TopN                int
	WithRecommendations bool
}

// Doctor runs the analysis pipeline end to end.
type Doctor struct {
	reader      *slowlog.Reader
	analyzer    *analyzer.Analyzer
	recommender llm.BatchRecommender
	logger      *zap.Logger
	version     string
}

// New builds a Doctor from its collaborators.
func New(opts Options, logger *zap.Logger) *Doctor {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("doctor")

	thresholds := opts.Thresholds
	if thresholds == (models.SeverityThresholds{}) {
		thresholds = models.DefaultSeverityThresholds()
	}

	readerCfg := slowlog.ReaderConfig{ProgressEvery: opts.ProgressEvery}
	if opts.ProgressEvery > 0 {
		readerCfg.OnProgress = func(records int) {
			logger.Info("parsing progress", zap.Int("records", records))
		}
	}

	return &Doctor{
		reader:      slowlog.NewReader(readerCfg, logger),
		analyzer:    analyzer.NewAnalyzer(opts.Detector, thresholds, logger),
		recommender: opts.Recommender,
		logger:      logger,
		version:     opts.ToolVersion,
	}
}

// Run executes read, aggregate, summarize, select, and recommend for one log
// file. Reader errors (missing file, unknown format, zero parsed records)
// propagate; once records exist, later stages only degrade, never fail. An
// input whose records all fall under the duration threshold yields an empty
// result, not an error.
func (d *Doctor) Run(ctx context.Context, req RunRequest) (*models.AnalysisResult, error) {
	start := time.Now()
	d.logger.Info("starting analysis",
		zap.String("path", req.Path),
		zap.String("format", req.Format.String()),
		zap.Float64("min_duration_ms", req.MinDurationMS),
		zap.Int("top_n", req.TopN))

	execs, err := d.reader.Parse(req.Path, req.Format)
	if err != nil {
		return nil, err
	}

	patterns := d.analyzer.Aggregate(execs, req.MinDurationMS)

	durations := make([]float64, 0, len(execs))
	for i := range execs {
		if execs[i].DurationMS >= req.MinDurationMS {
			durations = append(durations, execs[i].DurationMS)
		}
	}
	summary := analyzer.Summarize(durations)
	summary.UniqueQueries = len(patterns)

	top := analyzer.Select(patterns, req.TopN)
	d.attachRecommendations(ctx, req, top)

	result := &models.AnalysisResult{
		Run: models.RunInfo{
			ID:            uuid.New(),
			SourcePath:    req.Path,
			Format:        req.Format.String(),
			MinDurationMS: req.MinDurationMS,
			GeneratedAt:   time.Now().UTC(),
			ToolVersion:   d.version,
		},
		Summary: summary,
		Top:     top,
		All:     patterns,
	}

	d.logger.Info("analysis complete",
		zap.Int("total_queries", summary.TotalQueries),
		zap.Int("unique_patterns", summary.UniqueQueries),
		zap.Int("top_patterns", len(top)),
		zap.Duration("elapsed", time.Since(start)))
	return result, nil
}

// attachRecommendations fills Recommendation on the ranked patterns. With
// the stage disabled or no recommender wired, every pattern gets the
// disabled placeholder; per-pattern failures were already degraded to
// placeholder text by the recommender.
func (d *Doctor) attachRecommendations(ctx context.Context, req RunRequest, top []models.QueryPattern) {
	if len(top) == 0 {
		return
	}

	if !req.WithRecommendations || d.recommender == nil {
		for i := range top {
			top[i].Recommendation = llm.DisabledPlaceholder
		}
		return
	}

	reqs := make([]llm.RecommendationRequest, len(top))
	for i := range top {
		reqs[i] = llm.RecommendationRequest{
			Query:         top[i].ExampleQuery,
			AvgDurationMS: top[i].AvgDurationMS,
			MaxDurationMS: top[i].MaxDurationMS,
			Frequency:     top[i].Frequency,
			ImpactScore:   top[i].ImpactScore,
		}
	}

	d.logger.Info("generating recommendations", zap.Int("patterns", len(reqs)))
	texts := d.recommender.BatchRecommend(ctx, reqs)
	for i := range top {
		if i < len(texts) {
			top[i].Recommendation = texts[i]
		}
	}
}
