package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/querydoctor/querydoctor/pkg/antipatterns"
	"github.com/querydoctor/querydoctor/pkg/apperrors"
	"github.com/querydoctor/querydoctor/pkg/config"
	"github.com/querydoctor/querydoctor/pkg/doctor"
	"github.com/querydoctor/querydoctor/pkg/llm"
	"github.com/querydoctor/querydoctor/pkg/report"
	"github.com/querydoctor/querydoctor/pkg/slowlog"
)

var (
	analyzeFormat       string
	analyzeMinDuration  float64
	analyzeTop          int
	analyzeOutput       string
	analyzeReportFormat string
	analyzeNoLLM        bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <logfile>",
	Short: "Analyze a slow-query log and render a report",
	Long: `Parse a PostgreSQL slow-query log, group statements into normalized
patterns, and render a report ranking the patterns by impact (average
duration times frequency).

The report goes to stdout unless --output names a file; log messages go to
stderr, so piped reports stay clean.

Examples:
  querydoctor analyze /var/log/postgresql/slow.log
  querydoctor analyze --format delimited --report-format json slow.csv
  querydoctor analyze --no-llm --top 10 -o reports/slow.md slow.log`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "f", "", "log format: plain, delimited, or structured-lines (default from config)")
	analyzeCmd.Flags().Float64Var(&analyzeMinDuration, "min-duration", -1, "ignore executions faster than this many milliseconds (default from config)")
	analyzeCmd.Flags().IntVar(&analyzeTop, "top", -1, "how many top patterns to show, 0 for all (default from config)")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "", "write the report to this file instead of stdout")
	analyzeCmd.Flags().StringVar(&analyzeReportFormat, "report-format", "", "report format: markdown, json, or html (default from config)")
	analyzeCmd.Flags().BoolVar(&analyzeNoLLM, "no-llm", false, "skip LLM recommendations")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	applyAnalyzeFlags(cfg)

	format, err := slowlog.ParseFormat(cfg.Analyzer.Format)
	if err != nil {
		return err
	}
	reportFormat, err := report.ParseFormat(cfg.Report.Format)
	if err != nil {
		return err
	}
	renderer, err := report.NewRenderer(reportFormat, report.Options{MaxQueryChars: cfg.Report.MaxQueryChars})
	if err != nil {
		return err
	}

	withLLM := cfg.LLM.Enabled && !analyzeNoLLM
	var recommender llm.BatchRecommender
	if withLLM {
		recommender, err = buildRecommender(cfg, logger)
		if err != nil {
			return fmt.Errorf("llm setup: %w (pass --no-llm to skip recommendations)", err)
		}
	}

	d := doctor.New(doctor.Options{
		Detector:      antipatterns.NewDetector(),
		Recommender:   recommender,
		Thresholds:    cfg.Analyzer.Severity.Thresholds(),
		ProgressEvery: cfg.Analyzer.ProgressEvery,
		ToolVersion:   cfg.Version,
	}, logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := d.Run(ctx, doctor.RunRequest{
		Path:                args[0],
		Format:              format,
		MinDurationMS:       cfg.Analyzer.MinDurationMS,
		TopN:                cfg.Analyzer.TopN,
		WithRecommendations: withLLM,
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrNoMatches) {
			fmt.Fprintln(cmd.OutOrStdout(), "No slow queries found. Nothing to report.")
			return nil
		}
		return err
	}

	rendered, err := renderer.Render(result)
	if err != nil {
		return err
	}
	return writeReport(cmd, rendered)
}

// applyAnalyzeFlags lays explicitly set flags over the loaded configuration.
// The numeric flags use -1 as their unset sentinel; 0 is meaningful for both
// (keep every execution, show all patterns).
func applyAnalyzeFlags(cfg *config.Config) {
	if analyzeFormat != "" {
		cfg.Analyzer.Format = analyzeFormat
	}
	if analyzeMinDuration >= 0 {
		cfg.Analyzer.MinDurationMS = analyzeMinDuration
	}
	if analyzeTop >= 0 {
		cfg.Analyzer.TopN = analyzeTop
	}
	if analyzeReportFormat != "" {
		cfg.Report.Format = analyzeReportFormat
	}
}

// buildRecommender constructs the configured LLM recommendation client.
func buildRecommender(cfg *config.Config, logger *zap.Logger) (llm.BatchRecommender, error) {
	clientCfg, err := cfg.LLM.ClientConfig()
	if err != nil {
		return nil, err
	}
	client, err := llm.NewClient(&clientCfg, logger)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// writeReport sends the rendered report to stdout, or to --output when set,
// creating parent directories as needed.
func writeReport(cmd *cobra.Command, data []byte) error {
	if analyzeOutput == "" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}

	if dir := filepath.Dir(analyzeOutput); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create report directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(analyzeOutput, data, 0644); err != nil {
		return fmt.Errorf("write report %s: %w", analyzeOutput, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Report saved to %s\n", analyzeOutput)
	return nil
}
