package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/querydoctor/querydoctor/pkg/antipatterns"
	"github.com/querydoctor/querydoctor/pkg/doctor"
	"github.com/querydoctor/querydoctor/pkg/llm"
	"github.com/querydoctor/querydoctor/pkg/logging"
	"github.com/querydoctor/querydoctor/pkg/mcp"
	"github.com/querydoctor/querydoctor/pkg/mcp/tools"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the analyzer as an MCP tool server on stdio",
	Long: `Expose analyze_slow_log and normalize_query as Model Context Protocol
tools over stdio, for agent clients such as coding assistants.

The protocol owns stdout; logs go to stderr. When the LLM provider is not
configured the server still runs, with recommendation requests degraded to
placeholder text.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	detector := antipatterns.NewDetector()

	var recommender llm.BatchRecommender
	if cfg.LLM.Enabled {
		recommender, err = buildRecommender(cfg, logger)
		if err != nil {
			logger.Warn("recommendations unavailable",
				zap.String("reason", logging.SanitizeError(err)))
		}
	}

	d := doctor.New(doctor.Options{
		Detector:      detector,
		Recommender:   recommender,
		Thresholds:    cfg.Analyzer.Severity.Thresholds(),
		ProgressEvery: cfg.Analyzer.ProgressEvery,
		ToolVersion:   cfg.Version,
	}, logger)

	srv := mcp.NewServer("querydoctor", cfg.Version, logger)
	tools.RegisterAnalyzeTool(srv.MCP(), &tools.AnalyzeToolDeps{
		Runner: d,
		Defaults: tools.AnalyzeDefaults{
			MinDurationMS: cfg.Analyzer.MinDurationMS,
			TopN:          cfg.Analyzer.TopN,
		},
		Logger: logger,
	})
	tools.RegisterNormalizeTool(srv.MCP(), &tools.NormalizeToolDeps{
		Detector: detector,
		Logger:   logger,
	})

	logger.Info("starting MCP server",
		zap.String("version", cfg.Version),
		zap.Bool("recommendations", recommender != nil))

	return srv.ServeStdio()
}
