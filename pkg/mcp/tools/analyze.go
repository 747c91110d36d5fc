package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/querydoctor/querydoctor/pkg/apperrors"
	"github.com/querydoctor/querydoctor/pkg/doctor"
	"github.com/querydoctor/querydoctor/pkg/models"
	"github.com/querydoctor/querydoctor/pkg/slowlog"
)

// acceptedFormats is surfaced to callers when a format name is rejected.
var acceptedFormats = []string{"plain", "delimited", "structured-lines"}

// Runner runs one end-to-end analysis. Satisfied by *doctor.Doctor.
type Runner interface {
	Run(ctx context.Context, req doctor.RunRequest) (*models.AnalysisResult, error)
}

var _ Runner = (*doctor.Doctor)(nil)

// AnalyzeDefaults are the fallback values for optional analyze_slow_log
// arguments, normally sourced from the loaded configuration.
type AnalyzeDefaults struct {
	MinDurationMS float64
	TopN          int
}

// AnalyzeToolDeps contains dependencies for the analyze_slow_log tool.
type AnalyzeToolDeps struct {
	Runner   Runner
	Defaults AnalyzeDefaults
	Logger   *zap.Logger
}

// RegisterAnalyzeTool adds the analyze_slow_log tool to the MCP server.
func RegisterAnalyzeTool(s *server.MCPServer, deps *AnalyzeToolDeps) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	tool := mcp.NewTool(
		"analyze_slow_log",
		mcp.WithDescription(
			"Analyze a PostgreSQL slow-query log file. Parses the log, groups queries "+
				"into normalized patterns, ranks them by impact (average duration times "+
				"frequency), and returns per-pattern statistics, severity, static "+
				"anti-pattern findings, and corpus percentiles as JSON. "+
				"Example: analyze_slow_log(path='/var/log/postgresql/slow.log', format='plain', top_n=5).",
		),
		mcp.WithString(
			"path",
			mcp.Required(),
			mcp.Description("Path to the slow-query log file on this machine"),
		),
		mcp.WithString(
			"format",
			mcp.Description("Log format: 'plain' (server log lines), 'delimited' (CSV/TSV with header), or 'structured-lines' (one JSON object per line). Default: plain"),
		),
		mcp.WithNumber(
			"min_duration_ms",
			mcp.Description("Ignore executions faster than this many milliseconds"),
		),
		mcp.WithNumber(
			"top_n",
			mcp.Description("How many top patterns to return; 0 returns all"),
		),
		mcp.WithBoolean(
			"include_recommendations",
			mcp.Description("Generate LLM optimization recommendations for the top patterns (slower; requires a configured provider). Default: false"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := req.RequireString("path")
		if err != nil {
			return nil, err
		}
		path = strings.TrimSpace(path)
		if path == "" {
			return NewErrorResult("invalid_parameters", "parameter 'path' cannot be empty"), nil
		}

		formatName := strings.TrimSpace(req.GetString("format", "plain"))
		format, err := slowlog.ParseFormat(formatName)
		if err != nil {
			return NewErrorResultWithDetails("invalid_parameters",
				fmt.Sprintf("unknown log format %q", formatName),
				map[string]any{"accepted_formats": acceptedFormats}), nil
		}

		runReq := doctor.RunRequest{
			Path:                path,
			Format:              format,
			MinDurationMS:       req.GetFloat("min_duration_ms", deps.Defaults.MinDurationMS),
			TopN:                req.GetInt("top_n", deps.Defaults.TopN),
			WithRecommendations: req.GetBool("include_recommendations", false),
		}
		if runReq.MinDurationMS < 0 {
			return NewErrorResult("invalid_parameters", "parameter 'min_duration_ms' cannot be negative"), nil
		}

		deps.Logger.Debug("analyze request",
			zap.String("path", path),
			zap.String("format", format.String()),
			zap.Float64("min_duration_ms", runReq.MinDurationMS),
			zap.Int("top_n", runReq.TopN),
			zap.Bool("include_recommendations", runReq.WithRecommendations))

		result, err := deps.Runner.Run(ctx, runReq)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrLogNotFound):
				return NewErrorResult("log_not_found", err.Error()), nil
			case errors.Is(err, apperrors.ErrNoMatches):
				return NewErrorResult("no_slow_queries", err.Error()), nil
			case errors.Is(err, apperrors.ErrUnknownFormat):
				return NewErrorResultWithDetails("invalid_parameters", err.Error(),
					map[string]any{"accepted_formats": acceptedFormats}), nil
			}
			return nil, fmt.Errorf("analysis failed: %w", err)
		}

		jsonResult, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal analysis result: %w", err)
		}
		return mcp.NewToolResultText(string(jsonResult)), nil
	})
}
