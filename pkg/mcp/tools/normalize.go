package tools

import (
	"context"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/querydoctor/querydoctor/pkg/analyzer"
	"github.com/querydoctor/querydoctor/pkg/models"
)

// NormalizeToolDeps contains dependencies for the normalize_query tool.
type NormalizeToolDeps struct {
	// Detector runs static analysis on the submitted text; nil skips it.
	Detector analyzer.Detector
	Logger   *zap.Logger
}

// normalizeQueryResult is the response structure for normalize_query.
type normalizeQueryResult struct {
	NormalizedQuery      string                    `json:"normalized_query"`
	PatternKey           string                    `json:"pattern_key"`
	AntipatternMatches   []models.AntipatternMatch `json:"antipattern_matches"`
	OptimizationScore    float64                   `json:"optimization_score"`
	StaticAnalysisReport string                    `json:"static_analysis_report,omitempty"`
}

// RegisterNormalizeTool adds the normalize_query tool to the MCP server.
// The tool is pure: no file or network I/O.
func RegisterNormalizeTool(s *server.MCPServer, deps *NormalizeToolDeps) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	tool := mcp.NewTool(
		"normalize_query",
		mcp.WithDescription(
			"Normalize a SQL query the way the analyzer groups it: literals become "+
				"placeholders, IN lists collapse, whitespace folds, text lowercases. "+
				"Returns the normalized form, its grouping key, and static anti-pattern "+
				"findings for the submitted text. "+
				"Example: normalize_query(query=\"SELECT * FROM users WHERE id = 42\").",
		),
		mcp.WithString(
			"query",
			mcp.Required(),
			mcp.Description("SQL query text to normalize and analyze"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(query) == "" {
			return NewErrorResult("invalid_parameters", "parameter 'query' cannot be empty"), nil
		}

		normalized := analyzer.Normalize(query)
		response := normalizeQueryResult{
			NormalizedQuery:    normalized,
			PatternKey:         analyzer.PatternKey(normalized),
			AntipatternMatches: []models.AntipatternMatch{},
			OptimizationScore:  1.0,
		}

		// Static analysis runs on the submitted text, not the normalized
		// form: literals are what the wildcard and injection rules key on.
		if deps.Detector != nil {
			matches, report, err := deps.Detector.Analyze(query)
			if err != nil {
				deps.Logger.Warn("static analysis failed", zap.Error(err))
				response.StaticAnalysisReport = "Static analysis unavailable for this query."
			} else {
				if matches != nil {
					response.AntipatternMatches = matches
				}
				response.OptimizationScore = deps.Detector.Score(matches)
				response.StaticAnalysisReport = report
			}
		}

		jsonResult, err := json.Marshal(response)
		if err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(string(jsonResult)), nil
	})
}
