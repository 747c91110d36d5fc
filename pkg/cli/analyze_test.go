package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/querydoctor/querydoctor/pkg/apperrors"
	"github.com/querydoctor/querydoctor/pkg/config"
	"github.com/querydoctor/querydoctor/pkg/testhelpers"
)

func TestRunAnalyze_RendersMarkdownReport(t *testing.T) {
	resetCLIState(t)
	path := testhelpers.WritePlainLog(t,
		testhelpers.SlowQuery{Timestamp: testhelpers.LogTime(0), DurationMS: 200, Query: "SELECT * FROM users WHERE id = 1"},
		testhelpers.SlowQuery{Timestamp: testhelpers.LogTime(1), DurationMS: 1500, Query: "SELECT name FROM products WHERE price > 10"},
	)
	analyzeNoLLM = true

	cmd, out := newTestCmd(t)
	require.NoError(t, runAnalyze(cmd, []string{path}))

	report := out.String()
	assert.Contains(t, report, "# PostgreSQL Performance Analysis Report")
	assert.Contains(t, report, "**Total Queries Analyzed:** 2")
	assert.Contains(t, report, "LLM recommendations disabled.")
}

func TestRunAnalyze_NoSlowQueriesIsCleanExit(t *testing.T) {
	resetCLIState(t)
	path := testhelpers.WriteLogFile(t, "noise.log", "checkpoint starting\nautovacuum launcher started\n")
	analyzeNoLLM = true

	cmd, out := newTestCmd(t)
	require.NoError(t, runAnalyze(cmd, []string{path}))

	assert.Contains(t, out.String(), "No slow queries found")
}

func TestRunAnalyze_MissingFileFails(t *testing.T) {
	resetCLIState(t)
	analyzeNoLLM = true

	cmd, _ := newTestCmd(t)
	err := runAnalyze(cmd, []string{filepath.Join(t.TempDir(), "absent.log")})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrLogNotFound)
}

func TestRunAnalyze_WritesReportFile(t *testing.T) {
	resetCLIState(t)
	path := testhelpers.WritePlainLog(t,
		testhelpers.SlowQuery{Timestamp: testhelpers.LogTime(0), DurationMS: 200, Query: "SELECT * FROM users WHERE id = 1"},
	)
	outPath := filepath.Join(t.TempDir(), "reports", "slow.md")
	analyzeOutput = outPath
	analyzeNoLLM = true

	cmd, out := newTestCmd(t)
	require.NoError(t, runAnalyze(cmd, []string{path}))

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# PostgreSQL Performance Analysis Report")
	assert.Contains(t, out.String(), "Report saved to "+outPath)
}

func TestRunAnalyze_JSONReport(t *testing.T) {
	resetCLIState(t)
	path := testhelpers.WritePlainLog(t,
		testhelpers.SlowQuery{Timestamp: testhelpers.LogTime(0), DurationMS: 200, Query: "SELECT * FROM users WHERE id = 1"},
		testhelpers.SlowQuery{Timestamp: testhelpers.LogTime(1), DurationMS: 300, Query: "SELECT * FROM users WHERE id = 2"},
	)
	analyzeReportFormat = "json"
	analyzeNoLLM = true

	cmd, out := newTestCmd(t)
	require.NoError(t, runAnalyze(cmd, []string{path}))

	var decoded struct {
		Run struct {
			Format      string `json:"format"`
			ToolVersion string `json:"tool_version"`
		} `json:"run"`
		Summary struct {
			TotalQueries  int `json:"total_queries"`
			UniqueQueries int `json:"unique_queries"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, "plain", decoded.Run.Format)
	assert.Equal(t, 2, decoded.Summary.TotalQueries)
	assert.Equal(t, 1, decoded.Summary.UniqueQueries)
}

func TestRunAnalyze_UnknownLogFormat(t *testing.T) {
	resetCLIState(t)
	analyzeFormat = "xml"
	analyzeNoLLM = true

	cmd, _ := newTestCmd(t)
	err := runAnalyze(cmd, []string{"whatever.log"})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnknownFormat)
}

func TestRunAnalyze_InvalidReportFormat(t *testing.T) {
	resetCLIState(t)
	analyzeReportFormat = "pdf"
	analyzeNoLLM = true

	cmd, _ := newTestCmd(t)
	err := runAnalyze(cmd, []string{"whatever.log"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown report format")
}

func TestRunAnalyze_FlagsOverrideConfigFile(t *testing.T) {
	resetCLIState(t)
	cfgFile := filepath.Join(t.TempDir(), "querydoctor.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("analyzer:\n  min_duration_ms: 50\n  top_n: 5\n"), 0644))

	// 80ms passes only because the config lowered the threshold below the
	// built-in 100; the flag then narrows top_n from the file's 5 to 1.
	path := testhelpers.WritePlainLog(t,
		testhelpers.SlowQuery{Timestamp: testhelpers.LogTime(0), DurationMS: 80, Query: "SELECT * FROM sessions WHERE token = 'abc'"},
		testhelpers.SlowQuery{Timestamp: testhelpers.LogTime(1), DurationMS: 200, Query: "SELECT * FROM users WHERE id = 1"},
	)
	cfgPath = cfgFile
	analyzeTop = 1
	analyzeNoLLM = true

	cmd, out := newTestCmd(t)
	require.NoError(t, runAnalyze(cmd, []string{path}))

	report := out.String()
	assert.Contains(t, report, "**Total Queries Analyzed:** 2")
	assert.Equal(t, 1, strings.Count(report, "### Query #"))
}

func TestRunAnalyze_LLMConfigFailureIsHard(t *testing.T) {
	resetCLIState(t)
	t.Setenv("LLM_ENABLED", "true")
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	path := testhelpers.WritePlainLog(t,
		testhelpers.SlowQuery{Timestamp: testhelpers.LogTime(0), DurationMS: 200, Query: "SELECT 1"},
	)

	cmd, _ := newTestCmd(t)
	err := runAnalyze(cmd, []string{path})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key")
	assert.Contains(t, err.Error(), "--no-llm")
}

func TestApplyAnalyzeFlags(t *testing.T) {
	resetCLIState(t)
	analyzeFormat = "delimited"
	analyzeMinDuration = 250
	analyzeTop = 0
	analyzeReportFormat = "html"

	cfg := config.Default()
	applyAnalyzeFlags(cfg)

	assert.Equal(t, "delimited", cfg.Analyzer.Format)
	assert.InDelta(t, 250, cfg.Analyzer.MinDurationMS, 0.0001)
	assert.Equal(t, 0, cfg.Analyzer.TopN)
	assert.Equal(t, "html", cfg.Report.Format)
}

func TestApplyAnalyzeFlags_SentinelsLeaveConfigAlone(t *testing.T) {
	resetCLIState(t)
	analyzeFormat = ""
	analyzeMinDuration = -1
	analyzeTop = -1
	analyzeReportFormat = ""

	cfg := config.Default()
	applyAnalyzeFlags(cfg)

	assert.Equal(t, config.Default().Analyzer, cfg.Analyzer)
	assert.Equal(t, config.Default().Report, cfg.Report)
}
