// Package cli implements the querydoctor command tree.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/querydoctor/querydoctor/pkg/config"
	"github.com/querydoctor/querydoctor/pkg/logging"
)

var (
	// Global flags
	cfgPath  string
	logLevel string

	// toolVersion is injected by Execute from the build-time version stamp.
	toolVersion = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "querydoctor",
	Short: "PostgreSQL slow-query log analyzer",
	Long: `querydoctor reads PostgreSQL slow-query logs, groups statements into
normalized patterns, ranks them by impact, flags common anti-patterns, and
optionally asks an LLM provider for optimization advice.

Reports render as Markdown, JSON, or HTML. The analyzer is also available to
agent clients as an MCP stdio tool server (querydoctor mcp).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default querydoctor.yaml, optional)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level (debug, info, warn, error)")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(initConfigCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the command tree and returns the process exit code. The
// version is stamped into run metadata and report headers. A log with no
// slow queries is a clean exit; only hard failures return 1.
func Execute(ctx context.Context, version string) int {
	toolVersion = version
	rootCmd.Version = version

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// setup loads configuration and builds the process logger. Shared by the
// commands that run the pipeline; version and init-config stay config-free.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(toolVersion, cfgPath)
	if err != nil {
		return nil, nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	logger, err := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
