package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/querydoctor/querydoctor/pkg/llm"
	"github.com/querydoctor/querydoctor/pkg/models"
)

// DefaultConfigFile is the file Load looks for when no path is given.
const DefaultConfigFile = "querydoctor.yaml"

// Config holds all configuration for querydoctor.
// Configuration can come from a YAML file (querydoctor.yaml) or environment
// variables. Environment variables always override YAML values for fields
// that support both, and CLI flags override either. Secrets (API keys) must
// only come from environment variables.
type Config struct {
	Version string `yaml:"-"` // Set at load time, not from config

	Analyzer AnalyzerConfig `yaml:"analyzer"`
	LLM      LLMConfig      `yaml:"llm"`
	Report   ReportConfig   `yaml:"report"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// AnalyzerConfig holds log parsing and aggregation settings.
type AnalyzerConfig struct {
	// Format selects the slow-log layout: plain, delimited, or structured-lines.
	Format string `yaml:"format" env:"ANALYZER_FORMAT" env-default:"plain"`

	// MinDurationMS drops executions faster than this threshold.
	MinDurationMS float64 `yaml:"min_duration_ms" env:"ANALYZER_MIN_DURATION_MS" env-default:"100"`

	// TopN is how many ranked patterns reports show. Zero or negative means all.
	TopN int `yaml:"top_n" env:"ANALYZER_TOP_N" env-default:"5"`

	// ProgressEvery logs reader progress every N records. Zero disables.
	ProgressEvery int `yaml:"progress_every" env:"ANALYZER_PROGRESS_EVERY" env-default:"10000"`

	Severity SeverityConfig `yaml:"severity"`
}

// SeverityConfig holds the average-duration cutoffs (milliseconds) per
// severity class.
type SeverityConfig struct {
	NoticeMS   float64 `yaml:"notice_ms" env:"SEVERITY_NOTICE_MS" env-default:"100"`
	WarningMS  float64 `yaml:"warning_ms" env:"SEVERITY_WARNING_MS" env-default:"1000"`
	CriticalMS float64 `yaml:"critical_ms" env:"SEVERITY_CRITICAL_MS" env-default:"5000"`
}

// Thresholds converts the section to the model type used by the analyzer.
func (c SeverityConfig) Thresholds() models.SeverityThresholds {
	return models.SeverityThresholds{
		NoticeMS:   c.NoticeMS,
		WarningMS:  c.WarningMS,
		CriticalMS: c.CriticalMS,
	}
}

// LLMConfig holds recommendation generator settings.
type LLMConfig struct {
	// Enabled turns recommendation generation on or off entirely.
	Enabled bool `yaml:"enabled" env:"LLM_ENABLED" env-default:"true"`

	// Provider is openai, anthropic, or ollama.
	Provider string `yaml:"provider" env:"LLM_PROVIDER" env-default:"openai"`

	// Endpoint overrides the provider's default base URL. Mainly useful for
	// proxies and for ollama servers not on localhost.
	Endpoint string `yaml:"endpoint" env:"LLM_ENDPOINT" env-default:""`

	// Model names the provider model. Defaulted for openai; anthropic and
	// ollama require an explicit name.
	Model string `yaml:"model" env:"LLM_MODEL" env-default:""`

	// APIKey authenticates hosted providers. When unset, Load falls back to
	// OPENAI_API_KEY or ANTHROPIC_API_KEY per provider.
	APIKey string `yaml:"-" env:"LLM_API_KEY"` // Secret - not in YAML

	Temperature    float64 `yaml:"temperature" env:"LLM_TEMPERATURE" env-default:"0.3"`
	MaxTokens      int     `yaml:"max_tokens" env:"LLM_MAX_TOKENS" env-default:"300"`
	TimeoutSeconds int     `yaml:"timeout_seconds" env:"LLM_TIMEOUT_SECONDS" env-default:"30"`
	MaxConcurrent  int     `yaml:"max_concurrent" env:"LLM_MAX_CONCURRENT" env-default:"4"`
}

// ClientConfig converts the section to the llm package's config. The
// provider name is validated here, where it is first parsed.
func (c LLMConfig) ClientConfig() (llm.Config, error) {
	provider, err := llm.ParseProvider(c.Provider)
	if err != nil {
		return llm.Config{}, err
	}
	return llm.Config{
		Provider:      provider,
		Endpoint:      c.Endpoint,
		Model:         c.Model,
		APIKey:        c.APIKey,
		Temperature:   c.Temperature,
		MaxTokens:     c.MaxTokens,
		Timeout:       time.Duration(c.TimeoutSeconds) * time.Second,
		MaxConcurrent: c.MaxConcurrent,
	}, nil
}

// ReportConfig holds report rendering settings.
type ReportConfig struct {
	// Format is markdown, json, or html.
	Format string `yaml:"format" env:"REPORT_FORMAT" env-default:"markdown"`

	// MaxQueryChars truncates example queries in rendered reports.
	MaxQueryChars int `yaml:"max_query_chars" env:"REPORT_MAX_QUERY_CHARS" env-default:"500"`
}

// LoggingConfig holds process logger settings.
type LoggingConfig struct {
	// Level is the minimum level: debug, info, warn, error.
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`

	// Format is console or json.
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"console"`
}

// Load reads configuration from a YAML file with environment variable
// overrides. The version parameter is injected at build time and set on the
// returned Config. path selects the config file; empty means
// DefaultConfigFile, which is optional — when absent, environment variables
// alone drive configuration. A .env file in the working directory is loaded
// first when present.
func Load(version, path string) (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}

	cfg := &Config{Version: version}

	explicit := path != ""
	if path == "" {
		path = DefaultConfigFile
	}

	if _, err := os.Stat(path); err != nil {
		if explicit || !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("read environment: %w", err)
		}
	} else if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.resolveAPIKey()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// resolveAPIKey falls back to the provider's conventional environment
// variable when LLM_API_KEY is not set.
func (c *Config) resolveAPIKey() {
	if c.LLM.APIKey != "" {
		return
	}
	switch c.LLM.Provider {
	case "openai":
		c.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	case "anthropic":
		c.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
}

// Validate rejects numerically impossible settings. Enumerated fields
// (log format, report format, provider) are validated where they are
// parsed into their typed forms.
func (c *Config) Validate() error {
	if c.Analyzer.MinDurationMS < 0 {
		return fmt.Errorf("analyzer.min_duration_ms must not be negative")
	}
	if c.Analyzer.ProgressEvery < 0 {
		return fmt.Errorf("analyzer.progress_every must not be negative")
	}
	s := c.Analyzer.Severity
	if s.NoticeMS < 0 || s.WarningMS < s.NoticeMS || s.CriticalMS < s.WarningMS {
		return fmt.Errorf("severity thresholds must be ordered: 0 <= notice <= warning <= critical")
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("llm.temperature must be between 0 and 2")
	}
	if c.LLM.MaxTokens < 1 {
		return fmt.Errorf("llm.max_tokens must be positive")
	}
	if c.LLM.TimeoutSeconds < 1 {
		return fmt.Errorf("llm.timeout_seconds must be positive")
	}
	if c.LLM.MaxConcurrent < 1 {
		return fmt.Errorf("llm.max_concurrent must be positive")
	}
	if c.Report.MaxQueryChars < 1 {
		return fmt.Errorf("report.max_query_chars must be positive")
	}
	return nil
}

// Default returns the built-in configuration. WriteDefault serializes it
// for init-config; tests use it as a known-good baseline.
func Default() *Config {
	return &Config{
		Analyzer: AnalyzerConfig{
			Format:        "plain",
			MinDurationMS: 100,
			TopN:          5,
			ProgressEvery: 10000,
			Severity: SeverityConfig{
				NoticeMS:   100,
				WarningMS:  1000,
				CriticalMS: 5000,
			},
		},
		LLM: LLMConfig{
			Enabled:        true,
			Provider:       "openai",
			Temperature:    0.3,
			MaxTokens:      300,
			TimeoutSeconds: 30,
			MaxConcurrent:  4,
		},
		Report: ReportConfig{
			Format:        "markdown",
			MaxQueryChars: 500,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

const defaultFileHeader = `# querydoctor configuration.
#
# Every value here can be overridden by environment variables; CLI flags
# override both. Secrets are environment-only: set LLM_API_KEY, or the
# provider-specific OPENAI_API_KEY / ANTHROPIC_API_KEY.

`

// WriteDefault writes a commented starter config to path (DefaultConfigFile
// when empty). Refuses to overwrite an existing file.
func WriteDefault(path string) error {
	if path == "" {
		path = DefaultConfigFile
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}

	var buf bytes.Buffer
	buf.WriteString(defaultFileHeader)

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(Default()); err != nil {
		return fmt.Errorf("encode default config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode default config: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
