package llm

import (
	"fmt"
	"time"
)

// Provider selects which backend serves recommendation calls.
type Provider string

const (
	// ProviderOpenAI is the hosted OpenAI API.
	ProviderOpenAI Provider = "openai"
	// ProviderAnthropic is the hosted Anthropic Messages API.
	ProviderAnthropic Provider = "anthropic"
	// ProviderOllama is a local Ollama server; it speaks the OpenAI API, so
	// it shares the OpenAI-compatible client and needs no API key.
	ProviderOllama Provider = "ollama"
)

// String returns the string representation of a Provider.
func (p Provider) String() string {
	return string(p)
}

// ParseProvider maps a user-supplied provider name to a Provider.
func ParseProvider(s string) (Provider, error) {
	switch Provider(s) {
	case ProviderOpenAI, ProviderAnthropic, ProviderOllama:
		return Provider(s), nil
	default:
		return "", fmt.Errorf("unknown llm provider %q (expected openai, anthropic, or ollama)", s)
	}
}

// Defaults for recommendation calls: a small, cheap model, low temperature,
// and short completions.
const (
	DefaultOpenAIEndpoint = "https://api.openai.com/v1"
	DefaultOllamaEndpoint = "http://localhost:11434/v1"
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultTemperature    = 0.3
	DefaultMaxTokens      = 300
	DefaultTimeout        = 30 * time.Second
	DefaultMaxConcurrent  = 4
)

// Config holds configuration for creating a recommendation client.
type Config struct {
	Provider    Provider      // openai, anthropic, or ollama
	Endpoint    string        // Base URL; defaulted per provider when empty
	Model       string        // Model name; defaulted for openai only
	APIKey      string        // Required for hosted providers, unused by ollama
	Temperature float64       // Sampling temperature
	MaxTokens   int           // Completion token cap
	Timeout     time.Duration // Per-call timeout, enforced by the HTTP client
	// MaxConcurrent bounds parallel calls in BatchRecommend.
	MaxConcurrent int
}

// withDefaults returns a copy of the config with per-provider defaults
// filled in for any zero field.
func (c Config) withDefaults() Config {
	if c.Provider == "" {
		c.Provider = ProviderOpenAI
	}
	if c.Endpoint == "" {
		switch c.Provider {
		case ProviderOpenAI:
			c.Endpoint = DefaultOpenAIEndpoint
		case ProviderOllama:
			c.Endpoint = DefaultOllamaEndpoint
		}
	}
	if c.Model == "" && c.Provider == ProviderOpenAI {
		c.Model = DefaultOpenAIModel
	}
	if c.Temperature == 0 {
		c.Temperature = DefaultTemperature
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = DefaultMaxTokens
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxConcurrent == 0 {
		c.MaxConcurrent = DefaultMaxConcurrent
	}
	return c
}

// validate rejects configs the factory cannot build a client from. Called
// after withDefaults, so only genuinely missing values fail.
func (c Config) validate() error {
	switch c.Provider {
	case ProviderOpenAI, ProviderAnthropic:
		if c.APIKey == "" {
			return fmt.Errorf("%s provider requires an api key", c.Provider)
		}
	case ProviderOllama:
		// Local server, no key.
	default:
		return fmt.Errorf("unknown llm provider %q", c.Provider)
	}
	if c.Model == "" {
		return fmt.Errorf("%s provider requires a model name", c.Provider)
	}
	return nil
}
