package llm

import (
	"fmt"

	"go.uber.org/zap"
)

// NewChatClient builds the provider-specific chat client for cfg. Defaults
// are applied first, so callers only set what differs from them. Returns
// the ChatClient interface to enable dependency injection of mocks.
func NewChatClient(cfg *Config, logger *zap.Logger) (ChatClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	resolved := cfg.withDefaults()
	if err := resolved.validate(); err != nil {
		return nil, fmt.Errorf("llm config: %w", err)
	}

	switch resolved.Provider {
	case ProviderOpenAI, ProviderOllama:
		client, err := NewOpenAIClient(&resolved, logger)
		if err != nil {
			return nil, fmt.Errorf("create %s client: %w", resolved.Provider, err)
		}
		return client, nil
	case ProviderAnthropic:
		client, err := NewAnthropicClient(&resolved, logger)
		if err != nil {
			return nil, fmt.Errorf("create anthropic client: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", resolved.Provider)
	}
}
