// Package llm provides the recommendation generator: provider-switchable
// chat clients (OpenAI, Anthropic, Ollama), structured error classification,
// a circuit breaker, and a bounded worker pool for batch calls.
package llm

import (
	"context"
)

// GenerateResponseResult contains the response content and usage statistics.
type GenerateResponseResult struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// ChatClient defines the provider-neutral interface for chat completions.
// Implementations exist for OpenAI-compatible endpoints (hosted OpenAI and
// local Ollama) and for Anthropic.
// Use this interface for dependency injection to enable mocking in tests.
type ChatClient interface {
	// GenerateResponse generates a chat completion response with usage stats.
	GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64, maxTokens int) (*GenerateResponseResult, error)

	// GetModel returns the configured model name.
	GetModel() string

	// GetEndpoint returns the configured endpoint.
	GetEndpoint() string
}

// RecommendationRequest describes one slow-query pattern to the recommender.
// Query is the raw first-seen example text, not the normalized form: literals
// and casing give the model context that placeholders would hide.
type RecommendationRequest struct {
	Query         string
	AvgDurationMS float64
	MaxDurationMS float64
	Frequency     int
	ImpactScore   float64
}

// Recommender produces an optimization recommendation for a query pattern.
type Recommender interface {
	Recommend(ctx context.Context, req RecommendationRequest) (string, error)
}

// BatchRecommender generates advice for a whole ranked batch. BatchRecommend
// never fails: per-request errors degrade to explanatory placeholder strings,
// and the returned slice is aligned with reqs by index.
type BatchRecommender interface {
	Recommender
	BatchRecommend(ctx context.Context, reqs []RecommendationRequest) []string
}
