package llm

import (
	"context"
	"sync"
)

// MockChatClient is a configurable mock for testing recommendation calls.
// Set the function field to control behavior in tests. Call tracking is
// safe under the worker pool's concurrency.
type MockChatClient struct {
	// GenerateResponseFunc, when set, handles each GenerateResponse call.
	// Left nil, the mock answers with an empty result and no error.
	GenerateResponseFunc func(ctx context.Context, prompt string, systemMessage string, temperature float64, maxTokens int) (*GenerateResponseResult, error)

	// Model and Endpoint feed GetModel and GetEndpoint; empty values fall
	// back to "mock-model" and "http://mock-endpoint".
	Model    string
	Endpoint string

	mu    sync.Mutex
	calls int
}

// NewMockChatClient creates a new mock with sensible defaults.
func NewMockChatClient() *MockChatClient {
	return &MockChatClient{
		Model:    "mock-model",
		Endpoint: "http://mock-endpoint",
	}
}

// GenerateResponse implements ChatClient.
func (m *MockChatClient) GenerateResponse(ctx context.Context, prompt string, systemMessage string, temperature float64, maxTokens int) (*GenerateResponseResult, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.GenerateResponseFunc != nil {
		return m.GenerateResponseFunc(ctx, prompt, systemMessage, temperature, maxTokens)
	}
	return &GenerateResponseResult{}, nil
}

// Calls returns how many times GenerateResponse was invoked.
func (m *MockChatClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// GetModel implements ChatClient.
func (m *MockChatClient) GetModel() string {
	if m.Model == "" {
		return "mock-model"
	}
	return m.Model
}

// GetEndpoint implements ChatClient.
func (m *MockChatClient) GetEndpoint() string {
	if m.Endpoint == "" {
		return "http://mock-endpoint"
	}
	return m.Endpoint
}

// Ensure MockChatClient implements ChatClient at compile time.
var _ ChatClient = (*MockChatClient)(nil)

// MockRecommender is a configurable mock for testing code that consumes
// recommendations. If RecommendFunc is nil, it returns a canned string.
// BatchRecommend runs sequentially with the same per-item degradation as
// the real client.
type MockRecommender struct {
	RecommendFunc func(ctx context.Context, req RecommendationRequest) (string, error)

	mu       sync.Mutex
	requests []RecommendationRequest
}

// Recommend implements Recommender.
func (m *MockRecommender) Recommend(ctx context.Context, req RecommendationRequest) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.RecommendFunc != nil {
		return m.RecommendFunc(ctx, req)
	}
	return "Add an index on the filtered column.", nil
}

// BatchRecommend implements BatchRecommender.
func (m *MockRecommender) BatchRecommend(ctx context.Context, reqs []RecommendationRequest) []string {
	out := make([]string, len(reqs))
	for i, req := range reqs {
		text, err := m.Recommend(ctx, req)
		if err != nil {
			out[i] = FailurePlaceholder(err)
			continue
		}
		out[i] = text
	}
	return out
}

// Calls returns how many times Recommend was invoked.
func (m *MockRecommender) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// Requests returns a copy of the recorded requests in call order.
func (m *MockRecommender) Requests() []RecommendationRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RecommendationRequest(nil), m.requests...)
}

// Ensure MockRecommender implements BatchRecommender at compile time.
var _ BatchRecommender = (*MockRecommender)(nil)
