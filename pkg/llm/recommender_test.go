package llm

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/querydoctor/querydoctor/pkg/prompts"
	"github.com/querydoctor/querydoctor/pkg/retry"
)

// fastRetryConfig keeps retry delays out of test runtime.
func fastRetryConfig(maxRetries int) *retry.Config {
	return &retry.Config{
		MaxRetries:       maxRetries,
		InitialDelay:     time.Millisecond,
		MaxDelay:         5 * time.Millisecond,
		Multiplier:       2.0,
		JitterFactor:     0,
		MaxSameErrorType: 10,
	}
}

func TestClient_Recommend_Success(t *testing.T) {
	var gotPrompt, gotSystem string
	var gotTemperature float64
	var gotMaxTokens int

	mock := NewMockChatClient()
	mock.GenerateResponseFunc = func(ctx context.Context, prompt, systemMessage string, temperature float64, maxTokens int) (*GenerateResponseResult, error) {
		gotPrompt = prompt
		gotSystem = systemMessage
		gotTemperature = temperature
		gotMaxTokens = maxTokens
		return &GenerateResponseResult{Content: "  Add an index on user_id.  "}, nil
	}

	client := newClientWithChat(mock, fastRetryConfig(0), zap.NewNop())

	text, err := client.Recommend(context.Background(), RecommendationRequest{
		Query:         "SELECT * FROM users WHERE id = 42",
		AvgDurationMS: 150.5,
		Frequency:     12,
	})
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	if text != "Add an index on user_id." {
		t.Errorf("expected trimmed recommendation, got %q", text)
	}

	if !strings.Contains(gotPrompt, "SELECT * FROM users WHERE id = 42") {
		t.Errorf("prompt should contain the query, got: %s", gotPrompt)
	}
	if !strings.Contains(gotPrompt, "Average Duration: 150.50 ms") {
		t.Errorf("prompt should contain the average duration, got: %s", gotPrompt)
	}
	if gotSystem != prompts.RecommendationSystemMessage {
		t.Errorf("unexpected system message: %q", gotSystem)
	}
	if gotTemperature != DefaultTemperature {
		t.Errorf("expected temperature %v, got %v", DefaultTemperature, gotTemperature)
	}
	if gotMaxTokens != DefaultMaxTokens {
		t.Errorf("expected max tokens %d, got %d", DefaultMaxTokens, gotMaxTokens)
	}
}

func TestClient_Recommend_NonRetryableFailsImmediately(t *testing.T) {
	mock := NewMockChatClient()
	mock.GenerateResponseFunc = func(ctx context.Context, prompt, systemMessage string, temperature float64, maxTokens int) (*GenerateResponseResult, error) {
		return nil, NewError(ErrorTypeAuth, "authentication failed", false, nil)
	}

	client := newClientWithChat(mock, fastRetryConfig(3), zap.NewNop())

	_, err := client.Recommend(context.Background(), RecommendationRequest{Query: "SELECT 1"})
	if err == nil {
		t.Fatal("expected error for auth failure")
	}
	if GetErrorType(err) != ErrorTypeAuth {
		t.Errorf("expected auth error type, got %s", GetErrorType(err))
	}
	if mock.Calls() != 1 {
		t.Errorf("non-retryable error should not be retried, got %d calls", mock.Calls())
	}
}

func TestClient_Recommend_RetriesTransientError(t *testing.T) {
	mock := NewMockChatClient()
	mock.GenerateResponseFunc = func(ctx context.Context, prompt, systemMessage string, temperature float64, maxTokens int) (*GenerateResponseResult, error) {
		if mock.Calls() == 1 {
			return nil, NewError(ErrorTypeEndpoint, "request timeout", true, nil)
		}
		return &GenerateResponseResult{Content: "Rewrite the join order."}, nil
	}

	client := newClientWithChat(mock, fastRetryConfig(3), zap.NewNop())

	text, err := client.Recommend(context.Background(), RecommendationRequest{Query: "SELECT 1"})
	if err != nil {
		t.Fatalf("expected retry to recover, got: %v", err)
	}
	if text != "Rewrite the join order." {
		t.Errorf("unexpected recommendation: %q", text)
	}
	if mock.Calls() != 2 {
		t.Errorf("expected 2 calls (failure then success), got %d", mock.Calls())
	}
}

func TestClient_Recommend_EmptyContentIsError(t *testing.T) {
	mock := NewMockChatClient()
	mock.GenerateResponseFunc = func(ctx context.Context, prompt, systemMessage string, temperature float64, maxTokens int) (*GenerateResponseResult, error) {
		return &GenerateResponseResult{Content: "   "}, nil
	}

	client := newClientWithChat(mock, fastRetryConfig(3), zap.NewNop())

	_, err := client.Recommend(context.Background(), RecommendationRequest{Query: "SELECT 1"})
	if err == nil {
		t.Fatal("expected error for empty recommendation")
	}
	if !strings.Contains(err.Error(), "empty recommendation") {
		t.Errorf("expected empty recommendation error, got: %v", err)
	}
}

func TestClient_BatchRecommend_PreservesOrder(t *testing.T) {
	mock := NewMockChatClient()
	mock.GenerateResponseFunc = func(ctx context.Context, prompt, systemMessage string, temperature float64, maxTokens int) (*GenerateResponseResult, error) {
		// Vary latency so completion order differs from submission order.
		for i := 0; i < 5; i++ {
			marker := fmt.Sprintf("FROM table%d", i)
			if strings.Contains(prompt, marker) {
				time.Sleep(time.Duration(5-i) * time.Millisecond)
				return &GenerateResponseResult{Content: fmt.Sprintf("advice %d", i)}, nil
			}
		}
		return nil, NewError(ErrorTypeUnknown, "unexpected prompt", false, nil)
	}

	client := newClientWithChat(mock, fastRetryConfig(0), zap.NewNop())

	reqs := make([]RecommendationRequest, 5)
	for i := range reqs {
		reqs[i] = RecommendationRequest{Query: fmt.Sprintf("SELECT * FROM table%d", i)}
	}

	out := client.BatchRecommend(context.Background(), reqs)
	if len(out) != 5 {
		t.Fatalf("expected 5 recommendations, got %d", len(out))
	}
	for i, text := range out {
		expected := fmt.Sprintf("advice %d", i)
		if text != expected {
			t.Errorf("out[%d] = %q, expected %q", i, text, expected)
		}
	}
}

func TestClient_BatchRecommend_DegradesFailuresToPlaceholders(t *testing.T) {
	mock := NewMockChatClient()
	mock.GenerateResponseFunc = func(ctx context.Context, prompt, systemMessage string, temperature float64, maxTokens int) (*GenerateResponseResult, error) {
		if strings.Contains(prompt, "FROM orders") {
			return nil, NewError(ErrorTypeAuth, "authentication failed", false, nil)
		}
		return &GenerateResponseResult{Content: "Add an index."}, nil
	}

	client := newClientWithChat(mock, fastRetryConfig(0), zap.NewNop())

	reqs := []RecommendationRequest{
		{Query: "SELECT * FROM users"},
		{Query: "SELECT * FROM orders"},
		{Query: "SELECT * FROM products"},
	}

	out := client.BatchRecommend(context.Background(), reqs)
	if len(out) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(out))
	}
	if out[0] != "Add an index." {
		t.Errorf("out[0] = %q, expected success text", out[0])
	}
	if !strings.HasPrefix(out[1], "Error generating recommendations:") {
		t.Errorf("out[1] should be a failure placeholder, got %q", out[1])
	}
	if out[2] != "Add an index." {
		t.Errorf("out[2] = %q, expected success text", out[2])
	}
}

func TestClient_BatchRecommend_Empty(t *testing.T) {
	client := newClientWithChat(NewMockChatClient(), fastRetryConfig(0), zap.NewNop())

	out := client.BatchRecommend(context.Background(), nil)
	if len(out) != 0 {
		t.Errorf("expected empty result, got %v", out)
	}
}

func TestClient_Recommend_CircuitBreakerFailsFast(t *testing.T) {
	mock := NewMockChatClient()
	mock.GenerateResponseFunc = func(ctx context.Context, prompt, systemMessage string, temperature float64, maxTokens int) (*GenerateResponseResult, error) {
		return nil, NewError(ErrorTypeAuth, "authentication failed", false, nil)
	}

	client := newClientWithChat(mock, fastRetryConfig(0), zap.NewNop())

	// Trip the breaker with consecutive failures.
	for i := 0; i < 5; i++ {
		if _, err := client.Recommend(context.Background(), RecommendationRequest{Query: "SELECT 1"}); err == nil {
			t.Fatal("expected failure")
		}
	}
	if mock.Calls() != 5 {
		t.Fatalf("expected 5 provider calls before the breaker trips, got %d", mock.Calls())
	}

	// Once open, calls are blocked before reaching the provider.
	_, err := client.Recommend(context.Background(), RecommendationRequest{Query: "SELECT 1"})
	if err == nil {
		t.Fatal("expected circuit breaker error")
	}
	if !strings.Contains(err.Error(), "circuit breaker open") {
		t.Errorf("expected circuit breaker error, got: %v", err)
	}
	if mock.Calls() != 5 {
		t.Errorf("open breaker should not call the provider, got %d calls", mock.Calls())
	}
}

func TestClient_Model(t *testing.T) {
	mock := NewMockChatClient()
	mock.Model = "test-model"

	client := newClientWithChat(mock, fastRetryConfig(0), zap.NewNop())
	if client.Model() != "test-model" {
		t.Errorf("expected model test-model, got %s", client.Model())
	}
}

func TestFailurePlaceholder_SanitizesSecrets(t *testing.T) {
	err := NewError(ErrorTypeAuth, "authentication failed", false,
		fmt.Errorf("Bearer sk-abc123def456ghi789jkl012mno345pqr678 rejected"))

	text := FailurePlaceholder(err)
	if !strings.HasPrefix(text, "Error generating recommendations:") {
		t.Errorf("unexpected placeholder prefix: %q", text)
	}
	if strings.Contains(text, "sk-abc123def456ghi789jkl012mno345pqr678") {
		t.Errorf("placeholder leaked an API key: %q", text)
	}
}
