package llm

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/querydoctor/querydoctor/pkg/apperrors"
	"github.com/querydoctor/querydoctor/pkg/logging"
	"github.com/querydoctor/querydoctor/pkg/prompts"
	"github.com/querydoctor/querydoctor/pkg/retry"
)

// DisabledPlaceholder is recorded for every pattern when recommendation
// generation is turned off.
const DisabledPlaceholder = "LLM recommendations disabled."

// FailurePlaceholder converts a recommendation error into the explanatory
// text recorded in place of advice. Provider errors are sanitized so API
// keys never reach report output.
func FailurePlaceholder(err error) string {
	return fmt.Sprintf("Error generating recommendations: %s", logging.SanitizeError(err))
}

// Client generates optimization recommendations for slow-query patterns.
// It wraps a provider chat client with retry, a circuit breaker, and a
// bounded worker pool for batch calls. Construct one per process and pass
// it to the pipeline; there is no ambient shared client.
type Client struct {
	chat        ChatClient
	temperature float64
	maxTokens   int
	retryCfg    *retry.Config
	breaker     *CircuitBreaker
	pool        *WorkerPool
	logger      *zap.Logger
}

// NewClient builds a recommendation client for the configured provider.
func NewClient(cfg *Config, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	resolved := cfg.withDefaults()
	chat, err := NewChatClient(&resolved, logger)
	if err != nil {
		return nil, err
	}

	return &Client{
		chat:        chat,
		temperature: resolved.Temperature,
		maxTokens:   resolved.MaxTokens,
		retryCfg:    retry.DefaultConfig(),
		breaker:     NewCircuitBreaker(DefaultCircuitBreakerConfig()),
		pool:        NewWorkerPool(WorkerPoolConfig{MaxConcurrent: resolved.MaxConcurrent}, logger),
		logger:      logger.Named("recommender"),
	}, nil
}

// newClientWithChat wires a Client around an existing chat client. Used by
// tests to substitute a mock without a provider config.
func newClientWithChat(chat ChatClient, retryCfg *retry.Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if retryCfg == nil {
		retryCfg = retry.DefaultConfig()
	}
	return &Client{
		chat:        chat,
		temperature: DefaultTemperature,
		maxTokens:   DefaultMaxTokens,
		retryCfg:    retryCfg,
		breaker:     NewCircuitBreaker(DefaultCircuitBreakerConfig()),
		pool:        NewWorkerPool(WorkerPoolConfig{MaxConcurrent: DefaultMaxConcurrent}, logger),
		logger:      logger.Named("recommender"),
	}
}

// Recommend generates advice for one query pattern. Transient provider
// failures are retried with backoff; hard failures are returned to the
// caller, who converts them to placeholders. The circuit breaker blocks
// calls while the provider looks dead.
func (c *Client) Recommend(ctx context.Context, req RecommendationRequest) (string, error) {
	if allowed, err := c.breaker.Allow(); !allowed {
		return "", err
	}

	prompt := prompts.BuildRecommendationPrompt(prompts.QueryStats{
		Query:         req.Query,
		AvgDurationMS: req.AvgDurationMS,
		MaxDurationMS: req.MaxDurationMS,
		Frequency:     req.Frequency,
		ImpactScore:   req.ImpactScore,
	})

	var content string
	err := retry.DoIfRetryable(ctx, c.retryCfg, func() error {
		resp, err := c.chat.GenerateResponse(ctx, prompt, prompts.RecommendationSystemMessage, c.temperature, c.maxTokens)
		if err != nil {
			return err
		}
		content = strings.TrimSpace(resp.Content)
		return nil
	})
	if err != nil {
		c.breaker.RecordFailure()
		return "", err
	}
	if content == "" {
		c.breaker.RecordFailure()
		return "", NewError(ErrorTypeUnknown, "empty recommendation", false, nil)
	}

	c.breaker.RecordSuccess()
	return content, nil
}

// BatchRecommend generates one recommendation per request and returns them
// in request order. Calls run through the worker pool with bounded
// concurrency; a failed call degrades to its explanatory placeholder, so a
// single bad pattern never aborts the batch. Once the circuit breaker
// trips, the remaining calls fail fast to placeholders instead of hammering
// a dead endpoint.
func (c *Client) BatchRecommend(ctx context.Context, reqs []RecommendationRequest) []string {
	out := make([]string, len(reqs))
	if len(reqs) == 0 {
		return out
	}

	items := make([]WorkItem[string], len(reqs))
	for i := range reqs {
		req := reqs[i]
		items[i] = WorkItem[string]{
			ID: strconv.Itoa(i),
			Execute: func(ctx context.Context) (string, error) {
				return c.Recommend(ctx, req)
			},
		}
	}

	total := len(items)
	results := Process(ctx, c.pool, items, func(completed, _ int) {
		c.logger.Info("generating recommendations",
			zap.Int("completed", completed),
			zap.Int("total", total))
	})

	for _, r := range results {
		idx, err := strconv.Atoi(r.ID)
		if err != nil || idx < 0 || idx >= len(out) {
			continue
		}
		if r.Err != nil {
			c.logger.Warn("recommendation degraded to placeholder",
				zap.Int("rank", idx+1),
				zap.Error(fmt.Errorf("%w: %s", apperrors.ErrCollaborator, logging.SanitizeError(r.Err))))
			out[idx] = FailurePlaceholder(r.Err)
			continue
		}
		out[idx] = r.Result
	}

	return out
}

// Model returns the underlying provider model name.
func (c *Client) Model() string {
	return c.chat.GetModel()
}

// Ensure Client implements BatchRecommender at compile time.
var _ BatchRecommender = (*Client)(nil)
