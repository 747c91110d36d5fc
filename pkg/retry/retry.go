// Package retry wraps provider calls in exponential backoff with jitter.
// It distinguishes transient failures, which are worth repeating, from
// permanent ones such as bad credentials, which fail fast.
package retry

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// Config defines the retry budget and backoff curve.
type Config struct {
	MaxRetries       int
	InitialDelay     time.Duration
	MaxDelay         time.Duration
	Multiplier       float64
	JitterFactor     float64 // 0.0-1.0; spreads concurrent retries apart
	MaxSameErrorType int     // consecutive same-category failures before giving up early; 0 disables
}

// DefaultConfig suits interactive analysis runs: up to 3 retries starting
// at 100ms, doubling to a 5s ceiling, with 10% jitter.
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:       3,
		InitialDelay:     100 * time.Millisecond,
		MaxDelay:         5 * time.Second,
		Multiplier:       2.0,
		JitterFactor:     0.1,
		MaxSameErrorType: 5,
	}
}

// backoff produces the growing pause between attempts.
type backoff struct {
	cfg  *Config
	next time.Duration
}

func newBackoff(cfg *Config) *backoff {
	return &backoff{cfg: cfg, next: cfg.InitialDelay}
}

// wait sleeps for the current delay, jittered, then advances the curve.
// It returns early with ctx.Err() if the context is cancelled mid-sleep.
func (b *backoff) wait(ctx context.Context) error {
	d := b.next
	if f := b.cfg.JitterFactor; f > 0 {
		d = time.Duration(float64(d) * (1 + f*(2*rand.Float64()-1)))
	}
	b.next = time.Duration(float64(b.next) * b.cfg.Multiplier)
	if b.next > b.cfg.MaxDelay {
		b.next = b.cfg.MaxDelay
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do runs fn until it succeeds or the retry budget is spent, returning the
// last error unchanged. Cancellation during a pause returns ctx.Err().
func Do(ctx context.Context, cfg *Config, fn func() error) error {
	_, err := DoWithResult(ctx, cfg, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// DoWithResult is Do for functions that produce a value. On failure it
// returns the last attempt's value alongside the error, so callers can
// inspect partial responses.
func DoWithResult[T any](ctx context.Context, cfg *Config, fn func() (T, error)) (T, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	b := newBackoff(cfg)
	var (
		value T
		err   error
	)
	for attempt := 0; ; attempt++ {
		value, err = fn()
		if err == nil || attempt == cfg.MaxRetries {
			return value, err
		}
		if werr := b.wait(ctx); werr != nil {
			return value, werr
		}
	}
}

// RetryableError lets an error declare its own retryability instead of
// relying on message matching. Provider errors implement it.
type RetryableError interface {
	error
	IsRetryable() bool
}

// retryablePatterns are message fragments that mark an error as transient
// when it does not implement RetryableError. Matching is case-insensitive.
var retryablePatterns = []string{
	// network
	"connection refused",
	"connection reset",
	"broken pipe",
	"no such host",
	"timeout",
	"timed out",
	"temporary failure",
	"i/o timeout",
	"network is unreachable",
	"connection timed out",
	// HTTP status codes
	"429",
	"500",
	"502",
	"503",
	"504",
	// provider throttling
	"rate limit",
	"service busy",
	"service unavailable",
	"too many requests",
	// local model servers under load
	"model is overloaded",
	"server is busy",
}

// IsRetryable reports whether an error is worth another attempt. An error
// implementing RetryableError decides for itself; anything else is matched
// against retryablePatterns.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if r, ok := err.(RetryableError); ok {
		return r.IsRetryable()
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range retryablePatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

// errorCategories maps message fragments to a coarse failure category, in
// precedence order. Used to notice when retries keep hitting the same wall.
var errorCategories = []struct {
	name    string
	needles []string
}{
	{"503", []string{"503"}},
	{"502", []string{"502"}},
	{"504", []string{"504"}},
	{"500", []string{"500"}},
	{"429", []string{"429"}},
	{"404", []string{"404"}},
	{"403", []string{"403"}},
	{"401", []string{"401"}},
	{"400", []string{"400"}},
	{"connection", []string{"connection refused", "connection reset"}},
	{"timeout", []string{"timeout", "timed out"}},
	{"broken_pipe", []string{"broken pipe"}},
	{"rate_limit", []string{"rate limit", "too many requests"}},
}

func errorCategory(err error) string {
	if err == nil {
		return "nil"
	}
	msg := strings.ToLower(err.Error())
	for _, c := range errorCategories {
		for _, needle := range c.needles {
			if strings.Contains(msg, needle) {
				return c.name
			}
		}
	}
	return "unknown"
}

// errorStreak counts consecutive failures of the same category. A provider
// answering 503 on every attempt is down, not flaky; once the streak hits
// the limit the caller should stop burning its retry budget.
type errorStreak struct {
	limit int
	kind  string
	count int
}

// observe records one failure. It returns a terminal error when the streak
// reaches the limit, wrapping the latest failure.
func (s *errorStreak) observe(err error) error {
	kind := errorCategory(err)
	if kind != s.kind {
		s.kind, s.count = kind, 1
		return nil
	}
	s.count++
	if s.limit > 0 && s.count >= s.limit {
		return fmt.Errorf("giving up after %d consecutive %s errors: %w", s.count, kind, err)
	}
	return nil
}

// DoIfRetryable runs fn with backoff, but only while the failures look
// transient. Permanent errors return immediately without retrying, and a
// streak of same-category failures ends the attempt early.
func DoIfRetryable(ctx context.Context, cfg *Config, fn func() error) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	b := newBackoff(cfg)
	streak := errorStreak{limit: cfg.MaxSameErrorType}
	for attempt := 0; ; attempt++ {
		err := fn()
		if err == nil || !IsRetryable(err) {
			return err
		}
		if serr := streak.observe(err); serr != nil {
			return serr
		}
		if attempt == cfg.MaxRetries {
			return err
		}
		if werr := b.wait(ctx); werr != nil {
			return werr
		}
	}
}
