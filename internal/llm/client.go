package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"time"
)

// Answer is a model reply with token usage as reported by the provider.
type Answer struct {
	Content      string `json:"content"`
	Model        string `json:"model"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// Client sends a single user prompt to a model.
type Client interface {
	Send(ctx context.Context, prompt string) (*Answer, error)
	Provider() Provider
	Model() string
}

// ClientConfig holds the settings shared by every provider client.
type ClientConfig struct {
	APIKey      string
	Model       string
	BaseURL     string // empty uses the provider's public endpoint
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

// IsRetryable checks if an error is worth retrying.
func IsRetryable(err error) bool {
	var retryErr *RetryableError
	return errors.As(err, &retryErr)
}

const MaxRetries = 3

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int63n(int64(base) / 2))
	return base + jitter
}

// backoff is swapped out in tests.
var backoff = Backoff

// SendWithRetry sends prompt, retrying rate limits and server errors up to
// MaxRetries attempts. Latency of each attempt is recorded in stats when
// it is non-nil.
func SendWithRetry(ctx context.Context, c Client, prompt string, stats *LatencyStats, log *slog.Logger) (*Answer, error) {
	var lastErr error
	for attempt := 0; attempt < MaxRetries; attempt++ {
		start := time.Now()
		ans, err := c.Send(ctx, prompt)
		elapsed := time.Since(start).Milliseconds()
		if err == nil {
			if stats != nil {
				stats.Record(elapsed)
			}
			return ans, nil
		}
		if stats != nil {
			stats.RecordFailure(elapsed)
		}
		lastErr = err
		if !IsRetryable(err) || attempt == MaxRetries-1 {
			break
		}
		if log != nil {
			log.Warn("retryable model error", "provider", c.Provider(), "attempt", attempt, "error", err)
		}
		select {
		case <-time.After(backoff(attempt)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("%s: %w", c.Provider(), lastErr)
}

// checkStatus maps HTTP failures to errors. 429 and 5xx are retryable.
func checkStatus(provider Provider, status int, body []byte) error {
	if status == http.StatusTooManyRequests || status >= 500 {
		return &RetryableError{StatusCode: status, Message: string(body)}
	}
	if status != http.StatusOK {
		return fmt.Errorf("%s api status %d: %s", provider, status, truncate(string(body), 500))
	}
	return nil
}

func readBody(r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
