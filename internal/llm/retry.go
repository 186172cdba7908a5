package llm

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sashabaranov/go-openai"

	"github.com/comigor/econlux-go/internal/logger"
)

// Retrier wraps a Client with a bounded exponential backoff. It is used by
// single-shot generation paths only.
type Retrier struct {
	Client    Client
	Attempts  uint64
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// NewRetrier returns a Retrier with 2s..10s exponential delays.
func NewRetrier(c Client, attempts uint64) *Retrier {
	if attempts == 0 {
		attempts = 1
	}
	return &Retrier{Client: c, Attempts: attempts, BaseDelay: 2 * time.Second, MaxDelay: 10 * time.Second}
}

// CreateChatCompletion calls the underlying client until it succeeds, the
// attempts are used up, the context ends, or the error is not retryable.
func (r *Retrier) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	var resp openai.ChatCompletionResponse
	attempt := 0
	op := func() error {
		attempt++
		var err error
		resp, err = r.Client.CreateChatCompletion(ctx, req)
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return backoff.Permanent(err)
		}
		logger.L.Warn("llm call failed, retrying", "attempt", attempt, "error", err)
		return err
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = r.BaseDelay
	eb.MaxInterval = r.MaxDelay
	eb.MaxElapsedTime = 0
	eb.RandomizationFactor = 0

	b := backoff.WithContext(backoff.WithMaxRetries(eb, r.Attempts-1), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return openai.ChatCompletionResponse{}, err
	}
	return resp, nil
}

// retryable reports whether err looks transient: network failures, 429 and 5xx.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= http.StatusInternalServerError
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= http.StatusInternalServerError
	}
	return true
}
