package llm

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/require"
)

type flakyClient struct {
	errs  []error
	calls int
}

func (f *flakyClient) CreateChatCompletion(ctx context.Context, r openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.calls++
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return openai.ChatCompletionResponse{}, err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: "ok"}}},
	}, nil
}

func fastRetrier(c Client, attempts uint64) *Retrier {
	r := NewRetrier(c, attempts)
	r.BaseDelay = time.Millisecond
	r.MaxDelay = 2 * time.Millisecond
	return r
}

func TestRetrier_RecoversFromTransientErrors(t *testing.T) {
	fc := &flakyClient{errs: []error{errors.New("connection reset"), &openai.APIError{HTTPStatusCode: http.StatusBadGateway}}}
	resp, err := fastRetrier(fc, 3).CreateChatCompletion(context.Background(), openai.ChatCompletionRequest{})
	require.NoError(t, err)
	require.Equal(t, "ok", resp.Choices[0].Message.Content)
	require.Equal(t, 3, fc.calls)
}

func TestRetrier_GivesUpAfterAttempts(t *testing.T) {
	fc := &flakyClient{errs: []error{errors.New("a"), errors.New("b"), errors.New("c"), errors.New("d")}}
	_, err := fastRetrier(fc, 3).CreateChatCompletion(context.Background(), openai.ChatCompletionRequest{})
	require.Error(t, err)
	require.Equal(t, 3, fc.calls)
}

func TestRetrier_DoesNotRetryClientErrors(t *testing.T) {
	fc := &flakyClient{errs: []error{&openai.APIError{HTTPStatusCode: http.StatusUnauthorized, Message: "bad key"}}}
	_, err := fastRetrier(fc, 3).CreateChatCompletion(context.Background(), openai.ChatCompletionRequest{})
	require.Error(t, err)
	require.Equal(t, 1, fc.calls)
}
