// Package llm wraps the external language-model collaborator. The model is
// a black box: one text prompt in, one text response out. Everything about
// recovering structure from that response lives in the intent package.
package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// Model is the collaborator boundary the intent acquirer depends on.
type Model interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Client talks to an OpenAI-compatible chat completion endpoint. A local
// ollama server exposes one at /v1; no real API key is needed there.
type Client struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

// New creates a model client. baseURL selects the inference server and
// timeout bounds every call; on expiry the caller falls back locally rather
// than retrying.
func New(baseURL, model string, timeout time.Duration) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey("local"),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &Client{
		client:  openai.NewClient(opts...),
		model:   model,
		timeout: timeout,
	}
}

// Complete sends the prompt synchronously and returns the raw response text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Opt[float64](0.0),
	})
	if err != nil {
		return "", fmt.Errorf("model request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}
