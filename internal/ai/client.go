// Package ai wraps the OpenAI chat-completions API behind the narrow
// text-generation contract the services layer consumes. The client is an
// optional collaborator: construction is decided at startup, and callers
// hold a nil interface when no API key is configured.
package ai

import (
	"context"
	"fmt"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

const systemPrompt = "You are a helpful blog writer. Output markdown."

// Client generates markdown text with the OpenAI chat completions endpoint.
type Client struct {
	client openai.Client
	model  string
}

// New builds a Client for the given API key and model.
func New(apiKey, model string) *Client {
	return &Client{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Generate returns the model's completion for prompt, or an error when the
// backend fails or returns no choices.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
		MaxTokens: openai.Int(1200),
	})
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai completion: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}
