package ai

import (
	"context"

	"github.com/cockroachdb/errors"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIBackend submits refinement requests as OpenAI chat completions.
type OpenAIBackend struct {
	client *openai.Client
	model  string
}

func NewOpenAIBackend(apiKey, model, baseURL string) (*OpenAIBackend, error) {
	if apiKey == "" {
		return nil, ErrMissingCredential
	}
	if model == "" {
		model = openai.GPT4o
	}
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAIBackend{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}, nil
}

// Submit implements Backend.
func (b *OpenAIBackend) Submit(ctx context.Context, text, persona string, temperature float32) (string, error) {
	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: b.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: persona},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: temperature,
	})
	if err != nil {
		return "", errors.Wrap(err, "openai chat completion")
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
