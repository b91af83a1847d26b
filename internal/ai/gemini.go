package ai

import (
	"context"

	"github.com/cockroachdb/errors"
	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

// GeminiBackend submits refinement requests to Google's Gemini API.
type GeminiBackend struct {
	client *genai.Client
	model  string
}

// NewGeminiBackend creates a Gemini client. baseURL is only set for tests
// and proxies; empty means the public endpoint.
func NewGeminiBackend(ctx context.Context, apiKey, model, baseURL string) (*GeminiBackend, error) {
	if apiKey == "" {
		return nil, ErrMissingCredential
	}
	if model == "" {
		model = defaultGeminiModel
	}

	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create GenAI client")
	}
	return &GeminiBackend{client: client, model: model}, nil
}

// Submit implements Backend.
func (b *GeminiBackend) Submit(ctx context.Context, text, persona string, temperature float32) (string, error) {
	resp, err := b.client.Models.GenerateContent(ctx,
		b.model,
		genai.Text(text),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(persona, genai.RoleUser),
			Temperature:       genai.Ptr(temperature),
		},
	)
	if err != nil {
		return "", errors.Wrap(err, "gemini generate content")
	}
	return resp.Text(), nil
}
