// File: internal/infra/adapters/ai/gemini_adapter.go
package ai

import (
	"context"
	"errors"

	"google.golang.org/genai"

	"nabidh-access-engine/internal/domain/ports/adapter"
)

var _ adapter.AnalysisProvider = (*GeminiAdapter)(nil)

type GeminiAdapter struct {
	client *genai.Client
	model  string
}

// NewGeminiAdapter creates a Gemini provider using the official SDK.
func NewGeminiAdapter(ctx context.Context, apiKey, baseURL, model string) (*GeminiAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: baseURL,
		},
	})
	if err != nil {
		return nil, err
	}
	return &GeminiAdapter{client: c, model: model}, nil
}

func (g *GeminiAdapter) Name() string { return "gemini" }

func (g *GeminiAdapter) Analyze(ctx context.Context, prompt string) (*adapter.AnalysisResult, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return nil, err
	}
	text := resp.Text()
	if text == "" {
		return nil, errors.New("gemini: empty response")
	}
	return &adapter.AnalysisResult{Provider: g.Name(), Model: g.model, Content: text}, nil
}
