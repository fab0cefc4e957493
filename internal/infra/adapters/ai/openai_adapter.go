// File: internal/infra/adapters/ai/openai_adapter.go
package ai

import (
	"context"
	"errors"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"nabidh-access-engine/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.AnalysisProvider = (*OpenAIAdapter)(nil)

// OpenAIAdapter is the Chat Completions fallback provider.
type OpenAIAdapter struct {
	client openai.Client
	model  string
}

func NewOpenAIAdapter(apiKey, model string) (*OpenAIAdapter, error) {
	if apiKey == "" {
		return nil, errors.New("openai: empty api key")
	}
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &OpenAIAdapter{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}, nil
}

func (o *OpenAIAdapter) Name() string { return "openai" }

func (o *OpenAIAdapter) Analyze(ctx context.Context, prompt string) (*adapter.AnalysisResult, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai: empty response")
	}
	return &adapter.AnalysisResult{Provider: o.Name(), Model: o.model, Content: resp.Choices[0].Message.Content}, nil
}
