package ai

import (
	"context"

	"nabidh-access-engine/internal/domain/ports/adapter"
)

var _ adapter.AnalysisProvider = (*NoopProvider)(nil)

// NoopProvider echoes the prompt back. Used in dev mode and tests so the
// engine can run without a provider key.
type NoopProvider struct{}

func NewNoopProvider() *NoopProvider { return &NoopProvider{} }

func (n *NoopProvider) Name() string { return "noop" }

func (n *NoopProvider) Analyze(_ context.Context, prompt string) (*adapter.AnalysisResult, error) {
	return &adapter.AnalysisResult{Provider: n.Name(), Model: "noop", Content: "echo: " + prompt}, nil
}
