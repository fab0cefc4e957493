package adapter

import "context"

// AnalysisResult is the provider's answer to one analysis request.
type AnalysisResult struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Content  string `json:"content"`
}

// AnalysisProvider is the port for the external AI analysis capability the
// engine gates. The engine treats it as opaque: text in, structured result
// out. Authorization happens before any call reaches an implementation.
type AnalysisProvider interface {
	Name() string
	Analyze(ctx context.Context, prompt string) (*AnalysisResult, error)
}
