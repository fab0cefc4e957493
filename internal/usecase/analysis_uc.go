// File: internal/usecase/analysis_uc.go
package usecase

import (
	"context"

	"github.com/rs/zerolog"

	"nabidh-access-engine/internal/domain/ports/adapter"
)

// AnalysisUseCase gates the opaque analysis capability. Every call
// re-verifies the submitted code against the authoritative record first, so
// a ban or freeze applied mid-session is caught before any billable work.
type AnalysisUseCase struct {
	verifier Verifier
	provider adapter.AnalysisProvider
	log      *zerolog.Logger
}

func NewAnalysisUseCase(verifier Verifier, provider adapter.AnalysisProvider, logger *zerolog.Logger) *AnalysisUseCase {
	l := logger.With().Str("component", "AnalysisUC").Logger()
	return &AnalysisUseCase{verifier: verifier, provider: provider, log: &l}
}

func (uc *AnalysisUseCase) Analyze(ctx context.Context, code, prompt string) (*adapter.AnalysisResult, error) {
	if _, err := uc.verifier.VerifyAndActivate(ctx, code); err != nil {
		return nil, err
	}
	res, err := uc.provider.Analyze(ctx, prompt)
	if err != nil {
		uc.log.Error().Err(err).Str("provider", uc.provider.Name()).Msg("analysis call failed")
		return nil, err
	}
	return res, nil
}
