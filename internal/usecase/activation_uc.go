// File: internal/usecase/activation_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"nabidh-access-engine/internal/domain"
	"nabidh-access-engine/internal/domain/model"
	"nabidh-access-engine/internal/domain/ports/repository"
	"nabidh-access-engine/internal/infra/logging"
	"nabidh-access-engine/internal/infra/metrics"
)

// Verifier is the narrow view of the state machine consumed by the session
// guard and the analysis gate.
type Verifier interface {
	VerifyAndActivate(ctx context.Context, code string) (*model.AccessRecord, error)
}

// ActivationUseCase is the single canonical verify/activate state machine.
// Checks run in strict priority order: lookup, ban, first activation,
// expiry, frozen. Ban always wins regardless of expiry, and first-use
// activation precedes the expiry check because an unused code has no expiry
// yet.
type ActivationUseCase struct {
	records repository.AccessRecordRepository
	log     *zerolog.Logger
}

var _ Verifier = (*ActivationUseCase)(nil)

func NewActivationUseCase(records repository.AccessRecordRepository, logger *zerolog.Logger) *ActivationUseCase {
	l := logger.With().Str("component", "ActivationUC").Logger()
	return &ActivationUseCase{records: records, log: &l}
}

// VerifyAndActivate runs the full check sequence for one login/session
// check and returns the authoritative record on success.
func (uc *ActivationUseCase) VerifyAndActivate(ctx context.Context, rawCode string) (*model.AccessRecord, error) {
	code := model.NormalizeCode(rawCode)
	if !model.ValidCode(code) {
		metrics.IncVerify("code_not_found")
		return nil, domain.ErrCodeNotFound
	}

	rec, err := uc.records.FindByCode(ctx, repository.NoTX, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			metrics.IncVerify("code_not_found")
			return nil, domain.ErrCodeNotFound
		}
		metrics.IncVerify("store_error")
		return nil, err
	}

	if rec.Status == model.StatusBanned {
		metrics.IncVerify("banned")
		return nil, domain.ErrAccountBanned
	}

	now := time.Now()

	if !rec.IsUsed {
		expiry := model.PlanDuration(rec.PlanType, now)
		won, err := uc.records.Activate(ctx, repository.NoTX, code, expiry, now)
		if err != nil {
			metrics.IncVerify("store_error")
			return nil, err
		}
		if won {
			rec.IsUsed = true
			rec.Status = model.StatusActive
			rec.ExpiryDate = &expiry
			rec.LastLogin = &now
			metrics.IncVerify("activated")
			uc.log.Info().Str("code", logging.Redact(code)).Time("expiry", expiry).Msg("first activation")
			return rec, nil
		}
		// Lost the conditional update: a concurrent call flipped is_used
		// first, or an admin changed the status after our lookup. Re-read
		// and re-run the remaining checks against the fresh row.
		rec, err = uc.records.FindByCode(ctx, repository.NoTX, code)
		if err != nil {
			metrics.IncVerify("store_error")
			return nil, err
		}
		if rec.Status == model.StatusBanned {
			metrics.IncVerify("banned")
			return nil, domain.ErrAccountBanned
		}
	}

	if rec.Expired(now) {
		if rec.Status != model.StatusFrozen {
			// Auto-freeze persists even though this call fails.
			if _, err := uc.records.Freeze(ctx, repository.NoTX, code); err != nil {
				metrics.IncVerify("store_error")
				return nil, err
			}
			uc.log.Info().Str("code", logging.Redact(code)).Msg("auto-froze expired record")
		}
		metrics.IncVerify("expired")
		return nil, domain.ErrSubscriptionExpired
	}

	if rec.Status == model.StatusFrozen {
		metrics.IncVerify("frozen")
		return nil, domain.ErrAccountFrozen
	}

	if err := uc.records.TouchLastLogin(ctx, repository.NoTX, code, now); err != nil {
		metrics.IncVerify("store_error")
		return nil, err
	}
	rec.LastLogin = &now
	metrics.IncVerify("ok")
	return rec, nil
}
