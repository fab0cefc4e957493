// File: internal/usecase/generator_uc.go
package usecase

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"nabidh-access-engine/internal/domain"
	"nabidh-access-engine/internal/domain/model"
	"nabidh-access-engine/internal/domain/ports/repository"
	"nabidh-access-engine/internal/infra/logging"
	"nabidh-access-engine/internal/infra/metrics"
)

// DefaultMaxAttempts bounds the insert-retry loop. Exceeding it means the
// code space is effectively saturated, which is a fatal condition, not
// something to paper over with a duplicate or empty result.
const DefaultMaxAttempts = 5

// GeneratorUseCase issues unique access codes. Uniqueness is enforced by the
// store's constraint, not application logic: generation races are expected
// and recovered by regenerating, never prevented up front.
type GeneratorUseCase struct {
	records     repository.AccessRecordRepository
	audit       repository.AuditLogRepository
	tm          repository.TransactionManager
	maxAttempts int
	log         *zerolog.Logger
}

func NewGeneratorUseCase(
	records repository.AccessRecordRepository,
	audit repository.AuditLogRepository,
	tm repository.TransactionManager,
	maxAttempts int,
	logger *zerolog.Logger,
) *GeneratorUseCase {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	l := logger.With().Str("component", "GeneratorUC").Logger()
	return &GeneratorUseCase{records: records, audit: audit, tm: tm, maxAttempts: maxAttempts, log: &l}
}

// Generate creates a record for a new code and its audit entry in one
// transaction. On a uniqueness violation the whole transaction is retried
// with a fresh candidate, up to the attempt bound.
func (uc *GeneratorUseCase) Generate(ctx context.Context, adminID, ownerName string, plan model.PlanType) (*model.AccessRecord, error) {
	ownerName = strings.TrimSpace(ownerName)

	for attempt := 1; attempt <= uc.maxAttempts; attempt++ {
		rec, err := model.NewAccessRecord(randomCode(), ownerName, plan)
		if err != nil {
			return nil, err
		}

		err = uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			if err := uc.records.Insert(ctx, tx, rec); err != nil {
				return err
			}
			code := rec.Code
			return uc.audit.Append(ctx, tx, &model.AuditLogEntry{
				ID:         ulid.Make().String(),
				AdminID:    adminID,
				Action:     model.AuditGenerateCode,
				TargetCode: &code,
				Details:    "Generated " + string(plan) + " code for " + ownerName,
			})
		})
		if err == nil {
			metrics.IncCodeGenerated(string(plan))
			uc.log.Info().Str("code", logging.Redact(rec.Code)).Str("plan", string(plan)).Msg("code generated")
			return rec, nil
		}
		if errors.Is(err, domain.ErrDuplicateCode) {
			metrics.IncGenerationRetry()
			uc.log.Warn().Int("attempt", attempt).Msg("duplicate code, regenerating")
			continue
		}
		return nil, err
	}
	return nil, domain.ErrGenerationExhausted
}

// randomCode draws XXXX-XXXX-XXXX from the restricted alphabet. Codes are
// shared out-of-band and the verify endpoint is rate limited, so the global
// math/rand source is sufficient here.
func randomCode() string {
	var b strings.Builder
	b.Grow(model.CodeLen)
	for g := 0; g < model.CodeGroups; g++ {
		if g > 0 {
			b.WriteByte('-')
		}
		for i := 0; i < model.CodeGroupLen; i++ {
			b.WriteByte(model.CodeAlphabet[rand.IntN(len(model.CodeAlphabet))])
		}
	}
	return b.String()
}
