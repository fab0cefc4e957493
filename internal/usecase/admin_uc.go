// File: internal/usecase/admin_uc.go
package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"nabidh-access-engine/internal/domain"
	"nabidh-access-engine/internal/domain/model"
	"nabidh-access-engine/internal/domain/ports/repository"
)

const defaultAuditLimit = 100

// AdminUseCase exposes the administrative transitions. Every mutation and
// its audit entry are committed in one transaction, so a crash can never
// leave a mutation without its trail.
type AdminUseCase struct {
	records repository.AccessRecordRepository
	audit   repository.AuditLogRepository
	tm      repository.TransactionManager
	log     *zerolog.Logger
}

func NewAdminUseCase(
	records repository.AccessRecordRepository,
	audit repository.AuditLogRepository,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *AdminUseCase {
	l := logger.With().Str("component", "AdminUC").Logger()
	return &AdminUseCase{records: records, audit: audit, tm: tm, log: &l}
}

// Ban forces status=banned unconditionally. Banned is sticky: nothing but an
// explicit Unban clears it.
func (uc *AdminUseCase) Ban(ctx context.Context, adminID, rawCode string) error {
	code := model.NormalizeCode(rawCode)
	return uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if _, err := uc.findForUpdate(ctx, tx, code); err != nil {
			return err
		}
		if err := uc.records.SetStatus(ctx, tx, code, model.StatusBanned); err != nil {
			return err
		}
		return uc.appendAudit(ctx, tx, adminID, model.AuditBanUser, code, "User banned")
	})
}

// Unban clears a ban. The resulting status is frozen when the expiry already
// passed: unbanning never resurrects an expired subscription as active.
func (uc *AdminUseCase) Unban(ctx context.Context, adminID, rawCode string) error {
	code := model.NormalizeCode(rawCode)
	return uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		rec, err := uc.findForUpdate(ctx, tx, code)
		if err != nil {
			return err
		}
		next := model.StatusActive
		if rec.Expired(time.Now()) {
			next = model.StatusFrozen
		}
		if err := uc.records.SetStatus(ctx, tx, code, next); err != nil {
			return err
		}
		return uc.appendAudit(ctx, tx, adminID, model.AuditUnbanUser, code, "User unbanned")
	})
}

// Renew recomputes the expiry from the record's immutable plan type and
// reactivates it. Renewing a banned record is rejected rather than treated
// as an implicit unban; the admin must unban first.
func (uc *AdminUseCase) Renew(ctx context.Context, adminID, rawCode string) error {
	code := model.NormalizeCode(rawCode)
	return uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		rec, err := uc.findForUpdate(ctx, tx, code)
		if err != nil {
			return err
		}
		if rec.Status == model.StatusBanned {
			return domain.ErrAccountBanned
		}
		expiry := model.PlanDuration(rec.PlanType, time.Now())
		if err := uc.records.Renew(ctx, tx, code, expiry); err != nil {
			return err
		}
		return uc.appendAudit(ctx, tx, adminID, model.AuditRenew, code, "Subscription renewed")
	})
}

// Delete removes the record permanently. The audit entry is the only trace
// that survives.
func (uc *AdminUseCase) Delete(ctx context.Context, adminID, rawCode string) error {
	code := model.NormalizeCode(rawCode)
	return uc.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if _, err := uc.findForUpdate(ctx, tx, code); err != nil {
			return err
		}
		if err := uc.records.Delete(ctx, tx, code); err != nil {
			return err
		}
		return uc.appendAudit(ctx, tx, adminID, model.AuditDeleteUser, code, "User deleted permanently")
	})
}

func (uc *AdminUseCase) ListAll(ctx context.Context) ([]*model.AccessRecord, error) {
	return uc.records.ListAll(ctx, repository.NoTX)
}

func (uc *AdminUseCase) AuditLog(ctx context.Context, limit int) ([]*model.AuditLogEntry, error) {
	if limit <= 0 || limit > 1000 {
		limit = defaultAuditLimit
	}
	return uc.audit.ListRecent(ctx, repository.NoTX, limit)
}

func (uc *AdminUseCase) findForUpdate(ctx context.Context, tx repository.Tx, code string) (*model.AccessRecord, error) {
	rec, err := uc.records.FindByCode(ctx, tx, code)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrCodeNotFound
		}
		return nil, err
	}
	return rec, nil
}

func (uc *AdminUseCase) appendAudit(ctx context.Context, tx repository.Tx, adminID string, action model.AuditAction, code, details string) error {
	return uc.audit.Append(ctx, tx, &model.AuditLogEntry{
		ID:         ulid.Make().String(),
		AdminID:    adminID,
		Action:     action,
		TargetCode: &code,
		Details:    details,
	})
}
