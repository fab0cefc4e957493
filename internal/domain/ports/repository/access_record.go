package repository

import (
	"context"
	"time"

	"nabidh-access-engine/internal/domain/model"
)

// AccessRecordRepository is the port for the access-record store. The store
// enforces code uniqueness with a constraint; Insert surfaces a violation as
// domain.ErrDuplicateCode so the generator can retry.
type AccessRecordRepository interface {
	// Insert creates a fresh record. Returns domain.ErrDuplicateCode when
	// the code already exists.
	Insert(ctx context.Context, tx Tx, rec *model.AccessRecord) error

	// FindByCode looks up a record by its canonical code.
	FindByCode(ctx context.Context, tx Tx, code string) (*model.AccessRecord, error)

	// Activate performs the one-time first-use transition as a single
	// conditional statement: it only touches a row still unused AND still
	// active, so a concurrent ban or freeze is never overwritten. Returns
	// false when another caller already won or the status changed.
	Activate(ctx context.Context, tx Tx, code string, expiry, now time.Time) (bool, error)

	// Freeze flips status to frozen unless it already is. Returns false
	// when the row was already frozen (idempotent auto-freeze).
	Freeze(ctx context.Context, tx Tx, code string) (bool, error)

	// SetStatus forces a status (ban/unban paths).
	SetStatus(ctx context.Context, tx Tx, code string, status model.AccountStatus) error

	// Renew sets a new expiry and reactivates the record.
	Renew(ctx context.Context, tx Tx, code string, expiry time.Time) error

	// TouchLastLogin records a successful verification instant.
	TouchLastLogin(ctx context.Context, tx Tx, code string, at time.Time) error

	// Delete removes the record permanently.
	Delete(ctx context.Context, tx Tx, code string) error

	// ListAll returns every record, newest first.
	ListAll(ctx context.Context, tx Tx) ([]*model.AccessRecord, error)

	// FreezeExpired flips every used, active record whose expiry passed to
	// frozen and reports how many rows changed. Used by the sweep worker.
	FreezeExpired(ctx context.Context, tx Tx, now time.Time) (int, error)
}
