package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"nabidh-access-engine/internal/domain"
	"nabidh-access-engine/internal/domain/model"
	"nabidh-access-engine/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.AccessRecordRepository = (*accessRecordRepo)(nil)

type accessRecordRepo struct {
	pool *pgxpool.Pool
}

func NewAccessRecordRepo(pool *pgxpool.Pool) repository.AccessRecordRepository {
	return &accessRecordRepo{pool: pool}
}

const recordCols = `code, owner_name, plan_type, status, is_used, generated_at, expiry_date, last_login`

// Insert creates a fresh record. The primary key on code is the uniqueness
// guarantee; a 23505 comes back as ErrDuplicateCode for the generator loop.
func (r *accessRecordRepo) Insert(ctx context.Context, tx repository.Tx, rec *model.AccessRecord) error {
	const q = `
INSERT INTO access_records (code, owner_name, plan_type, status, is_used, generated_at, expiry_date, last_login)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
`
	_, err := execSQL(ctx, r.pool, tx, q,
		rec.Code, rec.OwnerName, rec.PlanType, rec.Status, rec.IsUsed, rec.GeneratedAt, rec.ExpiryDate, rec.LastLogin,
	)
	return mapWriteErr(err)
}

func (r *accessRecordRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.AccessRecord, error) {
	const q = `SELECT ` + recordCols + ` FROM access_records WHERE code = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, code)
	if err != nil {
		return nil, err
	}
	return scanRecord(row)
}

// Activate flips the one-time first-use transition. The WHERE clause keeps
// the transition single-winner under concurrent verification of the same
// code, and only touches a row still active: a ban or freeze landing between
// the caller's lookup and this statement must not be overwritten.
func (r *accessRecordRepo) Activate(ctx context.Context, tx repository.Tx, code string, expiry, now time.Time) (bool, error) {
	const q = `
UPDATE access_records
   SET is_used = TRUE, status = $2, expiry_date = $3, last_login = $4
 WHERE code = $1 AND is_used = FALSE AND status = $2;
`
	tag, err := execSQL(ctx, r.pool, tx, q, code, model.StatusActive, expiry, now)
	if err != nil {
		return false, mapWriteErr(err)
	}
	return tag.RowsAffected() == 1, nil
}

// Freeze is conditional so repeated expiry failures never re-write state.
func (r *accessRecordRepo) Freeze(ctx context.Context, tx repository.Tx, code string) (bool, error) {
	const q = `UPDATE access_records SET status = $2 WHERE code = $1 AND status <> $2;`
	tag, err := execSQL(ctx, r.pool, tx, q, code, model.StatusFrozen)
	if err != nil {
		return false, mapWriteErr(err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *accessRecordRepo) SetStatus(ctx context.Context, tx repository.Tx, code string, status model.AccountStatus) error {
	const q = `UPDATE access_records SET status = $2 WHERE code = $1;`
	tag, err := execSQL(ctx, r.pool, tx, q, code, status)
	if err != nil {
		return mapWriteErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *accessRecordRepo) Renew(ctx context.Context, tx repository.Tx, code string, expiry time.Time) error {
	const q = `UPDATE access_records SET expiry_date = $2, status = $3 WHERE code = $1;`
	tag, err := execSQL(ctx, r.pool, tx, q, code, expiry, model.StatusActive)
	if err != nil {
		return mapWriteErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *accessRecordRepo) TouchLastLogin(ctx context.Context, tx repository.Tx, code string, at time.Time) error {
	const q = `UPDATE access_records SET last_login = $2 WHERE code = $1;`
	_, err := execSQL(ctx, r.pool, tx, q, code, at)
	return mapWriteErr(err)
}

func (r *accessRecordRepo) Delete(ctx context.Context, tx repository.Tx, code string) error {
	const q = `DELETE FROM access_records WHERE code = $1;`
	tag, err := execSQL(ctx, r.pool, tx, q, code)
	if err != nil {
		return mapWriteErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *accessRecordRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.AccessRecord, error) {
	const q = `SELECT ` + recordCols + ` FROM access_records ORDER BY generated_at DESC;`
	rows, err := queryRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, domain.ErrStoreUnavailable
	}
	defer rows.Close()

	var out []*model.AccessRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *accessRecordRepo) FreezeExpired(ctx context.Context, tx repository.Tx, now time.Time) (int, error) {
	const q = `
UPDATE access_records
   SET status = $2
 WHERE is_used = TRUE AND status = $3 AND expiry_date < $1;
`
	tag, err := execSQL(ctx, r.pool, tx, q, now, model.StatusFrozen, model.StatusActive)
	if err != nil {
		return 0, mapWriteErr(err)
	}
	return int(tag.RowsAffected()), nil
}

func scanRecord(row pgx.Row) (*model.AccessRecord, error) {
	var rec model.AccessRecord
	err := row.Scan(
		&rec.Code, &rec.OwnerName, &rec.PlanType, &rec.Status, &rec.IsUsed, &rec.GeneratedAt, &rec.ExpiryDate, &rec.LastLogin,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &rec, nil
}

func mapWriteErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidExecContext):
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return domain.ErrDuplicateCode
	}
	return domain.ErrStoreUnavailable
}
