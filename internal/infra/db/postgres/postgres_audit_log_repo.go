package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/oklog/ulid/v2"

	"nabidh-access-engine/internal/domain"
	"nabidh-access-engine/internal/domain/model"
	"nabidh-access-engine/internal/domain/ports/repository"
)

// Ensure implementation satisfies the interface.
var _ repository.AuditLogRepository = (*auditLogRepo)(nil)

type auditLogRepo struct {
	pool *pgxpool.Pool
}

func NewAuditLogRepo(pool *pgxpool.Pool) repository.AuditLogRepository {
	return &auditLogRepo{pool: pool}
}

// Append is insert-only. There is deliberately no update or delete statement
// anywhere in this file.
func (r *auditLogRepo) Append(ctx context.Context, tx repository.Tx, entry *model.AuditLogEntry) error {
	if entry.ID == "" {
		entry.ID = ulid.Make().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	const q = `
INSERT INTO audit_logs (id, admin_id, action, target_code, details, created_at)
VALUES ($1, $2, $3, $4, $5, $6);
`
	_, err := execSQL(ctx, r.pool, tx, q,
		entry.ID, entry.AdminID, entry.Action, entry.TargetCode, entry.Details, entry.CreatedAt,
	)
	return mapWriteErr(err)
}

func (r *auditLogRepo) ListRecent(ctx context.Context, tx repository.Tx, limit int) ([]*model.AuditLogEntry, error) {
	const q = `
SELECT id, admin_id, action, target_code, details, created_at
  FROM audit_logs
 ORDER BY created_at DESC
 LIMIT $1;
`
	rows, err := queryRows(ctx, r.pool, tx, q, limit)
	if err != nil {
		return nil, domain.ErrStoreUnavailable
	}
	defer rows.Close()

	var out []*model.AuditLogEntry
	for rows.Next() {
		var e model.AuditLogEntry
		if err := rows.Scan(&e.ID, &e.AdminID, &e.Action, &e.TargetCode, &e.Details, &e.CreatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
