package repository

import (
	"context"

	"nabidh-access-engine/internal/domain/model"
)

// AuditLogRepository is the port for the append-only audit trail.
type AuditLogRepository interface {
	// Append writes one entry. Entries are never updated or deleted.
	Append(ctx context.Context, tx Tx, entry *model.AuditLogEntry) error

	// ListRecent returns up to limit entries, newest first.
	ListRecent(ctx context.Context, tx Tx, limit int) ([]*model.AuditLogEntry, error)
}
