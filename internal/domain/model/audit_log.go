package model

import (
	"time"
)

type AuditAction string

const (
	AuditGenerateCode AuditAction = "GENERATE_CODE"
	AuditBanUser      AuditAction = "BAN_USER"
	AuditUnbanUser    AuditAction = "UNBAN_USER"
	AuditRenew        AuditAction = "RENEW_SUBSCRIPTION"
	AuditDeleteUser   AuditAction = "DELETE_USER"
)

// AuditLogEntry is an append-only record of one administrative action.
// Entries are never mutated or deleted, and are observability only: no
// authorization decision may read them.
type AuditLogEntry struct {
	ID         string // ULID, lexically ordered by creation time
	AdminID    string
	Action     AuditAction
	TargetCode *string
	Details    string
	CreatedAt  time.Time
}
