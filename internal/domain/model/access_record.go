package model

import (
	"strings"
	"time"

	"nabidh-access-engine/internal/domain"
)

type PlanType string

const (
	PlanMonthly PlanType = "monthly"
	PlanYearly  PlanType = "yearly"
)

type AccountStatus string

const (
	StatusActive AccountStatus = "active"
	StatusFrozen AccountStatus = "frozen"
	StatusBanned AccountStatus = "banned"
)

// CodeAlphabet is the 32-symbol set access codes are drawn from. Visually
// ambiguous characters (0/O, 1/I) are excluded so codes survive hand
// transcription.
const CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	CodeGroupLen = 4
	CodeGroups   = 3
	CodeLen      = CodeGroups*CodeGroupLen + CodeGroups - 1 // XXXX-XXXX-XXXX
)

// AccessRecord is one issued access code and its subscription state.
// Code, PlanType and GeneratedAt are immutable once issued. ExpiryDate is
// nil exactly until the first successful verification flips IsUsed.
type AccessRecord struct {
	Code        string
	OwnerName   string
	PlanType    PlanType
	Status      AccountStatus
	IsUsed      bool
	GeneratedAt time.Time
	ExpiryDate  *time.Time
	LastLogin   *time.Time
}

// NewAccessRecord builds an unused record for a freshly generated code.
func NewAccessRecord(code, ownerName string, plan PlanType) (*AccessRecord, error) {
	if !ValidCode(code) || ownerName == "" || len(ownerName) > 120 {
		return nil, domain.ErrInvalidArgument
	}
	if plan != PlanMonthly && plan != PlanYearly {
		return nil, domain.ErrInvalidArgument
	}
	return &AccessRecord{
		Code:        code,
		OwnerName:   ownerName,
		PlanType:    plan,
		Status:      StatusActive,
		IsUsed:      false,
		GeneratedAt: time.Now(),
	}, nil
}

// Expired reports whether the record has an expiry in the past. Unused
// records have no expiry and never count as expired.
func (r *AccessRecord) Expired(now time.Time) bool {
	return r.ExpiryDate != nil && r.ExpiryDate.Before(now)
}

// PlanDuration returns the subscription window granted at activation and on
// every renewal: 30 days for monthly, one calendar year for yearly.
func PlanDuration(plan PlanType, from time.Time) time.Time {
	if plan == PlanYearly {
		return from.AddDate(1, 0, 0)
	}
	return from.AddDate(0, 0, 30)
}

// NormalizeCode canonicalizes user input before any lookup: trimmed and
// uppercased, since codes are case-insensitive on input.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCode checks the XXXX-XXXX-XXXX shape over the restricted alphabet.
func ValidCode(code string) bool {
	if len(code) != CodeLen {
		return false
	}
	for i, c := range code {
		if i == CodeGroupLen || i == 2*CodeGroupLen+1 {
			if c != '-' {
				return false
			}
			continue
		}
		if !strings.ContainsRune(CodeAlphabet, c) {
			return false
		}
	}
	return true
}
