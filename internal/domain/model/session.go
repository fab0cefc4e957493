package model

import "time"

// Session is the client-held view of a verified code. OwnerName and
// ExpiryDate are cached for display only; every access decision re-runs
// verification against the authoritative record, so nothing here is trusted
// beyond the code itself.
type Session struct {
	Code       string
	OwnerName  string
	ExpiryDate *time.Time
}
