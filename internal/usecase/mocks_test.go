// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"

	"nabidh-access-engine/internal/domain"
	"nabidh-access-engine/internal/domain/model"
	"nabidh-access-engine/internal/domain/ports/repository"
)

// memRecordRepo is a small in-memory implementation used by unit tests.
type memRecordRepo struct {
	mu        sync.RWMutex
	store     map[string]*model.AccessRecord // map by code
	insertErr []error                        // queued errors to simulate duplicates/failures
	findErr   error
}

func newMemRecordRepo() *memRecordRepo {
	return &memRecordRepo{store: make(map[string]*model.AccessRecord)}
}

func (m *memRecordRepo) Insert(ctx context.Context, tx repository.Tx, rec *model.AccessRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.insertErr) > 0 {
		err := m.insertErr[0]
		m.insertErr = m.insertErr[1:]
		if err != nil {
			return err
		}
	}
	if _, ok := m.store[rec.Code]; ok {
		return domain.ErrDuplicateCode
	}
	cp := *rec
	m.store[rec.Code] = &cp
	return nil
}

func (m *memRecordRepo) FindByCode(ctx context.Context, tx repository.Tx, code string) (*model.AccessRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	rec, ok := m.store[code]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *memRecordRepo) Activate(ctx context.Context, tx repository.Tx, code string, expiry, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.store[code]
	if !ok || rec.IsUsed || rec.Status != model.StatusActive {
		return false, nil
	}
	rec.IsUsed = true
	e, n := expiry, now
	rec.ExpiryDate = &e
	rec.LastLogin = &n
	return true, nil
}

func (m *memRecordRepo) Freeze(ctx context.Context, tx repository.Tx, code string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.store[code]
	if !ok || rec.Status == model.StatusFrozen {
		return false, nil
	}
	rec.Status = model.StatusFrozen
	return true, nil
}

func (m *memRecordRepo) SetStatus(ctx context.Context, tx repository.Tx, code string, status model.AccountStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.store[code]
	if !ok {
		return domain.ErrNotFound
	}
	rec.Status = status
	return nil
}

func (m *memRecordRepo) Renew(ctx context.Context, tx repository.Tx, code string, expiry time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.store[code]
	if !ok {
		return domain.ErrNotFound
	}
	e := expiry
	rec.ExpiryDate = &e
	rec.Status = model.StatusActive
	return nil
}

func (m *memRecordRepo) TouchLastLogin(ctx context.Context, tx repository.Tx, code string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.store[code]
	if !ok {
		return domain.ErrNotFound
	}
	t := at
	rec.LastLogin = &t
	return nil
}

func (m *memRecordRepo) Delete(ctx context.Context, tx repository.Tx, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[code]; !ok {
		return domain.ErrNotFound
	}
	delete(m.store, code)
	return nil
}

func (m *memRecordRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.AccessRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*model.AccessRecord, 0, len(m.store))
	for _, rec := range m.store {
		cp := *rec
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memRecordRepo) FreezeExpired(ctx context.Context, tx repository.Tx, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, rec := range m.store {
		if rec.IsUsed && rec.Status == model.StatusActive && rec.ExpiryDate != nil && rec.ExpiryDate.Before(now) {
			rec.Status = model.StatusFrozen
			n++
		}
	}
	return n, nil
}

// get returns the live record for assertions (not a copy).
func (m *memRecordRepo) get(code string) *model.AccessRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.store[code]
}

// memAuditRepo collects entries in order.
type memAuditRepo struct {
	mu      sync.Mutex
	entries []*model.AuditLogEntry
}

func newMemAuditRepo() *memAuditRepo {
	return &memAuditRepo{}
}

func (m *memAuditRepo) Append(ctx context.Context, tx repository.Tx, entry *model.AuditLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *entry
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *memAuditRepo) ListRecent(ctx context.Context, tx repository.Tx, limit int) ([]*model.AuditLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.AuditLogEntry, 0, limit)
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *m.entries[i]
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memAuditRepo) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *memAuditRepo) last() *model.AuditLogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.entries) == 0 {
		return nil
	}
	cp := *m.entries[len(m.entries)-1]
	return &cp
}

// memTxManager runs the callback without a real transaction.
type memTxManager struct{}

func (m *memTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, repository.NoTX)
}
