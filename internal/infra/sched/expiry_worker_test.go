package sched

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"nabidh-access-engine/internal/domain/model"
	"nabidh-access-engine/internal/domain/ports/repository"
)

// sweepRepo implements only the FreezeExpired path the worker exercises.
type sweepRepo struct {
	mu     sync.Mutex
	sweeps int
	frozen int
	err    error
}

func (s *sweepRepo) FreezeExpired(ctx context.Context, tx repository.Tx, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweeps++
	if s.err != nil {
		return 0, s.err
	}
	return s.frozen, nil
}

func (s *sweepRepo) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweeps
}

func (s *sweepRepo) Insert(context.Context, repository.Tx, *model.AccessRecord) error { return nil }
func (s *sweepRepo) FindByCode(context.Context, repository.Tx, string) (*model.AccessRecord, error) {
	return nil, nil
}
func (s *sweepRepo) Activate(context.Context, repository.Tx, string, time.Time, time.Time) (bool, error) {
	return false, nil
}
func (s *sweepRepo) Freeze(context.Context, repository.Tx, string) (bool, error) { return false, nil }
func (s *sweepRepo) SetStatus(context.Context, repository.Tx, string, model.AccountStatus) error {
	return nil
}
func (s *sweepRepo) Renew(context.Context, repository.Tx, string, time.Time) error      { return nil }
func (s *sweepRepo) TouchLastLogin(context.Context, repository.Tx, string, time.Time) error {
	return nil
}
func (s *sweepRepo) Delete(context.Context, repository.Tx, string) error { return nil }
func (s *sweepRepo) ListAll(context.Context, repository.Tx) ([]*model.AccessRecord, error) {
	return nil, nil
}

func TestExpiryWorker_SweepsUntilCanceled(t *testing.T) {
	t.Parallel()

	repo := &sweepRepo{frozen: 2}
	l := zerolog.Nop()
	w := NewExpiryWorker(10*time.Millisecond, repo, &l)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for repo.count() < 2 {
		select {
		case <-deadline:
			t.Fatalf("worker never swept")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}

func TestExpiryWorker_KeepsRunningAfterStoreError(t *testing.T) {
	t.Parallel()

	repo := &sweepRepo{err: errors.New("connection reset")}
	l := zerolog.Nop()
	w := NewExpiryWorker(10*time.Millisecond, repo, &l)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for repo.count() < 3 {
		select {
		case <-deadline:
			t.Fatalf("worker stopped after a store error")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done
}
