package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"nabidh-access-engine/internal/domain"
	"nabidh-access-engine/internal/domain/model"
)

// fakeVerifier scripts VerifyAndActivate results per call.
type fakeVerifier struct {
	mu      sync.Mutex
	results []verifyResult
	calls   int
}

type verifyResult struct {
	rec *model.AccessRecord
	err error
}

func (f *fakeVerifier) VerifyAndActivate(ctx context.Context, code string) (*model.AccessRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if len(f.results) == 0 {
		return nil, domain.ErrCodeNotFound
	}
	r := f.results[0]
	if len(f.results) > 1 {
		f.results = f.results[1:]
	}
	return r.rec, r.err
}

func okRecord(code, owner string, expiry time.Time) *model.AccessRecord {
	e := expiry
	return &model.AccessRecord{
		Code:       code,
		OwnerName:  owner,
		PlanType:   model.PlanMonthly,
		Status:     model.StatusActive,
		IsUsed:     true,
		ExpiryDate: &e,
	}
}

func nopLogger() *zerolog.Logger { l := zerolog.Nop(); return &l }

func TestGuard_LoginEstablishesSession(t *testing.T) {
	t.Parallel()

	expiry := time.Now().AddDate(0, 0, 30)
	fv := &fakeVerifier{results: []verifyResult{{rec: okRecord("ABCD-EFGH-JKLM", "Khaled", expiry)}}}
	g := NewGuard(time.Minute, fv, nil, nopLogger())

	sess, err := g.Login(context.Background(), "ABCD-EFGH-JKLM")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if sess.Code != "ABCD-EFGH-JKLM" || sess.OwnerName != "Khaled" {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if got := g.Session(); got == nil || got.Code != sess.Code {
		t.Fatalf("Session() did not return the established session")
	}
}

func TestGuard_LoginFailureLeavesNoSession(t *testing.T) {
	t.Parallel()

	fv := &fakeVerifier{results: []verifyResult{{err: domain.ErrAccountBanned}}}
	g := NewGuard(time.Minute, fv, nil, nopLogger())

	if _, err := g.Login(context.Background(), "ABCD-EFGH-JKLM"); !errors.Is(err, domain.ErrAccountBanned) {
		t.Fatalf("expected ErrAccountBanned, got %v", err)
	}
	if g.Session() != nil {
		t.Fatalf("failed login must not establish a session")
	}
}

func TestGuard_CheckRefreshesDisplayFields(t *testing.T) {
	t.Parallel()

	oldExpiry := time.Now().AddDate(0, 0, 5)
	newExpiry := time.Now().AddDate(0, 0, 35)
	fv := &fakeVerifier{results: []verifyResult{
		{rec: okRecord("ABCD-EFGH-JKLM", "Khaled", oldExpiry)},
		{rec: okRecord("ABCD-EFGH-JKLM", "Khaled A.", newExpiry)},
	}}
	g := NewGuard(time.Minute, fv, nil, nopLogger())

	if _, err := g.Login(context.Background(), "ABCD-EFGH-JKLM"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if !g.Check(context.Background()) {
		t.Fatalf("expected check to pass")
	}
	sess := g.Session()
	if sess.OwnerName != "Khaled A." {
		t.Fatalf("check did not refresh owner name: %q", sess.OwnerName)
	}
	if !sess.ExpiryDate.Equal(newExpiry) {
		t.Fatalf("check did not refresh expiry: %v", sess.ExpiryDate)
	}
}

func TestGuard_CheckTearsDownOnAnyFailure(t *testing.T) {
	t.Parallel()

	for name, denial := range map[string]error{
		"banned":    domain.ErrAccountBanned,
		"expired":   domain.ErrSubscriptionExpired,
		"frozen":    domain.ErrAccountFrozen,
		"deleted":   domain.ErrCodeNotFound,
		"storeFail": domain.ErrStoreUnavailable,
	} {
		denial := denial
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var gotErr error
			fv := &fakeVerifier{results: []verifyResult{
				{rec: okRecord("ABCD-EFGH-JKLM", "Khaled", time.Now().AddDate(0, 0, 30))},
				{err: denial},
			}}
			g := NewGuard(time.Minute, fv, func(err error) { gotErr = err }, nopLogger())

			if _, err := g.Login(context.Background(), "ABCD-EFGH-JKLM"); err != nil {
				t.Fatalf("login: %v", err)
			}
			if g.Check(context.Background()) {
				t.Fatalf("expected check to fail")
			}
			if g.Session() != nil {
				t.Fatalf("session must be torn down on %s", name)
			}
			if !errors.Is(gotErr, denial) {
				t.Fatalf("onInvalid got %v, want %v", gotErr, denial)
			}
		})
	}
}

func TestGuard_CheckWithoutSession(t *testing.T) {
	t.Parallel()

	called := false
	fv := &fakeVerifier{}
	g := NewGuard(time.Minute, fv, func(error) { called = true }, nopLogger())

	if g.Check(context.Background()) {
		t.Fatalf("check must fail when logged out")
	}
	if called {
		t.Fatalf("onInvalid must not fire when there is no session")
	}
	if fv.calls != 0 {
		t.Fatalf("check without a session must not hit the verifier")
	}
}

func TestGuard_LogoutDropsSessionOnly(t *testing.T) {
	t.Parallel()

	fv := &fakeVerifier{results: []verifyResult{{rec: okRecord("ABCD-EFGH-JKLM", "Khaled", time.Now().AddDate(0, 0, 30))}}}
	var invalidated bool
	g := NewGuard(time.Minute, fv, func(error) { invalidated = true }, nopLogger())

	if _, err := g.Login(context.Background(), "ABCD-EFGH-JKLM"); err != nil {
		t.Fatalf("login: %v", err)
	}
	g.Logout()
	if g.Session() != nil {
		t.Fatalf("expected no session after logout")
	}
	if invalidated {
		t.Fatalf("explicit logout must not fire onInvalid")
	}
}

func TestGuard_IntervalFloor(t *testing.T) {
	t.Parallel()

	g := NewGuard(time.Second, &fakeVerifier{}, nil, nopLogger())
	if g.interval != MinInterval {
		t.Fatalf("expected interval clamped to %v, got %v", MinInterval, g.interval)
	}
}

func TestGuard_RunStopsOnCancel(t *testing.T) {
	t.Parallel()

	g := NewGuard(time.Minute, &fakeVerifier{}, nil, nopLogger())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- g.Run(ctx) }()
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
