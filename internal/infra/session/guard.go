package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"nabidh-access-engine/internal/domain/model"
	"nabidh-access-engine/internal/usecase"
)

// MinInterval bounds how often the guard re-reads the store.
const MinInterval = 30 * time.Second

// Guard holds one client session and keeps re-validating it against the
// authoritative record: on login, on every tick, and on demand before
// privileged actions. The cached OwnerName/ExpiryDate are display-only;
// the verification result is the only access decision.
type Guard struct {
	interval  time.Duration
	verifier  usecase.Verifier
	onInvalid func(error)
	log       *zerolog.Logger

	mu   sync.Mutex
	sess *model.Session
}

func NewGuard(interval time.Duration, verifier usecase.Verifier, onInvalid func(error), logger *zerolog.Logger) *Guard {
	if interval < MinInterval {
		interval = MinInterval
	}
	l := logger.With().Str("component", "SessionGuard").Logger()
	return &Guard{interval: interval, verifier: verifier, onInvalid: onInvalid, log: &l}
}

// Login verifies the code and establishes the local session.
func (g *Guard) Login(ctx context.Context, code string) (*model.Session, error) {
	rec, err := g.verifier.VerifyAndActivate(ctx, code)
	if err != nil {
		return nil, err
	}
	g.mu.Lock()
	g.sess = &model.Session{Code: rec.Code, OwnerName: rec.OwnerName, ExpiryDate: rec.ExpiryDate}
	cp := *g.sess
	g.mu.Unlock()
	return &cp, nil
}

// Logout drops the local session. The record itself is untouched.
func (g *Guard) Logout() {
	g.mu.Lock()
	g.sess = nil
	g.mu.Unlock()
}

// Session returns a copy of the current session, or nil when logged out.
func (g *Guard) Session() *model.Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sess == nil {
		return nil
	}
	cp := *g.sess
	return &cp
}

// Check re-validates the stored code. On success the cached display fields
// are refreshed; on ANY failure the session is torn down immediately, so a
// ban or freeze applied mid-session forces re-authentication within one
// interval.
func (g *Guard) Check(ctx context.Context) bool {
	g.mu.Lock()
	sess := g.sess
	g.mu.Unlock()
	if sess == nil {
		return false
	}

	rec, err := g.verifier.VerifyAndActivate(ctx, sess.Code)
	if err != nil {
		g.log.Info().Err(err).Msg("session invalidated")
		g.Logout()
		if g.onInvalid != nil {
			g.onInvalid(err)
		}
		return false
	}

	g.mu.Lock()
	if g.sess != nil && g.sess.Code == rec.Code {
		g.sess.OwnerName = rec.OwnerName
		g.sess.ExpiryDate = rec.ExpiryDate
	}
	g.mu.Unlock()
	return true
}

// Run polls until the context is canceled, so timers never leak across
// session boundaries: cancel the context on logout.
func (g *Guard) Run(ctx context.Context) error {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			g.Check(ctx)
		}
	}
}
