package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"nabidh-access-engine/internal/domain/ports/repository"
	"nabidh-access-engine/internal/infra/metrics"
)

// ExpiryWorker periodically freezes used records whose expiry passed, so the
// admin list reflects reality between user logins. The verify state machine
// stays authoritative; this sweep is bookkeeping, not a gate.
type ExpiryWorker struct {
	interval time.Duration
	records  repository.AccessRecordRepository
	log      *zerolog.Logger
}

func NewExpiryWorker(interval time.Duration, records repository.AccessRecordRepository, logger *zerolog.Logger) *ExpiryWorker {
	l := logger.With().Str("component", "ExpiryWorker").Logger()
	return &ExpiryWorker{interval: interval, records: records, log: &l}
}

func (w *ExpiryWorker) Run(ctx context.Context) error {
	w.log.Info().Msg("Starting expiry worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping expiry worker")
			return ctx.Err()
		case <-ticker.C:
			n, err := w.records.FreezeExpired(ctx, repository.NoTX, time.Now())
			if err != nil {
				w.log.Error().Err(err).Msg("expiry sweep error")
			}
			if n > 0 {
				metrics.AddRecordsFrozen(n)
				w.log.Info().Int("count", n).Msg("expired records frozen")
			}
		}
	}
}
