package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/GTDGit/costchecker/internal/metrics"
)

// Sweeper drops expired confirmation sessions and reports how many.
type Sweeper interface {
	Sweep() int
}

// SessionSweepWorker evicts expired in-memory sessions on a fixed interval.
type SessionSweepWorker struct {
	store    Sweeper
	interval time.Duration
}

// NewSessionSweepWorker constructs a SessionSweepWorker.
func NewSessionSweepWorker(store Sweeper, interval time.Duration) *SessionSweepWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &SessionSweepWorker{
		store:    store,
		interval: interval,
	}
}

// Start begins the sweep loop and listens for context cancellation.
func (w *SessionSweepWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("Starting session sweep worker")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run()
		case <-ctx.Done():
			log.Info().Msg("Session sweep worker stopped")
			return
		}
	}
}

func (w *SessionSweepWorker) run() {
	n := w.store.Sweep()
	metrics.RecordSessionsSwept(n)
	if n > 0 {
		log.Debug().Int("removed", n).Msg("Expired confirmation sessions swept")
	}
}
