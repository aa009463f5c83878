package cleanup

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// SessionCleaner drops stale in-memory sessions and reports how many.
type SessionCleaner interface {
	CleanupOldSessions() int
}

type Worker struct {
	sessions SessionCleaner
	period   time.Duration
}

func NewWorker(sessions SessionCleaner, period time.Duration) *Worker {
	if period <= 0 {
		period = time.Hour
	}
	return &Worker{sessions: sessions, period: period}
}

// Start runs one cleanup immediately, then one per period until ctx is done.
func (w *Worker) Start(ctx context.Context) {
	log.Info().Dur("period", w.period).Msg("[CLEANUP] Background worker started")
	w.runCleanup()

	ticker := time.NewTicker(w.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("[CLEANUP] Background worker stopped")
			return
		case <-ticker.C:
			w.runCleanup()
		}
	}
}

func (w *Worker) runCleanup() {
	log.Debug().Msg("[CLEANUP] Starting scheduled cleanup task...")
	if removed := w.sessions.CleanupOldSessions(); removed > 0 {
		log.Info().Int("removed", removed).Msg("[CLEANUP] Removed stale game sessions")
	}
}
