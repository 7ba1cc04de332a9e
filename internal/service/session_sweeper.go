package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"storefront/internal/repository"
)

// SessionSweeper periodically deletes expired sessions.
type SessionSweeper struct {
	sessions repository.SessionRepository
	interval time.Duration
	log      logrus.FieldLogger
	now      func() time.Time
}

// NewSessionSweeper creates a sweeper running every interval.
func NewSessionSweeper(sessions repository.SessionRepository, interval time.Duration, log logrus.FieldLogger) *SessionSweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &SessionSweeper{sessions: sessions, interval: interval, log: log, now: time.Now}
}

// Run sweeps once immediately and then on every tick until ctx is done.
func (s *SessionSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.Sweep(ctx)
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

// Sweep deletes every session that expired before now.
func (s *SessionSweeper) Sweep(ctx context.Context) int64 {
	n, err := s.sessions.DeleteExpired(ctx, s.now())
	if err != nil {
		s.log.WithError(err).Warn("delete expired sessions failed")
		return 0
	}
	if n > 0 {
		s.log.WithField("count", n).Info("expired sessions deleted")
	}
	return n
}
