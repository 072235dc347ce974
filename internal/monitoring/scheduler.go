package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// purgeTimeout bounds a single sweep of the sessions table.
const purgeTimeout = 30 * time.Second

// ExpiredSessionPurger is implemented by session stores that can drop
// expired rows in bulk.
type ExpiredSessionPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// SessionReaper periodically deletes expired sessions. Expired sessions are
// already unusable on load, so this only keeps the table from growing.
type SessionReaper struct {
	purger ExpiredSessionPurger
	cron   *cron.Cron
}

// NewSessionReaper creates a reaper that sweeps on the given cron schedule.
// Descriptors such as "@every 15m" and "@hourly" are accepted.
func NewSessionReaper(purger ExpiredSessionPurger, schedule string) (*SessionReaper, error) {
	r := &SessionReaper{
		purger: purger,
		cron:   cron.New(),
	}
	if _, err := r.cron.AddFunc(schedule, r.purge); err != nil {
		return nil, fmt.Errorf("invalid session purge schedule %q: %w", schedule, err)
	}
	return r, nil
}

// Start runs the schedule in the background.
func (r *SessionReaper) Start() {
	log.Info().Msg("Starting session reaper...")
	r.cron.Start()
}

// Stop halts the schedule and waits for a running sweep to finish.
func (r *SessionReaper) Stop() {
	<-r.cron.Stop().Done()
	log.Info().Msg("Stopped session reaper.")
}

func (r *SessionReaper) purge() {
	ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
	defer cancel()

	n, err := r.purger.PurgeExpired(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Session reaper: failed to purge expired sessions")
		return
	}
	if n > 0 {
		log.Info().Int64("count", n).Msg("Session reaper: purged expired sessions")
	}
}
