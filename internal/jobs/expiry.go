package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Sweeper is satisfied by the engine's ExpireOverdue.
type Sweeper interface {
	ExpireOverdue(ctx context.Context) (int, error)
}

// ExpiryJob complements the lazy expiry checks: sessions nobody touches
// still become terminal, so the partner's poll sees them expired.
type ExpiryJob struct {
	sweeper  Sweeper
	interval time.Duration
	done     chan struct{}
}

func NewExpiryJob(sweeper Sweeper, interval time.Duration) *ExpiryJob {
	return &ExpiryJob{
		sweeper:  sweeper,
		interval: interval,
		done:     make(chan struct{}),
	}
}

func (j *ExpiryJob) Start() {
	go j.run()
	log.Info().Dur("interval", j.interval).Msg("expiry job started")
}

func (j *ExpiryJob) Stop() {
	close(j.done)
	log.Info().Msg("expiry job stopped")
}

func (j *ExpiryJob) run() {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.sweep()

	for {
		select {
		case <-j.done:
			return
		case <-ticker.C:
			j.sweep()
		}
	}
}

func (j *ExpiryJob) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := j.sweeper.ExpireOverdue(ctx)
	if err != nil {
		log.Error().Err(err).Msg("expiry sweep failed")
		return
	}
	if count > 0 {
		log.Info().Int("count", count).Msg("expired overdue sessions")
	}
}
