package arbiter

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pairplay/sync-server-go/internal/model"
)

const (
	DefaultPollDelay = 2 * time.Second
	pollAttempts     = 2
)

// SessionFinder is the read surface the waiter polls, served by the remote
// session store.
type SessionFinder interface {
	FindActive(ctx context.Context, pairKey string, kind model.Kind) ([]model.Session, error)
}

// Creator deterministically elects which participant's device creates a
// shared session: the lexicographically smaller ID. Both devices observe
// the same two IDs, so they agree without any round trip.
func Creator(a, b string) string {
	if a < b {
		return a
	}
	return b
}

// Arbiter runs the waiter side of session creation: poll the shared store
// a bounded number of times before concluding the creator is absent.
type Arbiter struct {
	finder    SessionFinder
	pollDelay time.Duration
}

func New(finder SessionFinder, pollDelay time.Duration) *Arbiter {
	if pollDelay <= 0 {
		pollDelay = DefaultPollDelay
	}
	return &Arbiter{finder: finder, pollDelay: pollDelay}
}

// AwaitSession waits for the creator's session to appear on the remote
// store: wait, check, wait, check. A nil result means the waiter should
// create the session itself. That leaves a bounded residual race (both
// devices may still create); the synchronizer's tie-break resolves it.
func (a *Arbiter) AwaitSession(ctx context.Context, pairKey string, kind model.Kind) (*model.Session, error) {
	for attempt := 1; attempt <= pollAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(a.pollDelay):
		}

		sessions, err := a.finder.FindActive(ctx, pairKey, kind)
		if err != nil {
			log.Warn().
				Err(err).
				Str("pairKey", pairKey).
				Str("kind", string(kind)).
				Int("attempt", attempt).
				Msg("waiter poll failed")
			continue
		}
		if len(sessions) > 0 {
			found := sessions[0]
			log.Info().
				Str("pairKey", pairKey).
				Str("kind", string(kind)).
				Str("sessionId", found.ID).
				Int("attempt", attempt).
				Msg("adopting partner-created session")
			return &found, nil
		}
	}

	log.Info().
		Str("pairKey", pairKey).
		Str("kind", string(kind)).
		Msg("no session found after polling, waiter will create")
	return nil, nil
}
