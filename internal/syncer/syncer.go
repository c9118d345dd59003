package syncer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pairplay/sync-server-go/internal/cache"
	"github.com/pairplay/sync-server-go/internal/events"
	"github.com/pairplay/sync-server-go/internal/model"
)

const (
	pushAttempts  = 3
	pushRetryWait = 2 * time.Second
	opTimeout     = 15 * time.Second
)

// RemoteStore is the shared realtime store both partners' devices write to.
type RemoteStore interface {
	Write(ctx context.Context, session *model.Session) error
	Claim(ctx context.Context, session *model.Session) (bool, string, error)
	List(ctx context.Context, pairKey string) ([]model.Session, error)
	Delete(ctx context.Context, pairKey string, kind model.Kind, id string) error
}

// BackendStore is the REST store of record, secondary to the remote store.
type BackendStore interface {
	Put(ctx context.Context, session *model.Session) error
	Delete(ctx context.Context, kind model.Kind, id string) error
}

// Publisher fans change notifications out to both devices of the pair.
type Publisher interface {
	Publish(ctx context.Context, pairKey string, event events.Event) error
}

// Syncer keeps the local cache, the remote session store and the
// authoritative backend eventually consistent. Local writes are already
// durable when it sees them; everything here is at-least-once and a failed
// push is never surfaced as a user-facing error.
type Syncer struct {
	sessions cache.SessionRepository
	remote   RemoteStore
	backend  BackendStore
	broker   Publisher
	pairKey  string
	deviceID string
	interval time.Duration
	done     chan struct{}
}

func New(
	sessions cache.SessionRepository,
	remote RemoteStore,
	backend BackendStore,
	broker Publisher,
	pairKey string,
	deviceID string,
	interval time.Duration,
) *Syncer {
	return &Syncer{
		sessions: sessions,
		remote:   remote,
		backend:  backend,
		broker:   broker,
		pairKey:  pairKey,
		deviceID: deviceID,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Push propagates an already-locally-persisted mutation to the remote store
// and then the backend. It returns immediately; the work happens on its own
// goroutine with a detached context, since in-flight pushes are never
// cancelled by the caller going away.
func (s *Syncer) Push(session *model.Session) {
	snapshot := session.Clone()
	go s.push(snapshot)
}

// PushNew is Push for a freshly created session: singleton kinds first claim
// the remote slot with a conditional write, so most creation races die here
// instead of in the tie-break.
func (s *Syncer) PushNew(session *model.Session) {
	snapshot := session.Clone()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()

		if snapshot.Kind.SingletonPerDay() {
			claimed, winner, err := s.remote.Claim(ctx, snapshot)
			if err != nil {
				log.Warn().
					Err(err).
					Str("sessionId", snapshot.ID).
					Msg("slot claim failed, will rely on tie-break")
			} else if !claimed && winner != snapshot.ID {
				log.Warn().
					Str("sessionId", snapshot.ID).
					Str("winner", winner).
					Msg("creation race lost at claim, reconciling")
				s.Reconcile(ctx)
				return
			}
		}

		s.pushWithContext(ctx, snapshot)
	}()
}

func (s *Syncer) push(session *model.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	s.pushWithContext(ctx, session)
}

func (s *Syncer) pushWithContext(ctx context.Context, session *model.Session) {
	if err := retry(ctx, pushAttempts, pushRetryWait, func() error {
		return s.remote.Write(ctx, session)
	}); err != nil {
		// Not rolled back locally: the next poll or push heals it.
		log.Warn().
			Err(err).
			Str("sessionId", session.ID).
			Int("revision", session.Revision).
			Msg("remote push failed, mutation stays speculative")
		return
	}

	if err := s.sessions.MarkSynced(ctx, session.ID, session.Revision); err != nil {
		log.Error().Err(err).Str("sessionId", session.ID).Msg("mark synced failed")
	}

	if err := retry(ctx, pushAttempts, pushRetryWait, func() error {
		return s.backend.Put(ctx, session)
	}); err != nil {
		log.Warn().
			Err(err).
			Str("sessionId", session.ID).
			Msg("backend push failed, remote store remains source for live play")
	}
}

// Notify publishes a fire-and-forget change event for the partner device
// and the local UI stream.
func (s *Syncer) Notify(ctx context.Context, eventType string, session *model.Session) {
	err := s.broker.Publish(ctx, s.pairKey, events.Event{
		Type:      eventType,
		SessionID: session.ID,
		Kind:      string(session.Kind),
		Origin:    s.deviceID,
	})
	if err != nil {
		log.Warn().
			Err(err).
			Str("sessionId", session.ID).
			Str("type", eventType).
			Msg("notify failed")
	}
}

// Start runs the periodic reconcile loop until Stop is called. Change
// notifications from the partner trigger immediate reconciles between
// ticks; see Watch.
func (s *Syncer) Start() {
	go s.run()
	log.Info().Dur("interval", s.interval).Msg("sync loop started")
}

func (s *Syncer) Stop() {
	close(s.done)
	log.Info().Msg("sync loop stopped")
}

func (s *Syncer) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.reconcileOnce()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.reconcileOnce()
		}
	}
}

// Watch consumes partner change notifications from an event subscription
// and reconciles immediately instead of waiting for the next tick.
func (s *Syncer) Watch(client *events.Client) {
	go func() {
		for {
			select {
			case <-s.done:
				return
			case <-client.Done:
				return
			case event := <-client.Events:
				if event.Origin == s.deviceID {
					continue
				}
				s.reconcileOnce()
			}
		}
	}()
}

func (s *Syncer) reconcileOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := s.Reconcile(ctx); err != nil {
		log.Warn().Err(err).Msg("reconcile failed")
	}
}

func retry(ctx context.Context, attempts int, wait time.Duration, fn func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return err
}

// snapshotEqual compares two sessions by canonical JSON. encoding/json
// sorts map keys, so the comparison is deterministic.
func snapshotEqual(a, b *model.Session) bool {
	da, errA := json.Marshal(a)
	db, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(da) == string(db)
}
