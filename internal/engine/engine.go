package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/pairplay/sync-server-go/internal/apperrors"
	"github.com/pairplay/sync-server-go/internal/arbiter"
	"github.com/pairplay/sync-server-go/internal/cache"
	"github.com/pairplay/sync-server-go/internal/config"
	"github.com/pairplay/sync-server-go/internal/events"
	"github.com/pairplay/sync-server-go/internal/game"
	"github.com/pairplay/sync-server-go/internal/model"
)

// Pusher hands locally-persisted mutations to the dual-store synchronizer
// and emits change notifications. Both are asynchronous and never fail the
// calling mutation.
type Pusher interface {
	Push(session *model.Session)
	PushNew(session *model.Session)
	Notify(ctx context.Context, eventType string, session *model.Session)
}

// Ledger is the external reward-ledger adapter.
type Ledger interface {
	AwardOnce(ctx context.Context, sessionID, tierKey, recipient string, amount int, reason string) error
}

// Waiter is the arbiter's poll protocol for the non-creating device.
type Waiter interface {
	AwaitSession(ctx context.Context, pairKey string, kind model.Kind) (*model.Session, error)
}

// Engine owns the session lifecycle for one device of a pair: creation
// arbitration, the turn state machine, completion rewards and expiry. All
// mutation is single-threaded per device; cross-device concurrency is
// mediated entirely through the stores.
type Engine struct {
	sessions  cache.SessionRepository
	pusher    Pusher
	ledger    Ledger
	waiter    Waiter
	content   game.ContentSource
	vocab     game.Vocabulary
	deviceID  string
	partnerID string
	pairKey   string
}

func New(
	sessions cache.SessionRepository,
	pusher Pusher,
	ledger Ledger,
	waiter Waiter,
	content game.ContentSource,
	vocab game.Vocabulary,
	deviceID, partnerID string,
) *Engine {
	return &Engine{
		sessions:  sessions,
		pusher:    pusher,
		ledger:    ledger,
		waiter:    waiter,
		content:   content,
		vocab:     vocab,
		deviceID:  deviceID,
		partnerID: partnerID,
		pairKey:   model.PairKey(deviceID, partnerID),
	}
}

// EnsureSession returns the playable session of the given kind, running the
// creation arbitration when none exists yet: the lexicographically-first
// participant's device creates, the other polls the remote store before
// concluding it must create itself.
func (e *Engine) EnsureSession(ctx context.Context, kind model.Kind) (*model.Session, error) {
	if !kind.Valid() {
		return nil, apperrors.InvalidInput("unknown game kind")
	}

	now := time.Now()

	if kind.SingletonPerDay() {
		day := now.UTC().Format("2006-01-02")
		entry, err := e.sessions.FindByPairKindDay(ctx, e.pairKey, kind, day)
		if err != nil {
			return nil, apperrors.CacheError("find daily session", err)
		}
		if entry != nil {
			return e.expireIfOverdue(ctx, entry.Session, now)
		}
		return e.arbitrateCreate(ctx, kind, e.firstTurnOwner(kind))
	}

	// Ladder: top the pool back up to the cap, return the oldest active.
	active, err := e.activeSessions(ctx, kind, now)
	if err != nil {
		return nil, err
	}
	if len(active) >= kind.ActiveCap() {
		return active[0], nil
	}
	if len(active) > 0 {
		// Below cap but playable: replenish in the background of the call,
		// still returning the session already in play.
		if _, err := e.createSession(ctx, kind, e.firstTurnOwner(kind)); err != nil {
			log.Warn().Err(err).Str("kind", string(kind)).Msg("replenish during ensure failed")
		}
		return active[0], nil
	}
	return e.arbitrateCreate(ctx, kind, e.firstTurnOwner(kind))
}

// firstTurnOwner is the deterministic initial owner: the creator side of
// the arbitration, so both devices agree without coordination.
func (e *Engine) firstTurnOwner(kind model.Kind) string {
	if !kind.TurnBased() {
		return ""
	}
	return arbiter.Creator(e.deviceID, e.partnerID)
}

func (e *Engine) arbitrateCreate(ctx context.Context, kind model.Kind, firstOwner string) (*model.Session, error) {
	if arbiter.Creator(e.deviceID, e.partnerID) != e.deviceID {
		found, err := e.waiter.AwaitSession(ctx, e.pairKey, kind)
		if err != nil {
			return nil, err
		}
		if found != nil {
			if err := e.sessions.Save(ctx, found, model.PushSynced); err != nil {
				return nil, apperrors.CacheError("adopt session", err)
			}
			return found, nil
		}
		// Creator never showed up: create anyway. This is the residual
		// race window; the tie-break resolves a double creation.
	}
	return e.createSession(ctx, kind, firstOwner)
}

func (e *Engine) createSession(ctx context.Context, kind model.Kind, firstOwner string) (*model.Session, error) {
	now := time.Now()
	session := &model.Session{
		ID:           uuid.NewString(),
		PairKey:      e.pairKey,
		Participants: [2]string{e.deviceID, e.partnerID},
		Kind:         kind,
		Status:       model.StatusActive,
		Revision:     1,
		CreatedAt:    now,
		ExpiresAt:    now.Add(config.SessionTTL(kind)),
	}
	if e.deviceID > e.partnerID {
		session.Participants = [2]string{e.partnerID, e.deviceID}
	}

	switch kind {
	case model.KindLadder:
		st := e.content.NewLadder()
		session.State = model.State{Kind: kind, Ladder: &st}
	case model.KindQuiz:
		st := e.content.NewQuiz()
		session.State = model.State{Kind: kind, Quiz: &st}
	case model.KindMemoryFlip:
		st := e.content.NewMemoryDeck()
		session.State = model.State{Kind: kind, Memory: &st}
	}

	if firstOwner != "" {
		owner := firstOwner
		session.CurrentTurnOwner = &owner
	}

	if err := session.State.Validate(); err != nil {
		return nil, apperrors.Internal("generated session state invalid").WithCause(err)
	}
	if err := e.sessions.Save(ctx, session, model.PushPending); err != nil {
		return nil, apperrors.CacheError("create session", err)
	}

	e.pusher.PushNew(session)
	e.pusher.Notify(ctx, events.TypeSessionCreated, session)

	log.Info().
		Str("sessionId", session.ID).
		Str("kind", string(kind)).
		Str("pairKey", e.pairKey).
		Msg("session created")

	return session, nil
}

// Get returns one session, applying the lazy expiry check.
func (e *Engine) Get(ctx context.Context, id string) (*model.Session, error) {
	entry, err := e.sessions.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.CacheError("find session", err)
	}
	if entry == nil {
		return nil, apperrors.NotFound("session")
	}
	return e.expireIfOverdue(ctx, entry.Session, time.Now())
}

// List returns the pair's cached sessions, optionally narrowed to one kind,
// lazily expiring overdue ones on the way out.
func (e *Engine) List(ctx context.Context, kind model.Kind) ([]*model.Session, error) {
	var (
		entries []cache.Entry
		err     error
	)
	switch {
	case kind == "":
		entries, err = e.sessions.FindByPairKey(ctx, e.pairKey)
	case !kind.Valid():
		return nil, apperrors.InvalidInput("unknown game kind")
	default:
		entries, err = e.sessions.FindByPairKind(ctx, e.pairKey, kind)
	}
	if err != nil {
		return nil, apperrors.CacheError("list sessions", err)
	}
	now := time.Now()
	sessions := make([]*model.Session, 0, len(entries))
	for _, entry := range entries {
		session, err := e.expireIfOverdue(ctx, entry.Session, now)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}

// activeSessions returns the mutable sessions of a kind, oldest first,
// after lazily expiring overdue ones.
func (e *Engine) activeSessions(ctx context.Context, kind model.Kind, now time.Time) ([]*model.Session, error) {
	entries, err := e.sessions.FindActiveByPairKind(ctx, e.pairKey, kind)
	if err != nil {
		return nil, apperrors.CacheError("list active sessions", err)
	}
	active := make([]*model.Session, 0, len(entries))
	for _, entry := range entries {
		if entry.Session.Overdue(now) {
			if err := e.expire(ctx, entry.Session); err != nil {
				return nil, err
			}
			continue
		}
		active = append(active, entry.Session)
	}
	return active, nil
}

// expireIfOverdue flips a session past its deadline to expired as a side
// effect of the access, per the lazy expiry contract.
func (e *Engine) expireIfOverdue(ctx context.Context, session *model.Session, now time.Time) (*model.Session, error) {
	if !session.Overdue(now) {
		return session, nil
	}
	if err := e.expire(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (e *Engine) expire(ctx context.Context, session *model.Session) error {
	session.Status = model.StatusExpired
	session.CurrentTurnOwner = nil
	session.Revision++
	if err := e.sessions.Save(ctx, session, model.PushPending); err != nil {
		return apperrors.CacheError("expire session", err)
	}
	e.pusher.Push(session)
	e.pusher.Notify(ctx, events.TypeExpired, session)
	log.Info().Str("sessionId", session.ID).Msg("session expired")
	return nil
}

// ExpireOverdue is the sweep entry point used by the background job.
func (e *Engine) ExpireOverdue(ctx context.Context) (int, error) {
	entries, err := e.sessions.ListOverdue(ctx, time.Now())
	if err != nil {
		return 0, apperrors.CacheError("list overdue sessions", err)
	}
	for _, entry := range entries {
		if err := e.expire(ctx, entry.Session); err != nil {
			return 0, err
		}
	}
	return len(entries), nil
}
