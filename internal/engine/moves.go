package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pairplay/sync-server-go/internal/apperrors"
	"github.com/pairplay/sync-server-go/internal/events"
	"github.com/pairplay/sync-server-go/internal/game"
	"github.com/pairplay/sync-server-go/internal/model"
)

// SubmitMove runs the transition contract for one attempted move: gate on
// expiry, status, participant and turn ownership; validate; fold; flip the
// turn or complete the session. Rejections leave the session untouched and
// trigger no reward call, except the validator's own declared penalty.
func (e *Engine) SubmitMove(ctx context.Context, mv model.Move) (*model.Session, error) {
	entry, err := e.sessions.FindByID(ctx, mv.SessionID)
	if err != nil {
		return nil, apperrors.CacheError("find session", err)
	}
	if entry == nil {
		return nil, apperrors.NotFound("session")
	}
	session := entry.Session

	if session.Overdue(time.Now()) {
		if err := e.expire(ctx, session); err != nil {
			return nil, err
		}
		return nil, apperrors.SessionExpired(session.ID)
	}
	if session.Status == model.StatusCompleted {
		return nil, apperrors.SessionCompleted(session.ID)
	}
	if session.Status == model.StatusExpired {
		return nil, apperrors.SessionExpired(session.ID)
	}
	if !session.HasParticipant(mv.Submitter) {
		return nil, apperrors.NotParticipant(mv.Submitter)
	}

	verdict := game.Validate(session, mv, e.vocab)

	if verdict.Duplicate {
		// A retried delivery of an already-applied move is a no-op.
		log.Debug().
			Str("sessionId", session.ID).
			Str("submitter", mv.Submitter).
			Msg("duplicate move ignored")
		return session, nil
	}

	if verdict.Reason == game.ReasonAlreadyAnswered {
		return nil, apperrors.AlreadyAnswered(mv.Submitter)
	}

	if session.Kind.TurnBased() && !session.IsTurnOwner(mv.Submitter) {
		return nil, apperrors.NotYourTurn(mv.Submitter)
	}

	if !verdict.Valid {
		// Only the validator's declared penalty takes effect; the session
		// stays active with the same owner.
		if grant := game.PenaltyGrant(session, mv, verdict); grant != nil {
			e.award(ctx, session, *grant)
			if err := e.sessions.Save(ctx, session, model.PushPending); err != nil {
				return nil, apperrors.CacheError("record penalty", err)
			}
			e.pusher.Push(session)
		}
		return nil, apperrors.InvalidMove(verdict.Reason)
	}

	game.Apply(session, mv)
	session.Revision++
	if session.Status == model.StatusYielded {
		// A yielded turn clears the instant a move is accepted.
		session.Status = model.StatusActive
	}

	eventType := events.TypeMoveMade
	if game.Complete(session) {
		e.complete(ctx, session, mv.Submitter)
		eventType = events.TypeCompleted
	} else {
		if session.Kind.TurnBased() {
			next := session.Partner(mv.Submitter)
			session.CurrentTurnOwner = &next
		}
		if grant := game.MoveGrant(session, mv.Submitter); grant != nil {
			e.award(ctx, session, *grant)
		}
	}

	if err := e.sessions.Save(ctx, session, model.PushPending); err != nil {
		return nil, apperrors.CacheError("save move", err)
	}
	e.pusher.Push(session)
	e.pusher.Notify(ctx, eventType, session)

	log.Info().
		Str("sessionId", session.ID).
		Str("submitter", mv.Submitter).
		Str("status", string(session.Status)).
		Int("revision", session.Revision).
		Msg("move accepted")

	if session.Status == model.StatusCompleted {
		e.replenish(ctx, session, mv.Submitter)
	}

	return session, nil
}

// complete closes the session and resolves its reward tier table. The
// rewardsIssued guard makes re-entering this path harmless.
func (e *Engine) complete(ctx context.Context, session *model.Session, completer string) {
	now := time.Now()
	session.Status = model.StatusCompleted
	session.CompletedAt = &now
	session.CurrentTurnOwner = nil

	if grant := game.MoveGrant(session, completer); grant != nil {
		e.award(ctx, session, *grant)
	}
	for _, grant := range game.CompletionGrants(session, completer) {
		e.award(ctx, session, grant)
	}

	log.Info().
		Str("sessionId", session.ID).
		Str("kind", string(session.Kind)).
		Str("completer", completer).
		Msg("session completed")
}

// replenish restores the active pool after a completion for kinds with a
// concurrency cap. The replacement's first turn goes to the completer's
// partner, so the same participant is not always first.
func (e *Engine) replenish(ctx context.Context, completed *model.Session, completer string) {
	if completed.Kind.SingletonPerDay() {
		return
	}
	active, err := e.activeSessions(ctx, completed.Kind, time.Now())
	if err != nil {
		log.Warn().Err(err).Str("kind", string(completed.Kind)).Msg("replenish count failed")
		return
	}
	if len(active) >= completed.Kind.ActiveCap() {
		return
	}
	if _, err := e.createSession(ctx, completed.Kind, completed.Partner(completer)); err != nil {
		log.Warn().Err(err).Str("kind", string(completed.Kind)).Msg("replenish failed")
	}
}

// Yield passes the turn back to the partner without a move. Ladder only.
func (e *Engine) Yield(ctx context.Context, sessionID, participant string) (*model.Session, error) {
	entry, err := e.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, apperrors.CacheError("find session", err)
	}
	if entry == nil {
		return nil, apperrors.NotFound("session")
	}
	session := entry.Session

	if session.Kind != model.KindLadder {
		return nil, apperrors.InvalidInput("only ladder sessions support yielding")
	}
	if session.Overdue(time.Now()) {
		if err := e.expire(ctx, session); err != nil {
			return nil, err
		}
		return nil, apperrors.SessionExpired(session.ID)
	}
	if !session.Status.Mutable() {
		if session.Status == model.StatusCompleted {
			return nil, apperrors.SessionCompleted(session.ID)
		}
		return nil, apperrors.SessionExpired(session.ID)
	}
	if !session.HasParticipant(participant) {
		return nil, apperrors.NotParticipant(participant)
	}
	if !session.IsTurnOwner(participant) {
		return nil, apperrors.NotYourTurn(participant)
	}
	if session.Status == model.StatusYielded {
		// Yielding back a yielded turn would ping-pong the session without
		// progress; the receiver has to play a move first.
		return nil, apperrors.Conflict("turn already yielded, waiting on a move")
	}

	next := session.Partner(participant)
	session.CurrentTurnOwner = &next
	session.Status = model.StatusYielded
	session.Revision++

	if err := e.sessions.Save(ctx, session, model.PushPending); err != nil {
		return nil, apperrors.CacheError("save yield", err)
	}
	e.pusher.Push(session)
	e.pusher.Notify(ctx, events.TypeYielded, session)

	log.Info().
		Str("sessionId", session.ID).
		Str("participant", participant).
		Msg("turn yielded")

	return session, nil
}

// award applies one idempotent ledger grant. The local rewardsIssued record
// is the first guard; the ledger's own idempotency key is the second. A
// failed call stays unrecorded so a later re-entry retries it.
func (e *Engine) award(ctx context.Context, session *model.Session, grant game.Grant) {
	if session.RewardIssued(grant.TierKey) {
		return
	}
	if err := e.ledger.AwardOnce(ctx, session.ID, grant.TierKey, grant.Recipient, grant.Amount, grant.Reason); err != nil {
		log.Warn().
			Err(err).
			Str("sessionId", session.ID).
			Str("tierKey", grant.TierKey).
			Msg("reward call failed, will retry on next completion entry")
		return
	}
	session.RecordReward(grant.TierKey, grant.Amount)
	session.Revision++
}
