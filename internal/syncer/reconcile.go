package syncer

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/pairplay/sync-server-go/internal/events"
	"github.com/pairplay/sync-server-go/internal/model"
)

// Reconcile pulls the pair's remote snapshots and converges the local cache
// on them: duplicate sessions are collapsed by the tie-break rule, remote
// snapshots replace local state at whole-snapshot granularity, and reward
// bookkeeping is merged by union, never overwritten.
func (s *Syncer) Reconcile(ctx context.Context) error {
	remoteSessions, err := s.remote.List(ctx, s.pairKey)
	if err != nil {
		return fmt.Errorf("list remote sessions: %w", err)
	}

	survivors := s.resolveDuplicates(ctx, remoteSessions)

	remoteByID := make(map[string]bool, len(survivors))
	for i := range survivors {
		remoteByID[survivors[i].ID] = true
		if err := s.mergeRemote(ctx, &survivors[i]); err != nil {
			log.Warn().Err(err).Str("sessionId", survivors[i].ID).Msg("merge failed")
		}
	}

	// Local sessions the remote store has never seen: their push did not
	// land yet. Re-push rather than wait for the next mutation.
	local, err := s.sessions.FindByPairKey(ctx, s.pairKey)
	if err != nil {
		return fmt.Errorf("list cached sessions: %w", err)
	}
	for _, entry := range local {
		if entry.PushState == model.PushPending && !remoteByID[entry.Session.ID] {
			s.Push(entry.Session)
		}
	}

	return nil
}

// resolveDuplicates applies the tie-break rule: when the creation race
// produced more mutable sessions of a kind than the cap allows (one per day
// for singleton kinds, three for ladder), the earliest-created win, with
// the smaller ID breaking equal timestamps; the rest are discarded from
// every store.
func (s *Syncer) resolveDuplicates(ctx context.Context, sessions []model.Session) []model.Session {
	type slot struct {
		kind model.Kind
		day  string
	}

	mutable := make(map[slot][]model.Session)
	survivors := make([]model.Session, 0, len(sessions))

	for _, session := range sessions {
		if !session.Status.Mutable() {
			survivors = append(survivors, session)
			continue
		}
		key := slot{kind: session.Kind}
		if session.Kind.SingletonPerDay() {
			key.day = session.Day()
		}
		mutable[key] = append(mutable[key], session)
	}

	for key, group := range mutable {
		sort.Slice(group, func(i, j int) bool {
			if !group[i].CreatedAt.Equal(group[j].CreatedAt) {
				return group[i].CreatedAt.Before(group[j].CreatedAt)
			}
			return group[i].ID < group[j].ID
		})

		limit := key.kind.ActiveCap()
		for i, session := range group {
			if i < limit {
				survivors = append(survivors, session)
				continue
			}
			s.discard(ctx, session)
		}
	}

	return survivors
}

// discard drops a tie-break loser from all three stores. Any local-only
// state referencing it goes with it.
func (s *Syncer) discard(ctx context.Context, session model.Session) {
	log.Warn().
		Str("sessionId", session.ID).
		Str("kind", string(session.Kind)).
		Msg("discarding duplicate session after tie-break")

	if err := s.remote.Delete(ctx, session.PairKey, session.Kind, session.ID); err != nil {
		log.Warn().Err(err).Str("sessionId", session.ID).Msg("remote discard failed")
	}
	if err := s.backend.Delete(ctx, session.Kind, session.ID); err != nil {
		log.Warn().Err(err).Str("sessionId", session.ID).Msg("backend discard failed")
	}
	if err := s.sessions.Delete(ctx, session.ID); err != nil {
		log.Warn().Err(err).Str("sessionId", session.ID).Msg("cache discard failed")
	}
}

// mergeRemote folds one authoritative snapshot into the local cache.
// Revisions decide: a higher remote revision always wins; an equal revision
// with differing content means both devices mutated concurrently, and the
// write order the remote store accepted decides: the speculative local
// mutation is discarded and state re-derived from the snapshot.
func (s *Syncer) mergeRemote(ctx context.Context, remote *model.Session) error {
	entry, err := s.sessions.FindByID(ctx, remote.ID)
	if err != nil {
		return err
	}

	if entry == nil {
		// Partner-created session discovered.
		if err := s.sessions.Save(ctx, remote, model.PushSynced); err != nil {
			return err
		}
		log.Info().
			Str("sessionId", remote.ID).
			Str("kind", string(remote.Kind)).
			Msg("adopted session from remote store")
		return nil
	}

	local := entry.Session

	switch {
	case remote.Revision > local.Revision:
		merged := remote.Clone()
		merged.MergeRewards(local.RewardsIssued)
		if entry.PushState == model.PushPending {
			log.Warn().
				Str("sessionId", local.ID).
				Int("localRevision", local.Revision).
				Int("remoteRevision", remote.Revision).
				Msg("remote is ahead, discarding speculative local state")
		}
		if err := s.adoptMerged(ctx, merged, remote); err != nil {
			return err
		}
		s.Notify(ctx, events.TypeStateRefreshed, merged)

	case remote.Revision == local.Revision:
		if snapshotEqual(remote, local) {
			if entry.PushState == model.PushPending {
				return s.sessions.MarkSynced(ctx, local.ID, local.Revision)
			}
			return nil
		}
		// Same revision, different content: both devices believed they
		// held the turn. The snapshot the remote store accepted wins.
		merged := remote.Clone()
		merged.MergeRewards(local.RewardsIssued)
		log.Warn().
			Str("sessionId", local.ID).
			Int("revision", local.Revision).
			Msg("conflicting concurrent mutation, re-deriving from remote snapshot")
		if err := s.adoptMerged(ctx, merged, remote); err != nil {
			return err
		}
		s.Notify(ctx, events.TypeStateRefreshed, merged)

	default:
		// Local is ahead: our push has not landed. Send it again.
		s.Push(local)
	}

	return nil
}

// adoptMerged stores a merged authoritative snapshot. When the reward union
// picked up keys the remote snapshot lacks, the merged copy goes back out as
// a pending push; otherwise saving as synced is enough and the next
// reconcile sees an identical snapshot. MergeRewards only ever adds keys, so
// comparing sizes suffices.
func (s *Syncer) adoptMerged(ctx context.Context, merged, remote *model.Session) error {
	if len(merged.RewardsIssued) == len(remote.RewardsIssued) {
		return s.sessions.Save(ctx, merged, model.PushSynced)
	}
	if err := s.sessions.Save(ctx, merged, model.PushPending); err != nil {
		return err
	}
	s.Push(merged)
	return nil
}
