package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairKey(t *testing.T) {
	assert.Equal(t, "alice:bob", PairKey("alice", "bob"))
	assert.Equal(t, "alice:bob", PairKey("bob", "alice"))
}

func TestSessionParticipants(t *testing.T) {
	s := &Session{Participants: [2]string{"alice", "bob"}}

	assert.True(t, s.HasParticipant("alice"))
	assert.True(t, s.HasParticipant("bob"))
	assert.False(t, s.HasParticipant("carol"))

	assert.Equal(t, "bob", s.Partner("alice"))
	assert.Equal(t, "alice", s.Partner("bob"))
	assert.Equal(t, "", s.Partner("carol"))
}

func TestIsTurnOwner(t *testing.T) {
	s := &Session{Participants: [2]string{"alice", "bob"}}

	t.Run("no owner means any participant may act", func(t *testing.T) {
		assert.True(t, s.IsTurnOwner("alice"))
		assert.True(t, s.IsTurnOwner("bob"))
		assert.False(t, s.IsTurnOwner("carol"))
	})

	t.Run("with an owner only the owner may act", func(t *testing.T) {
		owner := "bob"
		s.CurrentTurnOwner = &owner
		assert.False(t, s.IsTurnOwner("alice"))
		assert.True(t, s.IsTurnOwner("bob"))
	})
}

func TestOverdue(t *testing.T) {
	now := time.Now()
	s := &Session{Status: StatusActive, ExpiresAt: now.Add(-time.Minute)}
	assert.True(t, s.Overdue(now))

	s.ExpiresAt = now.Add(time.Minute)
	assert.False(t, s.Overdue(now))

	s.Status = StatusCompleted
	s.ExpiresAt = now.Add(-time.Minute)
	assert.False(t, s.Overdue(now), "terminal sessions never expire")
}

func TestDay(t *testing.T) {
	s := &Session{CreatedAt: time.Date(2026, 3, 14, 23, 30, 0, 0, time.FixedZone("KST", 9*3600))}
	assert.Equal(t, "2026-03-14", s.Day())
}

func TestRewardBookkeeping(t *testing.T) {
	s := &Session{}
	assert.False(t, s.RewardIssued("completion"))

	s.RecordReward("completion", 10)
	assert.True(t, s.RewardIssued("completion"))

	t.Run("merge is union, never overwrite", func(t *testing.T) {
		s.MergeRewards(map[string]int{"completion": 99, "move:1": 2})
		assert.Equal(t, 10, s.RewardsIssued["completion"])
		assert.Equal(t, 2, s.RewardsIssued["move:1"])
	})
}

func TestClone(t *testing.T) {
	owner := "alice"
	done := time.Now()
	s := &Session{
		ID:               "s1",
		Participants:     [2]string{"alice", "bob"},
		Kind:             KindLadder,
		CurrentTurnOwner: &owner,
		CompletedAt:      &done,
		RewardsIssued:    map[string]int{"move:1": 2},
		State: State{
			Kind:   KindLadder,
			Ladder: &LadderState{StartWord: "CAT", EndWord: "DOG", Chain: []string{"COT"}},
		},
	}

	c := s.Clone()
	require.Equal(t, s, c)

	c.State.Ladder.Chain = append(c.State.Ladder.Chain, "COG")
	*c.CurrentTurnOwner = "bob"
	c.RecordReward("move:2", 2)

	assert.Equal(t, []string{"COT"}, s.State.Ladder.Chain)
	assert.Equal(t, "alice", *s.CurrentTurnOwner)
	assert.False(t, s.RewardIssued("move:2"))
}

func TestStateValidate(t *testing.T) {
	t.Run("rejects unknown kind", func(t *testing.T) {
		s := State{Kind: "chess"}
		assert.Error(t, s.Validate())
	})

	t.Run("rejects payload mismatch", func(t *testing.T) {
		s := State{Kind: KindQuiz, Ladder: &LadderState{StartWord: "A", EndWord: "B"}}
		assert.Error(t, s.Validate())
	})

	t.Run("rejects odd memory decks", func(t *testing.T) {
		s := State{Kind: KindMemoryFlip, Memory: &MemoryState{Cards: []MemoryCard{{ID: "c1"}}}}
		assert.Error(t, s.Validate())
	})

	t.Run("accepts a well-formed ladder", func(t *testing.T) {
		s := State{Kind: KindLadder, Ladder: &LadderState{StartWord: "CAT", EndWord: "DOG"}}
		assert.NoError(t, s.Validate())
	})
}

func TestKindProperties(t *testing.T) {
	assert.True(t, KindLadder.TurnBased())
	assert.True(t, KindQuiz.TurnBased())
	assert.False(t, KindMemoryFlip.TurnBased())

	assert.Equal(t, 3, KindLadder.ActiveCap())
	assert.Equal(t, 1, KindQuiz.ActiveCap())
	assert.Equal(t, 1, KindMemoryFlip.ActiveCap())

	assert.False(t, KindLadder.SingletonPerDay())
	assert.True(t, KindQuiz.SingletonPerDay())
	assert.True(t, KindMemoryFlip.SingletonPerDay())

	assert.False(t, Kind("chess").Valid())
}
