package game

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pairplay/sync-server-go/internal/model"
)

func memorySession() *model.Session {
	owner := "alice"
	return &model.Session{
		ID:               "m1",
		Participants:     [2]string{"alice", "bob"},
		Kind:             model.KindMemoryFlip,
		Status:           model.StatusActive,
		CurrentTurnOwner: &owner,
		State: model.State{
			Kind: model.KindMemoryFlip,
			Memory: &model.MemoryState{
				Cards: []model.MemoryCard{
					{ID: "c1", PairKey: "sun", Status: model.CardHidden},
					{ID: "c2", PairKey: "sun", Status: model.CardHidden},
					{ID: "c3", PairKey: "moon", Status: model.CardHidden},
					{ID: "c4", PairKey: "moon", Status: model.CardHidden},
				},
			},
		},
	}
}

func TestValidateMemory(t *testing.T) {
	t.Run("accepts a matching hidden pair", func(t *testing.T) {
		s := memorySession()
		v := Validate(s, model.Move{Submitter: "alice", CardIDs: []string{"c1", "c2"}}, nil)
		assert.True(t, v.Valid)
	})

	t.Run("card order does not matter", func(t *testing.T) {
		s := memorySession()
		v := Validate(s, model.Move{Submitter: "alice", CardIDs: []string{"c2", "c1"}}, nil)
		assert.True(t, v.Valid)
	})

	t.Run("rejects mismatched pair", func(t *testing.T) {
		s := memorySession()
		v := Validate(s, model.Move{Submitter: "alice", CardIDs: []string{"c1", "c3"}}, nil)
		assert.False(t, v.Valid)
		assert.Equal(t, ReasonCardMismatch, v.Reason)
	})

	t.Run("rejects unknown card", func(t *testing.T) {
		s := memorySession()
		v := Validate(s, model.Move{Submitter: "alice", CardIDs: []string{"c1", "nope"}}, nil)
		assert.False(t, v.Valid)
		assert.Equal(t, ReasonCardUnknown, v.Reason)
	})

	t.Run("rejects repeated card id", func(t *testing.T) {
		s := memorySession()
		v := Validate(s, model.Move{Submitter: "alice", CardIDs: []string{"c1", "c1"}}, nil)
		assert.False(t, v.Valid)
		assert.Equal(t, ReasonBadPayload, v.Reason)
	})

	t.Run("rejects already-matched card in a new pairing", func(t *testing.T) {
		s := memorySession()
		s.State.Memory.Card("c1").Status = model.CardMatched
		s.State.Memory.Card("c2").Status = model.CardMatched
		v := Validate(s, model.Move{Submitter: "alice", CardIDs: []string{"c1", "c3"}}, nil)
		assert.False(t, v.Valid)
		assert.Equal(t, ReasonCardNotHidden, v.Reason)
	})

	t.Run("retried match of an already-matched pair is a duplicate", func(t *testing.T) {
		s := memorySession()
		s.State.Memory.Card("c1").Status = model.CardMatched
		s.State.Memory.Card("c2").Status = model.CardMatched
		v := Validate(s, model.Move{Submitter: "alice", CardIDs: []string{"c1", "c2"}}, nil)
		assert.True(t, v.Duplicate)
	})
}

func TestApplyMemoryAndComplete(t *testing.T) {
	s := memorySession()
	Apply(s, model.Move{Submitter: "alice", CardIDs: []string{"c1", "c2"}})
	assert.Equal(t, model.CardMatched, s.State.Memory.Card("c1").Status)
	assert.Equal(t, 1, s.State.Memory.Moves)
	assert.False(t, Complete(s))

	Apply(s, model.Move{Submitter: "bob", CardIDs: []string{"c3", "c4"}})
	assert.True(t, Complete(s))
	assert.Equal(t, 2, s.State.Memory.Moves)
}
