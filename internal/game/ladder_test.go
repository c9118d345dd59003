package game

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pairplay/sync-server-go/internal/model"
)

func ladderSession(chain ...string) *model.Session {
	owner := "alice"
	return &model.Session{
		ID:               "s1",
		Participants:     [2]string{"alice", "bob"},
		Kind:             model.KindLadder,
		Status:           model.StatusActive,
		CurrentTurnOwner: &owner,
		State: model.State{
			Kind: model.KindLadder,
			Ladder: &model.LadderState{
				StartWord:    "CAT",
				EndWord:      "DOG",
				Chain:        chain,
				OptimalSteps: 3,
				Language:     "en",
			},
		},
	}
}

func testVocab() *WordSet {
	return NewWordSet([]string{"CAT", "COT", "COG", "DOG", "CAR", "BAT", "CATS"})
}

func TestValidateLadder(t *testing.T) {
	vocab := testVocab()

	t.Run("accepts one substitution", func(t *testing.T) {
		s := ladderSession()
		v := Validate(s, model.Move{Submitter: "alice", Word: "COT"}, vocab)
		assert.True(t, v.Valid)
		assert.Empty(t, v.Reason)
	})

	t.Run("accepts one insertion", func(t *testing.T) {
		s := ladderSession()
		v := Validate(s, model.Move{Submitter: "alice", Word: "CATS"}, vocab)
		assert.True(t, v.Valid)
	})

	t.Run("accepts one deletion", func(t *testing.T) {
		s := ladderSession("BATS")
		v := Validate(s, model.Move{Submitter: "alice", Word: "BAT"}, vocab)
		assert.True(t, v.Valid)
	})

	t.Run("normalizes case and whitespace", func(t *testing.T) {
		s := ladderSession()
		v := Validate(s, model.Move{Submitter: "alice", Word: " cot "}, vocab)
		assert.True(t, v.Valid)
	})

	t.Run("rejects unknown word with penalty", func(t *testing.T) {
		s := ladderSession()
		v := Validate(s, model.Move{Submitter: "alice", Word: "CQT"}, vocab)
		assert.False(t, v.Valid)
		assert.Equal(t, ReasonNotAValidWord, v.Reason)
		assert.Equal(t, -1, v.Penalty)
	})

	t.Run("rejects word already in chain", func(t *testing.T) {
		s := ladderSession("COT", "COG")
		v := Validate(s, model.Move{Submitter: "alice", Word: "COT"}, vocab)
		assert.False(t, v.Valid)
		assert.Equal(t, ReasonRepeatsPrior, v.Reason)
	})

	t.Run("rejects word more than one edit away", func(t *testing.T) {
		s := ladderSession()
		v := Validate(s, model.Move{Submitter: "alice", Word: "DOG"}, vocab)
		assert.False(t, v.Valid)
		assert.Equal(t, ReasonNotOneEditAway, v.Reason)
	})

	t.Run("rejects empty word", func(t *testing.T) {
		s := ladderSession()
		v := Validate(s, model.Move{Submitter: "alice", Word: "  "}, vocab)
		assert.False(t, v.Valid)
		assert.Equal(t, ReasonBadPayload, v.Reason)
	})

	t.Run("flags retried tail word from previous mover as duplicate", func(t *testing.T) {
		// Bob played COT, turn flipped to alice; bob's retry arrives late.
		s := ladderSession("COT")
		v := Validate(s, model.Move{Submitter: "bob", Word: "COT"}, vocab)
		assert.True(t, v.Duplicate)
	})

	t.Run("current owner repeating the tail is not a duplicate", func(t *testing.T) {
		s := ladderSession("COT")
		v := Validate(s, model.Move{Submitter: "alice", Word: "COT"}, vocab)
		assert.False(t, v.Duplicate)
		assert.False(t, v.Valid)
		assert.Equal(t, ReasonRepeatsPrior, v.Reason)
	})

	t.Run("nil vocabulary skips the word check", func(t *testing.T) {
		s := ladderSession()
		v := Validate(s, model.Move{Submitter: "alice", Word: "CUT"}, nil)
		assert.True(t, v.Valid)
	})
}

func TestOneEditApart(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"CAT", "COT", true},
		{"CAT", "CAT", false},
		{"CAT", "CATS", true},
		{"CATS", "CAT", true},
		{"CAT", "AT", true},
		{"CAT", "DOG", false},
		{"CAT", "COTS", false},
		{"COLD", "CORD", true},
		{"A", "", true},
		{"AB", "BA", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, oneEditApart(tt.a, tt.b), "%s -> %s", tt.a, tt.b)
	}
}

func TestLadderCompletion(t *testing.T) {
	t.Run("complete when tail equals end word", func(t *testing.T) {
		s := ladderSession("COT", "COG", "DOG")
		assert.True(t, Complete(s))
	})

	t.Run("not complete mid-chain", func(t *testing.T) {
		s := ladderSession("COT")
		assert.False(t, Complete(s))
	})
}

func TestApplyLadder(t *testing.T) {
	s := ladderSession()
	Apply(s, model.Move{Submitter: "alice", Word: "cot"})
	assert.Equal(t, []string{"COT"}, s.State.Ladder.Chain)
	assert.Equal(t, "COT", s.State.Ladder.Tail())
}
