package game

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pairplay/sync-server-go/internal/model"
)

func quizSession() *model.Session {
	owner := "alice"
	return &model.Session{
		ID:               "q1",
		Participants:     [2]string{"alice", "bob"},
		Kind:             model.KindQuiz,
		Status:           model.StatusActive,
		CurrentTurnOwner: &owner,
		State: model.State{
			Kind: model.KindQuiz,
			Quiz: &model.QuizState{
				Questions: []model.QuizQuestion{
					{ID: "q1", Prompt: "a", Options: []string{"x", "y"}},
					{ID: "q2", Prompt: "b", Options: []string{"x", "y"}},
					{ID: "q3", Prompt: "c", Options: []string{"x", "y"}},
				},
				Answers: map[string][]string{},
			},
		},
	}
}

func TestValidateQuiz(t *testing.T) {
	t.Run("accepts a full answer sheet", func(t *testing.T) {
		s := quizSession()
		v := Validate(s, model.Move{Submitter: "alice", Answers: []string{"x", "y", "x"}}, nil)
		assert.True(t, v.Valid)
	})

	t.Run("rejects answer count mismatch", func(t *testing.T) {
		s := quizSession()
		v := Validate(s, model.Move{Submitter: "alice", Answers: []string{"x"}}, nil)
		assert.False(t, v.Valid)
		assert.Equal(t, ReasonAnswerCount, v.Reason)
	})

	t.Run("rejects empty answers", func(t *testing.T) {
		s := quizSession()
		v := Validate(s, model.Move{Submitter: "alice"}, nil)
		assert.False(t, v.Valid)
		assert.Equal(t, ReasonBadPayload, v.Reason)
	})

	t.Run("identical resubmission is a duplicate", func(t *testing.T) {
		s := quizSession()
		s.State.Quiz.Answers["alice"] = []string{"x", "y", "x"}
		v := Validate(s, model.Move{Submitter: "alice", Answers: []string{"x", "y", "x"}}, nil)
		assert.True(t, v.Duplicate)
	})

	t.Run("changed resubmission is rejected, not overwritten", func(t *testing.T) {
		s := quizSession()
		s.State.Quiz.Answers["alice"] = []string{"x", "y", "x"}
		v := Validate(s, model.Move{Submitter: "alice", Answers: []string{"y", "y", "x"}}, nil)
		assert.False(t, v.Valid)
		assert.Equal(t, ReasonAlreadyAnswered, v.Reason)
	})
}

func TestQuizAgreementPercent(t *testing.T) {
	s := quizSession()
	q := s.State.Quiz
	q.Answers["alice"] = []string{"x", "y", "x"}
	q.Answers["bob"] = []string{"x", "y", "y"}
	assert.Equal(t, 66, q.AgreementPercent("alice", "bob"))

	q.Answers["bob"] = []string{"x", "y", "x"}
	assert.Equal(t, 100, q.AgreementPercent("alice", "bob"))

	assert.False(t, Complete(quizSession()))
	assert.True(t, Complete(s))
}
