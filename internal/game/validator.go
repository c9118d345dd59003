package game

import "github.com/pairplay/sync-server-go/internal/model"

// Reason codes for rejected moves.
const (
	ReasonNotAValidWord   = "not-a-valid-word"
	ReasonRepeatsPrior    = "repeats-prior-word"
	ReasonNotOneEditAway  = "not-one-edit-away"
	ReasonAlreadyAnswered = "already-answered"
	ReasonAnswerCount     = "answer-count-mismatch"
	ReasonCardUnknown     = "unknown-card"
	ReasonCardNotHidden   = "card-not-hidden"
	ReasonCardMismatch    = "cards-not-a-pair"
	ReasonBadPayload      = "bad-payload"
)

// Verdict is the structured result of a legality check. Duplicate marks a
// retried delivery of an already-applied move, which callers treat as a
// no-op rather than an error. Penalty is the (non-positive) reward delta an
// invalid move carries.
type Verdict struct {
	Valid     bool
	Duplicate bool
	Reason    string
	Penalty   int
}

func valid() Verdict {
	return Verdict{Valid: true}
}

func duplicate() Verdict {
	return Verdict{Valid: true, Duplicate: true}
}

func invalid(reason string, penalty int) Verdict {
	return Verdict{Reason: reason, Penalty: penalty}
}

// Vocabulary answers word-membership queries for a language. Content banks
// live outside the engine; this is the only surface it needs.
type Vocabulary interface {
	Contains(language, word string) bool
}

// Validate runs the kind-matching legality check for a proposed move.
// Validators never mutate session state; callers apply effects only after a
// valid verdict.
func Validate(s *model.Session, mv model.Move, vocab Vocabulary) Verdict {
	switch s.Kind {
	case model.KindLadder:
		return validateLadder(s, mv, vocab)
	case model.KindQuiz:
		return validateQuiz(s.State.Quiz, mv)
	case model.KindMemoryFlip:
		return validateMemory(s.State.Memory, mv)
	}
	return invalid(ReasonBadPayload, 0)
}

// Apply folds a validated move into the session state. Callers must have
// obtained a non-duplicate valid verdict first.
func Apply(s *model.Session, mv model.Move) {
	switch s.Kind {
	case model.KindLadder:
		s.State.Ladder.Chain = append(s.State.Ladder.Chain, normalizeWord(mv.Word))
	case model.KindQuiz:
		if s.State.Quiz.Answers == nil {
			s.State.Quiz.Answers = make(map[string][]string)
		}
		s.State.Quiz.Answers[mv.Submitter] = append([]string(nil), mv.Answers...)
	case model.KindMemoryFlip:
		st := s.State.Memory
		st.Card(mv.CardIDs[0]).Status = model.CardMatched
		st.Card(mv.CardIDs[1]).Status = model.CardMatched
		st.Moves++
	}
}

// Complete is the per-kind completion predicate.
func Complete(s *model.Session) bool {
	switch s.Kind {
	case model.KindLadder:
		return s.State.Ladder.Tail() == s.State.Ladder.EndWord
	case model.KindQuiz:
		q := s.State.Quiz
		return q.HasAnswered(s.Participants[0]) && q.HasAnswered(s.Participants[1])
	case model.KindMemoryFlip:
		return s.State.Memory.AllMatched()
	}
	return false
}
