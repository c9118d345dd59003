package game

import (
	"slices"

	"github.com/pairplay/sync-server-go/internal/model"
)

func validateQuiz(st *model.QuizState, mv model.Move) Verdict {
	if len(mv.Answers) == 0 {
		return invalid(ReasonBadPayload, 0)
	}
	if len(mv.Answers) != len(st.Questions) {
		return invalid(ReasonAnswerCount, 0)
	}

	if prior, ok := st.Answers[mv.Submitter]; ok {
		// The identical payload again is a network retry, not a second
		// attempt. Anything else is rejected, never silently overwritten.
		if slices.Equal(prior, mv.Answers) {
			return duplicate()
		}
		return invalid(ReasonAlreadyAnswered, 0)
	}

	return valid()
}
