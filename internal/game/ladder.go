package game

import (
	"strings"

	"github.com/pairplay/sync-server-go/internal/model"
)

// invalidWordPenalty is the reward delta applied when a submitted word is
// rejected by the validator.
const invalidWordPenalty = -1

func normalizeWord(w string) string {
	return strings.ToUpper(strings.TrimSpace(w))
}

func validateLadder(s *model.Session, mv model.Move, vocab Vocabulary) Verdict {
	st := s.State.Ladder
	word := normalizeWord(mv.Word)
	if word == "" {
		return invalid(ReasonBadPayload, 0)
	}

	// A retried delivery of an accepted move: the word is already the chain
	// tail and the turn has flipped away from the submitter.
	if word == st.Tail() && len(st.Chain) > 0 && !s.IsTurnOwner(mv.Submitter) {
		return duplicate()
	}

	if vocab != nil && !vocab.Contains(st.Language, word) {
		return invalid(ReasonNotAValidWord, invalidWordPenalty)
	}

	if word == st.StartWord {
		return invalid(ReasonRepeatsPrior, invalidWordPenalty)
	}
	for _, prior := range st.Chain {
		if word == prior {
			return invalid(ReasonRepeatsPrior, invalidWordPenalty)
		}
	}

	if !oneEditApart(st.Tail(), word) {
		return invalid(ReasonNotOneEditAway, invalidWordPenalty)
	}

	return valid()
}

// oneEditApart reports whether b can be reached from a by inserting,
// deleting or substituting exactly one rune.
func oneEditApart(a, b string) bool {
	ra, rb := []rune(a), []rune(b)
	if a == b {
		return false
	}
	switch len(ra) - len(rb) {
	case 0:
		diff := 0
		for i := range ra {
			if ra[i] != rb[i] {
				diff++
				if diff > 1 {
					return false
				}
			}
		}
		return diff == 1
	case 1:
		return oneDeletionApart(ra, rb)
	case -1:
		return oneDeletionApart(rb, ra)
	}
	return false
}

// oneDeletionApart reports whether short is long with exactly one rune
// removed.
func oneDeletionApart(long, short []rune) bool {
	i, j := 0, 0
	skipped := false
	for i < len(long) && j < len(short) {
		if long[i] == short[j] {
			i++
			j++
			continue
		}
		if skipped {
			return false
		}
		skipped = true
		i++
	}
	return true
}
