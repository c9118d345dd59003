package game

import "github.com/pairplay/sync-server-go/internal/model"

func validateMemory(st *model.MemoryState, mv model.Move) Verdict {
	if len(mv.CardIDs) != 2 || mv.CardIDs[0] == mv.CardIDs[1] {
		return invalid(ReasonBadPayload, 0)
	}

	// Matches are commutative: the order of the two ids does not matter.
	first, second := st.Card(mv.CardIDs[0]), st.Card(mv.CardIDs[1])
	if first == nil || second == nil {
		return invalid(ReasonCardUnknown, 0)
	}

	if first.PairKey == second.PairKey &&
		first.Status == model.CardMatched && second.Status == model.CardMatched {
		// The pair is already matched: a retried delivery of an applied move.
		return duplicate()
	}

	if first.Status != model.CardHidden || second.Status != model.CardHidden {
		return invalid(ReasonCardNotHidden, 0)
	}
	if first.PairKey != second.PairKey {
		return invalid(ReasonCardMismatch, 0)
	}

	return valid()
}
