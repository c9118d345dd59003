package game

import (
	"fmt"

	"github.com/pairplay/sync-server-go/internal/model"
)

// Per-move and completion reward amounts.
const (
	LadderPointsPerMove  = 2
	LadderCompletion     = 10
	LadderOptimalBonus   = 5
	MemoryPointsPerMatch = 2
	MemoryCompletion     = 10
)

// PerfectMatchBadgeKey is the tier key of the one-time quiz badge. It is
// granted alongside the 100% tier and must survive completion re-entry.
const PerfectMatchBadgeKey = "badge:perfect-match"

// Tier maps a quality-metric floor to a reward amount. Tables are ordered
// from best to worst; Resolve picks the first tier whose floor the metric
// reaches.
type Tier struct {
	Key    string
	Min    int
	Amount int
}

// TierTable is a declarative reward schedule keyed to a quality metric:
// agreement percent for quiz, steps-under-optimal for ladder. New kinds
// register a table here instead of branching inside the state machine.
type TierTable []Tier

func (t TierTable) Resolve(metric int) Tier {
	for _, tier := range t {
		if metric >= tier.Min {
			return tier
		}
	}
	return Tier{}
}

var quizTiers = TierTable{
	{Key: "match-100", Min: 100, Amount: 50},
	{Key: "match-80", Min: 80, Amount: 30},
	{Key: "match-60", Min: 60, Amount: 20},
	{Key: "match-low", Min: 0, Amount: 10},
}

// ladderEfficiencyTiers is keyed on optimalSteps - movesUsed: zero or better
// means the puzzle was solved at or under the precomputed optimum.
var ladderEfficiencyTiers = TierTable{
	{Key: "optimal-bonus", Min: 0, Amount: LadderOptimalBonus},
}

// Grant is one idempotent ledger credit. TierKey is unique per session so
// the same grant requested twice lands once.
type Grant struct {
	TierKey   string
	Recipient string
	Amount    int
	Reason    string
}

// MoveGrant is the reward for one accepted move, or nil for kinds without
// per-move rewards. The tier key embeds the move ordinal so retried pushes
// stay idempotent.
func MoveGrant(s *model.Session, submitter string) *Grant {
	switch s.Kind {
	case model.KindLadder:
		n := s.State.Ladder.Moves()
		return &Grant{
			TierKey:   fmt.Sprintf("move:%d", n),
			Recipient: submitter,
			Amount:    LadderPointsPerMove,
			Reason:    "ladder move accepted",
		}
	case model.KindMemoryFlip:
		n := s.State.Memory.Moves
		return &Grant{
			TierKey:   fmt.Sprintf("match:%d", n),
			Recipient: submitter,
			Amount:    MemoryPointsPerMatch,
			Reason:    "memory pair matched",
		}
	}
	return nil
}

// PenaltyGrant is the negative credit for a rejected move, or nil when the
// verdict carries no penalty. Keyed on the offending payload so a retried
// rejection is not charged twice.
func PenaltyGrant(s *model.Session, mv model.Move, v Verdict) *Grant {
	if v.Penalty == 0 {
		return nil
	}
	return &Grant{
		TierKey:   fmt.Sprintf("penalty:%s:%s", mv.Submitter, normalizeWord(mv.Word)),
		Recipient: mv.Submitter,
		Amount:    v.Penalty,
		Reason:    "invalid move: " + v.Reason,
	}
}

// CompletionGrants resolves the completed session against its kind's tier
// table. completer is the participant whose move closed the session.
func CompletionGrants(s *model.Session, completer string) []Grant {
	switch s.Kind {
	case model.KindLadder:
		grants := []Grant{{
			TierKey:   "completion",
			Recipient: completer,
			Amount:    LadderCompletion,
			Reason:    "ladder completed",
		}}
		st := s.State.Ladder
		if bonus := ladderEfficiencyTiers.Resolve(st.OptimalSteps - st.Moves()); bonus.Amount > 0 {
			grants = append(grants, Grant{
				TierKey:   bonus.Key,
				Recipient: completer,
				Amount:    bonus.Amount,
				Reason:    "ladder solved at or under optimal steps",
			})
		}
		return grants

	case model.KindQuiz:
		pct := s.State.Quiz.AgreementPercent(s.Participants[0], s.Participants[1])
		tier := quizTiers.Resolve(pct)
		grants := make([]Grant, 0, 3)
		for _, p := range s.Participants {
			grants = append(grants, Grant{
				TierKey:   fmt.Sprintf("%s:%s", tier.Key, p),
				Recipient: p,
				Amount:    tier.Amount,
				Reason:    fmt.Sprintf("quiz completed at %d%% agreement", pct),
			})
		}
		if pct == 100 {
			grants = append(grants, Grant{
				TierKey:   PerfectMatchBadgeKey,
				Recipient: s.PairKey,
				Amount:    0,
				Reason:    "perfect match badge",
			})
		}
		return grants

	case model.KindMemoryFlip:
		grants := make([]Grant, 0, 2)
		for _, p := range s.Participants {
			grants = append(grants, Grant{
				TierKey:   "completion:" + p,
				Recipient: p,
				Amount:    MemoryCompletion,
				Reason:    "memory board cleared",
			})
		}
		return grants
	}
	return nil
}
