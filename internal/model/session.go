package model

import (
	"sort"
	"strings"
	"time"
)

// Session is the shared state of one instance of a two-player mini-game.
// The same logical session carries the same ID on both partners' devices;
// the arbitration protocol exists to guarantee that.
type Session struct {
	ID               string        `json:"id"`
	PairKey          string        `json:"pairKey"`
	Participants     [2]string     `json:"participants"`
	Kind             Kind          `json:"kind"`
	State            State         `json:"state"`
	CurrentTurnOwner *string       `json:"currentTurnOwner,omitempty"`
	Status           SessionStatus `json:"status"`
	// Revision increases by one per accepted mutation; the synchronizer
	// uses it to tell an in-flight local push from a genuine conflict.
	Revision    int        `json:"revision"`
	CreatedAt   time.Time  `json:"createdAt"`
	ExpiresAt   time.Time  `json:"expiresAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	// RewardsIssued records amounts already granted per tier key. It is
	// append-only and merged by union across stores so a reward is never
	// applied twice.
	RewardsIssued map[string]int `json:"rewardsIssued,omitempty"`
}

// PairKey derives the canonical shared-store key for a couple: the two
// participant IDs sorted and joined. Both devices compute the same value.
func PairKey(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return strings.Join(ids, ":")
}

// HasParticipant reports whether id is one of the session's two players.
func (s *Session) HasParticipant(id string) bool {
	return s.Participants[0] == id || s.Participants[1] == id
}

// Partner returns the other participant's ID, or "" if id is not a
// participant.
func (s *Session) Partner(id string) string {
	switch id {
	case s.Participants[0]:
		return s.Participants[1]
	case s.Participants[1]:
		return s.Participants[0]
	}
	return ""
}

// IsTurnOwner reports whether id currently holds the turn. Turn-free kinds
// have no owner and any participant may act.
func (s *Session) IsTurnOwner(id string) bool {
	if s.CurrentTurnOwner == nil {
		return s.HasParticipant(id)
	}
	return *s.CurrentTurnOwner == id
}

// Overdue reports whether a still-mutable session has passed its expiry.
// Expiry is checked lazily on access, not by a timer.
func (s *Session) Overdue(now time.Time) bool {
	return s.Status.Mutable() && now.After(s.ExpiresAt)
}

// Day is the UTC creation date, used for singleton-per-day scoping.
func (s *Session) Day() string {
	return s.CreatedAt.UTC().Format("2006-01-02")
}

// RewardIssued reports whether a tier key has already been granted.
func (s *Session) RewardIssued(tierKey string) bool {
	_, ok := s.RewardsIssued[tierKey]
	return ok
}

// RecordReward marks a tier key as granted with its amount.
func (s *Session) RecordReward(tierKey string, amount int) {
	if s.RewardsIssued == nil {
		s.RewardsIssued = make(map[string]int)
	}
	s.RewardsIssued[tierKey] = amount
}

// MergeRewards unions another snapshot's reward record into this one.
// Union, never overwrite: double-awarding must stay impossible even when
// two writers race on the shared store.
func (s *Session) MergeRewards(other map[string]int) {
	for k, v := range other {
		if _, ok := s.RewardsIssued[k]; !ok {
			s.RecordReward(k, v)
		}
	}
}

// Clone returns a deep copy so speculative local mutation never aliases a
// snapshot held elsewhere.
func (s *Session) Clone() *Session {
	c := *s
	if s.CurrentTurnOwner != nil {
		owner := *s.CurrentTurnOwner
		c.CurrentTurnOwner = &owner
	}
	if s.CompletedAt != nil {
		at := *s.CompletedAt
		c.CompletedAt = &at
	}
	if s.RewardsIssued != nil {
		c.RewardsIssued = make(map[string]int, len(s.RewardsIssued))
		for k, v := range s.RewardsIssued {
			c.RewardsIssued[k] = v
		}
	}
	switch {
	case s.State.Ladder != nil:
		l := *s.State.Ladder
		l.Chain = append([]string(nil), s.State.Ladder.Chain...)
		c.State.Ladder = &l
	case s.State.Quiz != nil:
		q := *s.State.Quiz
		q.Questions = append([]QuizQuestion(nil), s.State.Quiz.Questions...)
		q.Answers = make(map[string][]string, len(s.State.Quiz.Answers))
		for k, v := range s.State.Quiz.Answers {
			q.Answers[k] = append([]string(nil), v...)
		}
		c.State.Quiz = &q
	case s.State.Memory != nil:
		m := *s.State.Memory
		m.Cards = append([]MemoryCard(nil), s.State.Memory.Cards...)
		c.State.Memory = &m
	}
	return &c
}

// Move is one attempted state transition against a session. Exactly the
// fields relevant to the session's kind are set; the rest stay zero.
type Move struct {
	SessionID string   `json:"sessionId"`
	Submitter string   `json:"submitter"`
	Word      string   `json:"word,omitempty"`
	Answers   []string `json:"answers,omitempty"`
	CardIDs   []string `json:"cardIds,omitempty"`
}
