package model

import "fmt"

// State is the per-kind session payload as a tagged union: exactly one of
// the kind pointers is non-nil, matching Kind. Store boundaries must call
// Validate before trusting a decoded snapshot.
type State struct {
	Kind   Kind         `json:"kind"`
	Ladder *LadderState `json:"ladder,omitempty"`
	Quiz   *QuizState   `json:"quiz,omitempty"`
	Memory *MemoryState `json:"memory,omitempty"`
}

type LadderState struct {
	StartWord    string   `json:"startWord"`
	EndWord      string   `json:"endWord"`
	Chain        []string `json:"chain"`
	OptimalSteps int      `json:"optimalSteps"`
	Language     string   `json:"language"`
}

// Tail is the most recent word in the chain (the start word before any move).
func (l *LadderState) Tail() string {
	if len(l.Chain) == 0 {
		return l.StartWord
	}
	return l.Chain[len(l.Chain)-1]
}

// Moves is the number of words played so far.
func (l *LadderState) Moves() int {
	return len(l.Chain)
}

type QuizQuestion struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
}

type QuizState struct {
	Questions []QuizQuestion      `json:"questions"`
	Answers   map[string][]string `json:"answers"`
}

func (q *QuizState) HasAnswered(participant string) bool {
	_, ok := q.Answers[participant]
	return ok
}

// AgreementPercent is the share of questions both participants answered
// identically, in whole percent. Only meaningful once both have answered.
func (q *QuizState) AgreementPercent(a, b string) int {
	ansA, ansB := q.Answers[a], q.Answers[b]
	if len(q.Questions) == 0 || len(ansA) != len(q.Questions) || len(ansB) != len(q.Questions) {
		return 0
	}
	matched := 0
	for i := range q.Questions {
		if ansA[i] == ansB[i] {
			matched++
		}
	}
	return matched * 100 / len(q.Questions)
}

type MemoryCard struct {
	ID      string     `json:"id"`
	PairKey string     `json:"pairKey"`
	Status  CardStatus `json:"status"`
}

type MemoryState struct {
	Cards []MemoryCard `json:"cards"`
	Moves int          `json:"moves"`
}

func (m *MemoryState) Card(id string) *MemoryCard {
	for i := range m.Cards {
		if m.Cards[i].ID == id {
			return &m.Cards[i]
		}
	}
	return nil
}

func (m *MemoryState) AllMatched() bool {
	for i := range m.Cards {
		if m.Cards[i].Status != CardMatched {
			return false
		}
	}
	return len(m.Cards) > 0
}

// Validate checks the tagged-union shape: the discriminator must be a known
// kind and exactly the matching payload must be present.
func (s *State) Validate() error {
	if !s.Kind.Valid() {
		return fmt.Errorf("unknown state kind %q", s.Kind)
	}
	set := 0
	if s.Ladder != nil {
		set++
	}
	if s.Quiz != nil {
		set++
	}
	if s.Memory != nil {
		set++
	}
	if set != 1 {
		return fmt.Errorf("state for kind %q must carry exactly one payload, has %d", s.Kind, set)
	}
	switch s.Kind {
	case KindLadder:
		if s.Ladder == nil {
			return fmt.Errorf("ladder state missing ladder payload")
		}
		if s.Ladder.StartWord == "" || s.Ladder.EndWord == "" {
			return fmt.Errorf("ladder state missing start or end word")
		}
	case KindQuiz:
		if s.Quiz == nil {
			return fmt.Errorf("quiz state missing quiz payload")
		}
		if len(s.Quiz.Questions) == 0 {
			return fmt.Errorf("quiz state has no questions")
		}
	case KindMemoryFlip:
		if s.Memory == nil {
			return fmt.Errorf("memory-flip state missing memory payload")
		}
		if len(s.Memory.Cards) == 0 || len(s.Memory.Cards)%2 != 0 {
			return fmt.Errorf("memory-flip state needs a non-empty even card set, has %d", len(s.Memory.Cards))
		}
	}
	return nil
}
