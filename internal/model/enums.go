package model

// Kind identifies which mini-game a session belongs to. It selects the
// validator, the completion predicate and the reward tier table.
type Kind string

const (
	KindLadder     Kind = "ladder"
	KindQuiz       Kind = "quiz"
	KindMemoryFlip Kind = "memory-flip"
)

func (k Kind) Valid() bool {
	switch k {
	case KindLadder, KindQuiz, KindMemoryFlip:
		return true
	}
	return false
}

// TurnBased reports whether the kind enforces strict turn alternation.
// Memory-flip is turn-free: either partner may act until the board is solved.
func (k Kind) TurnBased() bool {
	return k == KindLadder || k == KindQuiz
}

// ActiveCap is the number of concurrently active sessions allowed for a
// pair. Quiz and memory-flip are singleton-per-day; ladder allows three.
func (k Kind) ActiveCap() int {
	if k == KindLadder {
		return 3
	}
	return 1
}

// SingletonPerDay reports whether at most one session of this kind may be
// created for a pair per UTC day, regardless of how it ended.
func (k Kind) SingletonPerDay() bool {
	return k != KindLadder
}

type SessionStatus string

const (
	StatusActive    SessionStatus = "active"
	StatusYielded   SessionStatus = "yielded"
	StatusCompleted SessionStatus = "completed"
	StatusExpired   SessionStatus = "expired"
)

// Mutable reports whether moves may still be folded into the session.
func (s SessionStatus) Mutable() bool {
	return s == StatusActive || s == StatusYielded
}

// Terminal reports whether the session is immutable apart from reward
// bookkeeping.
func (s SessionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusExpired
}

// PushState tracks whether the locally cached snapshot has been confirmed
// by the remote session store. A pending snapshot is speculative: a
// conflicting authoritative snapshot discards it.
type PushState string

const (
	PushPending PushState = "pending"
	PushSynced  PushState = "synced"
)

// CardStatus is the visibility state of a single memory-flip card.
type CardStatus string

const (
	CardHidden  CardStatus = "hidden"
	CardMatched CardStatus = "matched"
)
