package game

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/pairplay/sync-server-go/internal/model"
)

// ContentSource supplies fresh puzzle material for new sessions. The real
// content banks are an external collaborator; the engine only needs these
// three draws.
type ContentSource interface {
	NewLadder() model.LadderState
	NewQuiz() model.QuizState
	NewMemoryDeck() model.MemoryState
}

// WordSet is an in-memory Vocabulary backed by a flat word list.
type WordSet struct {
	words map[string]struct{}
}

func NewWordSet(words []string) *WordSet {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[normalizeWord(w)] = struct{}{}
	}
	return &WordSet{words: set}
}

// LoadWordSet reads one word per line. Blank lines and #-comments are
// skipped.
func LoadWordSet(path string) (*WordSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open word list: %w", err)
	}
	defer f.Close()

	var words []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read word list: %w", err)
	}
	return NewWordSet(words), nil
}

func (w *WordSet) Contains(language, word string) bool {
	_, ok := w.words[normalizeWord(word)]
	return ok
}

func (w *WordSet) Add(words ...string) {
	for _, word := range words {
		w.words[normalizeWord(word)] = struct{}{}
	}
}

// builtinLadders keeps the sidecar playable without an external content
// bank wired up.
var builtinLadders = []model.LadderState{
	{StartWord: "CAT", EndWord: "DOG", OptimalSteps: 3, Language: "en"},
	{StartWord: "COLD", EndWord: "WARM", OptimalSteps: 4, Language: "en"},
	{StartWord: "HEAD", EndWord: "TAIL", OptimalSteps: 5, Language: "en"},
	{StartWord: "LOVE", EndWord: "LIFE", OptimalSteps: 3, Language: "en"},
}

var builtinQuizzes = [][]model.QuizQuestion{
	{
		{ID: "q1", Prompt: "Ideal weekend?", Options: []string{"hiking", "movies", "cooking", "sleeping"}},
		{ID: "q2", Prompt: "Coffee or tea?", Options: []string{"coffee", "tea"}},
		{ID: "q3", Prompt: "Window or aisle seat?", Options: []string{"window", "aisle"}},
		{ID: "q4", Prompt: "Early bird or night owl?", Options: []string{"early bird", "night owl"}},
		{ID: "q5", Prompt: "Beach or mountains?", Options: []string{"beach", "mountains"}},
	},
}

var builtinDeckPairs = []string{"heart", "star", "moon", "sun", "cloud", "leaf"}

// StaticContent is the built-in ContentSource. Draws are randomized per
// call; card layouts are shuffled once by the creating device and shared
// verbatim with the partner.
type StaticContent struct {
	rng *rand.Rand
}

func NewStaticContent(seed int64) *StaticContent {
	return &StaticContent{rng: rand.New(rand.NewSource(seed))}
}

func (c *StaticContent) NewLadder() model.LadderState {
	st := builtinLadders[c.rng.Intn(len(builtinLadders))]
	st.Chain = nil
	return st
}

func (c *StaticContent) NewQuiz() model.QuizState {
	questions := builtinQuizzes[c.rng.Intn(len(builtinQuizzes))]
	return model.QuizState{
		Questions: append([]model.QuizQuestion(nil), questions...),
		Answers:   make(map[string][]string),
	}
}

func (c *StaticContent) NewMemoryDeck() model.MemoryState {
	cards := make([]model.MemoryCard, 0, len(builtinDeckPairs)*2)
	for _, pair := range builtinDeckPairs {
		for i := 0; i < 2; i++ {
			cards = append(cards, model.MemoryCard{
				ID:      uuid.NewString(),
				PairKey: pair,
				Status:  model.CardHidden,
			})
		}
	}
	c.rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return model.MemoryState{Cards: cards}
}
