package game

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pairplay/sync-server-go/internal/model"
)

func TestStaticContent(t *testing.T) {
	content := NewStaticContent(42)

	t.Run("ladder draw is a valid fresh puzzle", func(t *testing.T) {
		st := content.NewLadder()
		assert.NotEmpty(t, st.StartWord)
		assert.NotEmpty(t, st.EndWord)
		assert.Empty(t, st.Chain)
		assert.Positive(t, st.OptimalSteps)
	})

	t.Run("quiz draw validates as session state", func(t *testing.T) {
		st := content.NewQuiz()
		state := model.State{Kind: model.KindQuiz, Quiz: &st}
		require.NoError(t, state.Validate())
		assert.NotNil(t, st.Answers)
	})

	t.Run("deck has every pair twice, all hidden", func(t *testing.T) {
		st := content.NewMemoryDeck()
		state := model.State{Kind: model.KindMemoryFlip, Memory: &st}
		require.NoError(t, state.Validate())

		counts := make(map[string]int)
		for _, c := range st.Cards {
			assert.Equal(t, model.CardHidden, c.Status)
			assert.NotEmpty(t, c.ID)
			counts[c.PairKey]++
		}
		for pair, n := range counts {
			assert.Equal(t, 2, n, "pair %s", pair)
		}
	})
}

func TestLoadWordSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(path, []byte("cat\n\n# comment\nCOT\n dog \n"), 0o644))

	vocab, err := LoadWordSet(path)
	require.NoError(t, err)
	assert.True(t, vocab.Contains("en", "CAT"))
	assert.True(t, vocab.Contains("en", "cot"))
	assert.True(t, vocab.Contains("en", "DOG"))
	assert.False(t, vocab.Contains("en", "comment"))

	_, err = LoadWordSet(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
