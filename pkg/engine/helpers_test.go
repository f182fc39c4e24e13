package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jgirmay/privacy-tower/pkg/models"
	"github.com/jgirmay/privacy-tower/pkg/questions"
)

// makeBank builds n items cycling hard/medium/easy and through the categories.
// Choice 0 is always correct.
func makeBank(t *testing.T, n, correctImpact, incorrectImpact int) *questions.Bank {
	t.Helper()
	items := make([]models.ContentItem, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, models.ContentItem{
			ID:         fmt.Sprintf("item-%02d", i),
			Category:   models.AllCategories[i%len(models.AllCategories)],
			Difficulty: []models.Difficulty{models.DifficultyHard, models.DifficultyMedium, models.DifficultyEasy}[i%3],
			Title:      fmt.Sprintf("Item %d", i),
			Question: &models.Question{
				Text:         "Pick the first choice",
				Choices:      []string{"right", "wrong", "also wrong"},
				CorrectIndex: 0,
			},
			Explanation:     "The first choice is right",
			StabilityImpact: models.ScorePair{Correct: correctImpact, Incorrect: incorrectImpact},
			Points:          models.ScorePair{Correct: 10, Incorrect: -5},
		})
	}
	bank, err := questions.New(items)
	require.NoError(t, err)
	return bank
}

func fixedClock() func() time.Time {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func newTestSession(t *testing.T, bank *questions.Bank, opts ...Option) *Session {
	t.Helper()
	s, err := NewSession(bank, "tester", append([]Option{WithClock(fixedClock())}, opts...)...)
	require.NoError(t, err)
	return s
}

// freshBlocks returns intact blocks whose content has not been shown yet,
// one per content item
func freshBlocks(s *Session) []models.Block {
	seen := make(map[string]bool)
	for _, id := range s.GameState().ContentShown {
		seen[id] = true
	}
	var out []models.Block
	for _, b := range s.Blocks() {
		if b.Removed || b.Content == nil || seen[b.Content.ID] {
			continue
		}
		seen[b.Content.ID] = true
		out = append(out, b)
	}
	return out
}

func answer(t *testing.T, s *Session, b models.Block, correct bool) *models.QuizResult {
	t.Helper()
	choice := b.Content.Question.CorrectIndex
	if !correct {
		choice = (choice + 1) % len(b.Content.Question.Choices)
	}
	res, err := s.HandleQuizAnswer(b.ID, choice, 8*time.Second)
	require.NoError(t, err)
	return res
}
