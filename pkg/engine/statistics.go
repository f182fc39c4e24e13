package engine

import (
	"time"

	"github.com/jgirmay/privacy-tower/pkg/models"
)

// GameStatistics derives a read-only summary of the session
func (s *Session) GameStatistics() models.GameStatistics {
	st := s.state
	stats := models.GameStatistics{
		GamePhase:            st.GamePhase,
		CurrentScore:         st.CurrentScore,
		TowerStability:       st.TowerStability,
		StabilityBand:        s.cfg.Stability.Band(st.TowerStability).Name,
		BlocksRemoved:        st.BlocksRemoved,
		TotalBlocks:          st.TotalBlocks,
		QuestionsAnswered:    st.CorrectAnswers + st.IncorrectAnswers,
		CorrectAnswers:       st.CorrectAnswers,
		IncorrectAnswers:     st.IncorrectAnswers,
		LongestStreak:        st.LongestStreak,
		CurrentDifficulty:    st.CurrentDifficulty,
		RebuildCount:         st.RebuildCount,
		CompletionPercentage: s.tracker.CompletionPercentage(),
		CategoryBreakdown:    make(map[models.Category]models.BreakdownEntry),
		DifficultyBreakdown:  make(map[models.Difficulty]models.BreakdownEntry),
		UnlockedAchievements: []string{},
		Duration:             s.now().Sub(st.StartedAt),
	}
	stats.Accuracy = percent(st.CorrectAnswers, stats.QuestionsAnswered)

	byCategory := make(map[models.Category]*models.BreakdownEntry)
	byDifficulty := make(map[models.Difficulty]*models.BreakdownEntry)
	var total time.Duration
	timed := 0
	for _, m := range st.History {
		if m.Action != models.ActionQuizAnswered {
			continue
		}
		correct := m.Result == models.ResultCorrect
		tally(byCategory, m.Category, correct)
		tally(byDifficulty, m.Difficulty, correct)
		if m.ResponseTime > 0 {
			total += m.ResponseTime
			timed++
		}
	}
	if timed > 0 {
		stats.AverageResponseTime = total / time.Duration(timed)
	}
	for c, e := range byCategory {
		e.Accuracy = percent(e.Correct, e.Answered)
		stats.CategoryBreakdown[c] = *e
	}
	for d, e := range byDifficulty {
		e.Accuracy = percent(e.Correct, e.Answered)
		stats.DifficultyBreakdown[d] = *e
	}

	for _, def := range s.achievements.Definitions() {
		if st.Player.Achievements[def.ID].IsUnlocked {
			stats.UnlockedAchievements = append(stats.UnlockedAchievements, def.ID)
		}
	}
	return stats
}
