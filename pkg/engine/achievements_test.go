package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgirmay/privacy-tower/pkg/models"
)

func TestAchievementEvaluatorUnlocksOnce(t *testing.T) {
	eval := NewAchievementEvaluator(DefaultAchievements())
	state := &models.GameState{TowerStability: 60}
	state.Player.BlocksRemoved = 1

	unlocked := eval.Evaluate(state, EvalContext{})
	assert.Equal(t, []string{AchievementFirstBlock}, unlocked)
	assert.Equal(t, 10, state.CurrentScore)
	assert.Equal(t, 10, state.Player.TotalScore)
	require.NotNil(t, state.Player.Achievements[AchievementFirstBlock].UnlockedAt)

	first := *state.Player.Achievements[AchievementFirstBlock].UnlockedAt
	unlocked = eval.Evaluate(state, EvalContext{Now: first.Add(time.Hour)})
	assert.Empty(t, unlocked)
	assert.Equal(t, 10, state.CurrentScore, "no double award")
	assert.Equal(t, first, *state.Player.Achievements[AchievementFirstBlock].UnlockedAt)
}

func TestAchievementEvaluatorIsMonotonic(t *testing.T) {
	eval := NewAchievementEvaluator(DefaultAchievements())
	state := &models.GameState{ConsecutiveCorrect: 5, TowerStability: 50}
	require.Contains(t, eval.Evaluate(state, EvalContext{}), AchievementConsecutiveMaster)

	state.ConsecutiveCorrect = 0
	eval.Evaluate(state, EvalContext{})
	assert.True(t, state.Player.Achievements[AchievementConsecutiveMaster].IsUnlocked)
}

func TestAchievementConditions(t *testing.T) {
	tests := []struct {
		name  string
		id    string
		state models.GameState
		ctx   EvalContext
		want  bool
	}{
		{"perfect round", AchievementPerfectRound, models.GameState{BlocksRemoved: 10}, EvalContext{}, true},
		{"perfect round spoiled", AchievementPerfectRound, models.GameState{BlocksRemoved: 10, IncorrectAnswers: 1}, EvalContext{}, false},
		{"stability master", AchievementStabilityMaster, models.GameState{TowerStability: 90, BlocksRemoved: 5}, EvalContext{}, true},
		{"stability master too early", AchievementStabilityMaster, models.GameState{TowerStability: 100, BlocksRemoved: 4}, EvalContext{}, false},
		{"category expert", AchievementCategoryExpert, models.GameState{LearningProgress: map[models.Category]models.CategoryProgress{models.CategoryLightning: {Correct: 5}}}, EvalContext{}, true},
		{"fast thinker", AchievementFastThinker, models.GameState{}, EvalContext{Correct: true, ResponseTime: 3 * time.Second, FastAnswer: 5 * time.Second}, true},
		{"fast but wrong", AchievementFastThinker, models.GameState{}, EvalContext{ResponseTime: 3 * time.Second, FastAnswer: 5 * time.Second}, false},
		{"survivor", AchievementSurvivor, models.GameState{RebuildCount: 1}, EvalContext{Correct: true}, true},
		{"survivor needs a rebuild", AchievementSurvivor, models.GameState{}, EvalContext{Correct: true}, false},
		{"high scorer", AchievementHighScorer, models.GameState{CurrentScore: 500}, EvalContext{}, true},
		{"privacy scholar", AchievementPrivacyScholar, models.GameState{}, EvalContext{AllContentShown: true}, true},
	}

	eval := NewAchievementEvaluator(DefaultAchievements())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def, ok := eval.Definition(tt.id)
			require.True(t, ok)
			state := tt.state
			assert.Equal(t, tt.want, achievementConditions[tt.id](&state, def, tt.ctx))
		})
	}
}

func TestDefaultAchievementsAreKnown(t *testing.T) {
	for _, def := range DefaultAchievements() {
		_, ok := achievementConditions[def.ID]
		assert.True(t, ok, def.ID)
	}
	assert.NoError(t, DefaultConfig().Validate())
}
