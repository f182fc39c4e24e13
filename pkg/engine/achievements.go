package engine

import (
	"time"

	"github.com/jgirmay/privacy-tower/pkg/models"
)

// Achievement ids
const (
	AchievementFirstBlock        = "first-block"
	AchievementConsecutiveMaster = "consecutive-master"
	AchievementPerfectRound      = "perfect-round"
	AchievementStabilityMaster   = "stability-master"
	AchievementCategoryExpert    = "category-expert"
	AchievementFastThinker       = "fast-thinker"
	AchievementSurvivor          = "survivor"
	AchievementHighScorer        = "high-scorer"
	AchievementPrivacyScholar    = "privacy-scholar"
)

// stabilityMasterMinBlocks is the removal count stability-master also requires
const stabilityMasterMinBlocks = 5

// DefaultAchievements returns the built-in achievement set
func DefaultAchievements() []models.AchievementDefinition {
	return []models.AchievementDefinition{
		{ID: AchievementFirstBlock, Name: "First Block", Description: "Remove your first block", Icon: "🧱", Points: 10, Threshold: 1},
		{ID: AchievementConsecutiveMaster, Name: "Consecutive Master", Description: "Answer 5 questions correctly in a row", Icon: "🔥", Points: 50, Threshold: 5},
		{ID: AchievementPerfectRound, Name: "Perfect Round", Description: "Remove 10 blocks without a wrong answer", Icon: "💎", Points: 100, Threshold: 10},
		{ID: AchievementStabilityMaster, Name: "Stability Master", Description: "Keep stability at 90 or above after removing 5 blocks", Icon: "🏛️", Points: 75, Threshold: 90},
		{ID: AchievementCategoryExpert, Name: "Category Expert", Description: "Answer 5 questions correctly in one category", Icon: "🎓", Points: 60, Threshold: 5},
		{ID: AchievementFastThinker, Name: "Fast Thinker", Description: "Answer correctly in under 5 seconds", Icon: "⚡", Points: 25, Threshold: 5},
		{ID: AchievementSurvivor, Name: "Survivor", Description: "Answer correctly after rebuilding a collapsed tower", Icon: "🛟", Points: 40, Threshold: 1},
		{ID: AchievementHighScorer, Name: "High Scorer", Description: "Reach a score of 500", Icon: "🏆", Points: 100, Threshold: 500},
		{ID: AchievementPrivacyScholar, Name: "Privacy Scholar", Description: "See every lesson in the catalog", Icon: "📚", Points: 200, Threshold: 100},
	}
}

// EvalContext carries facts about the last answer that GameState does not hold
type EvalContext struct {
	Correct         bool
	ResponseTime    time.Duration
	FastAnswer      time.Duration
	AllContentShown bool
	Now             time.Time
}

type achievementCondition func(s *models.GameState, def models.AchievementDefinition, ctx EvalContext) bool

var achievementConditions = map[string]achievementCondition{
	AchievementFirstBlock: func(s *models.GameState, def models.AchievementDefinition, _ EvalContext) bool {
		return s.Player.BlocksRemoved >= max(def.Threshold, 1)
	},
	AchievementConsecutiveMaster: func(s *models.GameState, def models.AchievementDefinition, _ EvalContext) bool {
		return s.ConsecutiveCorrect >= def.Threshold
	},
	AchievementPerfectRound: func(s *models.GameState, def models.AchievementDefinition, _ EvalContext) bool {
		return s.IncorrectAnswers == 0 && s.BlocksRemoved >= def.Threshold
	},
	AchievementStabilityMaster: func(s *models.GameState, def models.AchievementDefinition, _ EvalContext) bool {
		return s.TowerStability >= def.Threshold && s.BlocksRemoved >= stabilityMasterMinBlocks
	},
	AchievementCategoryExpert: func(s *models.GameState, def models.AchievementDefinition, _ EvalContext) bool {
		for _, p := range s.LearningProgress {
			if p.Correct >= def.Threshold {
				return true
			}
		}
		return false
	},
	AchievementFastThinker: func(_ *models.GameState, _ models.AchievementDefinition, ctx EvalContext) bool {
		return ctx.Correct && ctx.ResponseTime > 0 && ctx.ResponseTime < ctx.FastAnswer
	},
	AchievementSurvivor: func(s *models.GameState, def models.AchievementDefinition, ctx EvalContext) bool {
		return ctx.Correct && s.RebuildCount >= max(def.Threshold, 1)
	},
	AchievementHighScorer: func(s *models.GameState, def models.AchievementDefinition, _ EvalContext) bool {
		return s.CurrentScore >= def.Threshold
	},
	AchievementPrivacyScholar: func(_ *models.GameState, _ models.AchievementDefinition, ctx EvalContext) bool {
		return ctx.AllContentShown
	},
}

// AchievementEvaluator unlocks achievements whose conditions hold
type AchievementEvaluator struct {
	defs []models.AchievementDefinition
}

func NewAchievementEvaluator(defs []models.AchievementDefinition) *AchievementEvaluator {
	return &AchievementEvaluator{defs: defs}
}

// Definitions returns a copy of the configured set
func (e *AchievementEvaluator) Definitions() []models.AchievementDefinition {
	return append([]models.AchievementDefinition(nil), e.defs...)
}

// Definition looks up one achievement by id
func (e *AchievementEvaluator) Definition(id string) (models.AchievementDefinition, bool) {
	for _, def := range e.defs {
		if def.ID == id {
			return def, true
		}
	}
	return models.AchievementDefinition{}, false
}

// Evaluate unlocks every achievement whose condition now holds, awards the
// points to the session and the player, and returns the newly unlocked ids.
// Unlocked achievements are never re-evaluated.
func (e *AchievementEvaluator) Evaluate(s *models.GameState, ctx EvalContext) []string {
	if s.Player.Achievements == nil {
		s.Player.Achievements = make(map[string]models.AchievementState)
	}
	if ctx.Now.IsZero() {
		ctx.Now = time.Now()
	}

	var unlocked []string
	for _, def := range e.defs {
		if s.Player.Achievements[def.ID].IsUnlocked {
			continue
		}
		cond, ok := achievementConditions[def.ID]
		if !ok || !cond(s, def, ctx) {
			continue
		}

		at := ctx.Now
		s.Player.Achievements[def.ID] = models.AchievementState{IsUnlocked: true, UnlockedAt: &at}
		s.CurrentScore += def.Points
		s.Player.TotalScore += def.Points
		unlocked = append(unlocked, def.ID)
	}
	return unlocked
}

// lockedStates returns a locked entry for every definition
func (e *AchievementEvaluator) lockedStates() map[string]models.AchievementState {
	out := make(map[string]models.AchievementState, len(e.defs))
	for _, def := range e.defs {
		out[def.ID] = models.AchievementState{}
	}
	return out
}
