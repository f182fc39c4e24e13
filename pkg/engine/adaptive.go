package engine

import (
	"github.com/jgirmay/privacy-tower/pkg/models"
)

// AdaptiveTracker recomputes accuracies after each answer and nudges the
// recommended difficulty one tier at a time
type AdaptiveTracker struct {
	cfg AdaptiveConfig
}

func NewAdaptiveTracker(cfg AdaptiveConfig) *AdaptiveTracker {
	return &AdaptiveTracker{cfg: cfg}
}

// Update refreshes state.Adaptive from the answer history and adjusts
// state.CurrentDifficulty. category is the category just answered.
func (a *AdaptiveTracker) Update(state *models.GameState, category models.Category) models.AdaptiveImpact {
	byCategory := make(map[models.Category]*models.BreakdownEntry)
	byDifficulty := make(map[models.Difficulty]*models.BreakdownEntry)

	for _, move := range state.History {
		if move.Action != models.ActionQuizAnswered {
			continue
		}
		tally(byCategory, move.Category, move.Result == models.ResultCorrect)
		tally(byDifficulty, move.Difficulty, move.Result == models.ResultCorrect)
	}

	answered := state.CorrectAnswers + state.IncorrectAnswers
	overall := percent(state.CorrectAnswers, answered)

	state.Adaptive.OverallAccuracy = overall
	state.Adaptive.CategoryAccuracy = make(map[models.Category]float64, len(byCategory))
	for c, e := range byCategory {
		state.Adaptive.CategoryAccuracy[c] = percent(e.Correct, e.Answered)
	}
	state.Adaptive.DifficultyAccuracy = make(map[models.Difficulty]float64, len(byDifficulty))
	for d, e := range byDifficulty {
		state.Adaptive.DifficultyAccuracy[d] = percent(e.Correct, e.Answered)
	}

	previous := state.CurrentDifficulty
	if answered >= a.cfg.MinSamples {
		switch {
		case overall >= a.cfg.EscalateAt:
			state.CurrentDifficulty = stepDifficulty(previous, 1)
		case overall <= a.cfg.DeescalateAt:
			state.CurrentDifficulty = stepDifficulty(previous, -1)
		}
	}

	return models.AdaptiveImpact{
		PreviousDifficulty:    previous,
		RecommendedDifficulty: state.CurrentDifficulty,
		Changed:               previous != state.CurrentDifficulty,
		OverallAccuracy:       overall,
		CategoryAccuracy:      state.Adaptive.CategoryAccuracy[category],
	}
}

func tally[K comparable](m map[K]*models.BreakdownEntry, key K, correct bool) {
	e, ok := m[key]
	if !ok {
		e = &models.BreakdownEntry{}
		m[key] = e
	}
	e.Answered++
	if correct {
		e.Correct++
	}
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

// stepDifficulty moves one tier, saturating at easy and hard
func stepDifficulty(d models.Difficulty, step int) models.Difficulty {
	rank := d.Rank()
	if rank < 0 {
		return d
	}
	rank += step
	if rank < 0 {
		rank = 0
	}
	if rank >= len(models.Difficulties) {
		rank = len(models.Difficulties) - 1
	}
	return models.Difficulties[rank]
}
