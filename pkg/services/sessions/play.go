package sessions

import (
	"fmt"
	"time"

	"github.com/jgirmay/privacy-tower/pkg/engine"
	"github.com/jgirmay/privacy-tower/pkg/models"
	"github.com/jgirmay/privacy-tower/pkg/services/events"
)

// State returns a copy of the session's game state
func (m *Manager) State(id string) (models.GameState, error) {
	var state models.GameState
	err := m.Do(id, func(s *engine.Session) error {
		state = s.GameState()
		return nil
	})
	return state, err
}

// Blocks returns a copy of the session's tower
func (m *Manager) Blocks(id string) ([]models.Block, error) {
	var blocks []models.Block
	err := m.Do(id, func(s *engine.Session) error {
		blocks = s.Blocks()
		return nil
	})
	return blocks, err
}

// Statistics returns the derived statistics of the session
func (m *Manager) Statistics(id string) (models.GameStatistics, error) {
	var stats models.GameStatistics
	err := m.Do(id, func(s *engine.Session) error {
		stats = s.GameStatistics()
		return nil
	})
	return stats, err
}

// Achievements returns the definitions and the player's unlock state
func (m *Manager) Achievements(id string) ([]models.AchievementDefinition, map[string]models.AchievementState, error) {
	var (
		defs   []models.AchievementDefinition
		states map[string]models.AchievementState
	)
	err := m.Do(id, func(s *engine.Session) error {
		defs = s.Achievements()
		states = s.GameState().Player.Achievements
		return nil
	})
	return defs, states, err
}

// Click reveals the content of a block.
//
// The operations below publish their events while still holding the session
// lock, so listeners see one session's events in the order they happened.
func (m *Manager) Click(id, blockID string) (*models.ContentItem, error) {
	var item *models.ContentItem
	err := m.Do(id, func(s *engine.Session) error {
		item = s.HandleBlockClick(blockID)
		if item == nil {
			return fmt.Errorf("%w: %s", ErrBlockUnavailable, blockID)
		}
		m.publish(events.BlockRevealed, id, s.GameState().Player.Nickname, map[string]interface{}{
			"block_id":   blockID,
			"content_id": item.ID,
			"category":   string(item.Category),
			"difficulty": string(item.Difficulty),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// Answer scores an answer and publishes the resulting events
func (m *Manager) Answer(id, blockID string, selected int, elapsed time.Duration) (*models.QuizResult, error) {
	var result *models.QuizResult
	err := m.Do(id, func(s *engine.Session) error {
		var err error
		result, err = s.HandleQuizAnswer(blockID, selected, elapsed)
		if err != nil {
			return err
		}

		state := s.GameState()
		player := state.Player.Nickname
		var difficulty models.Difficulty
		if n := len(state.History); n > 0 {
			difficulty = state.History[n-1].Difficulty
		}
		m.publish(events.QuizAnswered, id, player, map[string]interface{}{
			"block_id":           blockID,
			"correct":            result.IsCorrect,
			"difficulty":         string(difficulty),
			"points":             result.Points,
			"achievement_points": result.AchievementPoints,
			"stability_delta":    result.StabilityDelta,
			"new_stability":      result.NewStability,
			"response_time":      elapsed,
			"score":              state.CurrentScore,
		})

		defs := make(map[string]models.AchievementDefinition)
		for _, d := range s.Achievements() {
			defs[d.ID] = d
		}
		for _, achievementID := range result.UnlockedAchievements {
			m.publish(events.AchievementUnlocked, id, player, map[string]interface{}{
				"achievement": achievementID,
				"points":      defs[achievementID].Points,
			})
		}

		switch {
		case result.Collapsed:
			m.publish(events.TowerCollapsed, id, player, terminalData(state))
		case result.Completed:
			m.publish(events.GameCompleted, id, player, terminalData(state))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RollOutcome is a dice roll with the blocks it opens up
type RollOutcome struct {
	Roll       models.DiceRoll `json:"roll"`
	Accessible []models.Block  `json:"accessible"`
	Suggested  []models.Block  `json:"suggested"`
}

// Roll rolls the die and returns the blocks it makes accessible
func (m *Manager) Roll(id string) (RollOutcome, error) {
	var out RollOutcome
	err := m.Do(id, func(s *engine.Session) error {
		roll, err := s.RollDice()
		if err != nil {
			return err
		}
		out = RollOutcome{
			Roll:       roll,
			Accessible: s.AccessibleBlocks(roll.AccessibleLayers),
			Suggested:  s.SuggestedBlocks(),
		}
		m.publish(events.DiceRolled, id, s.GameState().Player.Nickname, map[string]interface{}{
			"value":             roll.Value,
			"max_layer":         roll.MaxLayer,
			"accessible_layers": roll.AccessibleLayers,
		})
		return nil
	})
	if err != nil {
		return RollOutcome{}, err
	}
	return out, nil
}

// Rebuild replaces a collapsed or cleared tower
func (m *Manager) Rebuild(id string) (models.GameState, error) {
	var state models.GameState
	err := m.Do(id, func(s *engine.Session) error {
		var err error
		state, err = s.RebuildTower()
		if err != nil {
			return err
		}

		if state.GamePhase == models.PhaseCompleted {
			m.publish(events.GameCompleted, id, state.Player.Nickname, terminalData(state))
		} else {
			m.publish(events.TowerRebuilt, id, state.Player.Nickname, map[string]interface{}{
				"rebuild_count": state.RebuildCount,
				"score":         state.CurrentScore,
			})
		}
		return nil
	})
	if err != nil {
		return models.GameState{}, err
	}
	return state, nil
}

// Reset starts a new game in the same session, keeping the player profile
func (m *Manager) Reset(id string) (models.GameState, error) {
	var state models.GameState
	err := m.Do(id, func(s *engine.Session) error {
		previous := s.GameState()
		state = s.ResetGame()
		m.publish(events.GameReset, id, state.Player.Nickname, map[string]interface{}{
			"previous_score": previous.CurrentScore,
			"previous_phase": string(previous.GamePhase),
			"games_played":   state.Player.GamesPlayed,
		})
		return nil
	})
	if err != nil {
		return models.GameState{}, err
	}
	return state, nil
}

func terminalData(state models.GameState) map[string]interface{} {
	return map[string]interface{}{
		"score":             state.CurrentScore,
		"blocks_removed":    state.BlocksRemoved,
		"rebuild_count":     state.RebuildCount,
		"correct_answers":   state.CorrectAnswers,
		"incorrect_answers": state.IncorrectAnswers,
	}
}
