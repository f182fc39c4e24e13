package engine

import (
	"github.com/jgirmay/privacy-tower/pkg/models"
)

// RollDice rolls the die and records which layers can be pulled from.
// Layers 1..min(layers, value*layersPerPip) that still hold an intact block are accessible.
func (s *Session) RollDice() (models.DiceRoll, error) {
	if s.state.GamePhase != models.PhasePlaying {
		return models.DiceRoll{}, ErrInvalidPhase
	}

	value := s.rng.IntN(s.cfg.Dice.Faces) + 1
	roll := s.diceRoll(value)
	s.state.LastDiceRoll = &roll

	s.appendMove(models.GameMove{
		Action: models.ActionDiceRolled,
		Result: models.ResultRolled,
	})
	return cloneRoll(roll), nil
}

func (s *Session) diceRoll(value int) models.DiceRoll {
	maxLayer := min(s.cfg.Tower.Layers, value*s.cfg.Dice.LayersPerPip)

	intact := make(map[int]bool)
	for _, b := range s.blocks {
		if !b.Removed {
			intact[b.Layer] = true
		}
	}
	layers := []int{}
	for layer := 1; layer <= maxLayer; layer++ {
		if intact[layer] {
			layers = append(layers, layer)
		}
	}

	return models.DiceRoll{
		Value:            value,
		MaxLayer:         maxLayer,
		AccessibleLayers: layers,
		RolledAt:         s.now(),
	}
}

// AccessibleBlocks returns intact blocks in the given layers
func (s *Session) AccessibleBlocks(layers []int) []models.Block {
	want := make(map[int]bool, len(layers))
	for _, l := range layers {
		want[l] = true
	}
	var out []models.Block
	for _, b := range s.blocks {
		if !b.Removed && want[b.Layer] {
			b.Content = b.Content.Clone()
			out = append(out, b)
		}
	}
	return out
}

// SuggestedBlocks narrows the last roll's accessible blocks to the current
// recommended difficulty, falling back to every accessible block
func (s *Session) SuggestedBlocks() []models.Block {
	if s.state.LastDiceRoll == nil {
		return nil
	}
	accessible := s.AccessibleBlocks(s.state.LastDiceRoll.AccessibleLayers)
	var matching []models.Block
	for _, b := range accessible {
		if b.Difficulty == s.state.CurrentDifficulty {
			matching = append(matching, b)
		}
	}
	if len(matching) == 0 {
		return accessible
	}
	return matching
}

func cloneRoll(r models.DiceRoll) models.DiceRoll {
	r.AccessibleLayers = append([]int(nil), r.AccessibleLayers...)
	return r
}
