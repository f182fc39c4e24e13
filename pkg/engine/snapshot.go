package engine

import (
	"fmt"

	"github.com/jgirmay/privacy-tower/pkg/models"
	"github.com/jgirmay/privacy-tower/pkg/questions"
)

// Snapshot captures everything needed to resume the session
func (s *Session) Snapshot() models.GameSnapshot {
	return models.GameSnapshot{
		State:  s.GameState(),
		Blocks: s.Blocks(),
	}
}

// RestoreSession rebuilds a session from a snapshot taken against the same catalog.
// Block content is re-linked to the bank's items.
func RestoreSession(bank *questions.Bank, snap models.GameSnapshot, opts ...Option) (*Session, error) {
	s, err := newSession(bank, opts...)
	if err != nil {
		return nil, err
	}

	blocks := cloneBlocks(snap.Blocks)
	removed := 0
	for i := range blocks {
		b := &blocks[i]
		if b.Removed {
			removed++
		}
		if b.Content == nil {
			continue
		}
		item, ok := bank.Get(b.Content.ID)
		if !ok {
			return nil, fmt.Errorf("%w: block %s references unknown content %s", ErrBadSnapshot, b.ID, b.Content.ID)
		}
		b.Content = item
	}
	if removed != snap.State.BlocksRemoved {
		return nil, fmt.Errorf("%w: %d removed blocks but state says %d", ErrBadSnapshot, removed, snap.State.BlocksRemoved)
	}
	if len(blocks) != snap.State.TotalBlocks {
		return nil, fmt.Errorf("%w: %d blocks but state says %d", ErrBadSnapshot, len(blocks), snap.State.TotalBlocks)
	}

	for _, id := range snap.State.ContentShown {
		if !s.tracker.MarkAsShown(id) && !s.tracker.IsShown(id) {
			return nil, fmt.Errorf("%w: unknown shown content %s", ErrBadSnapshot, id)
		}
	}

	s.state = snap.State.Clone()
	s.state.TowerStability = s.cfg.Stability.Clamp(s.state.TowerStability)
	if s.state.LearningProgress == nil {
		s.state.LearningProgress = make(map[models.Category]models.CategoryProgress)
	}
	if s.state.Player.Achievements == nil {
		s.state.Player.Achievements = s.achievements.lockedStates()
	}
	s.state.ContentShown = s.tracker.Shown()
	s.setBlocks(blocks)
	return s, nil
}
