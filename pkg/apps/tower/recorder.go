package tower

import (
	"context"

	"go.uber.org/zap"

	"github.com/jgirmay/privacy-tower/pkg/services/events"
)

// OnEvent records cumulative stats, scores, and unlocks as games progress.
// Subscribe the app to the session manager's bus.
func (ta *TowerApp) OnEvent(e *events.Event) {
	if e == nil || e.Player == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), ta.timeout)
	defer cancel()

	var err error
	switch e.Type {
	case events.GameStarted, events.GameReset:
		err = ta.statsManager.IncrementStat(ctx, e.Player, AppName, "games_played", 1)
	case events.QuizAnswered:
		err = ta.statsManager.IncrementStat(ctx, e.Player, AppName, "questions_answered", 1)
		if correct, _ := e.Data["correct"].(bool); correct && err == nil {
			err = ta.statsManager.IncrementStat(ctx, e.Player, AppName, "correct_answers", 1)
		}
	case events.AchievementUnlocked:
		id, _ := e.Data["achievement"].(string)
		err = ta.achievementMgr.UnlockAchievement(ctx, e.Player, id, e.Timestamp)
	case events.TowerCollapsed:
		err = ta.finish(ctx, e, "collapses")
	case events.GameCompleted:
		err = ta.finish(ctx, e, "completions")
	case events.TowerRebuilt:
		err = ta.statsManager.IncrementStat(ctx, e.Player, AppName, "rebuilds", 1)
	}

	if err != nil {
		ta.logger.Warn("failed to record event",
			zap.String("type", string(e.Type)),
			zap.String("player", e.Player),
			zap.Error(err))
	}
}

func (ta *TowerApp) finish(ctx context.Context, e *events.Event, stat string) error {
	if err := ta.statsManager.IncrementStat(ctx, e.Player, AppName, stat, 1); err != nil {
		return err
	}
	score, _ := e.Data["score"].(int)
	return ta.statsManager.RecordScore(ctx, e.Player, AppName, score, map[string]interface{}{
		"session_id":     e.SessionID,
		"outcome":        string(e.Type),
		"blocks_removed": e.Data["blocks_removed"],
		"rebuild_count":  e.Data["rebuild_count"],
	})
}
