package tower

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/jgirmay/privacy-tower/internal/app"
	"github.com/jgirmay/privacy-tower/pkg/models"
	"github.com/jgirmay/privacy-tower/pkg/repository"
	"github.com/jgirmay/privacy-tower/pkg/services/sessions"
)

// AppName is the route prefix and stats key of the tower game
const AppName = "tower"

// TowerApp exposes privacy tower sessions over the JSON API
type TowerApp struct {
	sessions       *sessions.Manager
	statsManager   *app.StatsManager
	achievementMgr *app.AchievementManager
	players        repository.PlayerProfileRepository
	definitions    []models.AchievementDefinition
	logger         *zap.Logger
	timeout        time.Duration
}

// NewTowerApp creates the tower app. players may be nil.
func NewTowerApp(db *gorm.DB, manager *sessions.Manager, players repository.PlayerProfileRepository, definitions []models.AchievementDefinition, logger *zap.Logger) *TowerApp {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TowerApp{
		sessions:       manager,
		statsManager:   app.NewStatsManager(db),
		achievementMgr: app.NewAchievementManager(db),
		players:        players,
		definitions:    definitions,
		logger:         logger.Named(AppName),
		timeout:        5 * time.Second,
	}
}

// GetName implements App interface
func (ta *TowerApp) GetName() string {
	return AppName
}

// GetDisplayName implements App interface
func (ta *TowerApp) GetDisplayName() string {
	return "Privacy Tower"
}

// GetDescription implements App interface
func (ta *TowerApp) GetDescription() string {
	return "Pull blocks from the tower by answering privacy questions before it collapses"
}

// GetVersion implements App interface
func (ta *TowerApp) GetVersion() string {
	return "1.0.0"
}

// RegisterRoutes implements App interface
func (ta *TowerApp) RegisterRoutes(router *gin.RouterGroup) {
	games := router.Group("/games")
	{
		games.POST("", ta.handleCreateGame)
		games.GET("", ta.handleListGames)
		games.GET("/:id", ta.handleGetGame)
		games.DELETE("/:id", ta.handleDeleteGame)
		games.GET("/:id/blocks", ta.handleGetBlocks)
		games.POST("/:id/blocks/:blockID/click", ta.handleClickBlock)
		games.POST("/:id/blocks/:blockID/answer", ta.handleAnswer)
		games.POST("/:id/roll", ta.handleRoll)
		games.POST("/:id/rebuild", ta.handleRebuild)
		games.POST("/:id/reset", ta.handleReset)
		games.GET("/:id/statistics", ta.handleStatistics)
		games.POST("/:id/save", ta.handleSave)
		games.POST("/:id/restore", ta.handleRestore)
	}
	router.GET("/leaderboard", ta.handleGetLeaderboard)
	router.GET("/players", ta.handleGetTopPlayers)
	router.GET("/players/:nickname/stats", ta.handleGetPlayerStats)
	router.GET("/achievements", ta.handleGetAchievements)
}

// InitDB creates the stats tables and registers the achievement catalog
func (ta *TowerApp) InitDB() error {
	if err := ta.statsManager.Migrate(); err != nil {
		return fmt.Errorf("migrate stats: %w", err)
	}
	if err := ta.achievementMgr.Migrate(); err != nil {
		return fmt.Errorf("migrate achievements: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), ta.timeout)
	defer cancel()
	for _, def := range ta.definitions {
		if err := ta.achievementMgr.RegisterAchievement(ctx, AppName, def); err != nil {
			return fmt.Errorf("register achievement %s: %w", def.ID, err)
		}
	}
	return nil
}

// GetUserStats implements App interface
func (ta *TowerApp) GetUserStats(player string) (map[string]interface{}, error) {
	ctx, cancel := context.WithTimeout(context.Background(), ta.timeout)
	defer cancel()
	return ta.userStats(ctx, player)
}

func (ta *TowerApp) userStats(ctx context.Context, player string) (map[string]interface{}, error) {
	stats, err := ta.statsManager.GetAllStats(ctx, player, AppName)
	if err != nil {
		return nil, err
	}
	highScore, err := ta.statsManager.GetHighScore(ctx, player, AppName)
	if err != nil {
		return nil, err
	}
	achievements, err := ta.achievementMgr.GetUserAchievements(ctx, player, AppName)
	if err != nil {
		return nil, err
	}

	unlocked := 0
	for _, a := range achievements {
		if a.Unlocked {
			unlocked++
		}
	}

	result := map[string]interface{}{
		"player":                player,
		"stats":                 stats,
		"high_score":            highScore,
		"achievements_unlocked": unlocked,
		"achievements_total":    len(achievements),
	}
	if ta.players != nil {
		profile, err := ta.players.Get(ctx, player)
		switch {
		case err == nil:
			result["profile"] = profile
		case !isNotFound(err):
			return nil, err
		}
	}
	return result, nil
}

// GetLeaderboard implements App interface
func (ta *TowerApp) GetLeaderboard(limit int) ([]app.LeaderboardEntry, error) {
	ctx, cancel := context.WithTimeout(context.Background(), ta.timeout)
	defer cancel()
	return ta.statsManager.GetLeaderboard(ctx, AppName, limit)
}
