package app

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AppStat is a named counter per player and app
type AppStat struct {
	Player   string `gorm:"type:varchar(64);primaryKey"`
	AppName  string `gorm:"type:varchar(50);primaryKey"`
	StatName string `gorm:"type:varchar(50);primaryKey"`
	Value    int
}

// TableName specifies the table name for GORM
func (AppStat) TableName() string { return "app_stats" }

// AppScore is one finished or saved game score
type AppScore struct {
	ID        uint   `gorm:"primaryKey"`
	Player    string `gorm:"type:varchar(64);index"`
	AppName   string `gorm:"type:varchar(50);index"`
	Score     int
	Metadata  datatypes.JSONMap
	CreatedAt time.Time
}

// TableName specifies the table name for GORM
func (AppScore) TableName() string { return "app_scores" }

// LeaderboardEntry is one row of an app leaderboard
type LeaderboardEntry struct {
	Player    string `json:"player"`
	HighScore int    `json:"high_score"`
	Plays     int    `json:"plays"`
}

// StatsManager provides common statistics tracking for apps
type StatsManager struct {
	db *gorm.DB
}

// NewStatsManager creates a new stats manager
func NewStatsManager(db *gorm.DB) *StatsManager {
	return &StatsManager{
		db: db,
	}
}

// Migrate creates the stats tables
func (sm *StatsManager) Migrate() error {
	return sm.db.AutoMigrate(&AppStat{}, &AppScore{})
}

// IncrementStat increments a numeric stat for a player in an app
func (sm *StatsManager) IncrementStat(ctx context.Context, player, appName, statName string, amount int) error {
	stat := AppStat{Player: player, AppName: appName, StatName: statName, Value: amount}
	return sm.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "player"}, {Name: "app_name"}, {Name: "stat_name"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value": gorm.Expr("app_stats.value + excluded.value"),
		}),
	}).Create(&stat).Error
}

// GetStat retrieves a player's stat value, zero when unset
func (sm *StatsManager) GetStat(ctx context.Context, player, appName, statName string) (int, error) {
	var stats []AppStat
	err := sm.db.WithContext(ctx).
		Where("player = ? AND app_name = ? AND stat_name = ?", player, appName, statName).
		Limit(1).
		Find(&stats).Error
	if err != nil || len(stats) == 0 {
		return 0, err
	}
	return stats[0].Value, nil
}

// GetAllStats retrieves all stats for a player in an app
func (sm *StatsManager) GetAllStats(ctx context.Context, player, appName string) (map[string]int, error) {
	var rows []AppStat
	err := sm.db.WithContext(ctx).
		Where("player = ? AND app_name = ?", player, appName).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	stats := make(map[string]int, len(rows))
	for _, row := range rows {
		stats[row.StatName] = row.Value
	}
	return stats, nil
}

// RecordScore records a game score for a player
func (sm *StatsManager) RecordScore(ctx context.Context, player, appName string, score int, metadata map[string]interface{}) error {
	return sm.db.WithContext(ctx).Create(&AppScore{
		Player:   player,
		AppName:  appName,
		Score:    score,
		Metadata: datatypes.JSONMap(metadata),
	}).Error
}

// GetHighScore retrieves a player's best score
func (sm *StatsManager) GetHighScore(ctx context.Context, player, appName string) (int, error) {
	var best sql.NullInt64
	err := sm.db.WithContext(ctx).Model(&AppScore{}).
		Select("MAX(score)").
		Where("player = ? AND app_name = ?", player, appName).
		Row().Scan(&best)
	if err != nil {
		return 0, err
	}
	return int(best.Int64), nil
}

// GetLeaderboard retrieves top scores for an app
func (sm *StatsManager) GetLeaderboard(ctx context.Context, appName string, limit int) ([]LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	var results []LeaderboardEntry
	err := sm.db.WithContext(ctx).Model(&AppScore{}).
		Select("player, MAX(score) AS high_score, COUNT(*) AS plays").
		Where("app_name = ?", appName).
		Group("player").
		Order("high_score DESC").
		Order("player ASC").
		Limit(limit).
		Scan(&results).Error
	return results, err
}
