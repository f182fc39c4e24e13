package app

import (
	"context"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jgirmay/privacy-tower/pkg/models"
)

// Achievement is the stored definition of an achievement
type Achievement struct {
	ID          string `gorm:"type:varchar(64);primaryKey"`
	AppName     string `gorm:"type:varchar(50);index"`
	Name        string
	Description string
	Icon        string
	Points      int
	Threshold   int
}

// TableName specifies the table name for GORM
func (Achievement) TableName() string { return "achievements" }

// UserAchievement marks an achievement unlocked for a player
type UserAchievement struct {
	Player        string `gorm:"type:varchar(64);primaryKey"`
	AchievementID string `gorm:"type:varchar(64);primaryKey"`
	UnlockedAt    time.Time
}

// TableName specifies the table name for GORM
func (UserAchievement) TableName() string { return "user_achievements" }

// AchievementStatus is a definition plus a player's unlock state
type AchievementStatus struct {
	models.AchievementDefinition
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlocked_at,omitempty"`
}

// AchievementManager persists achievement definitions and player unlocks
type AchievementManager struct {
	db           *gorm.DB
	achievements map[string]Achievement
	mu           sync.RWMutex
}

// NewAchievementManager creates a new achievement manager
func NewAchievementManager(db *gorm.DB) *AchievementManager {
	return &AchievementManager{
		db:           db,
		achievements: make(map[string]Achievement),
	}
}

// Migrate creates the achievement tables
func (am *AchievementManager) Migrate() error {
	return am.db.AutoMigrate(&Achievement{}, &UserAchievement{})
}

// RegisterAchievement registers a definition for an app
func (am *AchievementManager) RegisterAchievement(ctx context.Context, appName string, def models.AchievementDefinition) error {
	ach := Achievement{
		ID:          def.ID,
		AppName:     appName,
		Name:        def.Name,
		Description: def.Description,
		Icon:        def.Icon,
		Points:      def.Points,
		Threshold:   def.Threshold,
	}

	am.mu.Lock()
	am.achievements[ach.ID] = ach
	am.mu.Unlock()

	return am.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description", "icon", "points", "threshold"}),
	}).Create(&ach).Error
}

// UnlockAchievement records an unlock. Unknown ids are ignored and
// re-unlocking keeps the first timestamp.
func (am *AchievementManager) UnlockAchievement(ctx context.Context, player, achievementID string, at time.Time) error {
	am.mu.RLock()
	_, exists := am.achievements[achievementID]
	am.mu.RUnlock()

	if !exists {
		return nil
	}

	return am.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&UserAchievement{
		Player:        player,
		AchievementID: achievementID,
		UnlockedAt:    at,
	}).Error
}

// HasAchievement checks if a player has unlocked an achievement
func (am *AchievementManager) HasAchievement(ctx context.Context, player, achievementID string) (bool, error) {
	var count int64
	err := am.db.WithContext(ctx).Model(&UserAchievement{}).
		Where("player = ? AND achievement_id = ?", player, achievementID).
		Count(&count).Error
	return count > 0, err
}

// GetUserAchievements lists an app's achievements with the player's unlock state
func (am *AchievementManager) GetUserAchievements(ctx context.Context, player, appName string) ([]AchievementStatus, error) {
	var defs []Achievement
	if err := am.db.WithContext(ctx).
		Where("app_name = ?", appName).
		Order("points DESC").
		Order("id ASC").
		Find(&defs).Error; err != nil {
		return nil, err
	}

	var unlocks []UserAchievement
	if err := am.db.WithContext(ctx).Where("player = ?", player).Find(&unlocks).Error; err != nil {
		return nil, err
	}
	unlockedAt := make(map[string]time.Time, len(unlocks))
	for _, u := range unlocks {
		unlockedAt[u.AchievementID] = u.UnlockedAt
	}

	results := make([]AchievementStatus, 0, len(defs))
	for _, d := range defs {
		status := AchievementStatus{
			AchievementDefinition: models.AchievementDefinition{
				ID:          d.ID,
				Name:        d.Name,
				Description: d.Description,
				Icon:        d.Icon,
				Points:      d.Points,
				Threshold:   d.Threshold,
			},
		}
		if at, ok := unlockedAt[d.ID]; ok {
			status.Unlocked = true
			status.UnlockedAt = &at
		}
		results = append(results, status)
	}
	return results, nil
}
