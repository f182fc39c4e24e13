package app

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// App is the interface every game app mounted under /api implements
type App interface {
	// GetName returns the app's unique identifier, also its route prefix
	GetName() string

	// GetDisplayName returns the human-readable name
	GetDisplayName() string

	// GetDescription returns a brief description of the app
	GetDescription() string

	// GetVersion returns the app version
	GetVersion() string

	// RegisterRoutes registers all HTTP endpoints for this app.
	// The router is already scoped to /api/<app_name>.
	RegisterRoutes(router *gin.RouterGroup)

	// InitDB initializes app-specific tables. Called once on registration.
	InitDB() error

	// GetUserStats returns app-specific statistics for a player
	GetUserStats(player string) (map[string]interface{}, error)

	// GetLeaderboard returns top players for the app
	GetLeaderboard(limit int) ([]LeaderboardEntry, error)
}

// AppConfig holds configuration for registering an app
type AppConfig struct {
	Name        string
	DisplayName string
	Description string
	Version     string
	Instance    App
	DB          *gorm.DB
}

// Metadata holds app information for discovery
type Metadata struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
	Version     string `json:"version"`
	Path        string `json:"path"`
	Status      string `json:"status"`
}
