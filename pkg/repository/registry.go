// Package repository provides data access layer abstractions and registry
package repository

import (
	"fmt"
	"sync"

	"github.com/jgirmay/privacy-tower/pkg/models"
	"gorm.io/gorm"
)

// Registry provides centralized access to all repositories
type Registry struct {
	GameSnapshotRepository  GameSnapshotRepository
	PlayerProfileRepository PlayerProfileRepository

	db *gorm.DB

	mu sync.RWMutex
}

// NewRegistry creates a new repository registry
func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{
		db: db,
	}
}

// Initialize migrates the schema and builds all repositories
func (r *Registry) Initialize() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.db.AutoMigrate(&models.GameSnapshotRecord{}, &models.PlayerRecord{}); err != nil {
		return fmt.Errorf("failed to migrate repositories: %w", err)
	}

	r.GameSnapshotRepository = NewGameSnapshotRepository(r.db)
	r.PlayerProfileRepository = NewPlayerProfileRepository(r.db)

	return nil
}

// GetDB returns the database connection
func (r *Registry) GetDB() *gorm.DB {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.db
}

// Close closes the registry and all resources
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.db != nil {
		sqlDB, err := r.db.DB()
		if err != nil {
			return fmt.Errorf("failed to get database connection: %w", err)
		}
		if err := sqlDB.Close(); err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}
	return nil
}
