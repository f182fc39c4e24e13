package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jgirmay/privacy-tower/pkg/models"
)

// ErrNotFound is returned when a lookup matches no row
var ErrNotFound = errors.New("record not found")

// GameSnapshotRepository defines operations for saved sessions
type GameSnapshotRepository interface {
	// Save stores a new snapshot of a session
	Save(ctx context.Context, sessionID string, snap models.GameSnapshot) (*models.GameSnapshotRecord, error)

	// GetByID retrieves a snapshot by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.GameSnapshotRecord, error)

	// Latest retrieves the newest snapshot of a session
	Latest(ctx context.Context, sessionID string) (*models.GameSnapshotRecord, error)

	// ListByPlayer retrieves a player's snapshots, newest first
	ListByPlayer(ctx context.Context, player string, limit int) ([]*models.GameSnapshotRecord, error)

	// DeleteBySession removes every snapshot of a session
	DeleteBySession(ctx context.Context, sessionID string) error
}

// PlayerProfileRepository defines operations for cumulative player profiles
type PlayerProfileRepository interface {
	// Merge adds progress to the player's stored profile, creating it if needed
	Merge(ctx context.Context, progress *models.PlayerRecord) error

	// Get retrieves a player by nickname
	Get(ctx context.Context, nickname string) (*models.PlayerRecord, error)

	// Top retrieves players ordered by total score
	Top(ctx context.Context, limit int) ([]*models.PlayerRecord, error)
}
