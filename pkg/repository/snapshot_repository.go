package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jgirmay/privacy-tower/pkg/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GameSnapshotRepositoryImpl implements GameSnapshotRepository
type GameSnapshotRepositoryImpl struct {
	db *gorm.DB
}

// NewGameSnapshotRepository creates a new snapshot repository
func NewGameSnapshotRepository(db *gorm.DB) GameSnapshotRepository {
	return &GameSnapshotRepositoryImpl{db: db}
}

// Save stores a new snapshot row; earlier snapshots are kept
func (r *GameSnapshotRepositoryImpl) Save(ctx context.Context, sessionID string, snap models.GameSnapshot) (*models.GameSnapshotRecord, error) {
	payload, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	record := &models.GameSnapshotRecord{
		ID:           uuid.New(),
		SessionID:    sessionID,
		Player:       snap.State.Player.Nickname,
		Phase:        snap.State.GamePhase,
		Score:        snap.State.CurrentScore,
		Stability:    snap.State.TowerStability,
		RebuildCount: snap.State.RebuildCount,
		Snapshot:     datatypes.JSON(payload),
		CreatedAt:    time.Now(),
	}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

// GetByID retrieves a snapshot by ID
func (r *GameSnapshotRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*models.GameSnapshotRecord, error) {
	var record models.GameSnapshotRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &record, nil
}

// Latest retrieves the newest snapshot of a session
func (r *GameSnapshotRepositoryImpl) Latest(ctx context.Context, sessionID string) (*models.GameSnapshotRecord, error) {
	var record models.GameSnapshotRecord
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		First(&record).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &record, nil
}

// ListByPlayer retrieves a player's snapshots, newest first
func (r *GameSnapshotRepositoryImpl) ListByPlayer(ctx context.Context, player string, limit int) ([]*models.GameSnapshotRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var records []*models.GameSnapshotRecord
	err := r.db.WithContext(ctx).
		Where("player = ?", player).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

// DeleteBySession removes every snapshot of a session
func (r *GameSnapshotRepositoryImpl) DeleteBySession(ctx context.Context, sessionID string) error {
	return r.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&models.GameSnapshotRecord{}).Error
}

// DecodeSnapshot unpacks the stored payload of a record
func DecodeSnapshot(record *models.GameSnapshotRecord) (models.GameSnapshot, error) {
	var snap models.GameSnapshot
	if err := json.Unmarshal(record.Snapshot, &snap); err != nil {
		return snap, fmt.Errorf("failed to decode snapshot %s: %w", record.ID, err)
	}
	return snap, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
