package repository

import (
	"context"

	"github.com/jgirmay/privacy-tower/pkg/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PlayerProfileRepositoryImpl implements PlayerProfileRepository
type PlayerProfileRepositoryImpl struct {
	db *gorm.DB
}

// NewPlayerProfileRepository creates a new player repository
func NewPlayerProfileRepository(db *gorm.DB) PlayerProfileRepository {
	return &PlayerProfileRepositoryImpl{db: db}
}

// Merge adds a session's progress to the stored profile, creating it on
// first play. The row is locked for the read-modify-write so concurrent
// sessions of one player do not overwrite each other.
func (r *PlayerProfileRepositoryImpl) Merge(ctx context.Context, progress *models.PlayerRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.PlayerRecord{Nickname: progress.Nickname}).Error
		if err != nil {
			return err
		}

		var record models.PlayerRecord
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("nickname = ?", progress.Nickname).
			First(&record).Error
		if err != nil {
			return err
		}

		record.Merge(progress)
		return tx.Save(&record).Error
	})
}

// Get retrieves a player by nickname
func (r *PlayerProfileRepositoryImpl) Get(ctx context.Context, nickname string) (*models.PlayerRecord, error) {
	var record models.PlayerRecord
	err := r.db.WithContext(ctx).Where("nickname = ?", nickname).First(&record).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &record, nil
}

// Top retrieves players ordered by total score
func (r *PlayerProfileRepositoryImpl) Top(ctx context.Context, limit int) ([]*models.PlayerRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	var records []*models.PlayerRecord
	err := r.db.WithContext(ctx).
		Order("total_score DESC").
		Order("nickname ASC").
		Limit(limit).
		Find(&records).Error
	return records, err
}
