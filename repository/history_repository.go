// Package repository persists play history with GORM.
package repository

import (
	"context"
	"fmt"

	"TemplePlayer/model"

	"gorm.io/gorm"
)

// MaxHistoryLimit caps Recent.
const MaxHistoryLimit = 200

// HistoryRepository 播放历史仓库
type HistoryRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// SavePlay 保存一条播放记录
func (r *HistoryRepository) SavePlay(ctx context.Context, rec *model.PlayRecord) error {
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("save play %s: %w", rec.TrackID, err)
	}
	return nil
}

// Recent returns the latest records, newest first. limit is clamped to [1, MaxHistoryLimit].
func (r *HistoryRepository) Recent(ctx context.Context, limit int) ([]model.PlayRecord, error) {
	var records []model.PlayRecord
	if err := recentQuery(r.db.WithContext(ctx), limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("recent plays: %w", err)
	}
	return records, nil
}

func recentQuery(tx *gorm.DB, limit int) *gorm.DB {
	if limit <= 0 {
		limit = 1
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	return tx.Model(&model.PlayRecord{}).Order("played_at DESC, id DESC").Limit(limit)
}
