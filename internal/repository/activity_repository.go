package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fakturo/billing-api/internal/domain"
)

type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Create(ctx context.Context, activity *domain.Activity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

func (r *ActivityRepository) ListByTarget(ctx context.Context, targetType domain.ActivityTargetType, targetID uuid.UUID, limit int) ([]domain.Activity, error) {
	var activities []domain.Activity
	query := r.db.WithContext(ctx).
		Where("target_type = ? AND target_id = ?", targetType, targetID).
		Order("occurred_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&activities).Error
	return activities, err
}

func (r *ActivityRepository) ListRecent(ctx context.Context, limit int) ([]domain.Activity, error) {
	var activities []domain.Activity
	err := r.db.WithContext(ctx).
		Order("occurred_at DESC").
		Limit(limit).
		Find(&activities).Error
	return activities, err
}
