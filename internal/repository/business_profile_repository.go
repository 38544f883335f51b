package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/fakturo/billing-api/internal/domain"
)

// BusinessProfileRepository manages the single business profile row
type BusinessProfileRepository struct {
	db *gorm.DB
}

func NewBusinessProfileRepository(db *gorm.DB) *BusinessProfileRepository {
	return &BusinessProfileRepository{db: db}
}

// Get returns the business profile, or gorm.ErrRecordNotFound when settings
// have never been saved
func (r *BusinessProfileRepository) Get(ctx context.Context) (*domain.BusinessProfile, error) {
	var profile domain.BusinessProfile
	err := r.db.WithContext(ctx).
		Preload("LogoFile").
		Order("created_at ASC").
		First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// Save creates or updates the profile
func (r *BusinessProfileRepository) Save(ctx context.Context, profile *domain.BusinessProfile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}
