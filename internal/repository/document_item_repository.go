package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fakturo/billing-api/internal/domain"
)

type DocumentItemRepository struct {
	db *gorm.DB
}

func NewDocumentItemRepository(db *gorm.DB) *DocumentItemRepository {
	return &DocumentItemRepository{db: db}
}

func (r *DocumentItemRepository) Create(ctx context.Context, item *domain.DocumentItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *DocumentItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.DocumentItem, error) {
	var item domain.DocumentItem
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *DocumentItemRepository) Update(ctx context.Context, item *domain.DocumentItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *DocumentItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.DocumentItem{}, "id = ?", id).Error
}

func (r *DocumentItemRepository) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]domain.DocumentItem, error) {
	var items []domain.DocumentItem
	err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("sort_order ASC").
		Find(&items).Error
	return items, err
}

// ReplaceForDocument swaps the full item set of a document in one
// transaction. The document services persist the recomputed item collection
// through this so items and totals never diverge.
func (r *DocumentItemRepository) ReplaceForDocument(ctx context.Context, documentID uuid.UUID, items []domain.DocumentItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&domain.DocumentItem{}, "document_id = ?", documentID).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].DocumentID = documentID
			if err := tx.Create(&items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
