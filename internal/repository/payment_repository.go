package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fakturo/billing-api/internal/domain"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	var payment domain.Payment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *PaymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Payment{}, "id = ?", id).Error
}

func (r *PaymentRepository) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("paid_at ASC").
		Find(&payments).Error
	return payments, err
}

// ExistsByReference reports whether a payment with the given reference is
// already recorded for a document. The payment sync job uses this to keep
// imports idempotent.
func (r *PaymentRepository) ExistsByReference(ctx context.Context, documentID uuid.UUID, reference string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Payment{}).
		Where("document_id = ? AND reference = ?", documentID, reference).
		Count(&count).Error
	return count > 0, err
}
