package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fakturo/billing-api/internal/domain"
)

type ContactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

func (r *ContactRepository) Create(ctx context.Context, contact *domain.Contact) error {
	return r.db.WithContext(ctx).Create(contact).Error
}

func (r *ContactRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Contact, error) {
	var contact domain.Contact
	err := r.db.WithContext(ctx).
		Preload("Client").
		Where("id = ?", id).
		First(&contact).Error
	if err != nil {
		return nil, err
	}
	return &contact, nil
}

func (r *ContactRepository) Update(ctx context.Context, contact *domain.Contact) error {
	return r.db.WithContext(ctx).Save(contact).Error
}

func (r *ContactRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Contact{}, "id = ?", id).Error
}

func (r *ContactRepository) List(ctx context.Context, page, pageSize int, clientID *uuid.UUID, search string) ([]domain.Contact, int64, error) {
	var contacts []domain.Contact
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Contact{}).Preload("Client")

	if clientID != nil {
		query = query.Where("client_id = ?", *clientID)
	}

	if search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern, pattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("last_name ASC, first_name ASC").Find(&contacts).Error

	return contacts, total, err
}

func (r *ContactRepository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]domain.Contact, error) {
	var contacts []domain.Contact
	err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("last_name ASC, first_name ASC").
		Find(&contacts).Error
	return contacts, err
}
