package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fakturo/billing-api/internal/domain"
)

type ClientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

func (r *ClientRepository) Create(ctx context.Context, client *domain.Client) error {
	return r.db.WithContext(ctx).Create(client).Error
}

func (r *ClientRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	var client domain.Client
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&client).Error
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *ClientRepository) GetWithDetails(ctx context.Context, id uuid.UUID) (*domain.Client, error) {
	var client domain.Client
	err := r.db.WithContext(ctx).
		Preload("Contacts").
		Preload("Projects").
		Where("id = ?", id).
		First(&client).Error
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *ClientRepository) Update(ctx context.Context, client *domain.Client) error {
	return r.db.WithContext(ctx).Save(client).Error
}

func (r *ClientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Client{}, "id = ?", id).Error
}

func (r *ClientRepository) List(ctx context.Context, page, pageSize int, status *domain.ClientStatus, search string) ([]domain.Client, int64, error) {
	var clients []domain.Client
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Client{})

	if status != nil {
		query = query.Where("status = ?", *status)
	}

	if search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ? OR org_number LIKE ?", pattern, pattern, "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order("name ASC").Find(&clients).Error

	return clients, total, err
}

func (r *ClientRepository) CountDocuments(ctx context.Context, clientID uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Document{}).Where("client_id = ?", clientID).Count(&count).Error
	return int(count), err
}
