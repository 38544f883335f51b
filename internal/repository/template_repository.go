package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fakturo/billing-api/internal/domain"
)

type TemplateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

func (r *TemplateRepository) Create(ctx context.Context, template *domain.Template) error {
	return r.db.WithContext(ctx).Create(template).Error
}

func (r *TemplateRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Template, error) {
	var template domain.Template
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&template).Error
	if err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *TemplateRepository) GetByKey(ctx context.Context, key domain.TemplateKey) (*domain.Template, error) {
	var template domain.Template
	err := r.db.WithContext(ctx).Where("key = ?", key).First(&template).Error
	if err != nil {
		return nil, err
	}
	return &template, nil
}

// GetDefault returns the default template for a document type, falling back
// to the classic layout when none is marked default.
func (r *TemplateRepository) GetDefault(ctx context.Context, docType domain.DocumentType) (*domain.Template, error) {
	var template domain.Template
	err := r.db.WithContext(ctx).
		Where("document_type = ? AND is_default = ?", docType, true).
		First(&template).Error
	if err == gorm.ErrRecordNotFound {
		return r.GetByKey(ctx, domain.TemplateKeyClassic)
	}
	if err != nil {
		return nil, err
	}
	return &template, nil
}

func (r *TemplateRepository) Update(ctx context.Context, template *domain.Template) error {
	return r.db.WithContext(ctx).Save(template).Error
}

func (r *TemplateRepository) List(ctx context.Context) ([]domain.Template, error) {
	var templates []domain.Template
	err := r.db.WithContext(ctx).Order("key ASC").Find(&templates).Error
	return templates, err
}

// ClearDefault unsets the default flag for all templates of a document type
func (r *TemplateRepository) ClearDefault(ctx context.Context, docType domain.DocumentType) error {
	return r.db.WithContext(ctx).Model(&domain.Template{}).
		Where("document_type = ?", docType).
		Update("is_default", false).Error
}
