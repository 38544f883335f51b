package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fakturo/billing-api/internal/domain"
)

// DocumentFilter narrows a document listing
type DocumentFilter struct {
	Type      *domain.DocumentType
	Status    *domain.DocumentStatus
	ClientID  *uuid.UUID
	ProjectID *uuid.UUID
	Search    string
}

// documentSortColumns maps API sort keys to database columns
var documentSortColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"issueDate": "issue_date",
	"dueDate":   "due_date",
	"number":    "number",
	"total":     "total",
	"status":    "status",
}

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *domain.Document) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *DocumentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	var doc domain.Document
	err := r.db.WithContext(ctx).
		Preload("Client").
		Preload("Contact").
		Preload("Project").
		Preload("Template").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Preload("Payments", func(db *gorm.DB) *gorm.DB {
			return db.Order("paid_at ASC")
		}).
		Where("id = ?", id).
		First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *DocumentRepository) GetByNumber(ctx context.Context, number string) (*domain.Document, error) {
	var doc domain.Document
	err := r.db.WithContext(ctx).
		Preload("Payments").
		Where("number = ?", number).
		First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *DocumentRepository) Update(ctx context.Context, doc *domain.Document) error {
	return r.db.WithContext(ctx).Save(doc).Error
}

func (r *DocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Document{}, "id = ?", id).Error
}

func (r *DocumentRepository) List(ctx context.Context, page, pageSize int, filter DocumentFilter, sortBy, sortDir string) ([]domain.Document, int64, error) {
	var docs []domain.Document
	var total int64

	query := r.db.WithContext(ctx).Model(&domain.Document{}).Preload("Client")

	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	if filter.ProjectID != nil {
		query = query.Where("project_id = ?", *filter.ProjectID)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(number) LIKE ? OR LOWER(client_name) LIKE ?", pattern, pattern, pattern)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := documentSortColumns[sortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if strings.EqualFold(sortDir, "asc") {
		direction = "ASC"
	}

	offset := (page - 1) * pageSize
	err := query.Offset(offset).Limit(pageSize).Order(column + " " + direction).Find(&docs).Error

	return docs, total, err
}

// ListOverdueCandidates returns sent or partially paid invoices whose due
// date has passed. Used by the overdue marker job.
func (r *DocumentRepository) ListOverdueCandidates(ctx context.Context, asOf time.Time) ([]domain.Document, error) {
	var docs []domain.Document
	err := r.db.WithContext(ctx).
		Where("type = ?", domain.DocumentTypeInvoice).
		Where("status IN ?", []domain.DocumentStatus{domain.DocumentStatusSent, domain.DocumentStatusPartial}).
		Where("due_date IS NOT NULL AND due_date < ?", asOf).
		Find(&docs).Error
	return docs, err
}

// ListRecentByClient returns the most recent documents for a client
func (r *DocumentRepository) ListRecentByClient(ctx context.Context, clientID uuid.UUID, limit int) ([]domain.Document, error) {
	var docs []domain.Document
	err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at DESC").
		Limit(limit).
		Find(&docs).Error
	return docs, err
}
