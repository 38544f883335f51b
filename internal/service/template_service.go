package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fakturo/billing-api/internal/domain"
	"github.com/fakturo/billing-api/internal/mapper"
	"github.com/fakturo/billing-api/internal/repository"
)

// TemplateService manages the built-in PDF layout templates. Templates are
// seeded at startup and can be renamed, recolored and marked as default,
// but not created or removed over the API.
type TemplateService struct {
	templateRepo *repository.TemplateRepository
	logger       *zap.Logger
}

func NewTemplateService(templateRepo *repository.TemplateRepository, logger *zap.Logger) *TemplateService {
	return &TemplateService{
		templateRepo: templateRepo,
		logger:       logger,
	}
}

// seededTemplates are created on first startup when the table is empty
var seededTemplates = []domain.Template{
	{Key: domain.TemplateKeyClassic, Name: "Classic", Description: "Traditional layout with a framed header", AccentColor: "#1a1a2e", IsDefault: true, DocumentType: domain.DocumentTypeInvoice},
	{Key: domain.TemplateKeyModern, Name: "Modern", Description: "Clean layout with a colored banner", AccentColor: "#0f4c81", DocumentType: domain.DocumentTypeInvoice},
	{Key: domain.TemplateKeyMinimal, Name: "Minimal", Description: "Sparse layout, black and white", AccentColor: "#222222", DocumentType: domain.DocumentTypeInvoice},
}

// Seed inserts the built-in templates if none exist yet
func (s *TemplateService) Seed(ctx context.Context) error {
	existing, err := s.templateRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list templates: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	for i := range seededTemplates {
		tpl := seededTemplates[i]
		if err := s.templateRepo.Create(ctx, &tpl); err != nil {
			return fmt.Errorf("failed to seed template %s: %w", tpl.Key, err)
		}
	}
	s.logger.Info("seeded document templates", zap.Int("count", len(seededTemplates)))
	return nil
}

// List returns all templates
func (s *TemplateService) List(ctx context.Context) ([]domain.TemplateDTO, error) {
	templates, err := s.templateRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	dtos := make([]domain.TemplateDTO, len(templates))
	for i := range templates {
		dtos[i] = mapper.ToTemplateDTO(&templates[i])
	}
	return dtos, nil
}

// GetByID retrieves a template by ID
func (s *TemplateService) GetByID(ctx context.Context, id uuid.UUID) (*domain.TemplateDTO, error) {
	template, err := s.templateRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	dto := mapper.ToTemplateDTO(template)
	return &dto, nil
}

// Update renames or recolors a template. Setting isDefault clears the flag
// on the other templates of the same document type first.
func (s *TemplateService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateTemplateRequest) (*domain.TemplateDTO, error) {
	template, err := s.templateRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	template.Name = req.Name
	template.Description = req.Description
	if req.AccentColor != "" {
		template.AccentColor = req.AccentColor
	}
	if req.IsDefault != nil && *req.IsDefault && !template.IsDefault {
		if err := s.templateRepo.ClearDefault(ctx, template.DocumentType); err != nil {
			return nil, fmt.Errorf("failed to clear default template: %w", err)
		}
		template.IsDefault = true
	}

	if err := s.templateRepo.Update(ctx, template); err != nil {
		return nil, fmt.Errorf("failed to update template: %w", err)
	}

	dto := mapper.ToTemplateDTO(template)
	return &dto, nil
}
