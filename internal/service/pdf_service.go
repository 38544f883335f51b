package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fakturo/billing-api/internal/domain"
	"github.com/fakturo/billing-api/internal/pdf"
	"github.com/fakturo/billing-api/internal/repository"
	"github.com/fakturo/billing-api/internal/storage"
)

// PDFService assembles render input for a document and produces the PDF
type PDFService struct {
	documentRepo *repository.DocumentRepository
	profileRepo  *repository.BusinessProfileRepository
	templateRepo *repository.TemplateRepository
	fileRepo     *repository.FileRepository
	storage      storage.Storage
	renderer     *pdf.Renderer
	logger       *zap.Logger
}

func NewPDFService(
	documentRepo *repository.DocumentRepository,
	profileRepo *repository.BusinessProfileRepository,
	templateRepo *repository.TemplateRepository,
	fileRepo *repository.FileRepository,
	store storage.Storage,
	renderer *pdf.Renderer,
	logger *zap.Logger,
) *PDFService {
	return &PDFService{
		documentRepo: documentRepo,
		profileRepo:  profileRepo,
		templateRepo: templateRepo,
		fileRepo:     fileRepo,
		storage:      store,
		renderer:     renderer,
		logger:       logger,
	}
}

// Render generates a PDF for a document and returns its bytes and a
// suggested filename
func (s *PDFService) Render(ctx context.Context, documentID uuid.UUID) ([]byte, string, error) {
	doc, err := s.documentRepo.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrDocumentNotFound
		}
		return nil, "", fmt.Errorf("failed to get document: %w", err)
	}

	input := pdf.RenderInput{Document: doc}

	if profile, err := s.profileRepo.Get(ctx); err == nil {
		input.Profile = profile
		s.attachLogo(ctx, profile, &input)
	}

	input.Template = s.resolveTemplate(ctx, doc)

	data, err := s.renderer.Render(input)
	if err != nil {
		return nil, "", err
	}
	if input.Logo != nil {
		if closer, ok := input.Logo.(interface{ Close() error }); ok {
			closer.Close()
		}
	}

	filename := fmt.Sprintf("%s.pdf", doc.Number)
	if doc.Number == "" {
		filename = fmt.Sprintf("%s.pdf", doc.ID)
	}
	return data, filename, nil
}

func (s *PDFService) resolveTemplate(ctx context.Context, doc *domain.Document) *domain.Template {
	if doc.Template != nil {
		return doc.Template
	}
	if doc.TemplateID != nil {
		if tpl, err := s.templateRepo.GetByID(ctx, *doc.TemplateID); err == nil {
			return tpl
		}
	}
	if tpl, err := s.templateRepo.GetDefault(ctx, doc.Type); err == nil {
		return tpl
	}
	return nil
}

func (s *PDFService) attachLogo(ctx context.Context, profile *domain.BusinessProfile, input *pdf.RenderInput) {
	if profile.LogoFileID == nil {
		return
	}
	file, err := s.fileRepo.GetByID(ctx, *profile.LogoFileID)
	if err != nil {
		return
	}
	reader, err := s.storage.Download(ctx, file.StoragePath)
	if err != nil {
		s.logger.Warn("failed to load logo for pdf", zap.Error(err))
		return
	}
	input.Logo = reader
	input.LogoType = file.ContentType
}
