package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fakturo/billing-api/internal/domain"
	"github.com/fakturo/billing-api/internal/repository"
)

// NumberSequenceService generates unique, formatted document numbers.
// Quotes and invoices count independently per year.
//
// Format: {PREFIX}-{YEAR}-{SEQUENCE}, e.g. "INV-2026-007", with the prefix
// and zero padding taken from the business profile's numbering scheme.
type NumberSequenceService struct {
	repo        *repository.NumberSequenceRepository
	profileRepo *repository.BusinessProfileRepository
	logger      *zap.Logger
}

// NewNumberSequenceService creates a new NumberSequenceService
func NewNumberSequenceService(
	repo *repository.NumberSequenceRepository,
	profileRepo *repository.BusinessProfileRepository,
	logger *zap.Logger,
) *NumberSequenceService {
	return &NumberSequenceService{
		repo:        repo,
		profileRepo: profileRepo,
		logger:      logger,
	}
}

// GenerateNumber generates the next unique number for a document type.
// Called when a document is created; the increment is atomic so concurrent
// creations never share a number.
func (s *NumberSequenceService) GenerateNumber(ctx context.Context, docType domain.DocumentType) (string, error) {
	if !docType.IsValid() {
		return "", fmt.Errorf("%w: %s", ErrInvalidDocumentType, docType)
	}

	scheme := s.numberingScheme(ctx)
	year := time.Now().Year()

	nextSeq, err := s.repo.GetNextNumber(ctx, docType, year)
	if err != nil {
		s.logger.Error("failed to get next sequence number",
			zap.String("document_type", string(docType)),
			zap.Int("year", year),
			zap.Error(err))
		return "", fmt.Errorf("failed to generate document number: %w", err)
	}

	prefix := scheme.InvoicePrefix
	if docType == domain.DocumentTypeQuote {
		prefix = scheme.QuotePrefix
	}

	var number string
	if scheme.IncludeYear {
		number = fmt.Sprintf("%s-%d-%0*d", prefix, year, scheme.Padding, nextSeq)
	} else {
		number = fmt.Sprintf("%s-%0*d", prefix, scheme.Padding, nextSeq)
	}

	s.logger.Info("generated document number",
		zap.String("number", number),
		zap.String("document_type", string(docType)),
		zap.Int("year", year),
		zap.Int("sequence", nextSeq))

	return number, nil
}

// GetCurrentSequence returns the current sequence value for a type/year
// without incrementing it. Returns 0 if no sequence exists.
func (s *NumberSequenceService) GetCurrentSequence(ctx context.Context, docType domain.DocumentType, year int) (int, error) {
	return s.repo.GetCurrentSequence(ctx, docType, year)
}

// numberingScheme loads the configured scheme, falling back to defaults
// when no business profile has been saved yet
func (s *NumberSequenceService) numberingScheme(ctx context.Context) domain.NumberingScheme {
	profile, err := s.profileRepo.Get(ctx)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("failed to load numbering scheme, using defaults", zap.Error(err))
		}
		return domain.NumberingScheme{
			QuotePrefix:   "QUO",
			InvoicePrefix: "INV",
			Padding:       3,
			IncludeYear:   true,
		}
	}

	scheme := profile.Numbering
	if scheme.QuotePrefix == "" {
		scheme.QuotePrefix = "QUO"
	}
	if scheme.InvoicePrefix == "" {
		scheme.InvoicePrefix = "INV"
	}
	if scheme.Padding < 1 {
		scheme.Padding = 3
	}
	return scheme
}

// ValidateNumber checks that a document number roughly follows the
// PREFIX-YYYY-NNN shape. Used by import tooling, not by the create path.
func (s *NumberSequenceService) ValidateNumber(number string) bool {
	if len(number) < 7 {
		return false
	}
	var prefix, yearPart, seqPart string
	n, err := fmt.Sscanf(number, "%3s-%4s-%s", &prefix, &yearPart, &seqPart)
	if err != nil || n != 3 {
		return false
	}
	if _, err := strconv.Atoi(yearPart); err != nil {
		return false
	}
	_, err = strconv.Atoi(seqPart)
	return err == nil
}
