package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fakturo/billing-api/internal/domain"
	"github.com/fakturo/billing-api/internal/mapper"
	"github.com/fakturo/billing-api/internal/repository"
	"github.com/fakturo/billing-api/internal/storage"
)

var allowedLogoTypes = map[string]bool{
	"image/png":     true,
	"image/jpeg":    true,
	"image/svg+xml": true,
}

const maxLogoSize = 5 << 20

// SettingsService manages the single business profile row: identity and
// defaults, the logo file and the numbering scheme.
type SettingsService struct {
	profileRepo *repository.BusinessProfileRepository
	fileRepo    *repository.FileRepository
	storage     storage.Storage
	logger      *zap.Logger
}

func NewSettingsService(
	profileRepo *repository.BusinessProfileRepository,
	fileRepo *repository.FileRepository,
	store storage.Storage,
	logger *zap.Logger,
) *SettingsService {
	return &SettingsService{
		profileRepo: profileRepo,
		fileRepo:    fileRepo,
		storage:     store,
		logger:      logger,
	}
}

// GetProfile returns the business profile, creating an empty one on first
// access so the frontend always has a row to edit
func (s *SettingsService) GetProfile(ctx context.Context) (*domain.BusinessProfileDTO, error) {
	profile, err := s.loadOrInit(ctx)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToBusinessProfileDTO(profile)
	return &dto, nil
}

// UpdateProfile upserts the business profile
func (s *SettingsService) UpdateProfile(ctx context.Context, req *domain.UpdateBusinessProfileRequest) (*domain.BusinessProfileDTO, error) {
	profile, err := s.loadOrInit(ctx)
	if err != nil {
		return nil, err
	}

	profile.BusinessName = req.BusinessName
	profile.OrgNumber = req.OrgNumber
	profile.Email = req.Email
	profile.Phone = req.Phone
	profile.Address = req.Address
	profile.City = req.City
	profile.PostalCode = req.PostalCode
	if req.Country != "" {
		profile.Country = req.Country
	}
	profile.BankAccount = req.BankAccount
	if req.AccentColor != "" {
		profile.AccentColor = req.AccentColor
	}
	if req.DefaultCurrency != "" {
		profile.DefaultCurrency = req.DefaultCurrency
	}
	if req.DefaultTaxRate != nil {
		if req.DefaultTaxRate.IsNegative() {
			return nil, fmt.Errorf("%w: tax rate cannot be negative", ErrInvalidInput)
		}
		profile.DefaultTaxRate = *req.DefaultTaxRate
	}
	profile.DefaultTerms = req.DefaultTerms
	if req.DueDays != nil {
		profile.DueDays = *req.DueDays
	}

	if err := s.profileRepo.Save(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to save business profile: %w", err)
	}

	dto := mapper.ToBusinessProfileDTO(profile)
	return &dto, nil
}

// UploadLogo stores a new logo image and attaches it to the profile. The
// previous logo file is removed from storage.
func (s *SettingsService) UploadLogo(ctx context.Context, filename, contentType string, data io.Reader) (*domain.FileDTO, error) {
	if !allowedLogoTypes[contentType] {
		return nil, fmt.Errorf("%w: unsupported logo content type %q", ErrInvalidInput, contentType)
	}

	profile, err := s.loadOrInit(ctx)
	if err != nil {
		return nil, err
	}

	limited := io.LimitReader(data, maxLogoSize+1)
	storagePath, size, err := s.storage.Upload(ctx, filename, contentType, limited)
	if err != nil {
		return nil, fmt.Errorf("failed to upload logo: %w", err)
	}
	if size > maxLogoSize {
		if delErr := s.storage.Delete(ctx, storagePath); delErr != nil {
			s.logger.Warn("failed to clean up oversized logo upload", zap.Error(delErr))
		}
		return nil, fmt.Errorf("%w: logo exceeds 5 MB", ErrInvalidInput)
	}

	file := &domain.File{
		Filename:    filename,
		ContentType: contentType,
		Size:        size,
		StoragePath: storagePath,
	}
	if err := s.fileRepo.Create(ctx, file); err != nil {
		if delErr := s.storage.Delete(ctx, storagePath); delErr != nil {
			s.logger.Warn("failed to clean up orphaned logo upload", zap.Error(delErr))
		}
		return nil, fmt.Errorf("failed to register logo file: %w", err)
	}

	previous := profile.LogoFileID
	profile.LogoFileID = &file.ID
	profile.LogoFile = nil
	if err := s.profileRepo.Save(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to attach logo to profile: %w", err)
	}

	if previous != nil {
		s.removeLogoFile(ctx, *previous)
	}

	s.logger.Info("logo uploaded",
		zap.String("file_id", file.ID.String()),
		zap.String("filename", filename),
		zap.Int64("size", size),
	)

	dto := mapper.ToFileDTO(file)
	return &dto, nil
}

// GetLogo streams the current logo image
func (s *SettingsService) GetLogo(ctx context.Context) (io.ReadCloser, *domain.File, error) {
	profile, err := s.loadOrInit(ctx)
	if err != nil {
		return nil, nil, err
	}
	if profile.LogoFileID == nil {
		return nil, nil, ErrFileNotFound
	}

	file, err := s.fileRepo.GetByID(ctx, *profile.LogoFileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrFileNotFound
		}
		return nil, nil, fmt.Errorf("failed to get logo file: %w", err)
	}

	reader, err := s.storage.Download(ctx, file.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to download logo: %w", err)
	}
	return reader, file, nil
}

// DeleteLogo detaches and removes the current logo
func (s *SettingsService) DeleteLogo(ctx context.Context) error {
	profile, err := s.loadOrInit(ctx)
	if err != nil {
		return err
	}
	if profile.LogoFileID == nil {
		return ErrFileNotFound
	}

	fileID := *profile.LogoFileID
	profile.LogoFileID = nil
	profile.LogoFile = nil
	if err := s.profileRepo.Save(ctx, profile); err != nil {
		return fmt.Errorf("failed to detach logo: %w", err)
	}

	s.removeLogoFile(ctx, fileID)
	return nil
}

// GetNumbering returns the numbering scheme
func (s *SettingsService) GetNumbering(ctx context.Context) (*domain.NumberingSchemeDTO, error) {
	profile, err := s.loadOrInit(ctx)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToNumberingSchemeDTO(profile.Numbering)
	return &dto, nil
}

// UpdateNumbering updates the numbering scheme. Already issued numbers keep
// their old format; only future documents are affected.
func (s *SettingsService) UpdateNumbering(ctx context.Context, req *domain.UpdateNumberingRequest) (*domain.NumberingSchemeDTO, error) {
	profile, err := s.loadOrInit(ctx)
	if err != nil {
		return nil, err
	}

	profile.Numbering.QuotePrefix = req.QuotePrefix
	profile.Numbering.InvoicePrefix = req.InvoicePrefix
	profile.Numbering.Padding = req.Padding
	if req.IncludeYear != nil {
		profile.Numbering.IncludeYear = *req.IncludeYear
	}

	if err := s.profileRepo.Save(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to save numbering scheme: %w", err)
	}

	dto := mapper.ToNumberingSchemeDTO(profile.Numbering)
	return &dto, nil
}

// Profile returns the raw business profile model for internal consumers
// such as the PDF renderer
func (s *SettingsService) Profile(ctx context.Context) (*domain.BusinessProfile, error) {
	return s.loadOrInit(ctx)
}

func (s *SettingsService) loadOrInit(ctx context.Context) (*domain.BusinessProfile, error) {
	profile, err := s.profileRepo.Get(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &domain.BusinessProfile{
				Country:         "Norway",
				AccentColor:     "#1a1a2e",
				DefaultCurrency: "NOK",
				DueDays:         14,
				Numbering: domain.NumberingScheme{
					QuotePrefix:   "QUO",
					InvoicePrefix: "INV",
					Padding:       3,
					IncludeYear:   true,
				},
			}, nil
		}
		return nil, fmt.Errorf("failed to get business profile: %w", err)
	}
	return profile, nil
}

func (s *SettingsService) removeLogoFile(ctx context.Context, fileID uuid.UUID) {
	file, err := s.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		return
	}
	if err := s.storage.Delete(ctx, file.StoragePath); err != nil {
		s.logger.Warn("failed to delete logo from storage",
			zap.String("storage_path", file.StoragePath),
			zap.Error(err))
	}
	if err := s.fileRepo.Delete(ctx, fileID); err != nil {
		s.logger.Warn("failed to delete logo file record",
			zap.String("file_id", fileID.String()),
			zap.Error(err))
	}
}
