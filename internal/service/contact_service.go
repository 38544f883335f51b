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

type ContactService struct {
	contactRepo *repository.ContactRepository
	clientRepo  *repository.ClientRepository
	logger      *zap.Logger
}

func NewContactService(
	contactRepo *repository.ContactRepository,
	clientRepo *repository.ClientRepository,
	logger *zap.Logger,
) *ContactService {
	return &ContactService{
		contactRepo: contactRepo,
		clientRepo:  clientRepo,
		logger:      logger,
	}
}

// Create creates a new contact, optionally linked to a client
func (s *ContactService) Create(ctx context.Context, req *domain.CreateContactRequest) (*domain.ContactDTO, error) {
	if req.ClientID != nil {
		if _, err := s.clientRepo.GetByID(ctx, *req.ClientID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrClientNotFound
			}
			return nil, fmt.Errorf("failed to verify client: %w", err)
		}
	}

	contact := &domain.Contact{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Title:     req.Title,
		ClientID:  req.ClientID,
		Notes:     req.Notes,
		IsActive:  true,
	}

	if err := s.contactRepo.Create(ctx, contact); err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}

	dto := mapper.ToContactDTO(contact)
	return &dto, nil
}

// GetByID retrieves a contact by ID
func (s *ContactService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ContactDTO, error) {
	contact, err := s.contactRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContactNotFound
		}
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}

	dto := mapper.ToContactDTO(contact)
	return &dto, nil
}

// Update updates an existing contact
func (s *ContactService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateContactRequest) (*domain.ContactDTO, error) {
	contact, err := s.contactRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContactNotFound
		}
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}

	if req.ClientID != nil && (contact.ClientID == nil || *req.ClientID != *contact.ClientID) {
		if _, err := s.clientRepo.GetByID(ctx, *req.ClientID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrClientNotFound
			}
			return nil, fmt.Errorf("failed to verify client: %w", err)
		}
	}

	contact.FirstName = req.FirstName
	contact.LastName = req.LastName
	contact.Email = req.Email
	contact.Phone = req.Phone
	contact.Title = req.Title
	contact.ClientID = req.ClientID
	contact.Notes = req.Notes
	if req.IsActive != nil {
		contact.IsActive = *req.IsActive
	}

	if err := s.contactRepo.Update(ctx, contact); err != nil {
		return nil, fmt.Errorf("failed to update contact: %w", err)
	}

	dto := mapper.ToContactDTO(contact)
	return &dto, nil
}

// Delete removes a contact
func (s *ContactService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.contactRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrContactNotFound
		}
		return fmt.Errorf("failed to get contact: %w", err)
	}

	if err := s.contactRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	return nil
}

// List returns a paginated list of contacts
func (s *ContactService) List(ctx context.Context, page, pageSize int, clientID *uuid.UUID, search string) (*domain.PaginatedResponse, error) {
	page, pageSize = clampPagination(page, pageSize)

	contacts, total, err := s.contactRepo.List(ctx, page, pageSize, clientID, search)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}

	dtos := make([]domain.ContactDTO, len(contacts))
	for i := range contacts {
		dtos[i] = mapper.ToContactDTO(&contacts[i])
	}

	return paginated(dtos, total, page, pageSize), nil
}
