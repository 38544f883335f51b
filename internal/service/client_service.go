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

type ClientService struct {
	clientRepo   *repository.ClientRepository
	documentRepo *repository.DocumentRepository
	activities   *activityLogger
	logger       *zap.Logger
}

func NewClientService(
	clientRepo *repository.ClientRepository,
	documentRepo *repository.DocumentRepository,
	activityRepo *repository.ActivityRepository,
	logger *zap.Logger,
) *ClientService {
	return &ClientService{
		clientRepo:   clientRepo,
		documentRepo: documentRepo,
		activities:   newActivityLogger(activityRepo, logger),
		logger:       logger,
	}
}

// Create creates a new client
func (s *ClientService) Create(ctx context.Context, req *domain.CreateClientRequest) (*domain.ClientDTO, error) {
	status := req.Status
	if status == "" {
		status = domain.ClientStatusActive
	}
	country := req.Country
	if country == "" {
		country = "Norway"
	}

	client := &domain.Client{
		Name:          req.Name,
		OrgNumber:     req.OrgNumber,
		Email:         req.Email,
		Phone:         req.Phone,
		Address:       req.Address,
		City:          req.City,
		PostalCode:    req.PostalCode,
		Country:       country,
		ContactPerson: req.ContactPerson,
		Status:        status,
		Notes:         req.Notes,
	}

	if err := s.clientRepo.Create(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	s.activities.log(ctx, domain.ActivityTargetClient, client.ID, client.Name,
		"Client created", fmt.Sprintf("Client '%s' was created", client.Name))

	dto := mapper.ToClientDTO(client)
	return &dto, nil
}

// GetByID retrieves a client with contacts, projects and recent documents
func (s *ClientService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ClientWithDetailsDTO, error) {
	client, err := s.clientRepo.GetWithDetails(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}

	recentDocs, err := s.documentRepo.ListRecentByClient(ctx, id, 10)
	if err != nil {
		s.logger.Warn("failed to load recent documents for client",
			zap.String("client_id", id.String()),
			zap.Error(err),
		)
	}

	dto := mapper.ToClientWithDetailsDTO(client, recentDocs)
	return &dto, nil
}

// Update updates an existing client
func (s *ClientService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateClientRequest) (*domain.ClientDTO, error) {
	client, err := s.clientRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}

	client.Name = req.Name
	client.OrgNumber = req.OrgNumber
	client.Email = req.Email
	client.Phone = req.Phone
	client.Address = req.Address
	client.City = req.City
	client.PostalCode = req.PostalCode
	if req.Country != "" {
		client.Country = req.Country
	}
	client.ContactPerson = req.ContactPerson
	if req.Status != "" {
		client.Status = req.Status
	}
	client.Notes = req.Notes

	if err := s.clientRepo.Update(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to update client: %w", err)
	}

	s.activities.log(ctx, domain.ActivityTargetClient, client.ID, client.Name,
		"Client updated", fmt.Sprintf("Client '%s' was updated", client.Name))

	dto := mapper.ToClientDTO(client)
	return &dto, nil
}

// Delete removes a client. Clients with documents cannot be deleted; their
// history must stay addressable.
func (s *ClientService) Delete(ctx context.Context, id uuid.UUID) error {
	client, err := s.clientRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrClientNotFound
		}
		return fmt.Errorf("failed to get client: %w", err)
	}

	docCount, err := s.clientRepo.CountDocuments(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count client documents: %w", err)
	}
	if docCount > 0 {
		return fmt.Errorf("%w: client has %d documents", ErrConflict, docCount)
	}

	if err := s.clientRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}

	s.logger.Info("client deleted",
		zap.String("client_id", id.String()),
		zap.String("name", client.Name),
	)
	return nil
}

// List returns a paginated list of clients
func (s *ClientService) List(ctx context.Context, page, pageSize int, status *domain.ClientStatus, search string) (*domain.PaginatedResponse, error) {
	page, pageSize = clampPagination(page, pageSize)

	clients, total, err := s.clientRepo.List(ctx, page, pageSize, status, search)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}

	dtos := make([]domain.ClientDTO, len(clients))
	for i := range clients {
		dtos[i] = mapper.ToClientDTO(&clients[i])
	}

	return paginated(dtos, total, page, pageSize), nil
}
