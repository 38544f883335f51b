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

type ProjectService struct {
	projectRepo *repository.ProjectRepository
	clientRepo  *repository.ClientRepository
	logger      *zap.Logger
}

func NewProjectService(
	projectRepo *repository.ProjectRepository,
	clientRepo *repository.ClientRepository,
	logger *zap.Logger,
) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		clientRepo:  clientRepo,
		logger:      logger,
	}
}

// Create creates a new project for a client
func (s *ProjectService) Create(ctx context.Context, req *domain.CreateProjectRequest) (*domain.ProjectDTO, error) {
	client, err := s.clientRepo.GetByID(ctx, req.ClientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, fmt.Errorf("failed to verify client: %w", err)
	}

	project := &domain.Project{
		Name:        req.Name,
		Description: req.Description,
		ClientID:    client.ID,
		ClientName:  client.Name,
		Status:      domain.ProjectStatusActive,
	}

	if err := s.projectRepo.Create(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	dto := mapper.ToProjectDTO(project)
	return &dto, nil
}

// GetByID retrieves a project by ID
func (s *ProjectService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ProjectDTO, error) {
	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	dto := mapper.ToProjectDTO(project)
	return &dto, nil
}

// Update updates an existing project
func (s *ProjectService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateProjectRequest) (*domain.ProjectDTO, error) {
	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	project.Name = req.Name
	project.Description = req.Description
	if req.Status != "" {
		project.Status = req.Status
	}

	if err := s.projectRepo.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	dto := mapper.ToProjectDTO(project)
	return &dto, nil
}

// Delete removes a project
func (s *ProjectService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.projectRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("failed to get project: %w", err)
	}

	if err := s.projectRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}

// List returns a paginated list of projects
func (s *ProjectService) List(ctx context.Context, page, pageSize int, clientID *uuid.UUID, status *domain.ProjectStatus) (*domain.PaginatedResponse, error) {
	page, pageSize = clampPagination(page, pageSize)

	projects, total, err := s.projectRepo.List(ctx, page, pageSize, clientID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	dtos := make([]domain.ProjectDTO, len(projects))
	for i := range projects {
		dtos[i] = mapper.ToProjectDTO(&projects[i])
	}

	return paginated(dtos, total, page, pageSize), nil
}
