package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fakturo/billing-api/internal/domain"
	"github.com/fakturo/billing-api/internal/mapper"
	"github.com/fakturo/billing-api/internal/repository"
)

// ActivityService exposes the read side of the activity log
type ActivityService struct {
	activityRepo *repository.ActivityRepository
	logger       *zap.Logger
}

func NewActivityService(activityRepo *repository.ActivityRepository, logger *zap.Logger) *ActivityService {
	return &ActivityService{
		activityRepo: activityRepo,
		logger:       logger,
	}
}

// ListRecent returns the most recent activities across all targets
func (s *ActivityService) ListRecent(ctx context.Context, limit int) ([]domain.ActivityDTO, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}

	activities, err := s.activityRepo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}

	return s.toDTOs(activities), nil
}

// ListByTarget returns the activity trail of one client or document
func (s *ActivityService) ListByTarget(ctx context.Context, targetType domain.ActivityTargetType, targetID uuid.UUID, limit int) ([]domain.ActivityDTO, error) {
	if limit < 1 || limit > 100 {
		limit = 50
	}

	activities, err := s.activityRepo.ListByTarget(ctx, targetType, targetID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}

	return s.toDTOs(activities), nil
}

func (s *ActivityService) toDTOs(activities []domain.Activity) []domain.ActivityDTO {
	dtos := make([]domain.ActivityDTO, len(activities))
	for i := range activities {
		dtos[i] = mapper.ToActivityDTO(&activities[i])
	}
	return dtos
}
