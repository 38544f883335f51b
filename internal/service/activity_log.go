package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fakturo/billing-api/internal/auth"
	"github.com/fakturo/billing-api/internal/domain"
	"github.com/fakturo/billing-api/internal/repository"
)

// activityLogger records workflow events on clients, documents and projects.
// Failures are logged and swallowed; event logging never fails the operation
// that triggered it.
type activityLogger struct {
	repo   *repository.ActivityRepository
	logger *zap.Logger
}

func newActivityLogger(repo *repository.ActivityRepository, logger *zap.Logger) *activityLogger {
	return &activityLogger{repo: repo, logger: logger}
}

func (a *activityLogger) log(ctx context.Context, targetType domain.ActivityTargetType, targetID uuid.UUID, targetName, title, body string) {
	activity := &domain.Activity{
		TargetType: targetType,
		TargetID:   targetID,
		TargetName: targetName,
		Title:      title,
		Body:       body,
		OccurredAt: time.Now().UTC(),
	}

	if userCtx, ok := auth.FromContext(ctx); ok {
		activity.CreatorID = userCtx.UserID.String()
		activity.CreatorName = userCtx.DisplayName
	}

	if err := a.repo.Create(ctx, activity); err != nil {
		a.logger.Warn("failed to log activity",
			zap.String("target_type", string(targetType)),
			zap.String("target_id", targetID.String()),
			zap.Error(err),
		)
	}
}
