package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fakturo/billing-api/internal/repository"
)

// OverdueService marks invoices past their due date as overdue. Driven by
// the daily scheduled job.
type OverdueService struct {
	documentRepo *repository.DocumentRepository
	lifecycle    *DocumentLifecycleService
	logger       *zap.Logger
}

func NewOverdueService(
	documentRepo *repository.DocumentRepository,
	lifecycle *DocumentLifecycleService,
	logger *zap.Logger,
) *OverdueService {
	return &OverdueService{
		documentRepo: documentRepo,
		lifecycle:    lifecycle,
		logger:       logger,
	}
}

// MarkOverdueInvoices flips SENT and PARTIAL invoices whose due date has
// passed to OVERDUE. Returns the number of invoices marked.
func (s *OverdueService) MarkOverdueInvoices(ctx context.Context, asOf time.Time) (int, error) {
	candidates, err := s.documentRepo.ListOverdueCandidates(ctx, asOf)
	if err != nil {
		return 0, fmt.Errorf("failed to list overdue candidates: %w", err)
	}

	marked := 0
	for i := range candidates {
		doc := candidates[i]
		if err := s.lifecycle.MarkOverdue(ctx, &doc); err != nil {
			s.logger.Warn("failed to mark invoice overdue",
				zap.String("document_id", doc.ID.String()),
				zap.String("number", doc.Number),
				zap.Error(err))
			continue
		}
		marked++
	}
	return marked, nil
}
