package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fakturo/billing-api/internal/accounting"
	"github.com/fakturo/billing-api/internal/repository"
)

// PaymentSyncService pulls customer payments from the external accounting
// system and applies them to matching invoices by invoice number. Payments
// carry an external reference, so replays are idempotent.
type PaymentSyncService struct {
	accounting   *accounting.Client
	documentRepo *repository.DocumentRepository
	lifecycle    *DocumentLifecycleService
	logger       *zap.Logger

	mu       sync.Mutex
	lastSync time.Time
}

func NewPaymentSyncService(
	accountingClient *accounting.Client,
	documentRepo *repository.DocumentRepository,
	lifecycle *DocumentLifecycleService,
	logger *zap.Logger,
) *PaymentSyncService {
	return &PaymentSyncService{
		accounting:   accountingClient,
		documentRepo: documentRepo,
		lifecycle:    lifecycle,
		logger:       logger,
		lastSync:     time.Now().UTC().AddDate(0, 0, -30),
	}
}

// Enabled reports whether an accounting connection is configured
func (s *PaymentSyncService) Enabled() bool {
	return s.accounting != nil && s.accounting.IsEnabled()
}

// Sync fetches payments recorded since the last run and applies them.
// Runs are serialized; overlapping invocations from the scheduler wait.
func (s *PaymentSyncService) Sync(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	since := s.lastSync
	started := time.Now().UTC()

	payments, err := s.accounting.PaymentsSince(ctx, since)
	if err != nil {
		return fmt.Errorf("failed to fetch payments from accounting: %w", err)
	}

	applied, skipped := 0, 0
	for i := range payments {
		if err := s.apply(ctx, &payments[i]); err != nil {
			skipped++
			s.logger.Warn("failed to apply external payment",
				zap.String("invoice_number", payments[i].InvoiceNumber),
				zap.String("reference", payments[i].Reference),
				zap.Error(err))
			continue
		}
		applied++
	}

	s.lastSync = started

	s.logger.Info("payment sync completed",
		zap.Time("since", since),
		zap.Int("fetched", len(payments)),
		zap.Int("applied", applied),
		zap.Int("skipped", skipped))
	return nil
}

func (s *PaymentSyncService) apply(ctx context.Context, payment *accounting.ExternalPayment) error {
	doc, err := s.documentRepo.GetByNumber(ctx, payment.InvoiceNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("no invoice with number %s", payment.InvoiceNumber)
		}
		return fmt.Errorf("failed to look up invoice %s: %w", payment.InvoiceNumber, err)
	}

	return s.lifecycle.ApplyExternalPayment(ctx, doc, payment.Amount, payment.PaidAt, payment.Reference)
}
