package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fakturo/billing-api/internal/domain"
	"github.com/fakturo/billing-api/internal/mapper"
	"github.com/fakturo/billing-api/internal/repository"
	"github.com/fakturo/billing-api/internal/totals"
)

// statusTransitions lists the allowed status moves per document type.
// Terminal states have no outgoing edges; CONVERTED is reached only through
// Convert and PAID/PARTIAL only through payment recording.
var statusTransitions = map[domain.DocumentType]map[domain.DocumentStatus][]domain.DocumentStatus{
	domain.DocumentTypeQuote: {
		domain.DocumentStatusDraft: {domain.DocumentStatusSent, domain.DocumentStatusCancelled},
		domain.DocumentStatusSent:  {domain.DocumentStatusApproved, domain.DocumentStatusRejected, domain.DocumentStatusCancelled},
		domain.DocumentStatusApproved: {domain.DocumentStatusConverted, domain.DocumentStatusCancelled},
	},
	domain.DocumentTypeInvoice: {
		domain.DocumentStatusDraft:   {domain.DocumentStatusSent, domain.DocumentStatusCancelled},
		domain.DocumentStatusSent:    {domain.DocumentStatusPartial, domain.DocumentStatusPaid, domain.DocumentStatusOverdue, domain.DocumentStatusCancelled},
		domain.DocumentStatusOverdue: {domain.DocumentStatusPartial, domain.DocumentStatusPaid, domain.DocumentStatusCancelled},
		domain.DocumentStatusPartial: {domain.DocumentStatusPaid, domain.DocumentStatusOverdue, domain.DocumentStatusCancelled},
	},
}

func canTransition(docType domain.DocumentType, from, to domain.DocumentStatus) bool {
	for _, allowed := range statusTransitions[docType][from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// DocumentLifecycleService drives documents through their status machine:
// sending, quote approval and rejection, cancellation, duplication,
// quote-to-invoice conversion and payment recording.
type DocumentLifecycleService struct {
	documentRepo *repository.DocumentRepository
	itemRepo     *repository.DocumentItemRepository
	paymentRepo  *repository.PaymentRepository
	numberSeq    *NumberSequenceService
	activities   *activityLogger
	logger       *zap.Logger
}

func NewDocumentLifecycleService(
	documentRepo *repository.DocumentRepository,
	itemRepo *repository.DocumentItemRepository,
	paymentRepo *repository.PaymentRepository,
	numberSeq *NumberSequenceService,
	activityRepo *repository.ActivityRepository,
	logger *zap.Logger,
) *DocumentLifecycleService {
	return &DocumentLifecycleService{
		documentRepo: documentRepo,
		itemRepo:     itemRepo,
		paymentRepo:  paymentRepo,
		numberSeq:    numberSeq,
		activities:   newActivityLogger(activityRepo, logger),
		logger:       logger,
	}
}

// Send marks a draft as sent and stamps the sent timestamp. Missing issue
// and due dates are filled in at this point.
func (s *DocumentLifecycleService) Send(ctx context.Context, id uuid.UUID) (*domain.DocumentDTO, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canTransition(doc.Type, doc.Status, domain.DocumentStatusSent) {
		return nil, fmt.Errorf("%w: cannot send %s document in status %s", ErrInvalidStatusTransition, doc.Type, doc.Status)
	}

	now := time.Now().UTC()
	doc.Status = domain.DocumentStatusSent
	doc.SentAt = &now
	if doc.IssueDate == nil {
		today := now.Truncate(24 * time.Hour)
		doc.IssueDate = &today
	}
	if doc.DueDate == nil && doc.Type == domain.DocumentTypeInvoice {
		due := doc.IssueDate.AddDate(0, 0, 14)
		doc.DueDate = &due
	}

	if err := s.documentRepo.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to send document: %w", err)
	}

	s.activities.log(ctx, domain.ActivityTargetDocument, doc.ID, doc.Number,
		"Document sent", fmt.Sprintf("%s %s was sent", doc.Type, doc.Number))

	dto := mapper.ToDocumentDTO(doc)
	return &dto, nil
}

// Approve marks a sent quote as approved
func (s *DocumentLifecycleService) Approve(ctx context.Context, id uuid.UUID) (*domain.DocumentDTO, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Type != domain.DocumentTypeQuote {
		return nil, ErrNotAQuote
	}
	if !canTransition(doc.Type, doc.Status, domain.DocumentStatusApproved) {
		return nil, fmt.Errorf("%w: cannot approve quote in status %s", ErrInvalidStatusTransition, doc.Status)
	}

	doc.Status = domain.DocumentStatusApproved
	if err := s.documentRepo.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to approve quote: %w", err)
	}

	s.activities.log(ctx, domain.ActivityTargetDocument, doc.ID, doc.Number,
		"Quote approved", fmt.Sprintf("Quote %s was approved", doc.Number))

	dto := mapper.ToDocumentDTO(doc)
	return &dto, nil
}

// Reject marks a sent quote as rejected, recording the reason in the
// activity log
func (s *DocumentLifecycleService) Reject(ctx context.Context, id uuid.UUID, reason string) (*domain.DocumentDTO, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Type != domain.DocumentTypeQuote {
		return nil, ErrNotAQuote
	}
	if !canTransition(doc.Type, doc.Status, domain.DocumentStatusRejected) {
		return nil, fmt.Errorf("%w: cannot reject quote in status %s", ErrInvalidStatusTransition, doc.Status)
	}

	doc.Status = domain.DocumentStatusRejected
	if err := s.documentRepo.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to reject quote: %w", err)
	}

	body := fmt.Sprintf("Quote %s was rejected", doc.Number)
	if reason != "" {
		body = fmt.Sprintf("Quote %s was rejected: %s", doc.Number, reason)
	}
	s.activities.log(ctx, domain.ActivityTargetDocument, doc.ID, doc.Number, "Quote rejected", body)

	dto := mapper.ToDocumentDTO(doc)
	return &dto, nil
}

// Cancel cancels a non-terminal document
func (s *DocumentLifecycleService) Cancel(ctx context.Context, id uuid.UUID) (*domain.DocumentDTO, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canTransition(doc.Type, doc.Status, domain.DocumentStatusCancelled) {
		return nil, fmt.Errorf("%w: cannot cancel %s document in status %s", ErrInvalidStatusTransition, doc.Type, doc.Status)
	}

	doc.Status = domain.DocumentStatusCancelled
	if err := s.documentRepo.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to cancel document: %w", err)
	}

	s.activities.log(ctx, domain.ActivityTargetDocument, doc.ID, doc.Number,
		"Document cancelled", fmt.Sprintf("%s %s was cancelled", doc.Type, doc.Number))

	dto := mapper.ToDocumentDTO(doc)
	return &dto, nil
}

// Duplicate copies a document into a fresh draft with a new number. Items
// are copied, payments are not.
func (s *DocumentLifecycleService) Duplicate(ctx context.Context, id uuid.UUID) (*domain.DocumentDTO, error) {
	src, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	number, err := s.numberSeq.GenerateNumber(ctx, src.Type)
	if err != nil {
		return nil, err
	}

	copy := s.cloneDocument(src, src.Type, number)
	copy.AmountPaid = decimal.Zero
	copy.AmountDue = copy.Total

	if err := s.documentRepo.Create(ctx, copy); err != nil {
		return nil, fmt.Errorf("failed to duplicate document: %w", err)
	}

	s.activities.log(ctx, domain.ActivityTargetDocument, copy.ID, copy.Number,
		"Document duplicated", fmt.Sprintf("%s %s was duplicated from %s", copy.Type, copy.Number, src.Number))

	return s.reload(ctx, copy.ID)
}

// Convert turns an approved or sent quote into a draft invoice. The quote
// moves to CONVERTED and the invoice keeps a reference back to it.
func (s *DocumentLifecycleService) Convert(ctx context.Context, id uuid.UUID) (*domain.DocumentDTO, error) {
	quote, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if quote.Type != domain.DocumentTypeQuote {
		return nil, ErrNotAQuote
	}
	if quote.Status != domain.DocumentStatusApproved && quote.Status != domain.DocumentStatusSent {
		return nil, fmt.Errorf("%w: cannot convert quote in status %s", ErrInvalidStatusTransition, quote.Status)
	}

	number, err := s.numberSeq.GenerateNumber(ctx, domain.DocumentTypeInvoice)
	if err != nil {
		return nil, err
	}

	invoice := s.cloneDocument(quote, domain.DocumentTypeInvoice, number)
	invoice.SourceQuoteID = &quote.ID
	invoice.AmountPaid = decimal.Zero
	invoice.AmountDue = invoice.Total
	today := time.Now().UTC().Truncate(24 * time.Hour)
	invoice.IssueDate = &today
	due := today.AddDate(0, 0, 14)
	invoice.DueDate = &due

	if err := s.documentRepo.Create(ctx, invoice); err != nil {
		return nil, fmt.Errorf("failed to create invoice from quote: %w", err)
	}

	quote.Status = domain.DocumentStatusConverted
	quote.Items = nil
	if err := s.documentRepo.Update(ctx, quote); err != nil {
		return nil, fmt.Errorf("failed to mark quote converted: %w", err)
	}

	s.activities.log(ctx, domain.ActivityTargetDocument, quote.ID, quote.Number,
		"Quote converted", fmt.Sprintf("Quote %s was converted to invoice %s", quote.Number, number))

	return s.reload(ctx, invoice.ID)
}

// RecordPayment registers a payment against an invoice and rolls the paid
// and due amounts forward. Full payment moves the invoice to PAID, anything
// less to PARTIAL.
func (s *DocumentLifecycleService) RecordPayment(ctx context.Context, id uuid.UUID, req *domain.RecordPaymentRequest) (*domain.DocumentDTO, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Type != domain.DocumentTypeInvoice {
		return nil, ErrNotAnInvoice
	}
	if doc.Status.IsTerminal() && doc.Status != domain.DocumentStatusPaid {
		return nil, ErrDocumentLocked
	}
	if doc.Status == domain.DocumentStatusDraft {
		return nil, fmt.Errorf("%w: cannot record payment on a draft invoice", ErrInvalidStatusTransition)
	}
	if !req.Amount.IsPositive() {
		return nil, ErrInvalidPaymentAmount
	}

	paidAt := time.Now().UTC()
	if req.PaidAt != nil && *req.PaidAt != "" {
		t, err := time.Parse("2006-01-02", *req.PaidAt)
		if err != nil {
			return nil, fmt.Errorf("%w: paid date: %v", ErrInvalidInput, err)
		}
		paidAt = t
	}

	payment := &domain.Payment{
		DocumentID: doc.ID,
		Amount:     req.Amount.Round(2),
		PaidAt:     paidAt,
		Method:     req.Method,
		Reference:  req.Reference,
		Notes:      req.Notes,
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	return s.settle(ctx, doc, payment)
}

// ApplyExternalPayment registers a payment discovered in the accounting
// system. Idempotent on the external reference.
func (s *DocumentLifecycleService) ApplyExternalPayment(ctx context.Context, doc *domain.Document, amount decimal.Decimal, paidAt time.Time, reference string) error {
	if doc.Type != domain.DocumentTypeInvoice {
		return ErrNotAnInvoice
	}
	if reference != "" {
		exists, err := s.paymentRepo.ExistsByReference(ctx, doc.ID, reference)
		if err != nil {
			return fmt.Errorf("failed to check payment reference: %w", err)
		}
		if exists {
			return nil
		}
	}
	if !amount.IsPositive() {
		return ErrInvalidPaymentAmount
	}

	payment := &domain.Payment{
		DocumentID: doc.ID,
		Amount:     amount.Round(2),
		PaidAt:     paidAt,
		Method:     "bank_transfer",
		Reference:  reference,
		Notes:      "Imported from accounting",
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return fmt.Errorf("failed to record external payment: %w", err)
	}

	_, err := s.settle(ctx, doc, payment)
	return err
}

// MarkOverdue flips a sent or partially paid invoice to OVERDUE. Used by the
// scheduled job, not exposed over HTTP.
func (s *DocumentLifecycleService) MarkOverdue(ctx context.Context, doc *domain.Document) error {
	if !canTransition(doc.Type, doc.Status, domain.DocumentStatusOverdue) {
		return fmt.Errorf("%w: cannot mark %s document overdue in status %s", ErrInvalidStatusTransition, doc.Type, doc.Status)
	}

	doc.Status = domain.DocumentStatusOverdue
	doc.Items = nil
	if err := s.documentRepo.Update(ctx, doc); err != nil {
		return fmt.Errorf("failed to mark document overdue: %w", err)
	}

	s.activities.log(ctx, domain.ActivityTargetDocument, doc.ID, doc.Number,
		"Invoice overdue", fmt.Sprintf("Invoice %s passed its due date without full payment", doc.Number))
	return nil
}

// ListPayments returns the payments of a document ordered by paid date
func (s *DocumentLifecycleService) ListPayments(ctx context.Context, documentID uuid.UUID) ([]domain.PaymentDTO, error) {
	if _, err := s.load(ctx, documentID); err != nil {
		return nil, err
	}

	payments, err := s.paymentRepo.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	dtos := make([]domain.PaymentDTO, len(payments))
	for i := range payments {
		dtos[i] = mapper.ToPaymentDTO(&payments[i])
	}
	return dtos, nil
}

// settle recomputes amountPaid from all recorded payments and derives the
// resulting status
func (s *DocumentLifecycleService) settle(ctx context.Context, doc *domain.Document, latest *domain.Payment) (*domain.DocumentDTO, error) {
	payments, err := s.paymentRepo.ListByDocument(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	paid := decimal.Zero
	for i := range payments {
		paid = paid.Add(payments[i].Amount)
	}

	agg := totals.Compute(doc.Items, doc.TaxRate, doc.DiscountType, doc.DiscountValue, paid)
	doc.AmountPaid = paid
	doc.Subtotal = agg.Subtotal
	doc.TaxAmount = agg.TaxAmount
	doc.DiscountAmount = agg.DiscountAmount
	doc.Total = agg.Total
	doc.AmountDue = agg.AmountDue

	switch {
	case doc.AmountDue.LessThanOrEqual(decimal.Zero):
		doc.Status = domain.DocumentStatusPaid
	case paid.IsPositive():
		doc.Status = domain.DocumentStatusPartial
	}

	doc.Items = nil
	doc.Payments = nil
	if err := s.documentRepo.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to update payment totals: %w", err)
	}

	s.activities.log(ctx, domain.ActivityTargetDocument, doc.ID, doc.Number,
		"Payment recorded", fmt.Sprintf("Payment of %s %s recorded on invoice %s", latest.Amount.StringFixed(2), doc.Currency, doc.Number))

	return s.reload(ctx, doc.ID)
}

// cloneDocument copies header fields and items into a fresh draft of the
// given type
func (s *DocumentLifecycleService) cloneDocument(src *domain.Document, docType domain.DocumentType, number string) *domain.Document {
	items := make([]domain.DocumentItem, len(src.Items))
	for i := range src.Items {
		items[i] = domain.DocumentItem{
			Description:  src.Items[i].Description,
			ItemType:     src.Items[i].ItemType,
			Quantity:     src.Items[i].Quantity,
			UnitPrice:    src.Items[i].UnitPrice,
			Amount:       src.Items[i].Amount,
			ShowQuantity: src.Items[i].ShowQuantity,
			SortOrder:    src.Items[i].SortOrder,
			ProductID:    src.Items[i].ProductID,
		}
	}

	return &domain.Document{
		Type:           docType,
		Status:         domain.DocumentStatusDraft,
		Number:         number,
		Title:          src.Title,
		Currency:       src.Currency,
		TaxRate:        src.TaxRate,
		DiscountType:   src.DiscountType,
		DiscountValue:  src.DiscountValue,
		Subtotal:       src.Subtotal,
		TaxAmount:      src.TaxAmount,
		DiscountAmount: src.DiscountAmount,
		Total:          src.Total,
		Notes:          src.Notes,
		Terms:          src.Terms,
		ShowBusiness:   src.ShowBusiness,
		ShowClient:     src.ShowClient,
		TemplateID:     src.TemplateID,
		ClientID:       src.ClientID,
		ClientName:     src.ClientName,
		ContactID:      src.ContactID,
		ProjectID:      src.ProjectID,
		Items:          items,
	}
}

func (s *DocumentLifecycleService) load(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	doc, err := s.documentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

func (s *DocumentLifecycleService) reload(ctx context.Context, id uuid.UUID) (*domain.DocumentDTO, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToDocumentDTO(doc)
	return &dto, nil
}
