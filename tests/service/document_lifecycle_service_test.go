package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fakturo/billing-api/internal/domain"
	"github.com/fakturo/billing-api/internal/repository"
	"github.com/fakturo/billing-api/internal/service"
	"github.com/fakturo/billing-api/tests/testutil"
)

type lifecycleFixtures struct {
	db          *gorm.DB
	documents   *service.DocumentService
	lifecycle   *service.DocumentLifecycleService
	paymentRepo *repository.PaymentRepository
}

func setupLifecycle(t *testing.T) *lifecycleFixtures {
	db := testutil.SetupTestDB(t)
	log := zap.NewNop()

	numberSeq := service.NewNumberSequenceService(
		repository.NewNumberSequenceRepository(db),
		repository.NewBusinessProfileRepository(db),
		log,
	)
	documentRepo := repository.NewDocumentRepository(db)
	itemRepo := repository.NewDocumentItemRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	documents := service.NewDocumentService(
		documentRepo,
		itemRepo,
		repository.NewClientRepository(db),
		repository.NewContactRepository(db),
		repository.NewProjectRepository(db),
		repository.NewProductRepository(db),
		repository.NewTemplateRepository(db),
		repository.NewBusinessProfileRepository(db),
		numberSeq,
		activityRepo,
		log,
		db,
	)
	lifecycle := service.NewDocumentLifecycleService(
		documentRepo, itemRepo, paymentRepo, numberSeq, activityRepo, log,
	)

	return &lifecycleFixtures{db: db, documents: documents, lifecycle: lifecycle, paymentRepo: paymentRepo}
}

// createDocument creates a document worth 133.05 (subtotal 125.50, tax 10%,
// flat discount 5.00)
func (f *lifecycleFixtures) createDocument(t *testing.T, docType domain.DocumentType) *domain.DocumentDTO {
	t.Helper()

	client := testutil.CreateTestClient(t, f.db, "Lifecycle Client "+uuid.NewString()[:8])
	doc, err := f.documents.Create(context.Background(), &domain.CreateDocumentRequest{
		Type:          docType,
		ClientID:      client.ID,
		TaxRate:       decPtr("10"),
		DiscountValue: decPtr("5.00"),
		Items: []domain.CreateDocumentItemRequest{
			{Description: "Design work", Quantity: decPtr("2"), UnitPrice: decPtr("50.00")},
			{Description: "Hosting", Quantity: decPtr("1"), UnitPrice: decPtr("25.50")},
		},
	})
	require.NoError(t, err)
	return doc
}

func (f *lifecycleFixtures) createSentInvoice(t *testing.T) *domain.DocumentDTO {
	t.Helper()

	doc := f.createDocument(t, domain.DocumentTypeInvoice)
	sent, err := f.lifecycle.Send(context.Background(), doc.ID)
	require.NoError(t, err)
	return sent
}

func TestDocumentLifecycleService_Send(t *testing.T) {
	ctx := context.Background()

	t.Run("draft moves to sent with timestamp", func(t *testing.T) {
		f := setupLifecycle(t)
		doc := f.createDocument(t, domain.DocumentTypeQuote)

		sent, err := f.lifecycle.Send(ctx, doc.ID)
		require.NoError(t, err)

		assert.Equal(t, domain.DocumentStatusSent, sent.Status)
		assert.NotNil(t, sent.SentAt)
		assert.NotNil(t, sent.IssueDate)
	})

	t.Run("sending twice is rejected", func(t *testing.T) {
		f := setupLifecycle(t)
		doc := f.createDocument(t, domain.DocumentTypeQuote)

		_, err := f.lifecycle.Send(ctx, doc.ID)
		require.NoError(t, err)
		_, err = f.lifecycle.Send(ctx, doc.ID)
		assert.ErrorIs(t, err, service.ErrInvalidStatusTransition)
	})

	t.Run("not found", func(t *testing.T) {
		f := setupLifecycle(t)

		_, err := f.lifecycle.Send(ctx, uuid.New())
		assert.ErrorIs(t, err, service.ErrDocumentNotFound)
	})
}

func TestDocumentLifecycleService_ApproveReject(t *testing.T) {
	ctx := context.Background()

	t.Run("sent quote can be approved", func(t *testing.T) {
		f := setupLifecycle(t)
		doc := f.createDocument(t, domain.DocumentTypeQuote)
		_, err := f.lifecycle.Send(ctx, doc.ID)
		require.NoError(t, err)

		approved, err := f.lifecycle.Approve(ctx, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.DocumentStatusApproved, approved.Status)
	})

	t.Run("draft quote cannot be approved", func(t *testing.T) {
		f := setupLifecycle(t)
		doc := f.createDocument(t, domain.DocumentTypeQuote)

		_, err := f.lifecycle.Approve(ctx, doc.ID)
		assert.ErrorIs(t, err, service.ErrInvalidStatusTransition)
	})

	t.Run("invoices cannot be approved", func(t *testing.T) {
		f := setupLifecycle(t)
		doc := f.createDocument(t, domain.DocumentTypeInvoice)

		_, err := f.lifecycle.Approve(ctx, doc.ID)
		assert.ErrorIs(t, err, service.ErrNotAQuote)
	})

	t.Run("sent quote can be rejected with a reason", func(t *testing.T) {
		f := setupLifecycle(t)
		doc := f.createDocument(t, domain.DocumentTypeQuote)
		_, err := f.lifecycle.Send(ctx, doc.ID)
		require.NoError(t, err)

		rejected, err := f.lifecycle.Reject(ctx, doc.ID, "chose a competitor")
		require.NoError(t, err)
		assert.Equal(t, domain.DocumentStatusRejected, rejected.Status)

		var activities []domain.Activity
		require.NoError(t, f.db.Where("target_id = ? AND title = ?", doc.ID, "Quote rejected").Find(&activities).Error)
		require.Len(t, activities, 1)
		assert.Contains(t, activities[0].Body, "chose a competitor")
	})

	t.Run("rejected quote is terminal", func(t *testing.T) {
		f := setupLifecycle(t)
		doc := f.createDocument(t, domain.DocumentTypeQuote)
		_, err := f.lifecycle.Send(ctx, doc.ID)
		require.NoError(t, err)
		_, err = f.lifecycle.Reject(ctx, doc.ID, "")
		require.NoError(t, err)

		_, err = f.lifecycle.Approve(ctx, doc.ID)
		assert.ErrorIs(t, err, service.ErrInvalidStatusTransition)
	})
}

func TestDocumentLifecycleService_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("draft can be cancelled", func(t *testing.T) {
		f := setupLifecycle(t)
		doc := f.createDocument(t, domain.DocumentTypeInvoice)

		cancelled, err := f.lifecycle.Cancel(ctx, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.DocumentStatusCancelled, cancelled.Status)
	})

	t.Run("cancelled document cannot be cancelled again", func(t *testing.T) {
		f := setupLifecycle(t)
		doc := f.createDocument(t, domain.DocumentTypeInvoice)
		_, err := f.lifecycle.Cancel(ctx, doc.ID)
		require.NoError(t, err)

		_, err = f.lifecycle.Cancel(ctx, doc.ID)
		assert.ErrorIs(t, err, service.ErrInvalidStatusTransition)
	})
}

func TestDocumentLifecycleService_Duplicate(t *testing.T) {
	ctx := context.Background()

	t.Run("copy starts as a fresh unpaid draft", func(t *testing.T) {
		f := setupLifecycle(t)
		invoice := f.createSentInvoice(t)

		_, err := f.lifecycle.RecordPayment(ctx, invoice.ID, &domain.RecordPaymentRequest{
			Amount: decimal.RequireFromString("33.05"),
		})
		require.NoError(t, err)

		copy, err := f.lifecycle.Duplicate(ctx, invoice.ID)
		require.NoError(t, err)

		assert.NotEqual(t, invoice.ID, copy.ID)
		assert.NotEqual(t, invoice.Number, copy.Number)
		assert.Equal(t, domain.DocumentStatusDraft, copy.Status)
		assert.Len(t, copy.Items, 2)
		assert.True(t, copy.AmountPaid.IsZero())
		assert.True(t, copy.Total.Equal(copy.AmountDue))
		assert.Empty(t, copy.Payments)
	})
}

func TestDocumentLifecycleService_Convert(t *testing.T) {
	ctx := context.Background()

	t.Run("approved quote becomes a draft invoice", func(t *testing.T) {
		f := setupLifecycle(t)
		quote := f.createDocument(t, domain.DocumentTypeQuote)
		_, err := f.lifecycle.Send(ctx, quote.ID)
		require.NoError(t, err)
		_, err = f.lifecycle.Approve(ctx, quote.ID)
		require.NoError(t, err)

		invoice, err := f.lifecycle.Convert(ctx, quote.ID)
		require.NoError(t, err)

		assert.Equal(t, domain.DocumentTypeInvoice, invoice.Type)
		assert.Equal(t, domain.DocumentStatusDraft, invoice.Status)
		require.NotNil(t, invoice.SourceQuoteID)
		assert.Equal(t, quote.ID, *invoice.SourceQuoteID)
		assert.Len(t, invoice.Items, 2)
		assert.True(t, quote.Total.Equal(invoice.Total))
		assert.NotNil(t, invoice.DueDate)

		converted, err := f.documents.GetByID(ctx, quote.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.DocumentStatusConverted, converted.Status)
	})

	t.Run("sent quote can be converted directly", func(t *testing.T) {
		f := setupLifecycle(t)
		quote := f.createDocument(t, domain.DocumentTypeQuote)
		_, err := f.lifecycle.Send(ctx, quote.ID)
		require.NoError(t, err)

		invoice, err := f.lifecycle.Convert(ctx, quote.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.DocumentTypeInvoice, invoice.Type)
	})

	t.Run("draft quote cannot be converted", func(t *testing.T) {
		f := setupLifecycle(t)
		quote := f.createDocument(t, domain.DocumentTypeQuote)

		_, err := f.lifecycle.Convert(ctx, quote.ID)
		assert.ErrorIs(t, err, service.ErrInvalidStatusTransition)
	})

	t.Run("invoices cannot be converted", func(t *testing.T) {
		f := setupLifecycle(t)
		invoice := f.createDocument(t, domain.DocumentTypeInvoice)

		_, err := f.lifecycle.Convert(ctx, invoice.ID)
		assert.ErrorIs(t, err, service.ErrNotAQuote)
	})

	t.Run("converted quote is locked for item edits", func(t *testing.T) {
		f := setupLifecycle(t)
		quote := f.createDocument(t, domain.DocumentTypeQuote)
		_, err := f.lifecycle.Send(ctx, quote.ID)
		require.NoError(t, err)
		_, err = f.lifecycle.Convert(ctx, quote.ID)
		require.NoError(t, err)

		_, err = f.documents.AddItem(ctx, quote.ID, &domain.CreateDocumentItemRequest{
			Quantity: decPtr("1"), UnitPrice: decPtr("10"),
		})
		assert.ErrorIs(t, err, service.ErrDocumentLocked)
	})
}

func TestDocumentLifecycleService_RecordPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("partial payment", func(t *testing.T) {
		f := setupLifecycle(t)
		invoice := f.createSentInvoice(t)

		paid, err := f.lifecycle.RecordPayment(ctx, invoice.ID, &domain.RecordPaymentRequest{
			Amount: decimal.RequireFromString("33.05"),
			Method: domain.PaymentMethodCard,
		})
		require.NoError(t, err)

		assert.Equal(t, domain.DocumentStatusPartial, paid.Status)
		assert.True(t, decimal.RequireFromString("33.05").Equal(paid.AmountPaid))
		assert.True(t, decimal.RequireFromString("100").Equal(paid.AmountDue), "due %s", paid.AmountDue)
	})

	t.Run("full payment settles the invoice", func(t *testing.T) {
		f := setupLifecycle(t)
		invoice := f.createSentInvoice(t)

		paid, err := f.lifecycle.RecordPayment(ctx, invoice.ID, &domain.RecordPaymentRequest{
			Amount: invoice.Total,
		})
		require.NoError(t, err)

		assert.Equal(t, domain.DocumentStatusPaid, paid.Status)
		assert.True(t, paid.AmountDue.IsZero())
	})

	t.Run("two partial payments accumulate", func(t *testing.T) {
		f := setupLifecycle(t)
		invoice := f.createSentInvoice(t)

		_, err := f.lifecycle.RecordPayment(ctx, invoice.ID, &domain.RecordPaymentRequest{
			Amount: decimal.RequireFromString("100.00"),
		})
		require.NoError(t, err)
		paid, err := f.lifecycle.RecordPayment(ctx, invoice.ID, &domain.RecordPaymentRequest{
			Amount: decimal.RequireFromString("33.05"),
		})
		require.NoError(t, err)

		assert.Equal(t, domain.DocumentStatusPaid, paid.Status)
		assert.True(t, decimal.RequireFromString("133.05").Equal(paid.AmountPaid))
	})

	t.Run("overpayment stays paid with negative amount due", func(t *testing.T) {
		f := setupLifecycle(t)
		invoice := f.createSentInvoice(t)

		_, err := f.lifecycle.RecordPayment(ctx, invoice.ID, &domain.RecordPaymentRequest{
			Amount: invoice.Total,
		})
		require.NoError(t, err)
		paid, err := f.lifecycle.RecordPayment(ctx, invoice.ID, &domain.RecordPaymentRequest{
			Amount: decimal.RequireFromString("10.00"),
		})
		require.NoError(t, err)

		assert.Equal(t, domain.DocumentStatusPaid, paid.Status)
		assert.True(t, paid.AmountDue.IsNegative())
	})

	t.Run("draft invoice rejects payments", func(t *testing.T) {
		f := setupLifecycle(t)
		invoice := f.createDocument(t, domain.DocumentTypeInvoice)

		_, err := f.lifecycle.RecordPayment(ctx, invoice.ID, &domain.RecordPaymentRequest{
			Amount: decimal.RequireFromString("10.00"),
		})
		assert.ErrorIs(t, err, service.ErrInvalidStatusTransition)
	})

	t.Run("quotes reject payments", func(t *testing.T) {
		f := setupLifecycle(t)
		quote := f.createDocument(t, domain.DocumentTypeQuote)

		_, err := f.lifecycle.RecordPayment(ctx, quote.ID, &domain.RecordPaymentRequest{
			Amount: decimal.RequireFromString("10.00"),
		})
		assert.ErrorIs(t, err, service.ErrNotAnInvoice)
	})

	t.Run("non-positive amounts are rejected", func(t *testing.T) {
		f := setupLifecycle(t)
		invoice := f.createSentInvoice(t)

		_, err := f.lifecycle.RecordPayment(ctx, invoice.ID, &domain.RecordPaymentRequest{
			Amount: decimal.Zero,
		})
		assert.ErrorIs(t, err, service.ErrInvalidPaymentAmount)

		_, err = f.lifecycle.RecordPayment(ctx, invoice.ID, &domain.RecordPaymentRequest{
			Amount: decimal.RequireFromString("-5"),
		})
		assert.ErrorIs(t, err, service.ErrInvalidPaymentAmount)
	})

	t.Run("cancelled invoice is locked", func(t *testing.T) {
		f := setupLifecycle(t)
		invoice := f.createSentInvoice(t)
		_, err := f.lifecycle.Cancel(ctx, invoice.ID)
		require.NoError(t, err)

		_, err = f.lifecycle.RecordPayment(ctx, invoice.ID, &domain.RecordPaymentRequest{
			Amount: decimal.RequireFromString("10.00"),
		})
		assert.ErrorIs(t, err, service.ErrDocumentLocked)
	})

	t.Run("explicit paid date is parsed", func(t *testing.T) {
		f := setupLifecycle(t)
		invoice := f.createSentInvoice(t)

		_, err := f.lifecycle.RecordPayment(ctx, invoice.ID, &domain.RecordPaymentRequest{
			Amount: decimal.RequireFromString("10.00"),
			PaidAt: strPtr("2026-08-01"),
		})
		require.NoError(t, err)

		payments, err := f.lifecycle.ListPayments(ctx, invoice.ID)
		require.NoError(t, err)
		require.Len(t, payments, 1)
		assert.Contains(t, payments[0].PaidAt, "2026-08-01")
	})
}

func TestDocumentLifecycleService_ApplyExternalPayment(t *testing.T) {
	ctx := context.Background()

	loadDocument := func(t *testing.T, f *lifecycleFixtures, id uuid.UUID) *domain.Document {
		var doc domain.Document
		require.NoError(t, f.db.Preload("Items").Where("id = ?", id).First(&doc).Error)
		return &doc
	}

	t.Run("applies once per reference", func(t *testing.T) {
		f := setupLifecycle(t)
		invoice := f.createSentInvoice(t)

		doc := loadDocument(t, f, invoice.ID)
		require.NoError(t, f.lifecycle.ApplyExternalPayment(ctx, doc, decimal.RequireFromString("50.00"), time.Now(), "BANK-REF-1"))

		doc = loadDocument(t, f, invoice.ID)
		require.NoError(t, f.lifecycle.ApplyExternalPayment(ctx, doc, decimal.RequireFromString("50.00"), time.Now(), "BANK-REF-1"))

		payments, err := f.lifecycle.ListPayments(ctx, invoice.ID)
		require.NoError(t, err)
		assert.Len(t, payments, 1)

		updated, err := f.documents.GetByID(ctx, invoice.ID)
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("50").Equal(updated.AmountPaid))
		assert.Equal(t, domain.DocumentStatusPartial, updated.Status)
	})

	t.Run("distinct references both apply", func(t *testing.T) {
		f := setupLifecycle(t)
		invoice := f.createSentInvoice(t)

		doc := loadDocument(t, f, invoice.ID)
		require.NoError(t, f.lifecycle.ApplyExternalPayment(ctx, doc, decimal.RequireFromString("50.00"), time.Now(), "REF-A"))
		doc = loadDocument(t, f, invoice.ID)
		require.NoError(t, f.lifecycle.ApplyExternalPayment(ctx, doc, decimal.RequireFromString("83.05"), time.Now(), "REF-B"))

		updated, err := f.documents.GetByID(ctx, invoice.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.DocumentStatusPaid, updated.Status)
	})

	t.Run("quotes are rejected", func(t *testing.T) {
		f := setupLifecycle(t)
		quote := f.createDocument(t, domain.DocumentTypeQuote)

		doc := loadDocument(t, f, quote.ID)
		err := f.lifecycle.ApplyExternalPayment(ctx, doc, decimal.RequireFromString("10.00"), time.Now(), "REF-X")
		assert.ErrorIs(t, err, service.ErrNotAnInvoice)
	})
}

func TestDocumentLifecycleService_MarkOverdue(t *testing.T) {
	ctx := context.Background()

	t.Run("sent invoice flips to overdue", func(t *testing.T) {
		f := setupLifecycle(t)
		invoice := f.createSentInvoice(t)

		var doc domain.Document
		require.NoError(t, f.db.Where("id = ?", invoice.ID).First(&doc).Error)
		require.NoError(t, f.lifecycle.MarkOverdue(ctx, &doc))

		updated, err := f.documents.GetByID(ctx, invoice.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.DocumentStatusOverdue, updated.Status)
	})

	t.Run("draft invoice cannot be overdue", func(t *testing.T) {
		f := setupLifecycle(t)
		invoice := f.createDocument(t, domain.DocumentTypeInvoice)

		var doc domain.Document
		require.NoError(t, f.db.Where("id = ?", invoice.ID).First(&doc).Error)
		assert.ErrorIs(t, f.lifecycle.MarkOverdue(ctx, &doc), service.ErrInvalidStatusTransition)
	})

	t.Run("overdue invoice still accepts payments", func(t *testing.T) {
		f := setupLifecycle(t)
		invoice := f.createSentInvoice(t)

		var doc domain.Document
		require.NoError(t, f.db.Where("id = ?", invoice.ID).First(&doc).Error)
		require.NoError(t, f.lifecycle.MarkOverdue(ctx, &doc))

		paid, err := f.lifecycle.RecordPayment(ctx, invoice.ID, &domain.RecordPaymentRequest{
			Amount: invoice.Total,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.DocumentStatusPaid, paid.Status)
	})
}
