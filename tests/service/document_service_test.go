package service_test

import (
	"context"
	"strings"
	"testing"

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

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func strPtr(s string) *string { return &s }

func setupDocumentService(t *testing.T) (*service.DocumentService, *gorm.DB) {
	db := testutil.SetupTestDB(t)
	log := zap.NewNop()

	numberSeq := service.NewNumberSequenceService(
		repository.NewNumberSequenceRepository(db),
		repository.NewBusinessProfileRepository(db),
		log,
	)

	svc := service.NewDocumentService(
		repository.NewDocumentRepository(db),
		repository.NewDocumentItemRepository(db),
		repository.NewClientRepository(db),
		repository.NewContactRepository(db),
		repository.NewProjectRepository(db),
		repository.NewProductRepository(db),
		repository.NewTemplateRepository(db),
		repository.NewBusinessProfileRepository(db),
		numberSeq,
		repository.NewActivityRepository(db),
		log,
		db,
	)
	return svc, db
}

func createTestQuote(t *testing.T, svc *service.DocumentService, db *gorm.DB) *domain.DocumentDTO {
	t.Helper()

	client := testutil.CreateTestClient(t, db, "Quote Client "+uuid.NewString()[:8])
	doc, err := svc.Create(context.Background(), &domain.CreateDocumentRequest{
		Type:          domain.DocumentTypeQuote,
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

func forceStatus(t *testing.T, db *gorm.DB, id uuid.UUID, status domain.DocumentStatus) {
	t.Helper()
	require.NoError(t, db.Model(&domain.Document{}).Where("id = ?", id).Update("status", status).Error)
}

func TestDocumentService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("quote with items computes the full snapshot", func(t *testing.T) {
		svc, db := setupDocumentService(t)

		doc := createTestQuote(t, svc, db)

		assert.Equal(t, domain.DocumentTypeQuote, doc.Type)
		assert.Equal(t, domain.DocumentStatusDraft, doc.Status)
		assert.True(t, strings.HasPrefix(doc.Number, "QUO-"), "number %s", doc.Number)
		require.Len(t, doc.Items, 2)
		assert.True(t, decimal.RequireFromString("125.5").Equal(doc.Subtotal), "subtotal %s", doc.Subtotal)
		assert.True(t, decimal.RequireFromString("12.55").Equal(doc.TaxAmount), "tax %s", doc.TaxAmount)
		assert.True(t, decimal.RequireFromString("5").Equal(doc.DiscountAmount))
		assert.True(t, decimal.RequireFromString("133.05").Equal(doc.Total), "total %s", doc.Total)
		assert.True(t, doc.AmountPaid.IsZero())
		assert.True(t, decimal.RequireFromString("133.05").Equal(doc.AmountDue))
	})

	t.Run("defaults fill in currency, tax rate and dates", func(t *testing.T) {
		svc, db := setupDocumentService(t)
		client := testutil.CreateTestClient(t, db, "Defaults Client")

		doc, err := svc.Create(ctx, &domain.CreateDocumentRequest{
			Type:     domain.DocumentTypeInvoice,
			ClientID: client.ID,
		})
		require.NoError(t, err)

		assert.Equal(t, "NOK", doc.Currency)
		assert.True(t, decimal.NewFromInt(25).Equal(doc.TaxRate), "tax rate %s", doc.TaxRate)
		assert.True(t, strings.HasPrefix(doc.Number, "INV-"))
		require.NotNil(t, doc.IssueDate)
		require.NotNil(t, doc.DueDate, "invoices get a due date from the profile's due days")
	})

	t.Run("quote gets no default due date", func(t *testing.T) {
		svc, db := setupDocumentService(t)
		client := testutil.CreateTestClient(t, db, "No Due Date Client")

		doc, err := svc.Create(ctx, &domain.CreateDocumentRequest{
			Type:     domain.DocumentTypeQuote,
			ClientID: client.ID,
		})
		require.NoError(t, err)
		assert.Nil(t, doc.DueDate)
	})

	t.Run("product reference pre-fills the line", func(t *testing.T) {
		svc, db := setupDocumentService(t)
		client := testutil.CreateTestClient(t, db, "Product Client")
		product := testutil.CreateTestProduct(t, db, "Support plan", "199.00")

		doc, err := svc.Create(ctx, &domain.CreateDocumentRequest{
			Type:     domain.DocumentTypeInvoice,
			ClientID: client.ID,
			TaxRate:  decPtr("0"),
			Items: []domain.CreateDocumentItemRequest{
				{ProductID: &product.ID, Quantity: decPtr("2")},
			},
		})
		require.NoError(t, err)

		require.Len(t, doc.Items, 1)
		assert.Equal(t, "Support plan", doc.Items[0].Description)
		assert.True(t, decimal.RequireFromString("199").Equal(doc.Items[0].UnitPrice))
		assert.True(t, decimal.RequireFromString("398").Equal(doc.Items[0].Amount))
	})

	t.Run("unknown client", func(t *testing.T) {
		svc, _ := setupDocumentService(t)

		_, err := svc.Create(ctx, &domain.CreateDocumentRequest{
			Type:     domain.DocumentTypeQuote,
			ClientID: uuid.New(),
		})
		assert.ErrorIs(t, err, service.ErrClientNotFound)
	})

	t.Run("invalid document type", func(t *testing.T) {
		svc, db := setupDocumentService(t)
		client := testutil.CreateTestClient(t, db, "Bad Type Client")

		_, err := svc.Create(ctx, &domain.CreateDocumentRequest{
			Type:     domain.DocumentType("RECEIPT"),
			ClientID: client.ID,
		})
		assert.ErrorIs(t, err, service.ErrInvalidDocumentType)
	})

	t.Run("invalid discount type", func(t *testing.T) {
		svc, db := setupDocumentService(t)
		client := testutil.CreateTestClient(t, db, "Bad Discount Client")

		_, err := svc.Create(ctx, &domain.CreateDocumentRequest{
			Type:         domain.DocumentTypeQuote,
			ClientID:     client.ID,
			DiscountType: domain.DiscountType("ratio"),
		})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("malformed issue date", func(t *testing.T) {
		svc, db := setupDocumentService(t)
		client := testutil.CreateTestClient(t, db, "Bad Date Client")

		_, err := svc.Create(ctx, &domain.CreateDocumentRequest{
			Type:      domain.DocumentTypeQuote,
			ClientID:  client.ID,
			IssueDate: strPtr("01.02.2026"),
		})
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})
}

func TestDocumentService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("tax rate change recomputes aggregates from stored items", func(t *testing.T) {
		svc, db := setupDocumentService(t)
		doc := createTestQuote(t, svc, db)

		updated, err := svc.Update(ctx, doc.ID, &domain.UpdateDocumentRequest{
			TaxRate: decPtr("25"),
		})
		require.NoError(t, err)

		// subtotal 125.50, tax 31.38, discount 5.00
		assert.True(t, decimal.RequireFromString("125.5").Equal(updated.Subtotal))
		assert.True(t, decimal.RequireFromString("31.38").Equal(updated.TaxAmount), "tax %s", updated.TaxAmount)
		assert.True(t, decimal.RequireFromString("151.88").Equal(updated.Total), "total %s", updated.Total)
	})

	t.Run("switching to percent discount", func(t *testing.T) {
		svc, db := setupDocumentService(t)
		doc := createTestQuote(t, svc, db)

		updated, err := svc.Update(ctx, doc.ID, &domain.UpdateDocumentRequest{
			DiscountType:  domain.DiscountTypePercent,
			DiscountValue: decPtr("10"),
		})
		require.NoError(t, err)

		// (125.50 + 12.55) * 10% = 13.81 (rounded)
		assert.True(t, decimal.RequireFromString("13.81").Equal(updated.DiscountAmount), "discount %s", updated.DiscountAmount)
		assert.True(t, decimal.RequireFromString("124.24").Equal(updated.Total), "total %s", updated.Total)
	})

	t.Run("header-only changes leave the snapshot alone", func(t *testing.T) {
		svc, db := setupDocumentService(t)
		doc := createTestQuote(t, svc, db)

		updated, err := svc.Update(ctx, doc.ID, &domain.UpdateDocumentRequest{
			Title: "Renamed",
		})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", updated.Title)
		assert.True(t, doc.Total.Equal(updated.Total))
	})

	t.Run("terminal document is locked", func(t *testing.T) {
		svc, db := setupDocumentService(t)
		doc := createTestQuote(t, svc, db)
		forceStatus(t, db, doc.ID, domain.DocumentStatusCancelled)

		_, err := svc.Update(ctx, doc.ID, &domain.UpdateDocumentRequest{Title: "Nope"})
		assert.ErrorIs(t, err, service.ErrDocumentLocked)
	})

	t.Run("not found", func(t *testing.T) {
		svc, _ := setupDocumentService(t)

		_, err := svc.Update(ctx, uuid.New(), &domain.UpdateDocumentRequest{Title: "X"})
		assert.ErrorIs(t, err, service.ErrDocumentNotFound)
	})
}

func TestDocumentService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("draft can be deleted", func(t *testing.T) {
		svc, db := setupDocumentService(t)
		doc := createTestQuote(t, svc, db)

		require.NoError(t, svc.Delete(ctx, doc.ID))

		_, err := svc.GetByID(ctx, doc.ID)
		assert.ErrorIs(t, err, service.ErrDocumentNotFound)
	})

	t.Run("paid invoice is locked", func(t *testing.T) {
		svc, db := setupDocumentService(t)
		doc := createTestQuote(t, svc, db)
		forceStatus(t, db, doc.ID, domain.DocumentStatusPaid)

		assert.ErrorIs(t, svc.Delete(ctx, doc.ID), service.ErrDocumentLocked)
	})

	t.Run("partially paid invoice is locked", func(t *testing.T) {
		svc, db := setupDocumentService(t)
		doc := createTestQuote(t, svc, db)
		forceStatus(t, db, doc.ID, domain.DocumentStatusPartial)

		assert.ErrorIs(t, svc.Delete(ctx, doc.ID), service.ErrDocumentLocked)
	})
}

func TestDocumentService_AddItem(t *testing.T) {
	ctx := context.Background()

	t.Run("appended line lands with recomputed aggregates", func(t *testing.T) {
		svc, db := setupDocumentService(t)
		doc := createTestQuote(t, svc, db)

		updated, err := svc.AddItem(ctx, doc.ID, &domain.CreateDocumentItemRequest{
			Description: "Extra work",
			Quantity:    decPtr("1"),
			UnitPrice:   decPtr("100.00"),
		})
		require.NoError(t, err)

		require.Len(t, updated.Items, 3)
		assert.Equal(t, 2, updated.Items[2].SortOrder)
		// subtotal 225.50, tax 22.55, discount 5.00
		assert.True(t, decimal.RequireFromString("225.5").Equal(updated.Subtotal), "subtotal %s", updated.Subtotal)
		assert.True(t, decimal.RequireFromString("243.05").Equal(updated.Total), "total %s", updated.Total)
	})

	t.Run("terminal document is locked", func(t *testing.T) {
		svc, db := setupDocumentService(t)
		doc := createTestQuote(t, svc, db)
		forceStatus(t, db, doc.ID, domain.DocumentStatusRejected)

		_, err := svc.AddItem(ctx, doc.ID, &domain.CreateDocumentItemRequest{
			Quantity: decPtr("1"), UnitPrice: decPtr("10"),
		})
		assert.ErrorIs(t, err, service.ErrDocumentLocked)
	})

	t.Run("not found", func(t *testing.T) {
		svc, _ := setupDocumentService(t)

		_, err := svc.AddItem(ctx, uuid.New(), &domain.CreateDocumentItemRequest{
			Quantity: decPtr("1"), UnitPrice: decPtr("10"),
		})
		assert.ErrorIs(t, err, service.ErrDocumentNotFound)
	})
}

func TestDocumentService_UpdateItem(t *testing.T) {
	ctx := context.Background()

	t.Run("quantity change flows into the stored snapshot", func(t *testing.T) {
		svc, db := setupDocumentService(t)
		doc := createTestQuote(t, svc, db)

		updated, err := svc.UpdateItem(ctx, doc.ID, doc.Items[0].ID, &domain.UpdateDocumentItemRequest{
			Quantity: decPtr("4"),
		})
		require.NoError(t, err)

		// first line 4 x 50.00 = 200.00, subtotal 225.50
		assert.True(t, decimal.RequireFromString("225.5").Equal(updated.Subtotal), "subtotal %s", updated.Subtotal)
		assert.True(t, decimal.RequireFromString("22.55").Equal(updated.TaxAmount))
	})

	t.Run("unknown item id", func(t *testing.T) {
		svc, db := setupDocumentService(t)
		doc := createTestQuote(t, svc, db)

		_, err := svc.UpdateItem(ctx, doc.ID, uuid.New(), &domain.UpdateDocumentItemRequest{
			Quantity: decPtr("4"),
		})
		assert.ErrorIs(t, err, service.ErrItemNotFound)
	})

	t.Run("terminal document is locked", func(t *testing.T) {
		svc, db := setupDocumentService(t)
		doc := createTestQuote(t, svc, db)
		forceStatus(t, db, doc.ID, domain.DocumentStatusConverted)

		_, err := svc.UpdateItem(ctx, doc.ID, doc.Items[0].ID, &domain.UpdateDocumentItemRequest{
			Quantity: decPtr("4"),
		})
		assert.ErrorIs(t, err, service.ErrDocumentLocked)
	})
}

func TestDocumentService_RemoveItem(t *testing.T) {
	ctx := context.Background()

	t.Run("removal renumbers the remaining lines", func(t *testing.T) {
		svc, db := setupDocumentService(t)
		doc := createTestQuote(t, svc, db)

		updated, err := svc.RemoveItem(ctx, doc.ID, doc.Items[0].ID)
		require.NoError(t, err)

		require.Len(t, updated.Items, 1)
		assert.Equal(t, "Hosting", updated.Items[0].Description)
		assert.Equal(t, 0, updated.Items[0].SortOrder)
		// subtotal 25.50, tax 2.55, discount 5.00
		assert.True(t, decimal.RequireFromString("25.5").Equal(updated.Subtotal))
		assert.True(t, decimal.RequireFromString("23.05").Equal(updated.Total), "total %s", updated.Total)
	})

	t.Run("unknown item id", func(t *testing.T) {
		svc, db := setupDocumentService(t)
		doc := createTestQuote(t, svc, db)

		_, err := svc.RemoveItem(ctx, doc.ID, uuid.New())
		assert.ErrorIs(t, err, service.ErrItemNotFound)
	})
}

func TestDocumentService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("filter by type", func(t *testing.T) {
		svc, db := setupDocumentService(t)
		client := testutil.CreateTestClient(t, db, "List Client")

		for _, docType := range []domain.DocumentType{domain.DocumentTypeQuote, domain.DocumentTypeQuote, domain.DocumentTypeInvoice} {
			_, err := svc.Create(ctx, &domain.CreateDocumentRequest{Type: docType, ClientID: client.ID})
			require.NoError(t, err)
		}

		quoteType := domain.DocumentTypeQuote
		result, err := svc.List(ctx, 1, 20, repository.DocumentFilter{Type: &quoteType}, "", "")
		require.NoError(t, err)
		assert.Equal(t, int64(2), result.Total)

		result, err = svc.List(ctx, 1, 20, repository.DocumentFilter{}, "", "")
		require.NoError(t, err)
		assert.Equal(t, int64(3), result.Total)
	})

	t.Run("filter by status and client", func(t *testing.T) {
		svc, db := setupDocumentService(t)
		clientA := testutil.CreateTestClient(t, db, "Client A")
		clientB := testutil.CreateTestClient(t, db, "Client B")

		docA, err := svc.Create(ctx, &domain.CreateDocumentRequest{Type: domain.DocumentTypeInvoice, ClientID: clientA.ID})
		require.NoError(t, err)
		_, err = svc.Create(ctx, &domain.CreateDocumentRequest{Type: domain.DocumentTypeInvoice, ClientID: clientB.ID})
		require.NoError(t, err)
		forceStatus(t, db, docA.ID, domain.DocumentStatusSent)

		sent := domain.DocumentStatusSent
		result, err := svc.List(ctx, 1, 20, repository.DocumentFilter{Status: &sent}, "", "")
		require.NoError(t, err)
		assert.Equal(t, int64(1), result.Total)

		result, err = svc.List(ctx, 1, 20, repository.DocumentFilter{ClientID: &clientB.ID}, "", "")
		require.NoError(t, err)
		assert.Equal(t, int64(1), result.Total)
	})
}
