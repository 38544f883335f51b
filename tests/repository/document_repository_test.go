package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/fakturo/billing-api/internal/domain"
	"github.com/fakturo/billing-api/internal/repository"
	"github.com/fakturo/billing-api/tests/testutil"
)

func createDocument(t *testing.T, db *gorm.DB, clientID uuid.UUID, docType domain.DocumentType, status domain.DocumentStatus, number string) *domain.Document {
	t.Helper()

	doc := &domain.Document{
		Type:         docType,
		Status:       status,
		Number:       number,
		Currency:     "NOK",
		TaxRate:      decimal.RequireFromString("25"),
		DiscountType: domain.DiscountTypeAmount,
		ClientID:     clientID,
	}
	require.NoError(t, db.Create(doc).Error)
	return doc
}

func TestDocumentRepository_List(t *testing.T) {
	ctx := context.Background()

	t.Run("filters by type and status", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewDocumentRepository(db)
		client := testutil.CreateTestClient(t, db, "Filter Client")

		createDocument(t, db, client.ID, domain.DocumentTypeQuote, domain.DocumentStatusDraft, "QUO-2026-001")
		createDocument(t, db, client.ID, domain.DocumentTypeInvoice, domain.DocumentStatusDraft, "INV-2026-001")
		createDocument(t, db, client.ID, domain.DocumentTypeInvoice, domain.DocumentStatusSent, "INV-2026-002")

		invoiceType := domain.DocumentTypeInvoice
		docs, total, err := repo.List(ctx, 1, 20, repository.DocumentFilter{Type: &invoiceType}, "", "")
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, docs, 2)

		sent := domain.DocumentStatusSent
		docs, total, err = repo.List(ctx, 1, 20, repository.DocumentFilter{Type: &invoiceType, Status: &sent}, "", "")
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, "INV-2026-002", docs[0].Number)
	})

	t.Run("search matches number case insensitively", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewDocumentRepository(db)
		client := testutil.CreateTestClient(t, db, "Search Client")

		createDocument(t, db, client.ID, domain.DocumentTypeInvoice, domain.DocumentStatusDraft, "INV-2026-042")
		createDocument(t, db, client.ID, domain.DocumentTypeInvoice, domain.DocumentStatusDraft, "INV-2026-043")

		docs, total, err := repo.List(ctx, 1, 20, repository.DocumentFilter{Search: "inv-2026-042"}, "", "")
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, "INV-2026-042", docs[0].Number)
	})

	t.Run("sorts by number descending", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewDocumentRepository(db)
		client := testutil.CreateTestClient(t, db, "Sort Client")

		createDocument(t, db, client.ID, domain.DocumentTypeInvoice, domain.DocumentStatusDraft, "INV-2026-001")
		createDocument(t, db, client.ID, domain.DocumentTypeInvoice, domain.DocumentStatusDraft, "INV-2026-002")

		docs, _, err := repo.List(ctx, 1, 20, repository.DocumentFilter{}, "number", "desc")
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, "INV-2026-002", docs[0].Number)
	})

	t.Run("pagination", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewDocumentRepository(db)
		client := testutil.CreateTestClient(t, db, "Page Client")

		for i := 1; i <= 3; i++ {
			createDocument(t, db, client.ID, domain.DocumentTypeInvoice, domain.DocumentStatusDraft, fmt.Sprintf("INV-2026-%03d", i))
		}

		docs, total, err := repo.List(ctx, 2, 2, repository.DocumentFilter{}, "number", "asc")
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, docs, 1)
	})
}

func TestDocumentRepository_ListOverdueCandidates(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	repo := repository.NewDocumentRepository(db)
	client := testutil.CreateTestClient(t, db, "Overdue Client")

	now := time.Now().UTC()
	past := now.AddDate(0, 0, -10)
	future := now.AddDate(0, 0, 10)

	pastDue := createDocument(t, db, client.ID, domain.DocumentTypeInvoice, domain.DocumentStatusSent, "INV-2026-101")
	require.NoError(t, db.Model(pastDue).Update("due_date", past).Error)

	partial := createDocument(t, db, client.ID, domain.DocumentTypeInvoice, domain.DocumentStatusPartial, "INV-2026-102")
	require.NoError(t, db.Model(partial).Update("due_date", past).Error)

	notDue := createDocument(t, db, client.ID, domain.DocumentTypeInvoice, domain.DocumentStatusSent, "INV-2026-103")
	require.NoError(t, db.Model(notDue).Update("due_date", future).Error)

	paid := createDocument(t, db, client.ID, domain.DocumentTypeInvoice, domain.DocumentStatusPaid, "INV-2026-104")
	require.NoError(t, db.Model(paid).Update("due_date", past).Error)

	quote := createDocument(t, db, client.ID, domain.DocumentTypeQuote, domain.DocumentStatusSent, "QUO-2026-101")
	require.NoError(t, db.Model(quote).Update("due_date", past).Error)

	// draft with no due date at all
	createDocument(t, db, client.ID, domain.DocumentTypeInvoice, domain.DocumentStatusDraft, "INV-2026-105")

	candidates, err := repo.ListOverdueCandidates(ctx, now)
	require.NoError(t, err)

	numbers := make([]string, len(candidates))
	for i := range candidates {
		numbers[i] = candidates[i].Number
	}
	assert.ElementsMatch(t, []string{"INV-2026-101", "INV-2026-102"}, numbers)
}

func TestPaymentRepository_ExistsByReference(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	repo := repository.NewPaymentRepository(db)
	client := testutil.CreateTestClient(t, db, "Payment Client")
	doc := createDocument(t, db, client.ID, domain.DocumentTypeInvoice, domain.DocumentStatusSent, "INV-2026-201")

	require.NoError(t, repo.Create(ctx, &domain.Payment{
		DocumentID: doc.ID,
		Amount:     decimal.RequireFromString("100.00"),
		PaidAt:     time.Now().UTC(),
		Method:     domain.PaymentMethodBankTransfer,
		Reference:  "KID-12345",
	}))

	exists, err := repo.ExistsByReference(ctx, doc.ID, "KID-12345")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByReference(ctx, doc.ID, "KID-99999")
	require.NoError(t, err)
	assert.False(t, exists)

	// same reference on another document does not collide
	other := createDocument(t, db, client.ID, domain.DocumentTypeInvoice, domain.DocumentStatusSent, "INV-2026-202")
	exists, err = repo.ExistsByReference(ctx, other.ID, "KID-12345")
	require.NoError(t, err)
	assert.False(t, exists)
}
