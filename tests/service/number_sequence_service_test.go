package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fakturo/billing-api/internal/domain"
	"github.com/fakturo/billing-api/internal/repository"
	"github.com/fakturo/billing-api/internal/service"
	"github.com/fakturo/billing-api/tests/testutil"
)

func setupNumberSequenceService(t *testing.T) (*service.NumberSequenceService, *gorm.DB) {
	db := testutil.SetupTestDB(t)
	svc := service.NewNumberSequenceService(
		repository.NewNumberSequenceRepository(db),
		repository.NewBusinessProfileRepository(db),
		zap.NewNop(),
	)
	return svc, db
}

func TestNumberSequenceService_GenerateNumber(t *testing.T) {
	ctx := context.Background()
	year := time.Now().Year()

	t.Run("first invoice number uses defaults", func(t *testing.T) {
		svc, _ := setupNumberSequenceService(t)

		number, err := svc.GenerateNumber(ctx, domain.DocumentTypeInvoice)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("INV-%d-001", year), number)
	})

	t.Run("sequence increments per call", func(t *testing.T) {
		svc, _ := setupNumberSequenceService(t)

		first, err := svc.GenerateNumber(ctx, domain.DocumentTypeInvoice)
		require.NoError(t, err)
		second, err := svc.GenerateNumber(ctx, domain.DocumentTypeInvoice)
		require.NoError(t, err)

		assert.Equal(t, fmt.Sprintf("INV-%d-001", year), first)
		assert.Equal(t, fmt.Sprintf("INV-%d-002", year), second)
	})

	t.Run("quotes and invoices count independently", func(t *testing.T) {
		svc, _ := setupNumberSequenceService(t)

		invoice, err := svc.GenerateNumber(ctx, domain.DocumentTypeInvoice)
		require.NoError(t, err)
		quote, err := svc.GenerateNumber(ctx, domain.DocumentTypeQuote)
		require.NoError(t, err)

		assert.Equal(t, fmt.Sprintf("INV-%d-001", year), invoice)
		assert.Equal(t, fmt.Sprintf("QUO-%d-001", year), quote)
	})

	t.Run("scheme from business profile", func(t *testing.T) {
		svc, db := setupNumberSequenceService(t)

		profile := testutil.CreateTestProfile(t, db)
		profile.Numbering.InvoicePrefix = "FAK"
		profile.Numbering.Padding = 5
		require.NoError(t, db.Save(profile).Error)

		number, err := svc.GenerateNumber(ctx, domain.DocumentTypeInvoice)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("FAK-%d-00001", year), number)
	})

	t.Run("year can be left out of the format", func(t *testing.T) {
		svc, db := setupNumberSequenceService(t)

		profile := testutil.CreateTestProfile(t, db)
		profile.Numbering.IncludeYear = false
		require.NoError(t, db.Save(profile).Error)

		number, err := svc.GenerateNumber(ctx, domain.DocumentTypeInvoice)
		require.NoError(t, err)
		assert.Equal(t, "INV-001", number)
	})

	t.Run("invalid document type is rejected", func(t *testing.T) {
		svc, _ := setupNumberSequenceService(t)

		_, err := svc.GenerateNumber(ctx, domain.DocumentType("RECEIPT"))
		assert.ErrorIs(t, err, service.ErrInvalidDocumentType)
	})
}

func TestNumberSequenceService_GetCurrentSequence(t *testing.T) {
	ctx := context.Background()
	year := time.Now().Year()

	t.Run("zero before any number is generated", func(t *testing.T) {
		svc, _ := setupNumberSequenceService(t)

		seq, err := svc.GetCurrentSequence(ctx, domain.DocumentTypeInvoice, year)
		require.NoError(t, err)
		assert.Equal(t, 0, seq)
	})

	t.Run("reflects generated numbers without incrementing", func(t *testing.T) {
		svc, _ := setupNumberSequenceService(t)

		_, err := svc.GenerateNumber(ctx, domain.DocumentTypeInvoice)
		require.NoError(t, err)
		_, err = svc.GenerateNumber(ctx, domain.DocumentTypeInvoice)
		require.NoError(t, err)

		seq, err := svc.GetCurrentSequence(ctx, domain.DocumentTypeInvoice, year)
		require.NoError(t, err)
		assert.Equal(t, 2, seq)

		seq, err = svc.GetCurrentSequence(ctx, domain.DocumentTypeInvoice, year)
		require.NoError(t, err)
		assert.Equal(t, 2, seq)
	})
}

func TestNumberSequenceService_ValidateNumber(t *testing.T) {
	svc, _ := setupNumberSequenceService(t)

	assert.True(t, svc.ValidateNumber("INV-2026-007"))
	assert.True(t, svc.ValidateNumber("QUO-2026-123"))
	assert.False(t, svc.ValidateNumber("INV2026007"))
	assert.False(t, svc.ValidateNumber("INV-20XX-007"))
	assert.False(t, svc.ValidateNumber(""))
}
