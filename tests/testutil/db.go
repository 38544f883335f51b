package testutil

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fakturo/billing-api/internal/database"
	"github.com/fakturo/billing-api/internal/domain"
)

// SetupTestDB opens an isolated in-memory sqlite database and migrates the
// full schema. Each test gets its own database, so nothing leaks between
// tests and no external services are required.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err, "failed to open in-memory test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps the shared-cache memory database alive for
	// the duration of the test.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db))
	return db
}

// CreateTestClient creates a client row for use as a document target
func CreateTestClient(t *testing.T, db *gorm.DB, name string) *domain.Client {
	t.Helper()

	client := &domain.Client{
		Name:    name,
		Email:   "billing@example.com",
		Country: "Norway",
		Status:  domain.ClientStatusActive,
	}
	require.NoError(t, db.Create(client).Error)
	return client
}

// CreateTestProduct creates a catalog product with the given unit price
func CreateTestProduct(t *testing.T, db *gorm.DB, name string, unitPrice string) *domain.Product {
	t.Helper()

	product := &domain.Product{
		Name:      name,
		ItemType:  domain.ItemTypeProduct,
		UnitPrice: decimal.RequireFromString(unitPrice),
		Unit:      "unit",
		IsActive:  true,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

// CreateTestProfile creates the single business profile row with the default
// numbering scheme
func CreateTestProfile(t *testing.T, db *gorm.DB) *domain.BusinessProfile {
	t.Helper()

	profile := &domain.BusinessProfile{
		BusinessName:    "Fakturo Test AS",
		Country:         "Norway",
		AccentColor:     "#1a1a2e",
		DefaultCurrency: "NOK",
		DefaultTaxRate:  decimal.NewFromInt(25),
		DueDays:         14,
		Numbering: domain.NumberingScheme{
			QuotePrefix:   "QUO",
			InvoicePrefix: "INV",
			Padding:       3,
			IncludeYear:   true,
		},
	}
	require.NoError(t, db.Create(profile).Error)
	return profile
}
