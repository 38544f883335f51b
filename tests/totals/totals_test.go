package totals_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fakturo/billing-api/internal/domain"
	"github.com/fakturo/billing-api/internal/totals"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func item(amount string) domain.DocumentItem {
	return domain.DocumentItem{
		Amount:       dec(amount),
		ShowQuantity: false,
	}
}

func quantityItem(id uuid.UUID, qty, price string) domain.DocumentItem {
	it := domain.DocumentItem{
		Quantity:     dec(qty),
		UnitPrice:    dec(price),
		ShowQuantity: true,
	}
	it.ID = id
	it.Amount = totals.ItemAmount(it.Quantity, it.UnitPrice)
	return it
}

func TestItemAmount(t *testing.T) {
	t.Run("quantity times unit price", func(t *testing.T) {
		assert.True(t, dec("100.00").Equal(totals.ItemAmount(dec("2"), dec("50.00"))))
	})

	t.Run("rounds to two decimals", func(t *testing.T) {
		assert.True(t, dec("3.33").Equal(totals.ItemAmount(dec("0.333"), dec("10"))))
	})

	t.Run("fractional quantity", func(t *testing.T) {
		assert.True(t, dec("3.75").Equal(totals.ItemAmount(dec("1.5"), dec("2.5"))))
	})
}

func TestParseDecimal(t *testing.T) {
	t.Run("valid input", func(t *testing.T) {
		d, err := totals.ParseDecimal("125.50")
		require.NoError(t, err)
		assert.True(t, dec("125.50").Equal(d))
	})

	t.Run("malformed input wraps sentinel", func(t *testing.T) {
		_, err := totals.ParseDecimal("12.3.4")
		require.Error(t, err)
		assert.ErrorIs(t, err, totals.ErrInvalidDecimal)
	})

	t.Run("empty input is rejected", func(t *testing.T) {
		_, err := totals.ParseDecimal("")
		assert.ErrorIs(t, err, totals.ErrInvalidDecimal)
	})
}

func TestCompute(t *testing.T) {
	t.Run("flat discount after tax", func(t *testing.T) {
		items := []domain.DocumentItem{item("100.00"), item("25.50")}

		agg := totals.Compute(items, dec("10"), domain.DiscountTypeAmount, dec("5.00"), decimal.Zero)

		assert.True(t, dec("125.50").Equal(agg.Subtotal), "subtotal %s", agg.Subtotal)
		assert.True(t, dec("12.55").Equal(agg.TaxAmount), "tax %s", agg.TaxAmount)
		assert.True(t, dec("5.00").Equal(agg.DiscountAmount))
		assert.True(t, dec("133.05").Equal(agg.Total), "total %s", agg.Total)
		assert.True(t, dec("133.05").Equal(agg.AmountDue))
	})

	t.Run("percent discount applies to subtotal plus tax", func(t *testing.T) {
		items := []domain.DocumentItem{item("100.00")}

		agg := totals.Compute(items, dec("25"), domain.DiscountTypePercent, dec("10"), decimal.Zero)

		assert.True(t, dec("100.00").Equal(agg.Subtotal))
		assert.True(t, dec("25.00").Equal(agg.TaxAmount))
		assert.True(t, dec("12.50").Equal(agg.DiscountAmount), "discount %s", agg.DiscountAmount)
		assert.True(t, dec("112.50").Equal(agg.Total))
	})

	t.Run("empty items yield zeros", func(t *testing.T) {
		agg := totals.Compute(nil, dec("25"), domain.DiscountTypeAmount, decimal.Zero, decimal.Zero)

		assert.True(t, agg.Subtotal.IsZero())
		assert.True(t, agg.TaxAmount.IsZero())
		assert.True(t, agg.Total.IsZero())
		assert.True(t, agg.AmountDue.IsZero())
	})

	t.Run("amount paid reduces amount due", func(t *testing.T) {
		items := []domain.DocumentItem{item("100.00"), item("25.50")}

		agg := totals.Compute(items, dec("10"), domain.DiscountTypeAmount, dec("5.00"), dec("33.05"))

		assert.True(t, dec("133.05").Equal(agg.Total))
		assert.True(t, dec("100.00").Equal(agg.AmountDue))
	})

	t.Run("oversized discount goes negative without clamping", func(t *testing.T) {
		items := []domain.DocumentItem{item("100.00")}

		agg := totals.Compute(items, decimal.Zero, domain.DiscountTypeAmount, dec("500"), decimal.Zero)

		assert.True(t, dec("-400").Equal(agg.Total), "total %s", agg.Total)
	})

	t.Run("overpayment yields negative amount due", func(t *testing.T) {
		items := []domain.DocumentItem{item("100.00")}

		agg := totals.Compute(items, decimal.Zero, domain.DiscountTypeAmount, decimal.Zero, dec("150"))

		assert.True(t, dec("-50").Equal(agg.AmountDue))
	})
}

func TestAddItem(t *testing.T) {
	t.Run("quantity driven line derives amount", func(t *testing.T) {
		items, agg := totals.AddItem(nil, totals.ItemDefaults{
			Description:  "Consulting",
			Quantity:     dec("2"),
			UnitPrice:    dec("50.00"),
			ShowQuantity: true,
		}, decimal.Zero, domain.DiscountTypeAmount, decimal.Zero, decimal.Zero)

		require.Len(t, items, 1)
		assert.True(t, dec("100.00").Equal(items[0].Amount))
		assert.Equal(t, 0, items[0].SortOrder)
		assert.True(t, dec("100.00").Equal(agg.Subtotal))
	})

	t.Run("direct price line uses unit price as amount", func(t *testing.T) {
		items, _ := totals.AddItem(nil, totals.ItemDefaults{
			Quantity:     dec("3"),
			UnitPrice:    dec("99.90"),
			ShowQuantity: false,
		}, decimal.Zero, domain.DiscountTypeAmount, decimal.Zero, decimal.Zero)

		require.Len(t, items, 1)
		assert.True(t, dec("99.90").Equal(items[0].Amount))
	})

	t.Run("appended line gets next sort order", func(t *testing.T) {
		items, _ := totals.AddItem(nil, totals.ItemDefaults{Quantity: dec("1"), UnitPrice: dec("10"), ShowQuantity: true},
			decimal.Zero, domain.DiscountTypeAmount, decimal.Zero, decimal.Zero)
		items, agg := totals.AddItem(items, totals.ItemDefaults{Quantity: dec("1"), UnitPrice: dec("20"), ShowQuantity: true},
			decimal.Zero, domain.DiscountTypeAmount, decimal.Zero, decimal.Zero)

		require.Len(t, items, 2)
		assert.Equal(t, 1, items[1].SortOrder)
		assert.True(t, dec("30.00").Equal(agg.Subtotal))
	})

	t.Run("missing item type defaults to product", func(t *testing.T) {
		items, _ := totals.AddItem(nil, totals.ItemDefaults{Quantity: dec("1"), ShowQuantity: true},
			decimal.Zero, domain.DiscountTypeAmount, decimal.Zero, decimal.Zero)

		assert.Equal(t, domain.ItemTypeProduct, items[0].ItemType)
	})

	t.Run("input slice is not mutated", func(t *testing.T) {
		original := []domain.DocumentItem{quantityItem(uuid.New(), "1", "10")}

		updated, _ := totals.AddItem(original, totals.ItemDefaults{Quantity: dec("1"), UnitPrice: dec("5"), ShowQuantity: true},
			decimal.Zero, domain.DiscountTypeAmount, decimal.Zero, decimal.Zero)

		assert.Len(t, original, 1)
		assert.Len(t, updated, 2)
	})
}

func TestUpdateItem(t *testing.T) {
	taxRate := dec("10")

	t.Run("quantity change recomputes line amount and aggregates", func(t *testing.T) {
		id := uuid.New()
		items := []domain.DocumentItem{quantityItem(id, "2", "50.00")}

		qty := dec("3")
		updated, agg := totals.UpdateItem(items, id, totals.ItemPatch{Quantity: &qty},
			taxRate, domain.DiscountTypeAmount, decimal.Zero, decimal.Zero)

		require.Len(t, updated, 1)
		assert.True(t, dec("150.00").Equal(updated[0].Amount))
		assert.True(t, dec("150.00").Equal(agg.Subtotal))
		assert.True(t, dec("15.00").Equal(agg.TaxAmount))
	})

	t.Run("direct amount patch only applies when quantity is hidden", func(t *testing.T) {
		id := uuid.New()
		items := []domain.DocumentItem{quantityItem(id, "2", "50.00")}

		amount := dec("999.99")
		updated, _ := totals.UpdateItem(items, id, totals.ItemPatch{Amount: &amount},
			taxRate, domain.DiscountTypeAmount, decimal.Zero, decimal.Zero)

		// showQuantity is on, the amount stays derived
		assert.True(t, dec("100.00").Equal(updated[0].Amount))

		off := false
		hidden := domain.DocumentItem{Amount: dec("10"), ShowQuantity: false}
		hidden.ID = id
		updated, _ = totals.UpdateItem([]domain.DocumentItem{hidden}, id, totals.ItemPatch{Amount: &amount, ShowQuantity: &off},
			taxRate, domain.DiscountTypeAmount, decimal.Zero, decimal.Zero)
		assert.True(t, dec("999.99").Equal(updated[0].Amount))
	})

	t.Run("unknown id leaves collection and aggregates unchanged", func(t *testing.T) {
		items := []domain.DocumentItem{quantityItem(uuid.New(), "2", "50.00")}

		qty := dec("9")
		updated, agg := totals.UpdateItem(items, uuid.New(), totals.ItemPatch{Quantity: &qty},
			taxRate, domain.DiscountTypeAmount, decimal.Zero, decimal.Zero)

		require.Len(t, updated, 1)
		assert.True(t, dec("100.00").Equal(updated[0].Amount))
		assert.True(t, dec("100.00").Equal(agg.Subtotal))
	})

	t.Run("input slice is not mutated", func(t *testing.T) {
		id := uuid.New()
		items := []domain.DocumentItem{quantityItem(id, "2", "50.00")}

		qty := dec("3")
		totals.UpdateItem(items, id, totals.ItemPatch{Quantity: &qty},
			taxRate, domain.DiscountTypeAmount, decimal.Zero, decimal.Zero)

		assert.True(t, dec("2").Equal(items[0].Quantity))
		assert.True(t, dec("100.00").Equal(items[0].Amount))
	})
}

func TestRemoveItem(t *testing.T) {
	t.Run("removes line and renumbers sort order", func(t *testing.T) {
		first := quantityItem(uuid.New(), "1", "10")
		second := quantityItem(uuid.New(), "1", "20")
		third := quantityItem(uuid.New(), "1", "30")
		second.SortOrder = 1
		third.SortOrder = 2

		updated, agg := totals.RemoveItem([]domain.DocumentItem{first, second, third}, second.ID,
			decimal.Zero, domain.DiscountTypeAmount, decimal.Zero, decimal.Zero)

		require.Len(t, updated, 2)
		assert.Equal(t, 0, updated[0].SortOrder)
		assert.Equal(t, 1, updated[1].SortOrder)
		assert.True(t, dec("40.00").Equal(agg.Subtotal))
	})

	t.Run("unknown id is a no-op", func(t *testing.T) {
		items := []domain.DocumentItem{quantityItem(uuid.New(), "2", "50.00")}

		updated, agg := totals.RemoveItem(items, uuid.New(),
			decimal.Zero, domain.DiscountTypeAmount, decimal.Zero, decimal.Zero)

		require.Len(t, updated, 1)
		assert.True(t, dec("100.00").Equal(agg.Subtotal))
	})

	t.Run("removing the last line yields zero aggregates", func(t *testing.T) {
		it := quantityItem(uuid.New(), "2", "50.00")

		updated, agg := totals.RemoveItem([]domain.DocumentItem{it}, it.ID,
			dec("25"), domain.DiscountTypeAmount, decimal.Zero, decimal.Zero)

		assert.Empty(t, updated)
		assert.True(t, agg.Subtotal.IsZero())
		assert.True(t, agg.Total.IsZero())
	})
}
