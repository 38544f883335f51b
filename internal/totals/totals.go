// Package totals computes line amounts and document aggregates for quotes
// and invoices. All arithmetic is fixed-point decimal; callers never see
// floating point drift. The package is pure: it reads and returns values
// without touching persistence.
package totals

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fakturo/billing-api/internal/domain"
)

// ErrInvalidDecimal is returned when a numeric input cannot be parsed as a
// decimal. Malformed input is rejected at the boundary rather than carried
// through the calculation.
var ErrInvalidDecimal = errors.New("invalid decimal value")

// Totals holds the aggregate monetary fields of a document
type Totals struct {
	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
	AmountDue      decimal.Decimal
}

// ParseDecimal parses a string into a decimal, wrapping parse failures in
// ErrInvalidDecimal so handlers can map them to a validation response.
func ParseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidDecimal, s)
	}
	return d, nil
}

// ItemAmount computes the amount of a single line: quantity times unit price,
// rounded to two decimal places.
func ItemAmount(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitPrice).Round(2)
}

// Compute derives the document aggregates from its items and parameters.
//
// subtotal is the sum of item amounts. taxAmount is subtotal * taxRate / 100.
// The discount is applied after tax: for a percent discount the amount is
// (subtotal + tax) * value / 100, for a flat discount it is the value itself.
// total = subtotal + taxAmount - discountAmount, amountDue = total - amountPaid.
// A discount larger than subtotal plus tax yields a negative total; no
// clamping is applied.
func Compute(items []domain.DocumentItem, taxRate decimal.Decimal, discountType domain.DiscountType, discountValue, amountPaid decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Amount)
	}

	hundred := decimal.NewFromInt(100)
	taxAmount := subtotal.Mul(taxRate).Div(hundred).Round(2)

	var discountAmount decimal.Decimal
	if discountType == domain.DiscountTypePercent {
		discountAmount = subtotal.Add(taxAmount).Mul(discountValue).Div(hundred).Round(2)
	} else {
		discountAmount = discountValue.Round(2)
	}

	total := subtotal.Add(taxAmount).Sub(discountAmount)

	return Totals{
		Subtotal:       subtotal,
		TaxAmount:      taxAmount,
		DiscountAmount: discountAmount,
		Total:          total,
		AmountDue:      total.Sub(amountPaid),
	}
}

// ItemPatch carries the fields of a line that a caller wants to change.
// Nil pointers leave the field untouched.
type ItemPatch struct {
	Description  *string
	ItemType     *domain.ItemType
	Quantity     *decimal.Decimal
	UnitPrice    *decimal.Decimal
	Amount       *decimal.Decimal
	ShowQuantity *bool
	SortOrder    *int
}

// ItemDefaults seeds a freshly added line
type ItemDefaults struct {
	Description  string
	ItemType     domain.ItemType
	Quantity     decimal.Decimal
	UnitPrice    decimal.Decimal
	ShowQuantity bool
	ProductID    *uuid.UUID
}

// UpdateItem applies a patch to the item with the given id and returns the
// updated collection plus recomputed aggregates. When quantity or unit price
// change, the line amount is recomputed from both; a direct amount patch wins
// only when showQuantity is off. An unknown id leaves the collection
// unchanged and returns the current aggregates without error.
func UpdateItem(items []domain.DocumentItem, itemID uuid.UUID, patch ItemPatch, taxRate decimal.Decimal, discountType domain.DiscountType, discountValue, amountPaid decimal.Decimal) ([]domain.DocumentItem, Totals) {
	updated := make([]domain.DocumentItem, len(items))
	copy(updated, items)

	for i := range updated {
		if updated[i].ID != itemID {
			continue
		}
		applyPatch(&updated[i], patch)
		break
	}

	return updated, Compute(updated, taxRate, discountType, discountValue, amountPaid)
}

func applyPatch(item *domain.DocumentItem, patch ItemPatch) {
	if patch.Description != nil {
		item.Description = *patch.Description
	}
	if patch.ItemType != nil {
		item.ItemType = *patch.ItemType
	}
	if patch.ShowQuantity != nil {
		item.ShowQuantity = *patch.ShowQuantity
	}
	if patch.SortOrder != nil {
		item.SortOrder = *patch.SortOrder
	}
	if patch.Quantity != nil {
		item.Quantity = *patch.Quantity
	}
	if patch.UnitPrice != nil {
		item.UnitPrice = *patch.UnitPrice
	}

	switch {
	case item.ShowQuantity:
		// Quantity-driven lines always derive amount from quantity and price.
		if patch.Quantity != nil || patch.UnitPrice != nil || patch.ShowQuantity != nil {
			item.Amount = ItemAmount(item.Quantity, item.UnitPrice)
		}
	case patch.Amount != nil:
		item.Amount = patch.Amount.Round(2)
	}
}

// AddItem appends a line seeded from the defaults, assigns it the next sort
// order and recomputes aggregates in the same step so callers never observe
// stale totals.
func AddItem(items []domain.DocumentItem, defaults ItemDefaults, taxRate decimal.Decimal, discountType domain.DiscountType, discountValue, amountPaid decimal.Decimal) ([]domain.DocumentItem, Totals) {
	item := domain.DocumentItem{
		Description:  defaults.Description,
		ItemType:     defaults.ItemType,
		Quantity:     defaults.Quantity,
		UnitPrice:    defaults.UnitPrice,
		ShowQuantity: defaults.ShowQuantity,
		SortOrder:    len(items),
		ProductID:    defaults.ProductID,
	}
	if item.ItemType == "" {
		item.ItemType = domain.ItemTypeProduct
	}
	if item.ShowQuantity {
		item.Amount = ItemAmount(item.Quantity, item.UnitPrice)
	} else {
		item.Amount = item.UnitPrice.Round(2)
	}

	updated := make([]domain.DocumentItem, len(items), len(items)+1)
	copy(updated, items)
	updated = append(updated, item)

	return updated, Compute(updated, taxRate, discountType, discountValue, amountPaid)
}

// RemoveItem drops the item with the given id, renumbers sort orders and
// recomputes aggregates. An unknown id is a no-op.
func RemoveItem(items []domain.DocumentItem, itemID uuid.UUID, taxRate decimal.Decimal, discountType domain.DiscountType, discountValue, amountPaid decimal.Decimal) ([]domain.DocumentItem, Totals) {
	updated := make([]domain.DocumentItem, 0, len(items))
	for _, item := range items {
		if item.ID == itemID {
			continue
		}
		updated = append(updated, item)
	}
	for i := range updated {
		updated[i].SortOrder = i
	}

	return updated, Compute(updated, taxRate, discountType, discountValue, amountPaid)
}
