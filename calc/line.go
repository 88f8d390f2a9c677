// Package calc holds the pure line-item arithmetic: discount/VAT recomputation on
// every cell edit, invoice totals, and duplicate product reconciliation.
package calc

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/yourusername/vat-einvoice/models"
)

// Field names the line item cell that was edited.
type Field string

const (
	FieldQuantity       Field = "quantity"
	FieldUnitPrice      Field = "unit_price"
	FieldDiscountRate   Field = "discount_rate"
	FieldDiscountAmount Field = "discount_amount"
)

var (
	ErrUnknownField  = errors.New("field does not drive a recomputation")
	ErrNegativeValue = errors.New("value must not be negative")
	ErrLastLine      = errors.New("an invoice must keep at least one line")
	ErrRowNotFound   = errors.New("line not found")
)

var hundred = decimal.NewFromInt(100)

// ParseField maps a request field name onto a Field.
func ParseField(s string) (Field, error) {
	switch f := Field(s); f {
	case FieldQuantity, FieldUnitPrice, FieldDiscountRate, FieldDiscountAmount:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
}

// RecomputeLine applies an edit of field to item and re-derives the dependent amounts.
// The rules run in order and the first matching one wins:
//
//  1. discount rate edited: amount = round(q*p*rate/100)
//  2. discount amount edited: rate = round2(amount/(q*p)*100), 0 when the base is 0
//  3. quantity or price edited: amount follows the existing rate
//
// The line total and line VAT are refreshed afterwards in every case. On error the
// input item is returned unchanged.
func RecomputeLine(item models.LineItem, field Field, value decimal.Decimal) (models.LineItem, error) {
	if value.IsNegative() {
		return item, fmt.Errorf("%s: %w", field, ErrNegativeValue)
	}

	out := item
	out.DiscountRate = clampRate(out.DiscountRate)
	switch field {
	case FieldDiscountRate:
		out.DiscountRate = clampRate(value.Round(2))
		out.DiscountAmount = amountFromRate(out)
	case FieldDiscountAmount:
		base := baseAmount(out)
		amount := value.Round(0)
		if limit := base.Round(0); amount.GreaterThan(limit) {
			amount = limit
		}
		out.DiscountAmount = amount.IntPart()
		if base.IsPositive() {
			out.DiscountRate = clampRate(amount.Mul(hundred).Div(base).Round(2))
		} else {
			out.DiscountRate = decimal.Zero
		}
	case FieldQuantity:
		out.Quantity = value
		out.DiscountAmount = amountFromRate(out)
	case FieldUnitPrice:
		out.UnitPrice = value.Round(0).IntPart()
		out.DiscountAmount = amountFromRate(out)
	default:
		return item, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	refreshTotals(&out)
	return out, nil
}

// NormalizeLine re-derives a stored line from its quantity, price and discount.
// The discount amount is authoritative; the rate only drives it when no amount was
// given. Negative quantities or prices are refused.
func NormalizeLine(item models.LineItem) (models.LineItem, error) {
	if item.Quantity.IsNegative() {
		return item, fmt.Errorf("%s: %w", FieldQuantity, ErrNegativeValue)
	}
	if item.UnitPrice < 0 {
		return item, fmt.Errorf("%s: %w", FieldUnitPrice, ErrNegativeValue)
	}
	if item.DiscountAmount == 0 && item.DiscountRate.IsPositive() {
		return RecomputeLine(item, FieldDiscountRate, item.DiscountRate)
	}
	return RecomputeLine(item, FieldDiscountAmount, decimal.NewFromInt(item.DiscountAmount))
}

// FillFromProduct copies the catalog fields onto item. A discount rate already on the
// row is kept and its amount re-derived from the new price.
func FillFromProduct(item models.LineItem, p *models.Product) models.LineItem {
	id := p.ID
	item.ProductID = &id
	item.Code = p.Code
	item.Name = p.Name
	item.Unit = p.Unit
	item.UnitPrice = p.Price
	item.VATRate = p.VATRate
	item.DiscountRate = clampRate(item.DiscountRate)
	item.DiscountAmount = amountFromRate(item)
	refreshTotals(&item)
	return item
}

// RemoveLine deletes the row with rowID and renumbers the remaining rows.
func RemoveLine(items []models.LineItem, rowID string) ([]models.LineItem, error) {
	idx := indexOfRow(items, rowID)
	if idx < 0 {
		return items, ErrRowNotFound
	}
	if len(items) <= 1 {
		return items, ErrLastLine
	}

	out := make([]models.LineItem, 0, len(items)-1)
	out = append(out, items[:idx]...)
	out = append(out, items[idx+1:]...)
	for i := range out {
		out[i].Position = i + 1
	}
	return out, nil
}

func baseAmount(item models.LineItem) decimal.Decimal {
	return item.Quantity.Mul(decimal.NewFromInt(item.UnitPrice))
}

func amountFromRate(item models.LineItem) int64 {
	if !item.DiscountRate.IsPositive() {
		return 0
	}
	return baseAmount(item).Mul(item.DiscountRate).Div(hundred).Round(0).IntPart()
}

func clampRate(rate decimal.Decimal) decimal.Decimal {
	if rate.IsNegative() {
		return decimal.Zero
	}
	if rate.GreaterThan(hundred) {
		return hundred
	}
	return rate
}

func lineVAT(item models.LineItem) decimal.Decimal {
	net := baseAmount(item).Sub(decimal.NewFromInt(item.DiscountAmount))
	return net.Mul(decimal.NewFromInt(int64(item.VATRate))).Div(hundred)
}

func refreshTotals(item *models.LineItem) {
	item.LineTotal = baseAmount(*item).Round(0).IntPart() - item.DiscountAmount
	item.VATAmount = lineVAT(*item).Round(0).IntPart()
}

func indexOfRow(items []models.LineItem, rowID string) int {
	for i := range items {
		if items[i].RowID == rowID {
			return i
		}
	}
	return -1
}
