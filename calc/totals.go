package calc

import (
	"github.com/shopspring/decimal"
	"github.com/yourusername/vat-einvoice/models"
)

// Totals is the aggregate of an invoice's lines in whole VND.
type Totals struct {
	SubtotalBeforeDiscount int64 `json:"subtotal_before_discount"`
	TotalDiscount          int64 `json:"total_discount"`
	SubtotalAfterDiscount  int64 `json:"subtotal_after_discount"`
	Tax                    int64 `json:"tax"`
	GrandTotal             int64 `json:"grand_total"`
}

// ComputeTotals folds items into Totals. VAT is taken per line at the line's own rate,
// summed without intermediate rounding and rounded once for the invoice.
func ComputeTotals(items []models.LineItem) Totals {
	subtotal := decimal.Zero
	tax := decimal.Zero
	var discount int64

	for _, item := range items {
		subtotal = subtotal.Add(baseAmount(item))
		discount += item.DiscountAmount
		tax = tax.Add(lineVAT(item))
	}

	t := Totals{
		SubtotalBeforeDiscount: subtotal.Round(0).IntPart(),
		TotalDiscount:          discount,
		Tax:                    tax.Round(0).IntPart(),
	}
	t.SubtotalAfterDiscount = t.SubtotalBeforeDiscount - t.TotalDiscount
	t.GrandTotal = t.SubtotalAfterDiscount + t.Tax
	return t
}

// ApplyTotals stores the computed totals on the invoice header.
func ApplyTotals(inv *models.Invoice) Totals {
	t := ComputeTotals(inv.Items)
	inv.SubtotalAmount = t.SubtotalBeforeDiscount
	inv.DiscountAmount = t.TotalDiscount
	inv.TaxAmount = t.Tax
	inv.TotalAmount = t.GrandTotal
	return t
}
