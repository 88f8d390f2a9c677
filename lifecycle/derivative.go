package lifecycle

import (
	"strings"

	"github.com/google/uuid"
	"github.com/yourusername/vat-einvoice/calc"
	"github.com/yourusername/vat-einvoice/models"
)

// NewDerivative builds the draft of an adjustment, replacement, cancellation or
// explanation invoice for an issued original. Buyer details and lines are copied with
// fresh row ids. orig is not modified.
func NewDerivative(orig models.Invoice, kind models.InvoiceType, reason string, createdBy uint) (models.Invoice, error) {
	if orig.Status != models.StatusIssued {
		return models.Invoice{}, guardErr(EventDerive, &orig, "only issued invoices can be adjusted, replaced, cancelled or explained")
	}

	errs := &ValidationErrors{}
	if !kind.Valid() || kind == models.TypeOriginal {
		errs.add("invoice_type", "must be adjustment, replacement, cancellation or explanation")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		errs.add("reason", "reason is required")
	}
	if err := errs.orNil(); err != nil {
		return models.Invoice{}, err
	}

	origID := orig.ID
	inv := models.Invoice{
		Serial:            orig.Serial,
		Status:            models.StatusDraft,
		InvoiceType:       kind,
		OriginalInvoiceID: &origID,
		Reason:            reason,
		CustomerType:      orig.CustomerType,
		BuyerName:         orig.BuyerName,
		BuyerCompany:      orig.BuyerCompany,
		BuyerTaxCode:      orig.BuyerTaxCode,
		BuyerAddress:      orig.BuyerAddress,
		BuyerEmail:        orig.BuyerEmail,
		BuyerPhone:        orig.BuyerPhone,
		PaymentMethod:     orig.PaymentMethod,
		Notes:             orig.Notes,
		CreatedBy:         createdBy,
	}

	inv.Items = make([]models.LineItem, len(orig.Items))
	for i, item := range orig.Items {
		item.ID = 0
		item.InvoiceID = 0
		item.RowID = uuid.NewString()
		if item.ProductID != nil {
			pid := *item.ProductID
			item.ProductID = &pid
		}
		inv.Items[i] = item
	}
	calc.ApplyTotals(&inv)

	return inv, nil
}
