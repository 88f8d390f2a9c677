package lifecycle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/vat-einvoice/models"
)

func issuedInvoice() models.Invoice {
	inv := validInvoice()
	inv.ID = 41
	inv.Status = models.StatusIssued
	inv.InvoiceNumber = 1024
	inv.TaxCode = "M1-24-ABC12-00001024"
	inv.TaxStatus = models.TaxApproved
	return inv
}

func TestNewDerivative(t *testing.T) {
	t.Run("Adjustment references the original", func(t *testing.T) {
		orig := issuedInvoice()
		snapshot := orig.Items[0]

		got, err := NewDerivative(orig, models.TypeAdjustment, "  Điều chỉnh giảm đơn giá ", 3)
		require.NoError(t, err)
		assert.Equal(t, models.StatusDraft, got.Status)
		assert.Equal(t, models.TypeAdjustment, got.InvoiceType)
		require.NotNil(t, got.OriginalInvoiceID)
		assert.Equal(t, uint(41), *got.OriginalInvoiceID)
		assert.Equal(t, "Điều chỉnh giảm đơn giá", got.Reason)
		assert.Equal(t, int64(0), got.InvoiceNumber)
		assert.Equal(t, orig.BuyerTaxCode, got.BuyerTaxCode)
		assert.Equal(t, uint(3), got.CreatedBy)
		assert.Equal(t, orig.TotalAmount, got.TotalAmount)

		require.Len(t, got.Items, 1)
		assert.NotEqual(t, snapshot.RowID, got.Items[0].RowID)
		assert.Equal(t, snapshot.LineTotal, got.Items[0].LineTotal)
		assert.Equal(t, snapshot, orig.Items[0])
		assert.Equal(t, models.StatusIssued, orig.Status)
	})

	t.Run("Original must be issued", func(t *testing.T) {
		orig := issuedInvoice()
		orig.Status = models.StatusSignedPendingIssue

		_, err := NewDerivative(orig, models.TypeReplacement, "Sai địa chỉ", 3)
		assert.ErrorIs(t, err, ErrStateGuard)
	})

	t.Run("Type and reason are required", func(t *testing.T) {
		_, err := NewDerivative(issuedInvoice(), models.TypeOriginal, "", 3)

		var verrs *ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.True(t, verrs.Has("invoice_type"))
		assert.True(t, verrs.Has("reason"))
	})
}
