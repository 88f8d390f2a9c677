package lifecycle

import (
	"github.com/shopspring/decimal"
	"github.com/yourusername/vat-einvoice/calc"
	"github.com/yourusername/vat-einvoice/models"
)

func validInvoice() models.Invoice {
	item := models.NewLineItem()
	item.Name = "Giấy A4"
	item.Unit = "Ram"
	item.Quantity = decimal.NewFromInt(10)
	item, _ = calc.RecomputeLine(item, calc.FieldUnitPrice, decimal.NewFromInt(65000))

	inv := models.Invoice{
		ID:            1,
		Status:        models.StatusDraft,
		InvoiceType:   models.TypeOriginal,
		CustomerType:  models.CustomerBusiness,
		BuyerCompany:  "Công ty TNHH Thương mại ABC",
		BuyerTaxCode:  "4300123456",
		BuyerAddress:  "12 Lê Lợi, Quận 1, TP. Hồ Chí Minh",
		PaymentMethod: models.PaymentCashOrTransfer,
		Items:         []models.LineItem{item},
	}
	calc.ApplyTotals(&inv)
	return inv
}
