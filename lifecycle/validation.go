package lifecycle

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/yourusername/vat-einvoice/calc"
	"github.com/yourusername/vat-einvoice/models"
)

var (
	ErrTaxCodeRequired = errors.New("tax code is required")
	ErrTaxCodeDigits   = errors.New("tax code must contain digits only")
	ErrTaxCodeLength   = errors.New("tax code has the wrong number of digits")
	ErrTaxCodePhone    = errors.New("tax code looks like a phone number")
	ErrCustomerType    = errors.New("unknown customer type")
)

var (
	digitsOnly      = regexp.MustCompile(`^\d+$`)
	businessTaxCode = regexp.MustCompile(`^\d{10}$|^\d{13}$`)
	personalID      = regexp.MustCompile(`^\d{12}$`)
	phoneShaped     = regexp.MustCompile(`^0[1-9]\d{8,9}$`)

	maxDiscountRate = decimal.NewFromInt(100)
)

// ValidateTaxCode checks a buyer tax code against the customer type: 10 or 13 digits
// for a business, a 12-digit citizen id for an individual. Phone-shaped input is
// refused even when its length would fit.
func ValidateTaxCode(ct models.CustomerType, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return ErrTaxCodeRequired
	}
	if !digitsOnly.MatchString(code) {
		return ErrTaxCodeDigits
	}

	var pattern *regexp.Regexp
	switch ct {
	case models.CustomerBusiness:
		pattern = businessTaxCode
	case models.CustomerIndividual:
		pattern = personalID
	default:
		return ErrCustomerType
	}

	if phoneShaped.MatchString(code) {
		return ErrTaxCodePhone
	}
	if !pattern.MatchString(code) {
		return ErrTaxCodeLength
	}
	return nil
}

// Validate runs the checks that must pass before an invoice leaves Draft.
func Validate(inv models.Invoice) error {
	errs := &ValidationErrors{}

	if !inv.CustomerType.Valid() {
		errs.add("customer_type", ErrCustomerType.Error())
	} else {
		field := "buyer_name"
		if inv.CustomerType == models.CustomerBusiness {
			field = "buyer_company"
		}
		if strings.TrimSpace(inv.BuyerDisplayName()) == "" {
			errs.add(field, "buyer name is required")
		}
		if err := ValidateTaxCode(inv.CustomerType, inv.BuyerTaxCode); err != nil {
			errs.add("buyer_tax_code", err.Error())
		}
	}

	if strings.TrimSpace(inv.BuyerAddress) == "" {
		errs.add("buyer_address", "buyer address is required")
	}
	if inv.PaymentMethod != "" && !models.ValidPaymentMethod(inv.PaymentMethod) {
		errs.add("payment_method", "unknown payment method")
	}

	if len(inv.Items) == 0 {
		errs.add("items", "at least one line item is required")
	}
	for i, item := range inv.Items {
		prefix := fmt.Sprintf("items[%d].", i)
		if strings.TrimSpace(item.Name) == "" {
			errs.add(prefix+"name", "name is required")
		}
		if strings.TrimSpace(item.Unit) == "" {
			errs.add(prefix+"unit", "unit is required")
		}
		if !item.Quantity.IsPositive() {
			errs.add(prefix+"quantity", "quantity must be greater than 0")
		}
		if item.UnitPrice <= 0 {
			errs.add(prefix+"unit_price", "price must be greater than 0")
		}
		if !item.VATRate.Valid() {
			errs.add(prefix+"vat_rate", "VAT rate must be 0, 5, 8 or 10")
		}
		if item.DiscountRate.IsNegative() || item.DiscountRate.GreaterThan(maxDiscountRate) {
			errs.add(prefix+"discount_rate", "discount rate must be between 0 and 100")
		}
		base := item.Quantity.Mul(decimal.NewFromInt(item.UnitPrice)).Round(0).IntPart()
		if item.DiscountAmount < 0 || base-item.DiscountAmount < 0 {
			errs.add(prefix+"discount_amount", "discount must not exceed the line amount")
		}
	}

	if len(inv.Items) > 0 && calc.ComputeTotals(inv.Items).GrandTotal <= 0 {
		errs.add("total_amount", "grand total must be greater than 0")
	}

	return errs.orNil()
}
