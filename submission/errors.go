package submission

import (
	"errors"
	"fmt"

	"github.com/yourusername/vat-einvoice/models"
)

var (
	// ErrInFlight rejects a sign, issue or resend while another one runs for the invoice.
	ErrInFlight = errors.New("another signing or issuing request for this invoice is in progress")

	ErrSignIncomplete   = errors.New("invoice is marked signed but has no invoice number yet")
	ErrNoNumberReturned = errors.New("signing service returned no invoice number")
	ErrEmptyTaxCode     = errors.New("tax authority returned an empty code")

	// ErrSignatureMismatch stops an issue when the stored signature no longer matches
	// the invoice content.
	ErrSignatureMismatch = errors.New("invoice signature does not match its content")
)

// ExternalCallError wraps a failed or ambiguous call to the signing service or the tax
// authority. Error returns the underlying message unchanged.
type ExternalCallError struct {
	Op        string
	InvoiceID uint
	Retryable bool
	Hint      string
	Err       error
}

func (e *ExternalCallError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s invoice %d failed", e.Op, e.InvoiceID)
	}
	return e.Err.Error()
}

func (e *ExternalCallError) Unwrap() error {
	return e.Err
}

// TaxRejection is returned by a TaxAuthorityGateway when the authority answered with a
// verdict code instead of accepting the invoice.
type TaxRejection struct {
	Status  models.TaxStatus
	Message string
}

func (e *TaxRejection) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("tax authority rejected the invoice: %s", e.Status.Label())
	}
	return fmt.Sprintf("tax authority rejected the invoice: %s: %s", e.Status.Label(), e.Message)
}
