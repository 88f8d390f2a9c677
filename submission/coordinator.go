// Package submission drives the external half of the invoice lifecycle: signing with
// number assignment, issuing to the tax authority, and resending after a tax error.
package submission

import (
	"context"
	"errors"
	"fmt"

	"github.com/yourusername/vat-einvoice/lifecycle"
	"github.com/yourusername/vat-einvoice/metrics"
	"github.com/yourusername/vat-einvoice/models"
	"go.uber.org/zap"
)

// SignResult is what the signing service reports. InvoiceNumber may be zero even
// when Signed is true.
type SignResult struct {
	InvoiceNumber int64
	Signed        bool
	Signature     string
}

type SigningService interface {
	Sign(ctx context.Context, invoiceID, userID uint) (SignResult, error)
}

// SignatureVerifier is implemented by signing services that can check a stored
// signature against the invoice content.
type SignatureVerifier interface {
	Verify(inv *models.Invoice) error
}

// TaxAuthorityGateway submits a signed invoice and returns the authority's code.
type TaxAuthorityGateway interface {
	Submit(ctx context.Context, invoiceID uint) (string, error)
}

// InvoiceStore is the authoritative invoice state.
type InvoiceStore interface {
	GetByID(ctx context.Context, id uint) (*models.Invoice, error)
	Save(ctx context.Context, inv *models.Invoice) error
}

const (
	opSign   = "sign"
	opIssue  = "issue"
	opResend = "resend"
)

type Coordinator struct {
	store    InvoiceStore
	signer   SigningService
	verifier SignatureVerifier
	gateway  TaxAuthorityGateway
	inflight InFlight
	logger   *zap.Logger
}

func NewCoordinator(store InvoiceStore, signer SigningService, gateway TaxAuthorityGateway, inflight InFlight, logger *zap.Logger) *Coordinator {
	if inflight == nil {
		inflight = NewMemoryInFlight()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Coordinator{
		store:    store,
		signer:   signer,
		gateway:  gateway,
		inflight: inflight,
		logger:   logger.Named("submission"),
	}
	if v, ok := signer.(SignatureVerifier); ok {
		c.verifier = v
	}
	return c
}

// Sign asks the signing service to sign and number the invoice. When the call fails
// or comes back without a number, the stored invoice decides the outcome.
func (c *Coordinator) Sign(ctx context.Context, invoiceID, userID uint) (result *models.Invoice, err error) {
	defer func() { c.observe(opSign, invoiceID, err) }()

	release, err := c.inflight.Acquire(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	defer release()

	inv, err := c.store.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("load invoice %d: %w", invoiceID, err)
	}
	if err := lifecycle.CanEnter(*inv, lifecycle.EventSign); err != nil {
		return nil, err
	}

	res, signErr := c.signer.Sign(ctx, invoiceID, userID)
	if signErr == nil && res.InvoiceNumber > 0 {
		return c.applySign(ctx, *inv, res.InvoiceNumber, res.Signature)
	}
	return c.recoverSign(ctx, invoiceID, res, signErr)
}

func (c *Coordinator) applySign(ctx context.Context, inv models.Invoice, number int64, signature string) (*models.Invoice, error) {
	signed, err := lifecycle.Transition(inv, lifecycle.EventSign, lifecycle.Params{
		InvoiceNumber: number,
		Signature:     signature,
	})
	if err != nil {
		return nil, err
	}
	if err := c.store.Save(ctx, &signed); err != nil {
		return nil, fmt.Errorf("save signed invoice %d: %w", inv.ID, err)
	}
	return &signed, nil
}

func (c *Coordinator) recoverSign(ctx context.Context, invoiceID uint, res SignResult, signErr error) (*models.Invoice, error) {
	log := c.logger.With(zap.Uint("invoice_id", invoiceID), zap.String("op", opSign))
	log.Warn("sign call incomplete, re-fetching invoice",
		zap.Error(signErr),
		zap.Bool("signed", res.Signed),
		zap.Int64("returned_number", res.InvoiceNumber),
	)

	if signErr == nil {
		signErr = ErrNoNumberReturned
	}

	fresh, err := c.store.GetByID(ctx, invoiceID)
	if err != nil {
		log.Error("re-fetch after sign failed", zap.Error(err))
		return nil, &ExternalCallError{Op: opSign, InvoiceID: invoiceID, Retryable: true, Err: signErr}
	}

	switch {
	case fresh.HasInvoiceNumber():
		log.Info("sign recovered from stored state", zap.Int64("invoice_number", fresh.InvoiceNumber))
		if fresh.Signed && fresh.Status.IsSignedState() {
			return fresh, nil
		}
		// The service numbered the invoice but the stored status lags behind.
		pending := *fresh
		pending.InvoiceNumber = 0
		return c.applySign(ctx, pending, fresh.InvoiceNumber, fresh.DigitalSignature)

	case fresh.Signed || fresh.Status.IsSignedState():
		return nil, &ExternalCallError{
			Op:        opSign,
			InvoiceID: invoiceID,
			Retryable: true,
			Hint:      "press Sign again",
			Err:       ErrSignIncomplete,
		}
	}

	return nil, &ExternalCallError{Op: opSign, InvoiceID: invoiceID, Retryable: true, Err: signErr}
}

// Issue submits a signed, numbered invoice to the tax authority and marks it issued.
// On failure the internal status is kept and the tax status records the error.
func (c *Coordinator) Issue(ctx context.Context, invoiceID uint) (result *models.Invoice, err error) {
	defer func() { c.observe(opIssue, invoiceID, err) }()

	release, err := c.inflight.Acquire(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	defer release()

	inv, err := c.store.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("load invoice %d: %w", invoiceID, err)
	}
	if err := lifecycle.CanEnter(*inv, lifecycle.EventIssue); err != nil {
		return nil, err
	}
	if c.verifier != nil {
		if err := c.verifier.Verify(inv); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSignatureMismatch, err)
		}
	}

	taxCode, err := c.submit(ctx, invoiceID)
	if err != nil {
		return nil, c.recordSubmitFailure(ctx, opIssue, inv, err, "issue again once the error is fixed")
	}

	issued, err := lifecycle.Transition(*inv, lifecycle.EventIssue, lifecycle.Params{TaxCode: taxCode})
	if err != nil {
		return nil, err
	}
	if err := c.store.Save(ctx, &issued); err != nil {
		return nil, fmt.Errorf("save issued invoice %d: %w", invoiceID, err)
	}
	return &issued, nil
}

// Resend repeats the tax authority submission after an error. Only the tax status and
// code change.
func (c *Coordinator) Resend(ctx context.Context, invoiceID uint) (result *models.Invoice, err error) {
	defer func() { c.observe(opResend, invoiceID, err) }()

	release, err := c.inflight.Acquire(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	defer release()

	inv, err := c.store.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("load invoice %d: %w", invoiceID, err)
	}
	if err := lifecycle.CanEnter(*inv, lifecycle.EventResend); err != nil {
		return nil, err
	}

	taxCode, err := c.submit(ctx, invoiceID)
	if err != nil {
		return nil, c.recordSubmitFailure(ctx, opResend, inv, err, "resend later")
	}

	updated, err := lifecycle.Transition(*inv, lifecycle.EventResend, lifecycle.Params{TaxCode: taxCode})
	if err != nil {
		return nil, err
	}
	if err := c.store.Save(ctx, &updated); err != nil {
		return nil, fmt.Errorf("save resent invoice %d: %w", invoiceID, err)
	}
	return &updated, nil
}

func (c *Coordinator) submit(ctx context.Context, invoiceID uint) (string, error) {
	code, err := c.gateway.Submit(ctx, invoiceID)
	if err != nil {
		return "", err
	}
	if code == "" {
		return "", ErrEmptyTaxCode
	}
	return code, nil
}

func (c *Coordinator) recordSubmitFailure(ctx context.Context, op string, inv *models.Invoice, cause error, hint string) error {
	status := models.TaxFailed
	var rejection *TaxRejection
	if errors.As(cause, &rejection) && rejection.Status != models.TaxNotSent {
		status = rejection.Status
	}

	inv.TaxStatus = status
	if err := c.store.Save(ctx, inv); err != nil {
		c.logger.Error("could not record tax status",
			zap.Uint("invoice_id", inv.ID),
			zap.String("op", op),
			zap.Int("tax_status", int(status)),
			zap.Error(err),
		)
	}

	return &ExternalCallError{Op: op, InvoiceID: inv.ID, Retryable: true, Hint: hint, Err: cause}
}

func (c *Coordinator) observe(op string, invoiceID uint, err error) {
	outcome := outcomeOf(err)
	metrics.SubmissionOutcomes.WithLabelValues(op, outcome).Inc()

	fields := []zap.Field{zap.Uint("invoice_id", invoiceID), zap.String("op", op), zap.String("outcome", outcome)}
	if err != nil {
		c.logger.Warn("submission request failed", append(fields, zap.Error(err))...)
		return
	}
	c.logger.Info("submission request completed", fields...)
}

func outcomeOf(err error) string {
	var ext *ExternalCallError
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrInFlight):
		return "in_flight"
	case errors.Is(err, lifecycle.ErrStateGuard):
		return "guard"
	case errors.Is(err, ErrSignatureMismatch):
		return "bad_signature"
	case errors.As(err, &ext):
		return "external_error"
	}
	return "error"
}
