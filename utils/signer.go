package utils

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/stellar/go/keypair"
	"github.com/yourusername/vat-einvoice/models"
	"github.com/yourusername/vat-einvoice/submission"
)

var _ submission.SignatureVerifier = (*KeypairSigner)(nil)

type InvoiceSource interface {
	GetByID(ctx context.Context, id uint) (*models.Invoice, error)
}

type NumberSequence interface {
	NextInvoiceNumber(ctx context.Context, serial string) (int64, error)
}

// KeypairSigner is a local SigningService. It reserves the next number of the
// invoice's serial and signs a digest of the invoice with an ed25519 key.
type KeypairSigner struct {
	invoices      InvoiceSource
	numbers       NumberSequence
	kp            *keypair.Full
	defaultSerial string
}

// NewKeypairSigner loads the signing key from seed. An empty seed generates a
// throwaway key, which is only useful in development.
func NewKeypairSigner(invoices InvoiceSource, numbers NumberSequence, seed, defaultSerial string) (*KeypairSigner, error) {
	var (
		kp  *keypair.Full
		err error
	)
	if seed == "" {
		kp, err = keypair.Random()
	} else {
		kp, err = keypair.ParseFull(seed)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid signer seed: %w", err)
	}

	return &KeypairSigner{
		invoices:      invoices,
		numbers:       numbers,
		kp:            kp,
		defaultSerial: defaultSerial,
	}, nil
}

// Address is the public key that verifies the signatures.
func (s *KeypairSigner) Address() string {
	return s.kp.Address()
}

func (s *KeypairSigner) Sign(ctx context.Context, invoiceID, _ uint) (submission.SignResult, error) {
	inv, err := s.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return submission.SignResult{}, fmt.Errorf("load invoice for signing: %w", err)
	}

	serial := s.serialOf(inv)
	number, err := s.numbers.NextInvoiceNumber(ctx, serial)
	if err != nil {
		return submission.SignResult{}, fmt.Errorf("reserve invoice number: %w", err)
	}

	digest, err := Digest(inv, serial, number)
	if err != nil {
		return submission.SignResult{}, err
	}
	sig, err := s.kp.Sign(digest)
	if err != nil {
		return submission.SignResult{}, fmt.Errorf("sign invoice digest: %w", err)
	}

	return submission.SignResult{
		InvoiceNumber: number,
		Signed:        true,
		Signature:     base64.StdEncoding.EncodeToString(sig),
	}, nil
}

// Verify checks inv.DigitalSignature against the invoice as it is now.
func (s *KeypairSigner) Verify(inv *models.Invoice) error {
	sig, err := base64.StdEncoding.DecodeString(inv.DigitalSignature)
	if err != nil {
		return fmt.Errorf("decode signature: %w", err)
	}
	digest, err := Digest(inv, s.serialOf(inv), inv.InvoiceNumber)
	if err != nil {
		return err
	}
	return s.kp.Verify(digest, sig)
}

func (s *KeypairSigner) serialOf(inv *models.Invoice) string {
	if inv.Serial != "" {
		return inv.Serial
	}
	return s.defaultSerial
}

type signedLine struct {
	RowID          string `json:"row_id"`
	Name           string `json:"name"`
	Quantity       string `json:"quantity"`
	UnitPrice      int64  `json:"unit_price"`
	DiscountAmount int64  `json:"discount_amount"`
	VATRate        int    `json:"vat_rate"`
}

type signedContent struct {
	Serial        string       `json:"serial"`
	InvoiceNumber int64        `json:"invoice_number"`
	InvoiceType   int          `json:"invoice_type"`
	BuyerTaxCode  string       `json:"buyer_tax_code"`
	TotalAmount   int64        `json:"total_amount"`
	Lines         []signedLine `json:"lines"`
}

// Digest is the SHA-256 of the fields that the signature covers.
func Digest(inv *models.Invoice, serial string, number int64) ([]byte, error) {
	content := signedContent{
		Serial:        serial,
		InvoiceNumber: number,
		InvoiceType:   int(inv.InvoiceType),
		BuyerTaxCode:  inv.BuyerTaxCode,
		TotalAmount:   inv.TotalAmount,
		Lines:         make([]signedLine, len(inv.Items)),
	}
	for i, item := range inv.Items {
		content.Lines[i] = signedLine{
			RowID:          item.RowID,
			Name:           item.Name,
			Quantity:       item.Quantity.String(),
			UnitPrice:      item.UnitPrice,
			DiscountAmount: item.DiscountAmount,
			VATRate:        int(item.VATRate),
		}
	}

	raw, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("encode invoice digest: %w", err)
	}
	sum := sha256.Sum256(raw)
	return sum[:], nil
}
