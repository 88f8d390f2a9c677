package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/vat-einvoice/models"
	"github.com/yourusername/vat-einvoice/submission"
)

// HTTPTaxGateway forwards submissions to the tax authority relay over JSON/HTTP.
type HTTPTaxGateway struct {
	baseURL string
	client  *http.Client
}

func NewHTTPTaxGateway(baseURL string, timeout time.Duration) *HTTPTaxGateway {
	return &HTTPTaxGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type submitRequest struct {
	InvoiceID uint `json:"invoice_id"`
}

type submitResponse struct {
	TaxCode string `json:"tax_code"`
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func (g *HTTPTaxGateway) Submit(ctx context.Context, invoiceID uint) (string, error) {
	body, err := json.Marshal(submitRequest{InvoiceID: invoiceID})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/invoices/%d/submit", g.baseURL, invoiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build tax gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("tax gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read tax gateway response: %w", err)
	}

	var out submitResponse
	decodeErr := json.Unmarshal(raw, &out)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if decodeErr != nil {
			return "", fmt.Errorf("decode tax gateway response: %w", decodeErr)
		}
		if status := models.TaxStatus(out.Status); status.IsError() {
			return "", &submission.TaxRejection{Status: status, Message: out.Message}
		}
		return out.TaxCode, nil
	}

	if decodeErr == nil && out.Status > 0 {
		return "", &submission.TaxRejection{Status: models.TaxStatus(out.Status), Message: out.Message}
	}
	return "", fmt.Errorf("tax gateway returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
}

// SandboxTaxGateway accepts every submission and makes up a code. It stands in for
// the tax authority in development.
type SandboxTaxGateway struct{}

func (SandboxTaxGateway) Submit(ctx context.Context, invoiceID uint) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	token := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return fmt.Sprintf("SBX-%d-%s", invoiceID, token[:16]), nil
}
