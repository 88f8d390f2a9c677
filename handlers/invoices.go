package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yourusername/vat-einvoice/calc"
	"github.com/yourusername/vat-einvoice/lifecycle"
	"github.com/yourusername/vat-einvoice/middleware"
	"github.com/yourusername/vat-einvoice/models"
	"github.com/yourusername/vat-einvoice/repository"
	"github.com/yourusername/vat-einvoice/submission"
	"go.uber.org/zap"
)

type InvoiceHandler struct {
	repo        *repository.InvoiceRepository
	catalog     calc.CatalogLookup
	coordinator *submission.Coordinator
	serial      string
	logger      *zap.Logger
}

func NewInvoiceHandler(repo *repository.InvoiceRepository, catalog calc.CatalogLookup, coordinator *submission.Coordinator, serial string, logger *zap.Logger) *InvoiceHandler {
	return &InvoiceHandler{
		repo:        repo,
		catalog:     catalog,
		coordinator: coordinator,
		serial:      serial,
		logger:      logger.Named("invoices"),
	}
}

// InvoiceRequest is the editable part of an invoice form.
type InvoiceRequest struct {
	CustomerType  models.CustomerType `json:"customer_type"`
	BuyerName     string              `json:"buyer_name"`
	BuyerCompany  string              `json:"buyer_company"`
	BuyerTaxCode  string              `json:"buyer_tax_code"`
	BuyerAddress  string              `json:"buyer_address"`
	BuyerEmail    string              `json:"buyer_email"`
	BuyerPhone    string              `json:"buyer_phone"`
	PaymentMethod string              `json:"payment_method"`
	Notes         string              `json:"notes"`
	Items         []models.LineItem   `json:"items"`
}

func (r InvoiceRequest) applyTo(ctx context.Context, catalog calc.CatalogLookup, inv *models.Invoice) error {
	inv.CustomerType = r.CustomerType
	if !inv.CustomerType.Valid() {
		inv.CustomerType = models.CustomerBusiness
	}
	inv.BuyerName = strings.TrimSpace(r.BuyerName)
	inv.BuyerCompany = strings.TrimSpace(r.BuyerCompany)
	inv.BuyerTaxCode = strings.TrimSpace(r.BuyerTaxCode)
	inv.BuyerAddress = strings.TrimSpace(r.BuyerAddress)
	inv.BuyerEmail = strings.TrimSpace(r.BuyerEmail)
	inv.BuyerPhone = strings.TrimSpace(r.BuyerPhone)
	inv.PaymentMethod = r.PaymentMethod
	if inv.PaymentMethod == "" {
		inv.PaymentMethod = models.PaymentCashOrTransfer
	}
	inv.Notes = r.Notes

	items, err := normalizeItems(ctx, catalog, r.Items)
	if err != nil {
		return err
	}
	inv.Items = items
	return nil
}

// normalizeItems gives every row an id and re-derives its amounts, so stored totals
// never depend on what the client computed. Rows linked to a product take their VAT
// rate from the catalog. An empty list gets one blank row.
func normalizeItems(ctx context.Context, catalog calc.CatalogLookup, in []models.LineItem) ([]models.LineItem, error) {
	if len(in) == 0 {
		return []models.LineItem{models.NewLineItem()}, nil
	}

	rates := make(map[uint]models.VATRate)
	out := make([]models.LineItem, len(in))
	for i, item := range in {
		if item.RowID == "" {
			item.RowID = uuid.NewString()
		}
		item.ID = 0
		item.InvoiceID = 0

		if item.ProductID != nil {
			rate, err := catalogRate(ctx, catalog, rates, *item.ProductID)
			if err != nil {
				return nil, err
			}
			item.VATRate = rate
		}

		normalized, err := calc.NormalizeLine(item)
		if err != nil {
			return nil, fmt.Errorf("items[%d].%w", i, err)
		}
		out[i] = normalized
	}
	return out, nil
}

func catalogRate(ctx context.Context, catalog calc.CatalogLookup, seen map[uint]models.VATRate, productID uint) (models.VATRate, error) {
	if rate, ok := seen[productID]; ok {
		return rate, nil
	}
	p, err := catalog.GetProductByID(ctx, productID)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, fmt.Errorf("%w: %d", errUnknownProduct, productID)
	}
	if err != nil {
		return 0, &calc.CatalogError{ProductID: productID, Err: err}
	}
	seen[productID] = p.VATRate
	return p.VATRate, nil
}

// invoiceView is an invoice together with the labels and actions the UI needs.
type invoiceView struct {
	*models.Invoice
	StatusLabel     string            `json:"status_label"`
	TypeLabel       string            `json:"invoice_type_label"`
	TaxStatusLabel  string            `json:"tax_status_label"`
	NumberDisplay   string            `json:"invoice_number_display"`
	AvailableEvents []lifecycle.Event `json:"available_events"`
}

func viewOf(inv *models.Invoice) invoiceView {
	return invoiceView{
		Invoice:         inv,
		StatusLabel:     inv.Status.Label(),
		TypeLabel:       inv.InvoiceType.Label(),
		TaxStatusLabel:  inv.TaxStatus.Label(),
		NumberDisplay:   models.FormatInvoiceNumber(inv.InvoiceNumber),
		AvailableEvents: lifecycle.AvailableEvents(*inv),
	}
}

func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	var req InvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := middleware.CurrentUser(c)
	inv := models.Invoice{
		Serial:      h.serial,
		Status:      models.StatusDraft,
		InvoiceType: models.TypeOriginal,
		CreatedBy:   userID,
	}
	if err := req.applyTo(c.Request.Context(), h.catalog, &inv); err != nil {
		respondError(c, err)
		return
	}

	if err := h.repo.Create(c.Request.Context(), &inv); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, viewOf(&inv))
}

func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	filter := repository.ListFilter{Limit: 50}
	if raw := c.Query("status"); raw != "" {
		n, err := strconv.Atoi(raw)
		status := models.InvoiceStatus(n)
		if err != nil || !status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
			return
		}
		filter.Status = &status
	}
	if n, err := strconv.Atoi(c.Query("limit")); err == nil && n > 0 && n <= 200 {
		filter.Limit = n
	}
	if n, err := strconv.Atoi(c.Query("offset")); err == nil && n > 0 {
		filter.Offset = n
	}

	invoices, err := h.repo.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]invoiceView, len(invoices))
	for i := range invoices {
		views[i] = viewOf(&invoices[i])
	}
	c.JSON(http.StatusOK, gin.H{"invoices": views, "limit": filter.Limit, "offset": filter.Offset})
}

func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	inv, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, viewOf(inv))
}

// UpdateInvoice replaces the buyer, payment and lines of a draft.
func (h *InvoiceHandler) UpdateInvoice(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req InvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	inv, err := h.repo.GetByID(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	if inv.Status != models.StatusDraft {
		c.JSON(http.StatusConflict, gin.H{"error": "Only draft invoices can be edited", "code": "StateGuard", "status": inv.Status})
		return
	}

	if err := req.applyTo(ctx, h.catalog, inv); err != nil {
		respondError(c, err)
		return
	}
	if err := h.repo.Save(ctx, inv); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, viewOf(inv))
}

type TransitionRequest struct {
	Event     string `json:"event" binding:"required"`
	Confirmed bool   `json:"confirmed"`
}

// Transition runs the lifecycle events that need no external service.
func (h *InvoiceHandler) Transition(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ev := lifecycle.Event(req.Event)
	switch ev {
	case lifecycle.EventSubmit, lifecycle.EventApprove, lifecycle.EventRequestSign, lifecycle.EventCancel:
	case lifecycle.EventSign, lifecycle.EventIssue, lifecycle.EventResend, lifecycle.EventDerive:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Use the dedicated endpoint for " + req.Event})
		return
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown event " + strconv.Quote(req.Event)})
		return
	}

	ctx := c.Request.Context()
	inv, err := h.repo.GetByID(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}

	_, role := middleware.CurrentUser(c)
	next, err := lifecycle.Transition(*inv, ev, lifecycle.Params{ActorRole: role, Confirmed: req.Confirmed})
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.repo.UpdateStatus(ctx, id, inv.Status, next.Status); err != nil {
		respondError(c, err)
		return
	}
	if ev == lifecycle.EventCancel {
		if err := h.repo.Save(ctx, &next); err != nil {
			respondError(c, err)
			return
		}
	}

	h.logger.Info("invoice transition",
		zap.Uint("invoice_id", id),
		zap.String("event", req.Event),
		zap.Int("from", int(inv.Status)),
		zap.Int("to", int(next.Status)),
	)
	c.JSON(http.StatusOK, viewOf(&next))
}

func (h *InvoiceHandler) Sign(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	userID, _ := middleware.CurrentUser(c)
	inv, err := h.coordinator.Sign(c.Request.Context(), id, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, viewOf(inv))
}

func (h *InvoiceHandler) Issue(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	inv, err := h.coordinator.Issue(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, viewOf(inv))
}

func (h *InvoiceHandler) Resend(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	inv, err := h.coordinator.Resend(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, viewOf(inv))
}

type DerivativeRequest struct {
	InvoiceType models.InvoiceType `json:"invoice_type" binding:"required"`
	Reason      string             `json:"reason"`
}

// CreateDerivative starts an adjustment, replacement, cancellation or explanation
// draft for an issued invoice.
func (h *InvoiceHandler) CreateDerivative(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req DerivativeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	orig, err := h.repo.GetByID(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}

	userID, _ := middleware.CurrentUser(c)
	derived, err := lifecycle.NewDerivative(*orig, req.InvoiceType, req.Reason, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := h.repo.Create(ctx, &derived); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, viewOf(&derived))
}
