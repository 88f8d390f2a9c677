package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/yourusername/vat-einvoice/calc"
	"github.com/yourusername/vat-einvoice/models"
)

// LineHandler serves the line grid of the invoice form. It is stateless: the client
// sends the lines and gets the recomputed lines back.
type LineHandler struct {
	reconciler *calc.Reconciler
}

func NewLineHandler(catalog calc.CatalogLookup) *LineHandler {
	return &LineHandler{reconciler: calc.NewReconciler(catalog)}
}

type RecomputeRequest struct {
	Item  models.LineItem `json:"item"`
	Field string          `json:"field" binding:"required"`
	Value decimal.Decimal `json:"value"`
}

func (h *LineHandler) Recompute(c *gin.Context) {
	var req RecomputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	field, err := calc.ParseField(req.Field)
	if err != nil {
		respondError(c, err)
		return
	}

	item, err := calc.RecomputeLine(req.Item, field, req.Value)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"item": item})
}

type ItemsRequest struct {
	Items []models.LineItem `json:"items"`
}

func (h *LineHandler) Totals(c *gin.Context) {
	var req ItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, calc.ComputeTotals(req.Items))
}

// Add appends an empty row.
func (h *LineHandler) Add(c *gin.Context) {
	var req ItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item := models.NewLineItem()
	item.Position = len(req.Items) + 1
	items := append(req.Items, item)

	c.JSON(http.StatusOK, gin.H{"items": items, "totals": calc.ComputeTotals(items)})
}

type RemoveLineRequest struct {
	RowID string            `json:"row_id" binding:"required"`
	Items []models.LineItem `json:"items"`
}

func (h *LineHandler) Remove(c *gin.Context) {
	var req RemoveLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	items, err := calc.RemoveLine(req.Items, req.RowID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": items, "totals": calc.ComputeTotals(items)})
}

// ReconcileRequest selects Product for the row RowID. Decision is empty on the first
// call and set once the user has answered the duplicate prompt.
type ReconcileRequest struct {
	RowID    string            `json:"row_id" binding:"required"`
	Product  models.Product    `json:"product"`
	Items    []models.LineItem `json:"items"`
	Decision string            `json:"decision"`
}

func (h *LineHandler) Reconcile(c *gin.Context) {
	var req ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Product.ID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "product id is required"})
		return
	}

	var (
		res *calc.Reconciliation
		err error
	)
	if req.Decision == "" {
		res, err = h.reconciler.Select(c.Request.Context(), req.RowID, req.Product, req.Items)
	} else {
		res, err = h.reconciler.Resolve(c.Request.Context(), req.RowID, req.Product, req.Items, calc.Decision(req.Decision))
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"action":        res.Action,
		"items":         res.Items,
		"existing_item": res.Existing,
		"product":       res.Product,
		"totals":        calc.ComputeTotals(res.Items),
	})
}
