package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/vat-einvoice/models"
)

func lineRouter(h *LineHandler) *gin.Engine {
	router := newRouter(1, models.RoleAccountant)
	router.POST("/lines/recompute", h.Recompute)
	router.POST("/lines/totals", h.Totals)
	router.POST("/lines/add", h.Add)
	router.POST("/lines/remove", h.Remove)
	router.POST("/lines/reconcile", h.Reconcile)
	return router
}

func pricedLine(rowID string, price int64) models.LineItem {
	item := models.NewLineItem()
	item.RowID = rowID
	item.Name = "Giấy A4"
	item.Unit = "Ram"
	item.Quantity = decimal.NewFromInt(2)
	item.UnitPrice = price
	item.LineTotal = 2 * price
	item.VATAmount = 2 * price / 10
	return item
}

func TestLineHandler_Recompute(t *testing.T) {
	router := lineRouter(NewLineHandler(catalogOf()))

	tests := []struct {
		name           string
		field          string
		value          string
		expectedStatus int
		expectedAmount float64
	}{
		{"Discount rate", "discount_rate", "10", http.StatusOK, 20000},
		{"Discount amount", "discount_amount", "50000", http.StatusOK, 50000},
		{"Unknown field", "vat_rate", "5", http.StatusBadRequest, 0},
		{"Negative value", "quantity", "-1", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := perform(t, router, http.MethodPost, "/lines/recompute", gin.H{
				"item":  pricedLine("r1", 100000),
				"field": tt.field,
				"value": tt.value,
			})

			require.Equal(t, tt.expectedStatus, w.Code, w.Body.String())
			if tt.expectedStatus == http.StatusOK {
				item := body["item"].(map[string]interface{})
				assert.Equal(t, tt.expectedAmount, item["discount_amount"])
			}
		})
	}
}

func TestLineHandler_TotalsAndRows(t *testing.T) {
	router := lineRouter(NewLineHandler(catalogOf()))
	items := []models.LineItem{pricedLine("r1", 100000)}

	w, body := perform(t, router, http.MethodPost, "/lines/totals", gin.H{"items": items})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(220000), body["grand_total"])

	w, _ = perform(t, router, http.MethodPost, "/lines/remove", gin.H{"items": items, "row_id": "r1"})
	assert.Equal(t, http.StatusBadRequest, w.Code, "the last line cannot be removed")

	w, body = perform(t, router, http.MethodPost, "/lines/add", gin.H{"items": items})
	require.Equal(t, http.StatusOK, w.Code)
	added := body["items"].([]interface{})
	require.Len(t, added, 2)
	newRow := added[1].(map[string]interface{})
	assert.NotEmpty(t, newRow["row_id"])
	assert.Equal(t, float64(10), newRow["vat_rate"])
}

func TestLineHandler_Reconcile(t *testing.T) {
	paper := models.Product{ID: 7, Code: "SP001", Name: "Giấy A4", Unit: "Ram", Price: 65000, VATRate: models.VAT10}

	filled := pricedLine("r1", 65000)
	pid := paper.ID
	filled.ProductID = &pid
	filled.Code = paper.Code
	blank := models.NewLineItem()
	blank.RowID = "r2"
	items := []models.LineItem{filled, blank}

	t.Run("Duplicate then increase quantity", func(t *testing.T) {
		router := lineRouter(NewLineHandler(catalogOf(paper)))

		w, body := perform(t, router, http.MethodPost, "/lines/reconcile", gin.H{"row_id": "r2", "product": paper, "items": items})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "duplicate", body["action"])
		assert.Equal(t, "r1", body["existing_item"].(map[string]interface{})["row_id"])

		w, body = perform(t, router, http.MethodPost, "/lines/reconcile", gin.H{"row_id": "r2", "product": paper, "items": items, "decision": "increase_quantity"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		rows := body["items"].([]interface{})
		require.Len(t, rows, 1, "the blank target row is dropped")
		assert.Equal(t, "3", rows[0].(map[string]interface{})["quantity"])
	})

	t.Run("Fill from catalog", func(t *testing.T) {
		router := lineRouter(NewLineHandler(catalogOf(paper)))
		only := []models.LineItem{blank}

		w, body := perform(t, router, http.MethodPost, "/lines/reconcile", gin.H{"row_id": "r2", "product": paper, "items": only})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "filled", body["action"])
		row := body["items"].([]interface{})[0].(map[string]interface{})
		assert.Equal(t, "SP001", row["code"])
		assert.Equal(t, float64(65000), row["unit_price"])
	})

	t.Run("Catalog failure", func(t *testing.T) {
		router := lineRouter(NewLineHandler(&MockCatalog{GetProductByIDFunc: func(_ context.Context, _ uint) (*models.Product, error) {
			return nil, errors.New("connection refused")
		}}))

		w, body := perform(t, router, http.MethodPost, "/lines/reconcile", gin.H{"row_id": "r2", "product": paper, "items": []models.LineItem{blank}})
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Equal(t, true, body["retryable"])
	})

	t.Run("Unknown decision", func(t *testing.T) {
		router := lineRouter(NewLineHandler(catalogOf(paper)))

		w, _ := perform(t, router, http.MethodPost, "/lines/reconcile", gin.H{"row_id": "r2", "product": paper, "items": items, "decision": "merge"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
