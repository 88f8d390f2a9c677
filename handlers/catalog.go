package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/vat-einvoice/lifecycle"
	"github.com/yourusername/vat-einvoice/models"
	"github.com/yourusername/vat-einvoice/repository"
	"go.uber.org/zap"
)

// ProductCache is told when a product changes so a cached copy is not served.
type ProductCache interface {
	Invalidate(ctx context.Context, id uint) error
}

type CatalogHandler struct {
	products  *repository.ProductRepository
	customers *repository.CustomerRepository
	cache     ProductCache
	logger    *zap.Logger
}

func NewCatalogHandler(products *repository.ProductRepository, customers *repository.CustomerRepository, cache ProductCache, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		products:  products,
		customers: customers,
		cache:     cache,
		logger:    logger.Named("catalog"),
	}
}

type codeLabel struct {
	Code  int    `json:"code"`
	Label string `json:"label"`
}

type taxStatusInfo struct {
	Code     int    `json:"code"`
	Label    string `json:"label"`
	IsError  bool   `json:"is_error"`
	CanRetry bool   `json:"can_retry"`
}

// Statuses returns the label tables the UI renders codes with.
func (h *CatalogHandler) Statuses(c *gin.Context) {
	statuses := make([]codeLabel, 0, len(models.AllStatuses()))
	for _, s := range models.AllStatuses() {
		statuses = append(statuses, codeLabel{Code: int(s), Label: s.Label()})
	}

	var types []codeLabel
	for t := models.TypeOriginal; t <= models.TypeExplanation; t++ {
		types = append(types, codeLabel{Code: int(t), Label: t.Label()})
	}

	var taxStatuses []taxStatusInfo
	for _, s := range models.AllTaxStatuses() {
		taxStatuses = append(taxStatuses, taxStatusInfo{
			Code:     int(s),
			Label:    s.Label(),
			IsError:  s.IsError(),
			CanRetry: s.CanRetry(),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"statuses":      statuses,
		"invoice_types": types,
		"tax_statuses":  taxStatuses,
	})
}

// LookupCustomer finds a saved buyer by tax code. The code is checked against the
// customer type's pattern before the lookup.
func (h *CatalogHandler) LookupCustomer(c *gin.Context) {
	code := strings.TrimSpace(c.Query("tax_code"))
	customerType := models.CustomerBusiness
	if raw := c.Query("customer_type"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || !models.CustomerType(n).Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid customer_type"})
			return
		}
		customerType = models.CustomerType(n)
	}

	if err := lifecycle.ValidateTaxCode(customerType, code); err != nil {
		respondError(c, &lifecycle.ValidationErrors{Fields: []lifecycle.FieldError{
			{Field: "tax_code", Message: err.Error()},
		}})
		return
	}

	customer, err := h.customers.FindByTaxCode(c.Request.Context(), code)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, customer)
}

type CustomerRequest struct {
	CustomerType models.CustomerType `json:"customer_type" binding:"required"`
	TaxCode      string              `json:"tax_code" binding:"required"`
	CompanyName  string              `json:"company_name"`
	ContactName  string              `json:"contact_name"`
	Address      string              `json:"address"`
	Email        string              `json:"email"`
	Phone        string              `json:"phone"`
}

func (h *CatalogHandler) CreateCustomer(c *gin.Context) {
	var req CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := lifecycle.ValidateTaxCode(req.CustomerType, req.TaxCode); err != nil {
		respondError(c, &lifecycle.ValidationErrors{Fields: []lifecycle.FieldError{
			{Field: "tax_code", Message: err.Error()},
		}})
		return
	}

	customer := models.Customer{
		CustomerType: req.CustomerType,
		TaxCode:      strings.TrimSpace(req.TaxCode),
		CompanyName:  req.CompanyName,
		ContactName:  req.ContactName,
		Address:      req.Address,
		Email:        req.Email,
		Phone:        req.Phone,
	}
	if err := h.customers.Create(c.Request.Context(), &customer); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, customer)
}

func (h *CatalogHandler) SearchProducts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	products, err := h.products.Search(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": products})
}

type ProductRequest struct {
	Code     string         `json:"code" binding:"required"`
	Name     string         `json:"name" binding:"required"`
	Unit     string         `json:"unit" binding:"required"`
	Price    int64          `json:"price" binding:"gte=0"`
	VATRate  models.VATRate `json:"vat_rate"`
	IsActive *bool          `json:"is_active"`
}

func (r ProductRequest) product() (models.Product, bool) {
	p := models.Product{
		Code:     strings.TrimSpace(r.Code),
		Name:     r.Name,
		Unit:     r.Unit,
		Price:    r.Price,
		VATRate:  r.VATRate,
		IsActive: true,
	}
	if r.IsActive != nil {
		p.IsActive = *r.IsActive
	}
	return p, r.VATRate.Valid()
}

func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, ok := req.product()
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "vat_rate must be 0, 5, 8 or 10"})
		return
	}

	if err := h.products.Create(c.Request.Context(), &p); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, p)
}

func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, ok := req.product()
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "vat_rate must be 0, 5, 8 or 10"})
		return
	}
	p.ID = id

	ctx := c.Request.Context()
	if err := h.products.Update(ctx, &p); err != nil {
		respondError(c, err)
		return
	}
	if h.cache != nil {
		if err := h.cache.Invalidate(ctx, id); err != nil {
			h.logger.Warn("could not invalidate cached product", zap.Uint("product_id", id), zap.Error(err))
		}
	}

	c.JSON(http.StatusOK, p)
}
