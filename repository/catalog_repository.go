package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yourusername/vat-einvoice/models"
	"gorm.io/gorm"
)

type ProductRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) GetProductByID(ctx context.Context, id uint) (*models.Product, error) {
	var p models.Product
	err := r.db.WithContext(ctx).Where("is_active = ?", true).First(&p, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}
	return &p, nil
}

// Search returns active products whose code or name contains term, ignoring case.
func (r *ProductRepository) Search(ctx context.Context, term string, limit int) ([]models.Product, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + strings.ToLower(strings.TrimSpace(term)) + "%"

	var products []models.Product
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("LOWER(code) LIKE ? OR LOWER(name) LIKE ?", like, like).
		Order("code ASC").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	return products, nil
}

func (r *ProductRepository) Create(ctx context.Context, p *models.Product) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

// Update writes the catalog fields of p. Rows already on invoices keep their copies.
func (r *ProductRepository) Update(ctx context.Context, p *models.Product) error {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", p.ID).
		Select("code", "name", "unit", "price", "vat_rate", "is_active").
		Updates(p)
	if res.Error != nil {
		return fmt.Errorf("update product %d: %w", p.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

type CustomerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

func (r *CustomerRepository) FindByTaxCode(ctx context.Context, code string) (*models.Customer, error) {
	var c models.Customer
	err := r.db.WithContext(ctx).Where("tax_code = ?", strings.TrimSpace(code)).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find customer %s: %w", code, err)
	}
	return &c, nil
}

func (r *CustomerRepository) Create(ctx context.Context, c *models.Customer) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		return fmt.Errorf("create customer: %w", err)
	}
	return nil
}
