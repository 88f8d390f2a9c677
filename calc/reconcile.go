package calc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/yourusername/vat-einvoice/models"
)

// CatalogLookup fetches the full catalog record of a product.
type CatalogLookup interface {
	GetProductByID(ctx context.Context, id uint) (*models.Product, error)
}

type Action string

const (
	ActionFilled    Action = "filled"
	ActionDuplicate Action = "duplicate"
)

// Decision is the caller's answer to a duplicate product prompt.
type Decision string

const (
	DecisionIncreaseQuantity Decision = "increase_quantity"
	DecisionAddNewRow        Decision = "add_new_row"
)

var (
	ErrUnknownDecision = errors.New("unknown reconciliation decision")
	ErrNoDuplicate     = errors.New("product is not present on another line")
)

// CatalogError reports a failed catalog fetch. The lines are left untouched and the
// caller may retry the selection.
type CatalogError struct {
	ProductID uint
	Err       error
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("catalog lookup for product %d failed: %v", e.ProductID, e.Err)
}

func (e *CatalogError) Unwrap() error {
	return e.Err
}

// Reconciliation is the outcome of selecting a product for a row. With
// ActionDuplicate, Existing is the other row already holding the product and Items is
// the unchanged input.
type Reconciliation struct {
	Action   Action            `json:"action"`
	Items    []models.LineItem `json:"items"`
	Existing *models.LineItem  `json:"existing_item,omitempty"`
	Product  *models.Product   `json:"product,omitempty"`
}

type Reconciler struct {
	catalog CatalogLookup
}

func NewReconciler(catalog CatalogLookup) *Reconciler {
	return &Reconciler{catalog: catalog}
}

// Select handles the choice of selected for the row rowID. selected needs only the
// identity fields (ID and Code) as returned by a product search.
func (r *Reconciler) Select(ctx context.Context, rowID string, selected models.Product, items []models.LineItem) (*Reconciliation, error) {
	if indexOfRow(items, rowID) < 0 {
		return nil, ErrRowNotFound
	}

	if dup := findDuplicate(items, rowID, selected); dup >= 0 {
		existing := items[dup]
		return &Reconciliation{
			Action:   ActionDuplicate,
			Items:    cloneItems(items),
			Existing: &existing,
			Product:  &selected,
		}, nil
	}

	return r.fill(ctx, rowID, selected, items)
}

// Resolve applies the caller's decision after Select reported a duplicate.
func (r *Reconciler) Resolve(ctx context.Context, rowID string, selected models.Product, items []models.LineItem, decision Decision) (*Reconciliation, error) {
	target := indexOfRow(items, rowID)
	if target < 0 {
		return nil, ErrRowNotFound
	}

	switch decision {
	case DecisionAddNewRow:
		return r.fill(ctx, rowID, selected, items)
	case DecisionIncreaseQuantity:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDecision, decision)
	}

	dup := findDuplicate(items, rowID, selected)
	if dup < 0 {
		return nil, ErrNoDuplicate
	}

	out := cloneItems(items)
	merged, err := RecomputeLine(out[dup], FieldQuantity, out[dup].Quantity.Add(decimal.NewFromInt(1)))
	if err != nil {
		return nil, err
	}
	out[dup] = merged

	if out[target].IsBlank() {
		if trimmed, err := RemoveLine(out, rowID); err == nil {
			out = trimmed
		}
	}

	existing := merged
	return &Reconciliation{
		Action:   ActionFilled,
		Items:    out,
		Existing: &existing,
		Product:  &selected,
	}, nil
}

func (r *Reconciler) fill(ctx context.Context, rowID string, selected models.Product, items []models.LineItem) (*Reconciliation, error) {
	product, err := r.catalog.GetProductByID(ctx, selected.ID)
	if err != nil {
		return nil, &CatalogError{ProductID: selected.ID, Err: err}
	}

	out := cloneItems(items)
	idx := indexOfRow(out, rowID)
	out[idx] = FillFromProduct(out[idx], product)

	return &Reconciliation{
		Action:  ActionFilled,
		Items:   out,
		Product: product,
	}, nil
}

// findDuplicate returns the index of another row carrying the same product, or -1.
func findDuplicate(items []models.LineItem, rowID string, p models.Product) int {
	for i := range items {
		if items[i].RowID == rowID {
			continue
		}
		if sameProduct(items[i], p) {
			return i
		}
	}
	return -1
}

func sameProduct(item models.LineItem, p models.Product) bool {
	if item.ProductID != nil && p.ID != 0 {
		return *item.ProductID == p.ID
	}
	return item.Code != "" && strings.EqualFold(strings.TrimSpace(item.Code), strings.TrimSpace(p.Code))
}

func cloneItems(items []models.LineItem) []models.LineItem {
	out := make([]models.LineItem, len(items))
	copy(out, items)
	return out
}
