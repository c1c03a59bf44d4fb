// Package product defines the sellable catalog consumed by order pricing
// and submission. Catalog rows are created and maintained externally; this
// service only reads them.
package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for catalog lookups and boundary validation.
var (
	ErrNotFound      = errors.New("product not found")
	ErrEmptyID       = errors.New("product id required")
	ErrNegativePrice = errors.New("product price must not be negative")
)

// Product is one sellable catalog entry. Price is a fixed-point currency
// amount; orders snapshot it at submission time, so later edits never
// reprice history.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	ColorClass  string
	Active      bool
	CreatedAt   time.Time
}

// New validates field ranges at the boundary and returns an active Product.
func New(id, name string, price decimal.Decimal) (Product, error) {
	if id == "" {
		return Product{}, ErrEmptyID
	}
	if price.IsNegative() {
		return Product{}, errors.Wrapf(ErrNegativePrice, "product %s", id)
	}
	return Product{
		ID:     id,
		Name:   name,
		Price:  price,
		Active: true,
	}, nil
}

// Repository defines read access to the catalog.
type Repository interface {
	// ListActive returns active products in catalog order (created_at ascending).
	ListActive(ctx context.Context) ([]Product, error)
	// GetByIDs returns products matching any of the given IDs, in catalog order.
	GetByIDs(ctx context.Context, ids []string) ([]Product, error)
}
