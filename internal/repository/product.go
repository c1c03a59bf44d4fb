package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dairydesk/milk-orders/internal/domain/product"
)

const (
	listActiveProductsSQL = `SELECT id, name, description, price, color_class, is_active, created_at
		FROM products WHERE is_active ORDER BY created_at`

	getProductsByIDsSQL = `SELECT id, name, description, price, color_class, is_active, created_at
		FROM products WHERE id = ANY($1) ORDER BY created_at`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// ListActive returns active products in catalog order.
func (r *ProductRepository) ListActive(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listActiveProductsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByIDs returns products matching any of the given IDs, in catalog order.
func (r *ProductRepository) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting products by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p           product.Product
		description *string
		colorClass  *string
	)
	err := row.Scan(&p.ID, &p.Name, &description, &p.Price, &colorClass, &p.Active, &p.CreatedAt)
	if description != nil {
		p.Description = *description
	}
	if colorClass != nil {
		p.ColorClass = *colorClass
	}
	return p, err
}
