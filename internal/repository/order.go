package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/dairydesk/milk-orders/internal/domain/order"
)

const (
	createOrderHeaderSQL = `INSERT INTO orders
		(shop_location_lat, shop_location_lng, shop_location_address, total_amount, total_quantity, discount_amount)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	createLineItemSQL = `INSERT INTO order_details (order_id, product_id, quantity, unit_price, subtotal)
		VALUES ($1, $2, $3, $4, $5)`

	listOrdersSQL = `SELECT
			o.id, o.shop_location_lat, o.shop_location_lng, o.shop_location_address,
			o.total_amount, o.total_quantity, o.discount_amount, o.created_at,
			d.id, d.product_id, p.name, d.quantity, d.unit_price, d.subtotal, d.created_at
		FROM orders o
		LEFT JOIN order_details d ON d.order_id = o.id
		LEFT JOIN products p ON p.id = d.product_id
		ORDER BY o.created_at DESC, d.created_at`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
//
// The header and line-item writes are two independent statements with no
// wrapping transaction, preserving the possibly-orphaned-header semantics of
// the submission workflow.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// CreateHeader inserts the order row and fills in the database-assigned ID
// and creation timestamp.
func (r *OrderRepository) CreateHeader(ctx context.Context, o *order.Order) error {
	err := r.pool.QueryRow(ctx, createOrderHeaderSQL,
		o.Location.Lat, o.Location.Lng, o.Location.Address,
		o.TotalAmount, o.TotalQuantity, o.DiscountAmount,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating order header: %w", err)
	}
	return nil
}

// CreateLineItems batch-inserts all line items for an existing header.
func (r *OrderRepository) CreateLineItems(ctx context.Context, orderID string, lines []order.LineItem) error {
	batch := &pgx.Batch{}
	for _, l := range lines {
		batch.Queue(createLineItemSQL, orderID, l.ProductID, l.Quantity, l.UnitPrice, l.Subtotal)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range lines {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("creating line items for order %q: %w", orderID, err)
		}
	}
	return nil
}

// ListWithLineItems returns all orders with their line items and product
// display names, newest first. Headers without line items come back with an
// empty Lines slice.
func (r *OrderRepository) ListWithLineItems(ctx context.Context) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	defer rows.Close()

	var (
		orders []order.Order
		index  = make(map[string]int)
	)
	for rows.Next() {
		var (
			o           order.Order
			address     *string
			lineID      *string
			productID   *string
			productName *string
			quantity    *int
			unitPrice   *decimal.Decimal
			subtotal    *decimal.Decimal
			lineCreated *time.Time
		)
		err := rows.Scan(
			&o.ID, &o.Location.Lat, &o.Location.Lng, &address,
			&o.TotalAmount, &o.TotalQuantity, &o.DiscountAmount, &o.CreatedAt,
			&lineID, &productID, &productName, &quantity, &unitPrice, &subtotal, &lineCreated,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning order row: %w", err)
		}
		if address != nil {
			o.Location.Address = *address
		}

		i, seen := index[o.ID]
		if !seen {
			i = len(orders)
			index[o.ID] = i
			orders = append(orders, o)
		}

		// NULL line columns mean an orphaned header.
		if lineID == nil {
			continue
		}
		l := order.LineItem{
			ID:        *lineID,
			OrderID:   o.ID,
			ProductID: *productID,
			Quantity:  *quantity,
			UnitPrice: *unitPrice,
			Subtotal:  *subtotal,
			CreatedAt: *lineCreated,
		}
		if productName != nil {
			l.ProductName = *productName
		}
		orders[i].Lines = append(orders[i].Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return orders, nil
}
