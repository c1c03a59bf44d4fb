package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dairydesk/milk-orders/internal/domain/location"
)

// Order is a persisted order header. Created exactly once per successful
// submission and never mutated afterwards.
type Order struct {
	ID             string
	Location       location.Captured
	TotalAmount    decimal.Decimal
	TotalQuantity  int
	DiscountAmount decimal.Decimal
	CreatedAt      time.Time

	// Lines is populated by review reads; it is written separately from the
	// header and may be empty for an orphaned header.
	Lines []LineItem
}

// LineItem is one product's share of an order. UnitPrice is the catalog price
// snapshotted at submission time.
type LineItem struct {
	ID          string
	OrderID     string
	ProductID   string
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
	CreatedAt   time.Time
}

// Repository persists and reads orders.
//
// CreateHeader and CreateLineItems are deliberately separate calls with no
// wrapping transaction: a line-item failure after a successful header insert
// leaves the header row behind, and readers must tolerate headers with no
// lines.
type Repository interface {
	// CreateHeader inserts the order row and fills in the backend-assigned
	// ID and CreatedAt on success.
	CreateHeader(ctx context.Context, o *Order) error
	// CreateLineItems batch-inserts all line items for an existing header.
	CreateLineItems(ctx context.Context, orderID string, lines []LineItem) error
	// ListWithLineItems returns all orders with their line items and product
	// display names, newest first.
	ListWithLineItems(ctx context.Context) ([]Order, error)
}
