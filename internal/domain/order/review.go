package order

import (
	"context"

	"github.com/go-faster/errors"
)

// ReviewService exposes the admin-side, read-only view over persisted orders.
type ReviewService struct {
	orders Repository
}

// NewReviewService creates a ReviewService.
func NewReviewService(orders Repository) *ReviewService {
	return &ReviewService{orders: orders}
}

// ListOrders returns all orders with their line items and product display
// names, newest first. Orphaned headers (no line items) are included.
func (s *ReviewService) ListOrders(ctx context.Context) ([]Order, error) {
	orders, err := s.orders.ListWithLineItems(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return orders, nil
}
