package order

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/dairydesk/milk-orders/internal/domain/location"
	"github.com/dairydesk/milk-orders/internal/domain/product"
)

// Submission guard failures. Reported immediately; no persistence is
// attempted.
var (
	ErrNoItems            = errors.New("no items selected")
	ErrLocationRequired   = errors.New("location required")
	ErrSubmissionInFlight = errors.New("submission already in progress")
)

// UnknownProductError indicates a selected product is not in the catalog.
type UnknownProductError struct {
	ProductID string
}

func (e *UnknownProductError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// State is the submission workflow's observable position. Terminal states
// return to StateIdle once Submit returns to the caller.
type State int32

const (
	StateIdle State = iota
	StateValidating
	StatePersistingHeader
	StatePersistingLineItems
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StatePersistingHeader:
		return "persisting_header"
	case StatePersistingLineItems:
		return "persisting_line_items"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Cart is the session-scoped order-in-progress: a quantity selection, an
// optional captured location, and a requested discount. It belongs to a
// single interactive session and is not safe for concurrent use.
type Cart struct {
	quantities map[string]int
	location   *location.Captured
	discount   decimal.Decimal
}

// NewCart returns an empty cart.
func NewCart() *Cart {
	return &Cart{
		quantities: make(map[string]int),
		discount:   decimal.Zero,
	}
}

// SetQuantity records the selected quantity for a product. Negative values
// are clamped to zero; a zero quantity removes the selection.
func (c *Cart) SetQuantity(productID string, qty int) {
	if qty <= 0 {
		delete(c.quantities, productID)
		return
	}
	c.quantities[productID] = qty
}

// Quantity returns the selected quantity for a product; absent means zero.
func (c *Cart) Quantity(productID string) int {
	return c.quantities[productID]
}

// TotalQuantity sums all selected quantities.
func (c *Cart) TotalQuantity() int {
	total := 0
	for _, q := range c.quantities {
		total += q
	}
	return total
}

// ProductIDs returns the IDs with a positive selected quantity.
func (c *Cart) ProductIDs() []string {
	ids := make([]string, 0, len(c.quantities))
	for id := range c.quantities {
		ids = append(ids, id)
	}
	return ids
}

// SetLocation attaches a captured location to the cart.
func (c *Cart) SetLocation(loc location.Captured) {
	c.location = &loc
}

// ClearLocation removes the captured location.
func (c *Cart) ClearLocation() {
	c.location = nil
}

// Location returns the captured location, if present.
func (c *Cart) Location() (location.Captured, bool) {
	if c.location == nil {
		return location.Captured{}, false
	}
	return *c.location, true
}

// SetDiscount records the requested discount amount. Clamping to the subtotal
// happens at pricing time, not here.
func (c *Cart) SetDiscount(d decimal.Decimal) {
	c.discount = d
}

// Discount returns the requested discount amount.
func (c *Cart) Discount() decimal.Decimal {
	return c.discount
}

// Reset returns the cart to its initial empty state.
func (c *Cart) Reset() {
	c.quantities = make(map[string]int)
	c.location = nil
	c.discount = decimal.Zero
}

// Service runs the order submission workflow: validate the cart, price it,
// persist the header, then persist the line items.
type Service struct {
	products product.Repository
	orders   Repository

	inFlight atomic.Bool
	state    atomic.Int32
}

// NewService creates a submission Service.
func NewService(products product.Repository, orders Repository) *Service {
	return &Service{
		products: products,
		orders:   orders,
	}
}

// State reports the workflow's current position, for in-flight UI.
func (s *Service) State() State {
	return State(s.state.Load())
}

// Submit runs one submission attempt for the cart.
//
// At most one submission may be in flight at a time; a concurrent call fails
// with ErrSubmissionInFlight. On success the cart is reset (quantities zero,
// location absent) and the persisted order is returned. The header and
// line-item inserts are two independent writes: if the second fails, the
// header row stays behind and the attempt is reported as failed. Resubmitting
// after a failure re-runs the whole sequence and may duplicate the header.
func (s *Service) Submit(ctx context.Context, cart *Cart) (*Order, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, ErrSubmissionInFlight
	}
	defer func() {
		s.state.Store(int32(StateIdle))
		s.inFlight.Store(false)
	}()

	s.state.Store(int32(StateValidating))

	if cart.TotalQuantity() == 0 {
		s.state.Store(int32(StateFailed))
		return nil, ErrNoItems
	}
	loc, ok := cart.Location()
	if !ok {
		s.state.Store(int32(StateFailed))
		return nil, ErrLocationRequired
	}

	// Snapshot the catalog for the selected products, in catalog order.
	products, err := s.products.GetByIDs(ctx, cart.ProductIDs())
	if err != nil {
		s.state.Store(int32(StateFailed))
		return nil, errors.Wrap(err, "get products")
	}
	found := make(map[string]struct{}, len(products))
	for _, p := range products {
		found[p.ID] = struct{}{}
	}
	for _, id := range cart.ProductIDs() {
		if _, ok := found[id]; !ok {
			s.state.Store(int32(StateFailed))
			return nil, &UnknownProductError{ProductID: id}
		}
	}

	quote, err := Price(products, cart.quantities, cart.Discount())
	if err != nil {
		s.state.Store(int32(StateFailed))
		return nil, errors.Wrap(err, "price order")
	}

	o := &Order{
		Location:       loc,
		TotalAmount:    quote.Total,
		TotalQuantity:  cart.TotalQuantity(),
		DiscountAmount: quote.Discount,
	}

	s.state.Store(int32(StatePersistingHeader))
	if err := s.orders.CreateHeader(ctx, o); err != nil {
		s.state.Store(int32(StateFailed))
		return nil, errors.Wrap(err, "create order header")
	}

	lines := make([]LineItem, len(quote.Lines))
	for i, l := range quote.Lines {
		lines[i] = LineItem{
			OrderID:     o.ID,
			ProductID:   l.Product.ID,
			ProductName: l.Product.Name,
			Quantity:    l.Quantity,
			UnitPrice:   l.Product.Price,
			Subtotal:    l.LineTotal,
		}
	}

	s.state.Store(int32(StatePersistingLineItems))
	if err := s.orders.CreateLineItems(ctx, o.ID, lines); err != nil {
		// The header row stays behind; there is no compensating delete.
		s.state.Store(int32(StateFailed))
		return nil, errors.Wrap(err, "create order line items")
	}
	o.Lines = lines

	s.state.Store(int32(StateSucceeded))
	cart.Reset()
	return o, nil
}
