package order

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/dairydesk/milk-orders/internal/domain/product"
)

// Pricing input violations. Callers are expected to clamp user input before
// pricing; these fire only on malformed data reaching the engine.
var (
	ErrNegativeQuantity = errors.New("quantity must not be negative")
	ErrNegativePrice    = errors.New("price must not be negative")
)

// QuoteLine is one priced product within a quote.
type QuoteLine struct {
	Product   product.Product
	Quantity  int
	LineTotal decimal.Decimal
}

// Quote is the result of pricing a selection. Discount is the effective
// (clamped) discount, not the requested one.
type Quote struct {
	Lines    []QuoteLine
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// Price computes a quote from the catalog, a quantity selection, and a
// requested discount. Pure: no I/O, no mutation of inputs.
//
// Lines cover only products with quantity > 0 and keep the catalog order of
// the products slice. An absent quantity key means zero. The discount is
// clamped into [0, subtotal] and the total is subtotal minus the clamped
// discount, so it never goes negative.
func Price(products []product.Product, quantities map[string]int, discount decimal.Decimal) (Quote, error) {
	q := Quote{
		Subtotal: decimal.Zero,
		Discount: decimal.Zero,
		Total:    decimal.Zero,
	}

	for _, p := range products {
		qty := quantities[p.ID]
		if qty < 0 {
			return Quote{}, errors.Wrapf(ErrNegativeQuantity, "product %s", p.ID)
		}
		if p.Price.IsNegative() {
			return Quote{}, errors.Wrapf(ErrNegativePrice, "product %s", p.ID)
		}
		if qty == 0 {
			continue
		}

		lineTotal := p.Price.Mul(decimal.NewFromInt(int64(qty)))
		q.Lines = append(q.Lines, QuoteLine{
			Product:   p,
			Quantity:  qty,
			LineTotal: lineTotal,
		})
		q.Subtotal = q.Subtotal.Add(lineTotal)
	}

	effective := discount
	if effective.IsNegative() {
		effective = decimal.Zero
	}
	if effective.GreaterThan(q.Subtotal) {
		effective = q.Subtotal
	}

	q.Discount = effective.Round(2)
	q.Subtotal = q.Subtotal.Round(2)
	q.Total = q.Subtotal.Sub(q.Discount)

	return q, nil
}
