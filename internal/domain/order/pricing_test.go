package order

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dairydesk/milk-orders/internal/domain/product"
)

func dairyCatalog() []product.Product {
	return []product.Product{
		{ID: "milk", Name: "Regular Milk", Price: decimal.NewFromInt(25)},
		{ID: "choc", Name: "Chocolate Milk", Price: decimal.NewFromInt(30)},
	}
}

func TestPrice_NoDiscount(t *testing.T) {
	quote, err := Price(dairyCatalog(), map[string]int{"milk": 4, "choc": 2}, decimal.Zero)
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(160).Equal(quote.Subtotal))
	assert.True(t, decimal.Zero.Equal(quote.Discount))
	assert.True(t, decimal.NewFromInt(160).Equal(quote.Total))
}

func TestPrice_PartialDiscount(t *testing.T) {
	quote, err := Price(dairyCatalog(), map[string]int{"milk": 4, "choc": 2}, decimal.NewFromInt(50))
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(50).Equal(quote.Discount))
	assert.True(t, decimal.NewFromInt(110).Equal(quote.Total))
}

func TestPrice_DiscountClampedToSubtotal(t *testing.T) {
	quote, err := Price(dairyCatalog(), map[string]int{"milk": 4, "choc": 2}, decimal.NewFromInt(500))
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(160).Equal(quote.Discount))
	assert.True(t, decimal.Zero.Equal(quote.Total))
}

func TestPrice_NegativeDiscountClampedToZero(t *testing.T) {
	quote, err := Price(dairyCatalog(), map[string]int{"milk": 1}, decimal.NewFromInt(-10))
	require.NoError(t, err)

	assert.True(t, decimal.Zero.Equal(quote.Discount))
	assert.True(t, decimal.NewFromInt(25).Equal(quote.Total))
}

func TestPrice_DiscountEqualsSubtotal(t *testing.T) {
	quote, err := Price(dairyCatalog(), map[string]int{"milk": 4, "choc": 2}, decimal.NewFromInt(160))
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(160).Equal(quote.Discount))
	assert.True(t, decimal.Zero.Equal(quote.Total))
}

func TestPrice_SkipsZeroQuantities(t *testing.T) {
	quote, err := Price(dairyCatalog(), map[string]int{"milk": 3}, decimal.Zero)
	require.NoError(t, err)

	require.Len(t, quote.Lines, 1)
	assert.Equal(t, "milk", quote.Lines[0].Product.ID)
	assert.True(t, decimal.NewFromInt(75).Equal(quote.Total))
}

func TestPrice_KeepsCatalogOrder(t *testing.T) {
	quote, err := Price(dairyCatalog(), map[string]int{"choc": 1, "milk": 1}, decimal.Zero)
	require.NoError(t, err)

	require.Len(t, quote.Lines, 2)
	assert.Equal(t, "milk", quote.Lines[0].Product.ID)
	assert.Equal(t, "choc", quote.Lines[1].Product.ID)
}

func TestPrice_EmptySelection(t *testing.T) {
	quote, err := Price(dairyCatalog(), map[string]int{}, decimal.NewFromInt(100))
	require.NoError(t, err)

	assert.Empty(t, quote.Lines)
	assert.True(t, decimal.Zero.Equal(quote.Subtotal))
	assert.True(t, decimal.Zero.Equal(quote.Discount))
	assert.True(t, decimal.Zero.Equal(quote.Total))
}

func TestPrice_NegativeQuantityRejected(t *testing.T) {
	_, err := Price(dairyCatalog(), map[string]int{"milk": -1}, decimal.Zero)
	require.ErrorIs(t, err, ErrNegativeQuantity)
}

func TestPrice_NegativePriceRejected(t *testing.T) {
	catalog := []product.Product{
		{ID: "broken", Name: "Broken", Price: decimal.NewFromInt(-5)},
	}
	_, err := Price(catalog, map[string]int{"broken": 1}, decimal.Zero)
	require.ErrorIs(t, err, ErrNegativePrice)
}

func TestPrice_ExactDecimalArithmetic(t *testing.T) {
	catalog := []product.Product{
		{ID: "p", Name: "P", Price: decimal.RequireFromString("0.10")},
	}
	quote, err := Price(catalog, map[string]int{"p": 3}, decimal.Zero)
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("0.30").Equal(quote.Total), "got %s", quote.Total)
}
