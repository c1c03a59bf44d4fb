// Command field-client collects one order from the command line and submits
// it to a running API server: it fetches the catalog, prices the selection
// locally to show a summary, acquires the shop location from the positioning
// gateway, and posts the order.
//
// Usage:
//
//	field-client -server http://localhost:8080 -gateway http://localhost:9090 \
//	    -item milk=4 -item chocolate=2 -discount 50
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dairydesk/milk-orders/internal/domain/location"
	"github.com/dairydesk/milk-orders/internal/domain/order"
	"github.com/dairydesk/milk-orders/internal/domain/product"
	"github.com/dairydesk/milk-orders/internal/geofix"
)

type itemFlags map[string]int

func (f itemFlags) String() string {
	parts := make([]string, 0, len(f))
	for id, qty := range f {
		parts = append(parts, fmt.Sprintf("%s=%d", id, qty))
	}
	return strings.Join(parts, ",")
}

func (f itemFlags) Set(v string) error {
	id, qtyStr, ok := strings.Cut(v, "=")
	if !ok {
		return errors.Errorf("expected product=quantity, got %q", v)
	}
	qty, err := strconv.Atoi(qtyStr)
	if err != nil {
		return errors.Wrapf(err, "quantity for %s", id)
	}
	f[id] = qty
	return nil
}

func main() {
	var (
		serverURL  string
		gatewayURL string
		discount   string
		items      = make(itemFlags)
	)

	flag.StringVar(&serverURL, "server", "http://localhost:8080", "API server base URL")
	flag.StringVar(&gatewayURL, "gateway", "http://localhost:9090", "positioning gateway base URL")
	flag.StringVar(&discount, "discount", "0", "discount amount")
	flag.Var(items, "item", "product=quantity, repeatable")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, serverURL, gatewayURL, discount, items); err != nil {
		slog.Error("order not submitted", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, serverURL, gatewayURL, discountStr string, items itemFlags) error {
	discount, err := decimal.NewFromString(discountStr)
	if err != nil {
		return errors.Wrap(err, "parse discount")
	}

	httpc := &http.Client{Timeout: 30 * time.Second}

	catalog, err := fetchCatalog(ctx, httpc, serverURL)
	if err != nil {
		return errors.Wrap(err, "fetch catalog")
	}

	cart := order.NewCart()
	for id, qty := range items {
		cart.SetQuantity(id, qty)
	}
	cart.SetDiscount(discount)
	if cart.TotalQuantity() == 0 {
		return order.ErrNoItems
	}

	// Local quote for the on-screen summary; the server reprices on submit.
	quote, err := order.Price(catalog, cartQuantities(cart, catalog), discount)
	if err != nil {
		return errors.Wrap(err, "price order")
	}
	for _, l := range quote.Lines {
		fmt.Printf("%-20s %3d x %8s = %8s\n", l.Product.Name, l.Quantity, l.Product.Price, l.LineTotal)
	}
	fmt.Printf("%-20s %25s\n", "Discount", quote.Discount.Neg())
	fmt.Printf("%-20s %25s\n", "Total", quote.Total)

	slog.Info("acquiring location")
	acquirer := geofix.New(gatewayURL, location.DefaultOptions(), zap.NewNop())
	loc, err := acquirer.Acquire(ctx)
	if err != nil {
		return errors.Wrap(err, location.Reason(err))
	}
	slog.Info("location captured", slog.String("address", loc.Address))

	id, err := submit(ctx, httpc, serverURL, items, discount, loc)
	if err != nil {
		return err
	}
	slog.Info("order submitted", slog.String("id", id))
	return nil
}

func fetchCatalog(ctx context.Context, httpc *http.Client, serverURL string) ([]product.Product, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, serverURL+"/api/products", nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("catalog request failed with status %d", resp.StatusCode)
	}

	var rows []struct {
		ID    string          `json:"id"`
		Name  string          `json:"name"`
		Price decimal.Decimal `json:"price"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, err
	}

	catalog := make([]product.Product, 0, len(rows))
	for _, row := range rows {
		p, err := product.New(row.ID, row.Name, row.Price)
		if err != nil {
			return nil, err
		}
		catalog = append(catalog, p)
	}
	return catalog, nil
}

func cartQuantities(cart *order.Cart, catalog []product.Product) map[string]int {
	quantities := make(map[string]int, len(catalog))
	for _, p := range catalog {
		if qty := cart.Quantity(p.ID); qty > 0 {
			quantities[p.ID] = qty
		}
	}
	return quantities
}

func submit(ctx context.Context, httpc *http.Client, serverURL string, items itemFlags, discount decimal.Decimal, loc location.Captured) (string, error) {
	type reqItem struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	}
	body := struct {
		Items    []reqItem       `json:"items"`
		Discount decimal.Decimal `json:"discount"`
		Location struct {
			Lat     float64 `json:"lat"`
			Lng     float64 `json:"lng"`
			Address string  `json:"address"`
		} `json:"location"`
	}{Discount: discount}
	for id, qty := range items {
		body.Items = append(body.Items, reqItem{ProductID: id, Quantity: qty})
	}
	body.Location.Lat = loc.Lat
	body.Location.Lng = loc.Lng
	body.Location.Address = loc.Address

	payload, err := json.Marshal(body)
	if err != nil {
		return "", errors.Wrap(err, "encode order")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serverURL+"/api/orders", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpc.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "submit order")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", errors.Errorf("submission failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", errors.Wrap(err, "decode response")
	}
	return created.ID, nil
}
