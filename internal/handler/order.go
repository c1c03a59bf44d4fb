package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dairydesk/milk-orders/internal/domain/location"
	"github.com/dairydesk/milk-orders/internal/domain/order"
)

type submitOrderRequest struct {
	Items    []submitOrderItem    `json:"items"`
	Discount decimal.Decimal      `json:"discount"`
	Location *submitOrderLocation `json:"location"`
}

type submitOrderItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type submitOrderLocation struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address"`
}

type orderResponse struct {
	ID             string             `json:"id"`
	Location       locationResponse   `json:"location"`
	TotalAmount    decimal.Decimal    `json:"totalAmount"`
	TotalQuantity  int                `json:"totalQuantity"`
	DiscountAmount decimal.Decimal    `json:"discountAmount"`
	CreatedAt      time.Time          `json:"createdAt"`
	Items          []lineItemResponse `json:"items"`
}

type locationResponse struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address"`
}

type lineItemResponse struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

func (h *Handler) submitOrder(w http.ResponseWriter, r *http.Request) {
	var req submitOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, "malformed request body")
		return
	}

	cart := order.NewCart()
	for _, item := range req.Items {
		// Negative quantities are clamped to zero, not rejected.
		cart.SetQuantity(item.ProductID, item.Quantity)
	}
	cart.SetDiscount(req.Discount)

	if req.Location != nil {
		loc, err := location.New(req.Location.Lat, req.Location.Lng, req.Location.Address)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		cart.SetLocation(loc)
	}

	o, err := h.submitter.Submit(r.Context(), cart)
	if err != nil {
		h.mapSubmitError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusCreated, toOrderResponse(*o))
}

func (h *Handler) mapSubmitError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, order.ErrNoItems), errors.Is(err, order.ErrLocationRequired):
		respondError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrSubmissionInFlight):
		respondError(w, r, http.StatusConflict, err.Error())
	default:
		var unknown *order.UnknownProductError
		if errors.As(err, &unknown) {
			respondError(w, r, http.StatusUnprocessableEntity, unknown.Error())
			return
		}
		// Persistence and pricing internals are logged, not leaked.
		zctx.From(r.Context()).Error("submit order", zap.Error(err))
		respondError(w, r, http.StatusInternalServerError, "order submission failed, please try again")
	}
}

func toOrderResponse(o order.Order) orderResponse {
	items := make([]lineItemResponse, len(o.Lines))
	for i, l := range o.Lines {
		items[i] = lineItemResponse{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			Subtotal:    l.Subtotal,
		}
	}
	return orderResponse{
		ID: o.ID,
		Location: locationResponse{
			Lat:     o.Location.Lat,
			Lng:     o.Location.Lng,
			Address: o.Location.Address,
		},
		TotalAmount:    o.TotalAmount,
		TotalQuantity:  o.TotalQuantity,
		DiscountAmount: o.DiscountAmount,
		CreatedAt:      o.CreatedAt,
		Items:          items,
	}
}
