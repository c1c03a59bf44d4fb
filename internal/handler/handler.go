// Package handler exposes the HTTP surface: the public catalog and order
// submission endpoints, and the session-guarded admin review endpoints.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/dairydesk/milk-orders/internal/domain/auth"
	"github.com/dairydesk/milk-orders/internal/domain/order"
	"github.com/dairydesk/milk-orders/internal/domain/product"
)

// Handler holds the domain services behind the HTTP routes.
type Handler struct {
	products  product.Repository
	submitter *order.Service
	review    *order.ReviewService
	auth      *auth.Service
}

// New constructs a Handler with the required domain dependencies.
func New(
	products product.Repository,
	submitter *order.Service,
	review *order.ReviewService,
	authSvc *auth.Service,
) *Handler {
	return &Handler{
		products:  products,
		submitter: submitter,
		review:    review,
		auth:      authSvc,
	}
}

// Routes builds the API router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/products", h.listProducts)
	r.Post("/orders", h.submitOrder)

	r.Route("/admin", func(r chi.Router) {
		r.Post("/login", h.login)
		r.Group(func(r chi.Router) {
			r.Use(h.requireSession)
			r.Post("/logout", h.logout)
			r.Get("/orders", h.listOrders)
		})
	})

	return r
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zctx.From(r.Context()).Error("encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	respondJSON(w, r, status, errorResponse{Code: status, Message: msg})
}
